// Package elevenlabs implements the tts.Provider interface against the
// ElevenLabs streaming synthesis API.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"cicerone/pkg/tracker"
	"cicerone/pkg/tts"
)

const (
	baseURL  = "https://api.elevenlabs.io/v1"
	provider = "elevenlabs"
)

// Provider is an ElevenLabs streaming TTS client.
type Provider struct {
	client  *http.Client
	apiKey  string
	voiceID string
	modelID string
	tracker *tracker.Tracker
	baseURL string
}

// New creates an ElevenLabs provider with the given credentials.
func New(apiKey, voiceID, modelID string, t *tracker.Tracker) *Provider {
	return &Provider{
		client:  &http.Client{Timeout: 60 * time.Second},
		apiKey:  apiKey,
		voiceID: voiceID,
		modelID: modelID,
		tracker: t,
		baseURL: baseURL,
	}
}

// Synthesize requests the streaming endpoint and drains the full clip
// into memory. The narration queue plays clips whole, so buffering here
// keeps the player simple.
func (p *Provider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	url := fmt.Sprintf("%s/text-to-speech/%s/stream", p.baseURL, p.voiceID)

	payload := map[string]any{
		"text":     text,
		"model_id": p.modelID,
		"voice_settings": map[string]any{
			"stability":         0.0,
			"similarity_boost":  1.0,
			"use_speaker_boost": true,
			"speed":             1.0,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("xi-api-key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	p.tracker.TrackRequest(provider)
	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		p.tracker.TrackFailure(provider)
		return nil, fmt.Errorf("synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.tracker.TrackFailure(provider)
		return nil, parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		p.tracker.TrackFailure(provider)
		return nil, fmt.Errorf("read audio stream: %w", err)
	}
	if len(audio) < tts.MinAudioSize {
		p.tracker.TrackFailure(provider)
		return nil, fmt.Errorf("synthesis produced %d bytes, below minimum", len(audio))
	}

	slog.Debug("ElevenLabs: Synthesized",
		"chars", len(text),
		"bytes", len(audio),
		"duration", time.Since(start).Round(time.Millisecond))
	return audio, nil
}

// Health checks API connectivity and key validity.
func (p *Provider) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/user", nil)
	if err != nil {
		return err
	}
	req.Header.Set("xi-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return parseError(resp)
	}
	return nil
}

// Close releases idle connections.
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// parseError extracts the API's {detail: {message}} error shape.
func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Detail struct {
			Message string `json:"message"`
		} `json:"detail"`
	}
	message := string(body)
	if json.Unmarshal(body, &errResp) == nil && errResp.Detail.Message != "" {
		message = errResp.Detail.Message
	}

	return &tts.APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   provider,
	}
}

var _ tts.Provider = (*Provider)(nil)
