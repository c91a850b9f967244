package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cicerone/pkg/tracker"
	"cicerone/pkg/tts"
)

func TestSynthesize_RequestShape(t *testing.T) {
	clip := bytes.Repeat([]byte{0xFF}, 2048)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/text-to-speech/voice-1/stream" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "key-1" {
			t.Errorf("missing api key header")
		}
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["model_id"] != "eleven_multilingual_v2" {
			t.Errorf("unexpected model: %v", payload["model_id"])
		}
		vs := payload["voice_settings"].(map[string]any)
		if vs["stability"].(float64) != 0 || vs["similarity_boost"].(float64) != 1 {
			t.Errorf("unexpected voice settings: %+v", vs)
		}
		if vs["use_speaker_boost"] != true {
			t.Errorf("expected speaker boost enabled")
		}
		w.Write(clip)
	}))
	defer srv.Close()

	p := New("key-1", "voice-1", "eleven_multilingual_v2", tracker.New())
	p.baseURL = srv.URL

	audio, err := p.Synthesize(context.Background(), "University Hall ahead.")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if !bytes.Equal(audio, clip) {
		t.Errorf("audio mismatch: got %d bytes", len(audio))
	}
}

func TestSynthesize_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"detail": map[string]any{"message": "invalid api key"},
		})
	}))
	defer srv.Close()

	tr := tracker.New()
	p := New("bad", "voice-1", "eleven_multilingual_v2", tr)
	p.baseURL = srv.URL

	_, err := p.Synthesize(context.Background(), "hello")
	var apiErr *tts.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if !apiErr.IsAuthError() || apiErr.Message != "invalid api key" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
	if tr.Snapshot()["elevenlabs"].Failures != 1 {
		t.Error("expected tracked failure")
	}
}

func TestSynthesize_TooSmallRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tiny"))
	}))
	defer srv.Close()

	p := New("key", "voice-1", "eleven_multilingual_v2", tracker.New())
	p.baseURL = srv.URL

	if _, err := p.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for undersized clip")
	}
}
