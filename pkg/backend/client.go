// Package backend talks to the tour backend through its generic proxy
// route. Every logical operation is one envelope {method, route, payload}
// POSTed to the proxy URL; the proxy forwards the payload as a JSON body
// to the backend and returns the raw response.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"cicerone/pkg/model"
	"cicerone/pkg/tracker"
)

const provider = "backend"

// Backend routes, forwarded verbatim by the proxy.
const (
	routeStart    = "/v1/app/session/start"
	routeStop     = "/v1/app/session/stop"
	routeTracking = "/v1/app/session/tracking"
	routeUpload   = "/v1/app/session/upload_photo"
	routeCompiled = "/v1/app/session/compiled"
)

// envelope is the proxy request body.
type envelope struct {
	Method  string `json:"method"`
	Route   string `json:"route"`
	Payload any    `json:"payload"`
}

// Client performs backend operations through the proxy with retry on
// transient failures.
type Client struct {
	httpClient *http.Client
	proxyURL   string
	tracker    *tracker.Tracker
	retries    int
	baseDelay  time.Duration
}

// New creates a backend client for the given proxy URL.
func New(proxyURL string, timeout time.Duration, retries int, baseDelay time.Duration, t *tracker.Tracker) *Client {
	if retries < 1 {
		retries = 1
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		proxyURL:   proxyURL,
		tracker:    t,
		retries:    retries,
		baseDelay:  baseDelay,
	}
}

// StartResult is the backend's session start confirmation.
type StartResult struct {
	SessionID string `json:"sessionId"`
	StartedAt int64  `json:"startedAt"`
}

// StartSession requests a new session for the given user.
func (c *Client) StartSession(ctx context.Context, user string) (*StartResult, error) {
	var res StartResult
	payload := map[string]any{"user": user}
	if err := c.do(ctx, http.MethodPost, routeStart, payload, &res); err != nil {
		return nil, fmt.Errorf("session start: %w", err)
	}
	if res.SessionID == "" {
		return nil, fmt.Errorf("session start: backend returned empty sessionId")
	}
	return &res, nil
}

// StopSession requests termination of the given session.
func (c *Client) StopSession(ctx context.Context, sessionID string) error {
	var res struct {
		SessionID string `json:"sessionId"`
	}
	payload := map[string]any{"sessionId": sessionID}
	if err := c.do(ctx, http.MethodPost, routeStop, payload, &res); err != nil {
		return fmt.Errorf("session stop: %w", err)
	}
	return nil
}

// TrackPins polls the backend for newly discovered pins around the fused
// position estimate.
func (c *Client) TrackPins(ctx context.Context, q model.TrackQuery) ([]model.Pin, error) {
	location := map[string]any{}
	if q.Position != nil {
		location["lat"] = q.Position.Lat
		location["lon"] = q.Position.Lng
	}
	direction := 0.0
	if q.HasHeading {
		direction = q.HeadingUnit
	}
	payload := map[string]any{
		"sessionId": q.SessionID,
		"prompt":    q.Prompt,
		"location":  location,
		"direction": direction,
	}

	var res struct {
		Narrated []model.Pin `json:"narrated"`
	}
	if err := c.do(ctx, http.MethodPost, routeTracking, payload, &res); err != nil {
		return nil, fmt.Errorf("tracking poll: %w", err)
	}
	return res.Narrated, nil
}

// UploadPhoto relays a captured photo (base64 data URL) to the backend.
func (c *Client) UploadPhoto(ctx context.Context, sessionID, placeID, photoData string) error {
	payload := map[string]any{
		"sessionId": sessionID,
		"placeId":   placeID,
		"photoData": photoData,
	}
	if err := c.do(ctx, http.MethodPost, routeUpload, payload, nil); err != nil {
		return fmt.Errorf("photo upload: %w", err)
	}
	return nil
}

// CompiledTrip fetches the full trip record for an ended session.
func (c *Client) CompiledTrip(ctx context.Context, sessionID string) (*model.TripRecord, error) {
	var rec model.TripRecord
	payload := map[string]any{"sessionId": sessionID}
	if err := c.do(ctx, http.MethodPost, routeCompiled, payload, &rec); err != nil {
		return nil, fmt.Errorf("trip recap: %w", err)
	}
	return &rec, nil
}

// do sends one proxy envelope and decodes the JSON response into out
// (skipped when out is nil). Retries with exponential backoff on network
// errors, 429, and 5xx.
func (c *Client) do(ctx context.Context, method, route string, payload, out any) error {
	body, err := json.Marshal(envelope{Method: method, Route: route, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	c.tracker.TrackRequest(provider)
	respBody, err := c.executeWithBackoff(ctx, body, route)
	if err != nil {
		c.tracker.TrackFailure(provider)
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		c.tracker.TrackFailure(provider)
		return fmt.Errorf("decode response for %s: %w", route, err)
	}
	return nil
}

func (c *Client) executeWithBackoff(ctx context.Context, body []byte, route string) ([]byte, error) {
	for attempt := 0; attempt < c.retries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.proxyURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		slog.Debug("Backend: Request", "route", route, "attempt", attempt+1)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("Backend: Request failed, retrying", "route", route, "attempt", attempt+1, "error", err)
			if err := c.sleep(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode < 600) {
			resp.Body.Close()
			slog.Warn("Backend: Backoff", "status", resp.StatusCode, "route", route, "attempt", attempt+1)
			if err := c.sleep(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode >= 400 {
			defer resp.Body.Close()
			return nil, parseErrorBody(resp)
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return respBody, nil
	}

	return nil, fmt.Errorf("max retries exceeded for %s", route)
}

func (c *Client) sleep(ctx context.Context, attempt int) error {
	delay := time.Duration(math.Pow(2, float64(attempt))) * c.baseDelay
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// parseErrorBody extracts the backend's {message} error shape when present.
func parseErrorBody(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var errBody struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &errBody) == nil && errBody.Message != "" {
		return fmt.Errorf("backend error: status %d: %s", resp.StatusCode, errBody.Message)
	}
	return fmt.Errorf("backend error: status %d", resp.StatusCode)
}
