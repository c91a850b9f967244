package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cicerone/pkg/backend"
	"cicerone/pkg/config"
	"cicerone/pkg/guide"
	"cicerone/pkg/model"
	"cicerone/pkg/narration"
	"cicerone/pkg/pinfeed"
	"cicerone/pkg/tracker"
	"cicerone/pkg/tts"
)

type stubBackend struct{}

func (stubBackend) StartSession(ctx context.Context, user string) (*backend.StartResult, error) {
	return &backend.StartResult{SessionID: "s1", StartedAt: 1700000000000}, nil
}
func (stubBackend) StopSession(ctx context.Context, sessionID string) error { return nil }
func (stubBackend) UploadPhoto(ctx context.Context, sessionID, placeID, photoData string) error {
	return nil
}
func (stubBackend) CompiledTrip(ctx context.Context, sessionID string) (*model.TripRecord, error) {
	return &model.TripRecord{SessionID: sessionID}, nil
}

type silentPlayer struct{}

func (silentPlayer) Play([]byte) error { return nil }
func (silentPlayer) Stop()             {}
func (silentPlayer) SetVolume(float64) {}
func (silentPlayer) Volume() float64   { return 1 }
func (silentPlayer) IsPlaying() bool   { return false }
func (silentPlayer) Close() error      { return nil }

func newTestGuide() *guide.Controller {
	q := narration.NewQueue(narration.Options{
		Synth:  &tts.Mock{},
		Player: silentPlayer{},
		Voice:  "v1",
		Model:  "m1",
	})
	return guide.New(guide.Options{
		Backend:       stubBackend{},
		Source:        pinfeed.NewMockSource(0),
		Queue:         q,
		FusionConfig:  config.FusionConfig{MovementThresholdM: 3, MinSpeed: 1},
		PollInterval:  time.Hour,
		DefaultPrompt: "test prompt",
	})
}

func TestHandleState_EmptyShape(t *testing.T) {
	g := newTestGuide()
	h := NewSessionHandler(g)

	w := httptest.NewRecorder()
	h.HandleState(w, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	var resp StateResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if resp.Session.Status != model.StatusIdle {
		t.Errorf("expected IDLE, got %+v", resp.Session)
	}
	if resp.Pins == nil || len(resp.Pins) != 0 {
		t.Errorf("pins should encode as an empty array, got %v", resp.Pins)
	}
	if resp.Position != nil || resp.SpotlightIndex != nil {
		t.Errorf("empty state should omit position and spotlight: %+v", resp)
	}
}

func TestSensorEndpointsFeedFusion(t *testing.T) {
	g := newTestGuide()
	sessionH := NewSessionHandler(g)
	h := NewSensorHandler(g, sessionH)

	w := httptest.NewRecorder()
	body := strings.NewReader(`{"lat": 41.8268, "lng": -71.4025, "heading": 90, "speed": 2}`)
	h.HandleLocation(w, httptest.NewRequest(http.MethodPost, "/api/sensors/location", body))
	if w.Code != http.StatusNoContent {
		t.Fatalf("unexpected status %d", w.Code)
	}

	est := g.Estimate()
	if !est.HasPosition || !est.HasHeading || est.HeadingDeg != 90 {
		t.Errorf("location fix did not reach fusion: %+v", est)
	}

	w = httptest.NewRecorder()
	h.HandleOrientation(w, httptest.NewRequest(http.MethodPost, "/api/sensors/orientation", strings.NewReader(`{"alpha": 180}`)))
	if w.Code != http.StatusNoContent {
		t.Fatalf("unexpected status %d", w.Code)
	}
	if got := g.Estimate().HeadingDeg; got != 180 {
		t.Errorf("orientation did not reach fusion, heading %v", got)
	}
}

func TestSensorEndpoint_BadBody(t *testing.T) {
	g := newTestGuide()
	h := NewSensorHandler(g, NewSessionHandler(g))

	w := httptest.NewRecorder()
	h.HandleLocation(w, httptest.NewRequest(http.MethodPost, "/api/sensors/location", strings.NewReader("not json")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	g := newTestGuide()
	h := NewSessionHandler(g)

	w := httptest.NewRecorder()
	h.HandleStart(w, httptest.NewRequest(http.MethodPost, "/api/session/start", strings.NewReader(`{"user":"alice"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("start failed: %d %s", w.Code, w.Body)
	}
	var session model.Session
	json.NewDecoder(w.Body).Decode(&session)
	if session.Status != model.StatusActive || session.SessionID != "s1" {
		t.Fatalf("unexpected session: %+v", session)
	}

	w = httptest.NewRecorder()
	h.HandleEnd(w, httptest.NewRequest(http.MethodPost, "/api/session/end", nil))
	json.NewDecoder(w.Body).Decode(&session)
	if session.Status != model.StatusEnded {
		t.Fatalf("unexpected session after end: %+v", session)
	}

	w = httptest.NewRecorder()
	h.HandleDismiss(w, httptest.NewRequest(http.MethodPost, "/api/session/dismiss", nil))
	json.NewDecoder(w.Body).Decode(&session)
	if session.Status != model.StatusIdle {
		t.Errorf("unexpected session after dismiss: %+v", session)
	}
}

func TestPinsGeoJSON(t *testing.T) {
	g := newTestGuide()
	pinsH := NewPinsHandler(g)

	w := httptest.NewRecorder()
	pinsH.HandleGeoJSON(w, httptest.NewRequest(http.MethodGet, "/api/pins.geojson", nil))

	var fc struct {
		Type     string `json:"type"`
		Features []any  `json:"features"`
	}
	if err := json.NewDecoder(w.Body).Decode(&fc); err != nil {
		t.Fatalf("decode geojson: %v", err)
	}
	if fc.Type != "FeatureCollection" {
		t.Errorf("unexpected type %q", fc.Type)
	}
}

func TestPhotoUpload_Validation(t *testing.T) {
	g := newTestGuide()
	h := NewPhotoHandler(g)

	w := httptest.NewRecorder()
	h.HandleUpload(w, httptest.NewRequest(http.MethodPost, "/api/photos", strings.NewReader(`{"placeId":""}`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing fields, got %d", w.Code)
	}

	// No active session: upstream rejection surfaces as 502
	w = httptest.NewRecorder()
	h.HandleUpload(w, httptest.NewRequest(http.MethodPost, "/api/photos", strings.NewReader(`{"placeId":"p1","photoData":"data:image/jpeg;base64,x"}`)))
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502 without active session, got %d", w.Code)
	}
}

func TestMapsKeyEndpoint(t *testing.T) {
	h := NewConfigHandler("")
	w := httptest.NewRecorder()
	h.HandleMapsKey(w, httptest.NewRequest(http.MethodGet, "/api/config/maps", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 without key, got %d", w.Code)
	}

	h = NewConfigHandler("maps-key-1")
	w = httptest.NewRecorder()
	h.HandleMapsKey(w, httptest.NewRequest(http.MethodGet, "/api/config/maps", nil))
	var resp map[string]string
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["key"] != "maps-key-1" {
		t.Errorf("unexpected key response: %v", resp)
	}
}

func TestStatsEndpoint(t *testing.T) {
	tr := tracker.New()
	tr.TrackRequest("backend")
	tr.TrackCacheHit("cache")
	tr.TrackCacheMiss("cache")

	h := NewStatsHandler(tr)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	var resp StatsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if resp.Providers["backend"].Requests != 1 {
		t.Errorf("unexpected backend stats: %+v", resp.Providers["backend"])
	}
	if resp.Providers["cache"].HitRate != 50 {
		t.Errorf("expected 50%% hit rate, got %+v", resp.Providers["cache"])
	}
}
