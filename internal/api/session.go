package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"cicerone/pkg/guide"
	"cicerone/pkg/model"
)

// SessionHandler exposes the session lifecycle and the live state view.
type SessionHandler struct {
	guide *guide.Controller
}

func NewSessionHandler(g *guide.Controller) *SessionHandler {
	return &SessionHandler{guide: g}
}

// StateResponse is the full client-facing state snapshot.
type StateResponse struct {
	Session          model.Session `json:"session"`
	Position         *model.GeoPoint `json:"position,omitempty"`
	HeadingDeg       *float64      `json:"headingDeg,omitempty"`
	HeadingUnit      *float64      `json:"headingUnit,omitempty"`
	Pins             []model.Pin   `json:"pins"`
	SpotlightIndex   *int          `json:"spotlightIndex,omitempty"`
	AwaitingNext     bool          `json:"awaitingNext"`
	NarrationPending int           `json:"narrationPending"`
}

func (h *SessionHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User   string `json:"user"`
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.guide.Start(r.Context(), req.User, req.Prompt)
	if err != nil {
		slog.Warn("API: Session start failed", "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, session)
}

func (h *SessionHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	session, err := h.guide.End(r.Context())
	if err != nil {
		slog.Warn("API: Session end failed", "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, session)
}

func (h *SessionHandler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.guide.Dismiss())
}

func (h *SessionHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.buildState())
}

func (h *SessionHandler) buildState() StateResponse {
	est := h.guide.Estimate()
	resp := StateResponse{
		Session:          h.guide.Session(),
		Pins:             h.guide.Pins(),
		AwaitingNext:     h.guide.AwaitingNext(),
		NarrationPending: h.guide.NarrationPending(),
	}
	if resp.Pins == nil {
		resp.Pins = []model.Pin{}
	}
	if est.HasPosition {
		resp.Position = &model.GeoPoint{Lat: est.Position.Lat, Lng: est.Position.Lng}
	}
	if est.HasHeading {
		deg := est.HeadingDeg
		unit := est.HeadingUnit
		resp.HeadingDeg = &deg
		resp.HeadingUnit = &unit
	}
	if idx, ok := h.guide.Spotlight(); ok {
		resp.SpotlightIndex = &idx
	}
	return resp
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
