package api

import (
	"log/slog"
	"net/http"

	"cicerone/pkg/guide"
	"cicerone/pkg/model"
)

// TripHandler serves the compiled trip recap for the last ended
// session.
type TripHandler struct {
	guide *guide.Controller
}

func NewTripHandler(g *guide.Controller) *TripHandler {
	return &TripHandler{guide: g}
}

// RecapResponse wraps the trip record with the bounding box framing all
// visited places, [west, south, east, north].
type RecapResponse struct {
	Trip   *model.TripRecord `json:"trip"`
	Bounds *[4]float64       `json:"bounds,omitempty"`
}

func (h *TripHandler) HandleRecap(w http.ResponseWriter, r *http.Request) {
	rec, err := h.guide.TripRecap(r.Context())
	if err != nil {
		slog.Warn("API: Trip recap failed", "error", err)
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	resp := RecapResponse{Trip: rec}
	if bound, ok := guide.RecapBound(rec); ok {
		resp.Bounds = &[4]float64{bound.Min[0], bound.Min[1], bound.Max[0], bound.Max[1]}
	}
	writeJSON(w, resp)
}
