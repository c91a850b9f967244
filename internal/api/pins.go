package api

import (
	"log/slog"
	"net/http"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"cicerone/pkg/guide"
)

// PinsHandler serves the accumulated pin list as GeoJSON for the map
// layer.
type PinsHandler struct {
	guide *guide.Controller
}

func NewPinsHandler(g *guide.Controller) *PinsHandler {
	return &PinsHandler{guide: g}
}

func (h *PinsHandler) HandleGeoJSON(w http.ResponseWriter, r *http.Request) {
	fc := geojson.NewFeatureCollection()

	spotIdx, spotOK := h.guide.Spotlight()
	for i, pin := range h.guide.Pins() {
		var pt orb.Point
		if pin.Position != nil {
			pt = orb.Point{pin.Position.Lng, pin.Position.Lat}
		}
		f := geojson.NewFeature(pt)
		f.ID = pin.PlaceID
		f.Properties["name"] = pin.Name
		f.Properties["category"] = pin.Category
		f.Properties["index"] = i
		f.Properties["spotlighted"] = spotOK && i == spotIdx
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		slog.Error("Failed to marshal pin collection", "error", err)
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	if _, err := w.Write(data); err != nil {
		slog.Error("Failed to write pin response", "error", err)
	}
}

// HandleRefresh requests an immediate pin poll. The feed's minimum
// spacing still applies, so hammering this endpoint cannot flood the
// backend.
func (h *PinsHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	h.guide.Refresh(r.Context())
	w.WriteHeader(http.StatusAccepted)
}
