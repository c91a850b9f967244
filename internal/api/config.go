package api

import (
	"net/http"
)

// ConfigHandler exposes the slices of configuration the phone page
// needs.
type ConfigHandler struct {
	mapsKey string
}

func NewConfigHandler(mapsKey string) *ConfigHandler {
	return &ConfigHandler{mapsKey: mapsKey}
}

// HandleMapsKey returns the map tiles key. Without one the map layer
// degrades to the pin list, signalled by a 404.
func (h *ConfigHandler) HandleMapsKey(w http.ResponseWriter, r *http.Request) {
	if h.mapsKey == "" {
		http.Error(w, "maps key not configured", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"key": h.mapsKey})
}
