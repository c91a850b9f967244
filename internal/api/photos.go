package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"cicerone/pkg/guide"
)

// PhotoHandler relays photo captures to the backend.
type PhotoHandler struct {
	guide *guide.Controller
}

func NewPhotoHandler(g *guide.Controller) *PhotoHandler {
	return &PhotoHandler{guide: g}
}

func (h *PhotoHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlaceID   string `json:"placeId"`
		PhotoData string `json:"photoData"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PlaceID == "" || req.PhotoData == "" {
		http.Error(w, "placeId and photoData are required", http.StatusBadRequest)
		return
	}

	if err := h.guide.UploadPhoto(r.Context(), req.PlaceID, req.PhotoData); err != nil {
		slog.Warn("API: Photo upload failed", "placeId", req.PlaceID, "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
