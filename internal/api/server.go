package api

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"cicerone/internal/ui"
	"cicerone/pkg/version"
)

// NewServer creates and configures the HTTP server. The phone page is
// served at the root; it forwards sensor readings and session commands
// to these endpoints.
func NewServer(addr string, sessionH *SessionHandler, sensorsH *SensorHandler, pinsH *PinsHandler, photosH *PhotoHandler, tripH *TripHandler, statsH *StatsHandler, cfgH *ConfigHandler, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health Endpoint
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)

	// 2. Session Lifecycle
	mux.HandleFunc("POST /api/session/start", sessionH.HandleStart)
	mux.HandleFunc("POST /api/session/end", sessionH.HandleEnd)
	mux.HandleFunc("POST /api/session/dismiss", sessionH.HandleDismiss)
	mux.HandleFunc("GET /api/state", sessionH.HandleState)

	// 3. Sensor Ingest
	mux.HandleFunc("POST /api/sensors/location", sensorsH.HandleLocation)
	mux.HandleFunc("POST /api/sensors/orientation", sensorsH.HandleOrientation)
	mux.HandleFunc("GET /ws/sensors", sensorsH.HandleWS)

	// 4. Pins
	mux.HandleFunc("GET /api/pins.geojson", pinsH.HandleGeoJSON)
	mux.HandleFunc("POST /api/pins/refresh", pinsH.HandleRefresh)

	// 5. Photos and Trip Recap
	mux.HandleFunc("POST /api/photos", photosH.HandleUpload)
	mux.HandleFunc("GET /api/trip", tripH.HandleRecap)

	// 6. Stats and Config
	mux.Handle("GET /api/stats", statsH)
	mux.HandleFunc("GET /api/config/maps", cfgH.HandleMapsKey)

	// 7. Shutdown Endpoint
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Call shutdown in a goroutine to allow response to flush
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	// 8. Static phone page
	staticFS, err := fs.Sub(ui.StaticFS, "static")
	if err != nil {
		panic(fmt.Sprintf("Failed to subtree static from embedded assets: %v", err))
	}
	mux.Handle("/", http.FileServer(http.FS(staticFS)))

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}
