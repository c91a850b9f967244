package api

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"cicerone/pkg/fusion"
	"cicerone/pkg/guide"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// LocationRequest is one raw geolocation fix from the phone. Heading
// and Speed are optional; absent values become NaN before fusion.
type LocationRequest struct {
	Lat     float64  `json:"lat"`
	Lng     float64  `json:"lng"`
	Heading *float64 `json:"heading"`
	Speed   *float64 `json:"speed"`
}

// OrientationRequest is one compass sample from the phone.
type OrientationRequest struct {
	Alpha float64 `json:"alpha"`
}

// SensorHandler ingests sensor readings over HTTP or a websocket, and
// pushes state snapshots back to websocket clients when state moves.
type SensorHandler struct {
	guide    *guide.Controller
	sessionH *SessionHandler

	mu      sync.Mutex
	clients map[string]*websocket.Conn
}

func NewSensorHandler(g *guide.Controller, sessionH *SessionHandler) *SensorHandler {
	return &SensorHandler{
		guide:    g,
		sessionH: sessionH,
		clients:  make(map[string]*websocket.Conn),
	}
}

func (h *SensorHandler) HandleLocation(w http.ResponseWriter, r *http.Request) {
	var req LocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.guide.UpdateLocation(req.toSample())
	w.WriteHeader(http.StatusNoContent)
}

func (h *SensorHandler) HandleOrientation(w http.ResponseWriter, r *http.Request) {
	var req OrientationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.guide.UpdateOrientation(req.Alpha)
	w.WriteHeader(http.StatusNoContent)
}

// wsEnvelope is one inbound websocket message.
type wsEnvelope struct {
	Type        string              `json:"type"`
	Location    *LocationRequest    `json:"location,omitempty"`
	Orientation *OrientationRequest `json:"orientation,omitempty"`
}

// HandleWS upgrades to a websocket that carries sensor readings inbound
// and state snapshots outbound.
func (h *SensorHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	id := uuid.New().String()
	h.mu.Lock()
	h.clients[id] = conn
	h.mu.Unlock()
	slog.Debug("API: Sensor client connected", "client", id)

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, id)
			h.mu.Unlock()
			conn.Close()
			slog.Debug("API: Sensor client disconnected", "client", id)
		}()
		for {
			var env wsEnvelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			switch env.Type {
			case "location":
				if env.Location != nil {
					h.guide.UpdateLocation(env.Location.toSample())
				}
			case "orientation":
				if env.Orientation != nil {
					h.guide.UpdateOrientation(env.Orientation.Alpha)
				}
			default:
				slog.Debug("API: Unknown sensor message", "type", env.Type)
			}
		}
	}()
}

// Broadcast pushes the current state snapshot to every connected
// websocket client. Wired as the guide's OnStateChange hook.
func (h *SensorHandler) Broadcast() {
	state := h.sessionH.buildState()

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.clients {
		if err := conn.WriteJSON(state); err != nil {
			slog.Debug("API: Dropping sensor client", "client", id, "error", err)
			conn.Close()
			delete(h.clients, id)
		}
	}
}

func (r LocationRequest) toSample() fusion.Sample {
	s := fusion.Sample{Lat: r.Lat, Lng: r.Lng, Heading: math.NaN(), Speed: math.NaN()}
	if r.Heading != nil {
		s.Heading = *r.Heading
	}
	if r.Speed != nil {
		s.Speed = *r.Speed
	}
	return s
}
