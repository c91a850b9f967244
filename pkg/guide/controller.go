// Package guide is the session lifecycle controller. It owns the
// authoritative session state and wires the fused sensor estimate, pin
// feed, spotlight and narration queue together.
package guide

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"cicerone/pkg/backend"
	"cicerone/pkg/config"
	"cicerone/pkg/fusion"
	"cicerone/pkg/model"
	"cicerone/pkg/narration"
	"cicerone/pkg/pinfeed"
	"cicerone/pkg/spotlight"
)

// Backend is the slice of the proxy client the controller needs.
type Backend interface {
	StartSession(ctx context.Context, user string) (*backend.StartResult, error)
	StopSession(ctx context.Context, sessionID string) error
	UploadPhoto(ctx context.Context, sessionID, placeID, photoData string) error
	CompiledTrip(ctx context.Context, sessionID string) (*model.TripRecord, error)
}

// Options configures a Controller.
type Options struct {
	Backend       Backend
	Source        pinfeed.Source
	Queue         *narration.Queue
	FusionConfig  config.FusionConfig
	PollInterval  time.Duration
	MinSpacing    time.Duration
	DefaultPrompt string
	// OnStateChange fires after any externally visible state moves:
	// session transitions, new pins, spotlight moves, sensor updates.
	OnStateChange func()
}

// Controller drives one tour session at a time.
type Controller struct {
	mu      sync.RWMutex
	session model.Session
	prompt  string
	// lastSpoken blocks double-narration of the same spotlight.
	lastSpoken string

	backend       Backend
	source        pinfeed.Source
	queue         *narration.Queue
	fuse          *fusion.Engine
	feed          *pinfeed.Controller
	spot          *spotlight.Machine
	defaultPrompt string
	onState       func()
}

// New creates a controller in the IDLE state.
func New(opts Options) *Controller {
	c := &Controller{
		session:       model.IdleSession(),
		backend:       opts.Backend,
		source:        opts.Source,
		queue:         opts.Queue,
		defaultPrompt: opts.DefaultPrompt,
		onState:       opts.OnStateChange,
	}

	c.fuse = fusion.New(opts.FusionConfig, func(fusion.Estimate) {
		c.notify()
	})
	c.spot = spotlight.New(c.handleSpotlight)
	c.feed = pinfeed.New(pinfeed.Options{
		Source:     opts.Source,
		Query:      c.feedQuery,
		OnPins:     c.handlePins,
		Interval:   opts.PollInterval,
		MinSpacing: opts.MinSpacing,
	})
	return c
}

// Start requests a session from the backend and, once confirmed,
// resets all per-session state and begins polling. Only valid in IDLE;
// a failed backend call leaves the state untouched.
func (c *Controller) Start(ctx context.Context, user, prompt string) (model.Session, error) {
	c.mu.Lock()
	if c.session.Status != model.StatusIdle {
		status := c.session.Status
		c.mu.Unlock()
		return model.Session{}, fmt.Errorf("cannot start session while %s", status)
	}
	c.mu.Unlock()

	res, err := c.backend.StartSession(ctx, user)
	if err != nil {
		return model.Session{}, fmt.Errorf("start session: %w", err)
	}

	if prompt == "" {
		prompt = c.defaultPrompt
	}

	c.mu.Lock()
	c.session = model.ActiveSession(res.SessionID, res.StartedAt)
	c.prompt = prompt
	c.lastSpoken = ""
	session := c.session
	c.mu.Unlock()

	c.fuse.Reset()
	c.spot.Reset()
	if r, ok := c.source.(interface{ Reset() }); ok {
		r.Reset()
	}
	// The feed outlives the start request, so it runs on its own context
	c.feed.Start(context.Background())

	slog.Info("Guide: Session started", "sessionId", res.SessionID, "user", user)
	c.notify()
	return session, nil
}

// End requests termination from the backend and tears down the feed and
// narration. Outside ACTIVE it is a no-op. A failed backend call keeps
// the session ACTIVE.
func (c *Controller) End(ctx context.Context) (model.Session, error) {
	c.mu.Lock()
	if c.session.Status != model.StatusActive {
		session := c.session
		c.mu.Unlock()
		return session, nil
	}
	sessionID := c.session.SessionID
	c.mu.Unlock()

	if err := c.backend.StopSession(ctx, sessionID); err != nil {
		return model.Session{}, fmt.Errorf("end session: %w", err)
	}

	c.mu.Lock()
	c.session = model.EndedSession(sessionID)
	c.lastSpoken = ""
	session := c.session
	c.mu.Unlock()

	c.feed.Stop()
	c.queue.CancelAll()
	c.spot.Reset()

	slog.Info("Guide: Session ended", "sessionId", sessionID)
	c.notify()
	return session, nil
}

// Dismiss acknowledges an ended session, returning to IDLE.
func (c *Controller) Dismiss() model.Session {
	c.mu.Lock()
	if c.session.Status == model.StatusEnded {
		c.session = model.IdleSession()
	}
	session := c.session
	c.mu.Unlock()

	c.notify()
	return session
}

// Session returns the current session snapshot.
func (c *Controller) Session() model.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// UpdateLocation feeds one raw location fix into the fusion engine.
// Sensors flow regardless of session state so the live view works
// before a tour starts.
func (c *Controller) UpdateLocation(s fusion.Sample) {
	c.fuse.UpdateLocation(s)
}

// UpdateOrientation feeds one compass sample into the fusion engine.
func (c *Controller) UpdateOrientation(alpha float64) {
	c.fuse.UpdateOrientation(alpha)
}

// Estimate returns the current fused position and heading.
func (c *Controller) Estimate() fusion.Estimate {
	return c.fuse.Snapshot()
}

// Pins returns the accumulated pin list for the session.
func (c *Controller) Pins() []model.Pin {
	return c.feed.Pins()
}

// Spotlight returns the featured pin index, ok=false when unlit.
func (c *Controller) Spotlight() (int, bool) {
	return c.spot.Current()
}

// AwaitingNext reports whether narration is parked waiting for pins.
func (c *Controller) AwaitingNext() bool {
	return c.spot.AwaitingNext()
}

// NarrationPending returns the queued-but-unplayed narration count.
func (c *Controller) NarrationPending() int {
	return c.queue.Pending()
}

// Refresh forces an immediate pin poll, bounded by the feed's minimum
// spacing.
func (c *Controller) Refresh(ctx context.Context) {
	c.feed.Refresh(ctx)
}

// UploadPhoto relays a photo capture for a pin. Requires ACTIVE.
func (c *Controller) UploadPhoto(ctx context.Context, placeID, photoData string) error {
	c.mu.RLock()
	active := c.session.Status == model.StatusActive
	sessionID := c.session.SessionID
	c.mu.RUnlock()

	if !active {
		return fmt.Errorf("cannot upload photo without an active session")
	}
	return c.backend.UploadPhoto(ctx, sessionID, placeID, photoData)
}

// TripRecap fetches the compiled trip for the last session. Valid once
// a session has ended and until it is dismissed.
func (c *Controller) TripRecap(ctx context.Context) (*model.TripRecord, error) {
	c.mu.RLock()
	status := c.session.Status
	sessionID := c.session.SessionID
	c.mu.RUnlock()

	if status != model.StatusEnded {
		return nil, fmt.Errorf("no ended session to recap")
	}
	return c.backend.CompiledTrip(ctx, sessionID)
}

// feedQuery builds the tracking query for the next poll. Polling only
// runs while ACTIVE; position is omitted until the first fix arrives.
func (c *Controller) feedQuery() (model.TrackQuery, bool) {
	c.mu.RLock()
	active := c.session.Status == model.StatusActive
	sessionID := c.session.SessionID
	prompt := c.prompt
	c.mu.RUnlock()

	if !active {
		return model.TrackQuery{}, false
	}

	est := c.fuse.Snapshot()
	q := model.TrackQuery{
		SessionID:   sessionID,
		Prompt:      prompt,
		HeadingUnit: est.HeadingUnit,
		HasHeading:  est.HasHeading,
	}
	if est.HasPosition {
		q.Position = &model.GeoPoint{Lat: est.Position.Lat, Lng: est.Position.Lng}
	}
	return q, true
}

func (c *Controller) handlePins(novel []model.Pin, total int) {
	c.spot.PinsAdded(total)
	c.notify()
}

// handleSpotlight narrates the pin the spotlight landed on. The token
// ties the narration to this session, pin and index so that completions
// from a previous session or a superseded spotlight are discarded.
func (c *Controller) handleSpotlight(index int) {
	c.mu.RLock()
	active := c.session.Status == model.StatusActive
	sessionID := c.session.SessionID
	c.mu.RUnlock()
	if !active {
		return
	}

	pins := c.feed.Pins()
	if index < 0 || index >= len(pins) {
		return
	}
	pin := pins[index]

	token := fmt.Sprintf("%s-%s-%d", sessionID, pin.PlaceID, index)
	c.mu.Lock()
	if c.lastSpoken == token {
		c.mu.Unlock()
		return
	}
	c.lastSpoken = token
	c.mu.Unlock()

	text := pin.Script
	if text == "" {
		text = composeScript(pin.Name, c.fuse.Snapshot())
	}

	c.queue.Enqueue(narration.Item{
		ID:   token,
		Text: text,
		OnComplete: func(string) {
			c.handleNarrationDone(sessionID, index)
		},
	})
	c.notify()
}

// handleNarrationDone advances the spotlight, unless the session moved
// on while the audio was still playing.
func (c *Controller) handleNarrationDone(sessionID string, index int) {
	c.mu.RLock()
	live := c.session.Status == model.StatusActive && c.session.SessionID == sessionID
	c.mu.RUnlock()
	if !live {
		return
	}

	c.spot.NarrationComplete(index, len(c.feed.Pins()))
	c.notify()
}

func (c *Controller) notify() {
	if c.onState != nil {
		c.onState()
	}
}

// composeScript builds the fallback spotlight line for pins without a
// pre-written script.
func composeScript(name string, est fusion.Estimate) string {
	lat, lng := "unknown latitude", "unknown longitude"
	if est.HasPosition {
		lat = strconv.FormatFloat(est.Position.Lat, 'f', 3, 64)
		lng = strconv.FormatFloat(est.Position.Lng, 'f', 3, 64)
	}
	heading := "unknown heading"
	if est.HasHeading {
		heading = fmt.Sprintf("%d degrees", int(math.Round(est.HeadingUnit*360)))
	}
	return fmt.Sprintf("Spotlight now on %s. Heading %s. Approximate location latitude %s and longitude %s.", name, heading, lat, lng)
}
