// Package pinfeed polls a pin source on an interval and accumulates the
// deduplicated pin list for the active session.
package pinfeed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cicerone/pkg/model"
)

// Source produces pins for a tracking query. pkg/backend and the mock
// feed both implement it.
type Source interface {
	TrackPins(ctx context.Context, q model.TrackQuery) ([]model.Pin, error)
}

// Options configures a Controller.
type Options struct {
	Source Source
	// Query builds the next tracking query. ok=false skips the poll,
	// typically because no position fix exists yet.
	Query func() (q model.TrackQuery, ok bool)
	// OnPins fires after novel pins are appended, outside the lock.
	OnPins     func(novel []model.Pin, total int)
	Interval   time.Duration
	MinSpacing time.Duration
}

// Controller runs the poll loop. Pins seen once are never re-emitted,
// keyed by place ID.
type Controller struct {
	mu       sync.Mutex
	src      Source
	query    func() (model.TrackQuery, bool)
	onPins   func([]model.Pin, int)
	interval time.Duration
	spacing  time.Duration

	seen     map[string]struct{}
	pins     []model.Pin
	lastPoll time.Time
	cancel   context.CancelFunc
	running  bool
}

// New creates a pin feed controller.
func New(opts Options) *Controller {
	return &Controller{
		src:      opts.Source,
		query:    opts.Query,
		onPins:   opts.OnPins,
		interval: opts.Interval,
		spacing:  opts.MinSpacing,
		seen:     make(map[string]struct{}),
	}
}

// Start clears accumulated state and begins polling: one immediate
// fetch, then one per interval until Stop or ctx cancellation.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.seen = make(map[string]struct{})
	c.pins = nil
	c.lastPoll = time.Time{}
	ctx, c.cancel = context.WithCancel(ctx)
	c.running = true
	c.mu.Unlock()

	go c.loop(ctx)
}

// Stop halts the poll loop. Accumulated pins stay readable until the
// next Start.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.running = false
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Running reports whether the poll loop is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Pins returns a copy of the accumulated pin list.
func (c *Controller) Pins() []model.Pin {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Pin, len(c.pins))
	copy(out, c.pins)
	return out
}

// Refresh polls immediately, honoring the minimum spacing between
// polls. A refresh inside the spacing window is a no-op.
func (c *Controller) Refresh(ctx context.Context) {
	c.poll(ctx, false)
}

func (c *Controller) loop(ctx context.Context) {
	c.poll(ctx, true)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.poll(ctx, true)
		}
	}
}

// poll fetches once and folds novel pins into the list. Scheduled polls
// bypass the spacing window; manual refreshes respect it.
func (c *Controller) poll(ctx context.Context, scheduled bool) {
	c.mu.Lock()
	if !scheduled && c.spacing > 0 && !c.lastPoll.IsZero() && time.Since(c.lastPoll) < c.spacing {
		c.mu.Unlock()
		return
	}
	c.lastPoll = time.Now()
	c.mu.Unlock()

	q, ok := c.query()
	if !ok {
		return
	}

	fetched, err := c.src.TrackPins(ctx, q)
	if err != nil {
		// A poll cut short by session teardown is not a failure
		if ctx.Err() != nil {
			return
		}
		slog.Warn("PinFeed: Poll failed", "error", err)
		return
	}
	if ctx.Err() != nil {
		return
	}

	c.mu.Lock()
	var novel []model.Pin
	for _, pin := range fetched {
		if pin.PlaceID == "" {
			continue
		}
		if _, dup := c.seen[pin.PlaceID]; dup {
			continue
		}
		c.seen[pin.PlaceID] = struct{}{}
		c.pins = append(c.pins, pin)
		novel = append(novel, pin)
	}
	total := len(c.pins)
	cb := c.onPins
	c.mu.Unlock()

	if len(novel) > 0 {
		slog.Info("PinFeed: New pins", "novel", len(novel), "total", total)
		if cb != nil {
			cb(novel, total)
		}
	}
}
