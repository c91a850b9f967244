// Package fusion merges raw location and compass samples into a single
// position and heading estimate for the pin feed and narration.
package fusion

import (
	"math"
	"sync"

	"cicerone/pkg/config"
	"cicerone/pkg/geo"
)

// Sample is one raw location fix. Heading and Speed are NaN when the
// source did not report them.
type Sample struct {
	Lat     float64
	Lng     float64
	Heading float64
	Speed   float64
}

// Estimate is the fused view of where the user is and which way they
// face. HeadingUnit is the heading normalized to [0, 1) turns.
type Estimate struct {
	Position    geo.Point
	HasPosition bool
	HeadingDeg  float64
	HeadingUnit float64
	HasHeading  bool
}

// Engine fuses location and device orientation streams.
//
// Heading precedence per update:
//  1. the fix's own heading, when finite and moving faster than MinSpeed
//  2. the bearing from the previous raw fix, when this fix moved more
//     than MovementThresholdM and no compass has ever reported
//  3. the most recent compass heading, kept as a standing fallback
type Engine struct {
	mu  sync.RWMutex
	cfg config.FusionConfig

	pos    geo.Point
	hasPos bool

	prevRaw    geo.Point
	hasPrevRaw bool

	headingDeg      float64
	hasHeading      bool
	orientationSeen bool

	onChange      func(Estimate)
	lastPublished Estimate
	published     bool
}

// New creates a fusion engine. onChange, when non-nil, is invoked after
// every update that changes the estimate, outside the engine lock.
func New(cfg config.FusionConfig, onChange func(Estimate)) *Engine {
	return &Engine{cfg: cfg, onChange: onChange}
}

// UpdateLocation folds one location fix into the estimate.
func (e *Engine) UpdateLocation(s Sample) {
	e.mu.Lock()

	next := geo.Point{Lat: s.Lat, Lng: s.Lng}
	moved := math.MaxFloat64
	if e.hasPrevRaw {
		moved = geo.Distance(e.prevRaw, next)
	}

	switch {
	case isFinite(s.Heading) && isFinite(s.Speed) && s.Speed > e.cfg.MinSpeed:
		e.headingDeg = geo.NormalizeDegrees(s.Heading)
		e.hasHeading = true
	case e.hasPrevRaw && moved > e.cfg.MovementThresholdM && !e.orientationSeen:
		e.headingDeg = geo.Bearing(e.prevRaw, next)
		e.hasHeading = true
	}

	// Every fix becomes the next comparison point, so a stationary user
	// drifting in sub-threshold steps never accumulates into a bearing.
	e.prevRaw = next
	e.hasPrevRaw = true

	e.pos = next
	e.hasPos = true
	e.publishLocked()
}

// UpdateOrientation folds one compass sample (degrees) into the
// estimate. Once a compass reports, movement-derived bearings are
// suppressed for the rest of the session.
func (e *Engine) UpdateOrientation(alpha float64) {
	e.mu.Lock()
	e.orientationSeen = true
	e.headingDeg = geo.NormalizeDegrees(alpha)
	e.hasHeading = true
	e.publishLocked()
}

// Snapshot returns the current estimate.
func (e *Engine) Snapshot() Estimate {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.estimateLocked()
}

// Reset clears all fused state, typically at session end.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pos = geo.Point{}
	e.hasPos = false
	e.prevRaw = geo.Point{}
	e.hasPrevRaw = false
	e.headingDeg = 0
	e.hasHeading = false
	e.orientationSeen = false
	e.published = false
}

func (e *Engine) estimateLocked() Estimate {
	return Estimate{
		Position:    e.pos,
		HasPosition: e.hasPos,
		HeadingDeg:  e.headingDeg,
		HeadingUnit: geo.NormalizeHeadingUnit(e.headingDeg),
		HasHeading:  e.hasHeading,
	}
}

// publishLocked releases the lock and fires onChange when the estimate
// moved. Callers must hold the lock; it is released here.
func (e *Engine) publishLocked() {
	est := e.estimateLocked()
	changed := !e.published || est != e.lastPublished
	if changed {
		e.lastPublished = est
		e.published = true
	}
	cb := e.onChange
	e.mu.Unlock()

	if changed && cb != nil {
		cb(est)
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
