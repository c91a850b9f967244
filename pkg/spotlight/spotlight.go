// Package spotlight tracks which pin is currently featured. The
// spotlight walks the pin list in order, advancing when a narration
// finishes and parking at the end until more pins arrive.
package spotlight

import (
	"log/slog"
	"sync"
)

// Machine is the spotlight state machine. The zero index state means no
// pin is featured yet.
type Machine struct {
	mu           sync.Mutex
	index        int
	hasIndex     bool
	awaitingNext bool
	onChange     func(index int)
}

// New creates a spotlight machine. onChange fires whenever the
// spotlight lands on a new pin, outside the lock.
func New(onChange func(index int)) *Machine {
	return &Machine{onChange: onChange}
}

// Reset returns the machine to the unlit state.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index = 0
	m.hasIndex = false
	m.awaitingNext = false
}

// Current returns the spotlighted index, ok=false when nothing is lit.
func (m *Machine) Current() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index, m.hasIndex
}

// AwaitingNext reports whether the spotlight is parked at the end of
// the list waiting for more pins.
func (m *Machine) AwaitingNext() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.awaitingNext
}

// PinsAdded advances the machine after the pin list grew to total. The
// first pins light index 0; a parked spotlight resumes on the next pin.
func (m *Machine) PinsAdded(total int) {
	m.mu.Lock()
	fire, fireOK := -1, false
	switch {
	case !m.hasIndex && total > 0:
		m.index = 0
		m.hasIndex = true
		fire, fireOK = 0, true
	case m.awaitingNext && m.index+1 < total:
		m.index++
		m.awaitingNext = false
		fire, fireOK = m.index, true
	}
	cb := m.onChange
	m.mu.Unlock()

	if fireOK {
		slog.Debug("Spotlight: Advanced", "index", fire, "total", total)
		if cb != nil {
			cb(fire)
		}
	}
}

// NarrationComplete moves the spotlight after the narration for
// completed finished. Completions for any other index are stale echoes
// of a cancelled or superseded narration and are ignored.
func (m *Machine) NarrationComplete(completed, total int) {
	m.mu.Lock()
	if !m.hasIndex || completed != m.index {
		m.mu.Unlock()
		slog.Debug("Spotlight: Stale completion ignored", "completed", completed)
		return
	}

	fire, fireOK := -1, false
	if m.index+1 < total {
		m.index++
		fire, fireOK = m.index, true
	} else {
		m.awaitingNext = true
	}
	cb := m.onChange
	m.mu.Unlock()

	if fireOK {
		slog.Debug("Spotlight: Advanced", "index", fire, "total", total)
		if cb != nil {
			cb(fire)
		}
	}
}
