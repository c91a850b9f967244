// Package narration serializes spotlight scripts through synthesis and
// playback. Exactly one item is in flight at a time; the rest wait in
// arrival order.
package narration

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cicerone/pkg/audio"
	"cicerone/pkg/cache"
	"cicerone/pkg/tts"
)

// Item is one queued narration.
type Item struct {
	// ID identifies the narration for completion bookkeeping, so a
	// late completion cannot be confused with a newer narration.
	ID   string
	Text string
	// OnComplete fires after the item finishes, played or failed. It
	// never fires for items dropped by CancelAll.
	OnComplete func(id string)
}

// Options configures a Queue.
type Options struct {
	Synth       tts.Provider
	Player      audio.Player
	Cache       cache.Cacher
	Voice       string
	Model       string
	ItemTimeout time.Duration
}

// Queue is a single-flight narration pipeline.
type Queue struct {
	mu         sync.Mutex
	items      []Item
	processing bool
	generation uint64

	synth       tts.Provider
	player      audio.Player
	cache       cache.Cacher
	voice       string
	model       string
	itemTimeout time.Duration
}

// NewQueue creates a narration queue.
func NewQueue(opts Options) *Queue {
	c := opts.Cache
	if c == nil {
		c = cache.NullCache{}
	}
	timeout := opts.ItemTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Queue{
		synth:       opts.Synth,
		player:      opts.Player,
		cache:       c,
		voice:       opts.Voice,
		model:       opts.Model,
		itemTimeout: timeout,
	}
}

// Enqueue appends an item and starts the drain loop if idle.
func (q *Queue) Enqueue(item Item) {
	q.mu.Lock()
	q.items = append(q.items, item)
	if q.processing {
		q.mu.Unlock()
		return
	}
	q.processing = true
	gen := q.generation
	q.mu.Unlock()

	go q.run(gen)
}

// CancelAll stops the current clip and drops every pending item without
// firing their callbacks.
func (q *Queue) CancelAll() {
	q.mu.Lock()
	q.generation++
	dropped := len(q.items)
	q.items = nil
	q.processing = false
	q.mu.Unlock()

	q.player.Stop()
	if dropped > 0 {
		slog.Debug("Narration: Cancelled pending items", "count", dropped)
	}
}

// Pending returns how many items wait behind the one in flight.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Busy returns true while the drain loop is running.
func (q *Queue) Busy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.processing
}

// run drains the queue. A generation bump from CancelAll orphans this
// loop: it exits without touching the processing flag, which CancelAll
// already reset for the next loop.
func (q *Queue) run(gen uint64) {
	for {
		q.mu.Lock()
		if q.generation != gen {
			q.mu.Unlock()
			return
		}
		if len(q.items) == 0 {
			q.processing = false
			q.mu.Unlock()
			return
		}
		item := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		if err := q.playItem(gen, item); err != nil {
			slog.Warn("Narration: Item failed", "id", item.ID, "error", err)
		}

		q.mu.Lock()
		live := q.generation == gen
		q.mu.Unlock()
		if !live {
			return
		}
		if item.OnComplete != nil {
			item.OnComplete(item.ID)
		}
	}
}

// playItem synthesizes (or recalls) the clip and plays it to the end.
// The timeout covers synthesis only; playback runs as long as the clip.
func (q *Queue) playItem(gen uint64, item Item) error {
	key := cache.Key(q.voice, q.model, item.Text)

	clip, hit := q.cache.GetAudio(context.Background(), key)
	if !hit {
		ctx, cancel := context.WithTimeout(context.Background(), q.itemTimeout)
		var err error
		clip, err = q.synth.Synthesize(ctx, item.Text)
		cancel()
		if err != nil {
			return fmt.Errorf("synthesize: %w", err)
		}
		if err := q.cache.SetAudio(context.Background(), key, clip); err != nil {
			slog.Warn("Narration: Cache write failed", "id", item.ID, "error", err)
		}
	}

	// A cancel that landed during synthesis must not reach the speaker
	q.mu.Lock()
	cancelled := q.generation != gen
	q.mu.Unlock()
	if cancelled {
		return nil
	}

	if err := q.player.Play(clip); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	return nil
}
