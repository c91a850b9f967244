// Package cache stores synthesized narration audio so repeated scripts
// skip the TTS round trip.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"cicerone/pkg/db"
	"cicerone/pkg/tracker"
)

const provider = "cache"

// Cacher defines the audio caching interface.
type Cacher interface {
	GetAudio(ctx context.Context, key string) ([]byte, bool)
	SetAudio(ctx context.Context, key string, audio []byte) error
}

// Key derives the cache key for a synthesis request. Voice and model are
// part of the key so a config change never replays stale audio.
func Key(voice, model, text string) string {
	sum := sha256.Sum256([]byte(voice + "|" + model + "|" + text))
	return hex.EncodeToString(sum[:])
}

// SQLiteCache implements Cacher using pkg/db.
type SQLiteCache struct {
	db      *db.DB
	tracker *tracker.Tracker
}

// NewSQLiteCache creates a new cache.
func NewSQLiteCache(d *db.DB, t *tracker.Tracker) *SQLiteCache {
	return &SQLiteCache{db: d, tracker: t}
}

func (c *SQLiteCache) GetAudio(ctx context.Context, key string) ([]byte, bool) {
	var audio []byte
	err := c.db.QueryRowContext(ctx, "SELECT audio FROM narration_audio WHERE key = ?", key).Scan(&audio)
	if err != nil {
		c.tracker.TrackCacheMiss(provider)
		return nil, false
	}
	c.tracker.TrackCacheHit(provider)
	return audio, true
}

func (c *SQLiteCache) SetAudio(ctx context.Context, key string, audio []byte) error {
	_, err := c.db.ExecContext(ctx,
		"INSERT INTO narration_audio (key, audio) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET audio = excluded.audio",
		key, audio)
	if err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	return nil
}

// NullCache is a Cacher that never hits, for when caching is disabled.
type NullCache struct{}

func (NullCache) GetAudio(ctx context.Context, key string) ([]byte, bool) { return nil, false }
func (NullCache) SetAudio(ctx context.Context, key string, audio []byte) error {
	return nil
}
