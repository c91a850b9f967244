// Package tts defines the interface for text-to-speech engines used by
// the narration queue.
package tts

import (
	"context"
	"fmt"
)

const (
	// MinAudioSize is the minimum size of a synthesized audio clip (1KB).
	// Smaller results are likely failed synthesis attempts.
	MinAudioSize = 1024
)

// Provider defines the interface for Text-To-Speech engines.
type Provider interface {
	// Synthesize generates audio from text and returns the encoded bytes
	// (MP3 unless the provider says otherwise).
	Synthesize(ctx context.Context, text string) ([]byte, error)

	// Close releases any resources held by the provider.
	Close() error
}

// APIError is a synthesis failure with an HTTP status attached.
type APIError struct {
	StatusCode int
	Message    string
	Provider   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsRateLimited reports whether the error is a 429.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsAuthError reports whether the error is a 401 or 403.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}
