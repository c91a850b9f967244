package tts

import "context"

// Mock is a configurable Provider for tests. Unset function fields fall
// back to benign defaults.
type Mock struct {
	SynthesizeFunc func(ctx context.Context, text string) ([]byte, error)
	CloseFunc      func() error
}

func (m *Mock) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text)
	}
	return []byte("mock-audio:" + text), nil
}

func (m *Mock) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

var _ Provider = (*Mock)(nil)
