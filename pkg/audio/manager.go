// Package audio provides speaker playback of narration clips.
package audio

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// Player defines the playback interface used by the narration queue.
type Player interface {
	// Play decodes and plays a clip, blocking until it finishes or is
	// stopped. A stopped clip returns nil.
	Play(data []byte) error
	// Stop interrupts the current clip, unblocking Play.
	Stop()
	// SetVolume sets playback volume (0.0 to 1.0).
	SetVolume(vol float64)
	// Volume returns current volume level.
	Volume() float64
	// IsPlaying returns true while a clip is audible.
	IsPlaying() bool
	// Close stops playback and releases the audio device.
	Close() error
}

// clipDone signals completion of one clip exactly once, whether the
// speaker drained it or Stop cleared it.
type clipDone struct {
	ch   chan struct{}
	once sync.Once
}

func newClipDone() *clipDone {
	return &clipDone{ch: make(chan struct{})}
}

func (d *clipDone) close() {
	d.once.Do(func() { close(d.ch) })
}

// Manager implements Player using gopxl/beep.
type Manager struct {
	mu                 sync.RWMutex
	volume             float64
	streamer           *effects.Volume
	done               *clipDone
	playing            bool
	speakerInitialized bool
	currentSampleRate  beep.SampleRate
}

// New creates a new Manager instance.
func New() *Manager {
	return &Manager{volume: 1.0}
}

// Play decodes the clip (MP3 first, then WAV) and plays it to completion.
func (m *Manager) Play(data []byte) error {
	// Register the stop handle before decoding, so a Stop that lands
	// while the clip is still being decoded cancels it instead of
	// finding nothing to cancel.
	m.mu.Lock()
	m.stopLocked()
	done := newClipDone()
	m.done = done
	m.mu.Unlock()

	streamer, format, err := decodeStreamer(data)
	if err != nil {
		m.releaseDone(done)
		return err
	}
	defer streamer.Close()

	m.mu.Lock()
	select {
	case <-done.ch:
		// Stopped while decoding
		m.mu.Unlock()
		return nil
	default:
	}
	if err := m.ensureSpeakerInitialized(); err != nil {
		m.mu.Unlock()
		m.releaseDone(done)
		return err
	}

	resampled := beep.Resample(3, format.SampleRate, m.currentSampleRate, streamer)
	volStreamer := &effects.Volume{
		Streamer: resampled,
		Base:     2,
		Volume:   volumeToPower(m.volume),
		Silent:   m.volume <= 0.01,
	}

	m.streamer = volStreamer
	m.playing = true
	m.mu.Unlock()

	speaker.Play(beep.Seq(volStreamer, beep.Callback(done.close)))

	slog.Debug("Audio: Playing clip", "bytes", len(data))
	<-done.ch

	m.mu.Lock()
	m.playing = false
	m.streamer = nil
	if m.done == done {
		m.done = nil
	}
	m.mu.Unlock()
	return nil
}

// releaseDone drops the registered handle if it is still ours.
func (m *Manager) releaseDone(done *clipDone) {
	m.mu.Lock()
	if m.done == done {
		m.done = nil
	}
	m.mu.Unlock()
}

// Stop interrupts the current clip.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

// stopLocked clears the speaker and unblocks the waiting Play call.
// speaker.Clear drops the streamer without draining it, so the beep
// callback never fires and the done signal must be closed here.
func (m *Manager) stopLocked() {
	if m.done == nil {
		return
	}
	speaker.Clear()
	m.done.close()
	m.done = nil
	m.playing = false
}

// SetVolume sets playback volume (0.0 to 1.0).
func (m *Manager) SetVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vol < 0 {
		vol = 0
	} else if vol > 1 {
		vol = 1
	}
	m.volume = vol

	// Update live streamer if playing
	if m.streamer != nil {
		speaker.Lock()
		m.streamer.Volume = volumeToPower(vol)
		m.streamer.Silent = vol <= 0.01
		speaker.Unlock()
	}
}

// Volume returns current volume level.
func (m *Manager) Volume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume
}

// IsPlaying returns true while a clip is audible.
func (m *Manager) IsPlaying() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.playing
}

// Close stops playback and releases the audio device.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
	if m.speakerInitialized {
		speaker.Close()
		m.speakerInitialized = false
	}
	return nil
}

func (m *Manager) ensureSpeakerInitialized() error {
	const targetSampleRate = 48000
	if !m.speakerInitialized {
		err := speaker.Init(beep.SampleRate(targetSampleRate), beep.SampleRate(targetSampleRate).N(time.Second/10))
		if err != nil {
			slog.Error("Failed to initialize speaker", "error", err)
			return err
		}
		m.speakerInitialized = true
		m.currentSampleRate = beep.SampleRate(targetSampleRate)
	}
	return nil
}

func decodeStreamer(data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	// Try MP3 first
	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	if err == nil {
		return streamer, format, nil
	}

	streamer, format, err = wav.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		slog.Error("Failed to decode audio clip", "bytes", len(data), "error", err)
		return nil, beep.Format{}, fmt.Errorf("decode clip: %w", err)
	}
	return streamer, format, nil
}

var _ Player = (*Manager)(nil)
