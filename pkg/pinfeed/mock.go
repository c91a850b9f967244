package pinfeed

import (
	"context"
	"sync"

	"cicerone/pkg/model"
)

// mockPins is the canned feed served by MockSource.
var mockPins = []model.Pin{
	{PlaceID: "coffee-shop", Name: "Coffee Shop", Category: "Food", Position: &model.GeoPoint{}},
	{PlaceID: "museum", Name: "Museum", Category: "Culture", Position: &model.GeoPoint{}},
	{PlaceID: "viewpoint", Name: "Viewpoint", Category: "Scenic", Position: &model.GeoPoint{}},
	{PlaceID: "botanical", Name: "Botanical Garden", Category: "Nature", Position: &model.GeoPoint{}},
	{PlaceID: "market", Name: "Local Market", Category: "Shopping", Position: &model.GeoPoint{}},
}

// MockSource serves a fixed pin feed in batches, for development
// without a backend.
type MockSource struct {
	mu        sync.Mutex
	cursor    int
	batchSize int
}

// NewMockSource creates a mock source emitting batchSize pins per poll.
func NewMockSource(batchSize int) *MockSource {
	if batchSize <= 0 {
		batchSize = len(mockPins)
	}
	return &MockSource{batchSize: batchSize}
}

// TrackPins returns the next batch, or nothing once the feed is drained.
func (m *MockSource) TrackPins(ctx context.Context, q model.TrackQuery) ([]model.Pin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cursor >= len(mockPins) {
		return nil, nil
	}
	end := m.cursor + m.batchSize
	if end > len(mockPins) {
		end = len(mockPins)
	}
	batch := make([]model.Pin, end-m.cursor)
	copy(batch, mockPins[m.cursor:end])
	m.cursor = end
	return batch, nil
}

// Reset rewinds the feed, typically at session start.
func (m *MockSource) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursor = 0
}

var _ Source = (*MockSource)(nil)
