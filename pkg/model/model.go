// Package model defines the shared domain types for the tour session:
// pins discovered by the backend, the client-side session value, and the
// compiled trip record.
package model

// GeoPoint is an immutable coordinate pair in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Pin is a point of interest discovered by the backend during tracking.
// Pins are immutable once received; the client only appends them to the
// session's ordered list and tracks seen placeIds for deduplication.
type Pin struct {
	PlaceID  string    `json:"placeId"`
	Name     string    `json:"name"`
	Script   string    `json:"script"`
	Category string    `json:"category,omitempty"`
	Position *GeoPoint `json:"position,omitempty"`
}

// TrackQuery is the tracking poll payload: current fused estimate plus the
// session's constant focus prompt.
type TrackQuery struct {
	SessionID   string
	Prompt      string
	Position    *GeoPoint
	HeadingUnit float64
	HasHeading  bool
}
