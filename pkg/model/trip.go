package model

// TripPhoto is one uploaded photo in the compiled trip record.
type TripPhoto struct {
	SessionID  string `json:"sessionId"`
	PhotoID    string `json:"photoId"`
	PlaceID    string `json:"placeId"`
	S3Key      string `json:"s3Key"`
	UploadedAt int64  `json:"uploadedAt"`
	URL        string `json:"url"`
}

// TripPlace is the backend's record of a narrated location.
type TripPlace struct {
	Location  LatLon   `json:"location"`
	Name      string   `json:"name"`
	PlaceID   string   `json:"placeId"`
	PlaceName string   `json:"placeName"`
	Script    string   `json:"script"`
	Types     []string `json:"types"`
}

// LatLon mirrors the backend's coordinate shape (lon, not lng).
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// TripLocation pairs a narrated place with the photos taken there.
type TripLocation struct {
	Location  TripPlace   `json:"location"`
	Photos    []TripPhoto `json:"photos"`
	Timestamp int64       `json:"timestamp"`
}

// TripRecord is the full compiled recap for an ended session.
type TripRecord struct {
	SessionID        string                  `json:"sessionId"`
	StartedAt        int64                   `json:"startedAt"`
	EndedAt          int64                   `json:"endedAt"`
	User             string                  `json:"user"`
	LocationPhotoMap map[string]TripLocation `json:"locationPhotoMap"`
}
