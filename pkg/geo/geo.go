// Package geo provides the geospatial math used by heading fusion and
// pin tracking: great-circle distance, forward azimuth, and degree
// normalization. All functions are pure and total.
package geo

import "math"

// EarthRadiusM is the mean Earth radius in meters.
const EarthRadiusM = 6371000

// Point represents a geographic coordinate in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// ToRadians converts degrees to radians.
func ToRadians(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}

// NormalizeDegrees maps any angle onto [0, 360). Non-finite input
// (NaN, ±Inf) collapses to 0 so downstream math never sees garbage.
func NormalizeDegrees(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	mod := math.Mod(deg, 360)
	if mod < 0 {
		mod += 360
	}
	return mod
}

// NormalizeHeadingUnit maps any angle onto [0, 1), where 0 is north.
func NormalizeHeadingUnit(deg float64) float64 {
	return NormalizeDegrees(deg) / 360
}

// Distance calculates the Haversine distance between two points in meters.
// The inner root argument is clamped to 1 to guard against floating-point
// overshoot feeding Asin a value outside its domain.
func Distance(p1, p2 Point) float64 {
	dLat := ToRadians(p2.Lat - p1.Lat)
	dLng := ToRadians(p2.Lng - p1.Lng)
	lat1 := ToRadians(p1.Lat)
	lat2 := ToRadians(p2.Lat)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	c := sinLat*sinLat + sinLng*sinLng*math.Cos(lat1)*math.Cos(lat2)

	return 2 * EarthRadiusM * math.Asin(math.Min(1, math.Sqrt(c)))
}

// Bearing calculates the initial bearing (forward azimuth) from p1 to p2
// in degrees, normalized to [0, 360).
func Bearing(p1, p2 Point) float64 {
	lat1 := ToRadians(p1.Lat)
	lat2 := ToRadians(p2.Lat)
	dLng := ToRadians(p2.Lng - p1.Lng)

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) -
		math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	brng := math.Atan2(y, x)

	return NormalizeDegrees(brng * (180.0 / math.Pi))
}
