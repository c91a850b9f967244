package geo

import (
	"math"
	"testing"
)

func TestNormalizeDegrees(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero", 0, 0},
		{"positive", 45, 45},
		{"full turn", 360, 0},
		{"over full turn", 450, 90},
		{"negative", -90, 270},
		{"large negative", -720, 0},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 0},
		{"neg inf", math.Inf(-1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDegrees(tt.in)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("NormalizeDegrees(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeHeadingUnit(t *testing.T) {
	// Output stays in [0, 1) for any real input.
	inputs := []float64{-1080, -360.5, -1, 0, 0.25, 90, 359.999, 360, 361, 7200, math.NaN(), math.Inf(1)}
	for _, in := range inputs {
		got := NormalizeHeadingUnit(in)
		if got < 0 || got >= 1 {
			t.Errorf("NormalizeHeadingUnit(%v) = %v, out of [0,1)", in, got)
		}
	}

	if got := NormalizeHeadingUnit(180); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("NormalizeHeadingUnit(180) = %v, want 0.5", got)
	}
}

func TestDistance(t *testing.T) {
	providence := Point{Lat: 41.8240, Lng: -71.4128}
	boston := Point{Lat: 42.3601, Lng: -71.0589}

	// Identity
	if d := Distance(providence, providence); d != 0 {
		t.Errorf("Distance(a,a) = %v, want 0", d)
	}

	// Symmetry
	d1 := Distance(providence, boston)
	d2 := Distance(boston, providence)
	if math.Abs(d1-d2) > 1e-6 {
		t.Errorf("Distance not symmetric: %v vs %v", d1, d2)
	}

	// Providence to Boston is roughly 66km
	if d1 < 60000 || d1 > 72000 {
		t.Errorf("Distance(providence, boston) = %v, want ~66km", d1)
	}

	// Antipodal points must not produce NaN from asin domain overshoot.
	d := Distance(Point{Lat: 0, Lng: 0}, Point{Lat: 0, Lng: 180})
	if math.IsNaN(d) {
		t.Error("antipodal distance is NaN")
	}
}

func TestBearing(t *testing.T) {
	origin := Point{Lat: 0, Lng: 0}

	tests := []struct {
		name string
		to   Point
		want float64
	}{
		{"north", Point{Lat: 1, Lng: 0}, 0},
		{"east", Point{Lat: 0, Lng: 1}, 90},
		{"south", Point{Lat: -1, Lng: 0}, 180},
		{"west", Point{Lat: 0, Lng: -1}, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(origin, tt.to)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("Bearing = %v, want %v", got, tt.want)
			}
		})
	}
}
