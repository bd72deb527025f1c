package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm(t *testing.T) {
	// Almaty center to Almaty-1 station, roughly 4.5 km
	d := HaversineKm(43.2389, 76.8897, 43.2800, 76.8800)
	assert.InDelta(t, 4.65, d, 0.1)
}

func TestHaversineMetersAlongEquator(t *testing.T) {
	// 0.001 degree of longitude on the equator
	want := EarthRadiusKm * 1000 * 0.001 * math.Pi / 180
	assert.InDelta(t, want, HaversineMeters(0, 0, 0, 0.001), 1e-6)
	assert.InDelta(t, 111.19, HaversineMeters(0, 0, 0, 0.001), 0.01)
}

func TestHaversineZeroAndSymmetry(t *testing.T) {
	assert.Zero(t, HaversineMeters(13.0827, 80.2707, 13.0827, 80.2707))

	ab := HaversineMeters(13.0827, 80.2707, 13.09, 80.28)
	ba := HaversineMeters(13.09, 80.28, 13.0827, 80.2707)
	assert.InDelta(t, ab, ba, 1e-9)
}

func TestValid(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"origin", 0, 0, true},
		{"bounds", -90, 180, true},
		{"lat too large", 90.1, 0, false},
		{"lon too small", 0, -180.5, false},
		{"nan", math.NaN(), 0, false},
		{"inf", 0, math.Inf(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.lat, tt.lon))
		})
	}
}
