package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{"zero", 0, "0 min"},
		{"minutes", 754, "12 min"},
		{"hours", 3900, "1h 5m"},
		{"negative", -10, "0 min"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.seconds))
		})
	}
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "850 m", FormatDistance(849.6))
	assert.Equal(t, "1.0 km", FormatDistance(1000))
	assert.Equal(t, "12.3 km", FormatDistance(12345))
}

func TestClampRoundTo(t *testing.T) {
	assert.Equal(t, 1.15, Clamp(2, 0.85, 1.15))
	assert.Equal(t, 0.85, Clamp(-1, 0.85, 1.15))
	assert.Equal(t, 1.0, Clamp(1, 0.85, 1.15))
	assert.Equal(t, 3.14, RoundTo(3.14159, 2))
}
