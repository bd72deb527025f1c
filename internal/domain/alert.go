package domain

import (
	"fmt"
	"time"
)

// Incident is a suspected sudden stop derived from sampled speeds
type Incident struct {
	Location         Coordinate `json:"location"`
	TimestampMillis  int64      `json:"timestamp_ms"`
	PreviousSpeedKmh float64    `json:"previous_speed_kmh"`
	CurrentSpeedKmh  float64    `json:"current_speed_kmh"`
}

// EmergencyRequest is a manual alert raised by the user
type EmergencyRequest struct {
	SessionID string   `json:"session_id,omitempty"`
	UserID    int      `json:"userId,omitempty"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
}

// IncidentAlert is an outward notification handed to the alerting collaborator
type IncidentAlert struct {
	ID               int64      `json:"id,omitempty"`
	SessionID        string     `json:"session_id,omitempty"`
	Location         Coordinate `json:"location"`
	Message          string     `json:"message"`
	LocationLink     string     `json:"location_link"`
	PreviousSpeedKmh float64    `json:"previous_speed_kmh"`
	CurrentSpeedKmh  float64    `json:"current_speed_kmh"`
	Automatic        bool       `json:"automatic"`
	CreatedAt        time.Time  `json:"created_at"`
}

// LocationLink returns a maps link for c
func LocationLink(c Coordinate) string {
	return fmt.Sprintf("https://www.google.com/maps?q=%f,%f", c.Lat, c.Lng)
}
