package domain

import "time"

// ETA is a traffic-adjusted arrival estimate for a route
type ETA struct {
	BaseDurationSeconds    float64   `json:"base_duration_s"`
	TrafficDurationSeconds float64   `json:"traffic_duration_s"`
	TrafficFactor          float64   `json:"traffic_factor"`
	CongestionIndex        float64   `json:"congestion_index"`
	CongestionLevel        string    `json:"congestion_level"`
	Minutes                float64   `json:"minutes"`
	ComputedAt             time.Time `json:"computed_at"`
}

// VehicleTime is one row of the vehicle comparison
type VehicleTime struct {
	Vehicle         Vehicle `json:"vehicle"`
	DurationSeconds float64 `json:"duration_s"`
	DistanceMeters  float64 `json:"distance_m"`
	Display         string  `json:"display"`
	Available       bool    `json:"available"`
}
