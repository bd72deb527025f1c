package domain

import (
	"time"

	"github.com/smartcity/navigation/pkg/geo"
)

// Coordinate is a WGS84 position in degrees
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceTo returns the great-circle distance to other in meters
func (c Coordinate) DistanceTo(other Coordinate) float64 {
	return geo.HaversineMeters(c.Lat, c.Lng, other.Lat, other.Lng)
}

// Valid reports whether the coordinate is finite and in range
func (c Coordinate) Valid() bool {
	return geo.Valid(c.Lat, c.Lng)
}

// Step is one maneuver anchored at a coordinate
type Step struct {
	Location    Coordinate `json:"location"`
	Instruction string     `json:"instruction"`
}

// RouteCandidate is one route as returned by the routing collaborator
type RouteCandidate struct {
	Geometry        []Coordinate `json:"geometry"`
	Steps           []Step       `json:"steps"`
	DurationSeconds float64      `json:"duration_s"`
	DistanceMeters  float64      `json:"distance_m"`
}

// Vehicle selects the routing profile and duration scaling
type Vehicle string

const (
	VehicleCar   Vehicle = "car"
	VehicleTruck Vehicle = "truck"
	VehicleBike  Vehicle = "bike"
	VehicleWalk  Vehicle = "walk"
)

// Vehicles lists every vehicle offered for comparison
var Vehicles = []Vehicle{VehicleCar, VehicleBike, VehicleWalk, VehicleTruck}

// RouteRequest asks the routing collaborator for candidates
type RouteRequest struct {
	Start   Coordinate `json:"start"`
	End     Coordinate `json:"end"`
	Vehicle Vehicle    `json:"vehicle"`
}

// Fix is one timestamped position sample
type Fix struct {
	Coordinate      Coordinate `json:"coordinate"`
	TimestampMillis int64      `json:"timestamp_ms"`
}

// Time converts the fix timestamp to time.Time
func (f Fix) Time() time.Time {
	return time.UnixMilli(f.TimestampMillis)
}

// ProgressUpdate is the result of consuming one fix
type ProgressUpdate struct {
	RemainingDistanceMeters float64 `json:"remaining_distance_m"`
	CurrentInstruction      string  `json:"current_instruction,omitempty"`
	AnnouncedInstruction    string  `json:"announced_instruction,omitempty"`
	RerouteRequested        bool    `json:"reroute_requested"`
	Arrived                 bool    `json:"arrived"`
	StepIndex               int     `json:"step_index"`
	RemainingVertices       int     `json:"remaining_vertices"`
}

// NavigationUpdate is what the presentation layer receives per fix
type NavigationUpdate struct {
	SessionID string         `json:"session_id"`
	Progress  ProgressUpdate `json:"progress"`
	SpeedKmh  *float64       `json:"speed_kmh,omitempty"`
	Incident  *Incident      `json:"incident,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// RouteSummary describes one alternative without its geometry
type RouteSummary struct {
	Index           int     `json:"index"`
	DurationSeconds float64 `json:"duration_s"`
	DistanceMeters  float64 `json:"distance_m"`
	Steps           int     `json:"steps"`
	Active          bool    `json:"active"`
}

// SessionView is a read-only snapshot of a navigation session
type SessionView struct {
	ID                string         `json:"id"`
	State             string         `json:"state"`
	Vehicle           Vehicle        `json:"vehicle"`
	Destination       Coordinate     `json:"destination"`
	Alternatives      []RouteSummary `json:"alternatives"`
	RemainingPolyline []Coordinate   `json:"remaining_polyline"`
	StepIndex         int            `json:"step_index"`
	RerouteArmed      bool           `json:"reroute_armed"`
	Rerouting         bool           `json:"rerouting"`
	ETA               *ETA           `json:"eta,omitempty"`
}
