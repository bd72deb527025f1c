package domain

import (
	"context"
	"time"
)

// EventKind classifies persisted navigation events
type EventKind string

const (
	EventStarted  EventKind = "started"
	EventSelected EventKind = "selected"
	EventReroute  EventKind = "reroute_requested"
	EventRerouted EventKind = "rerouted"
	EventArrived  EventKind = "arrived"
	EventIncident EventKind = "incident"
	EventStopped  EventKind = "stopped"
)

// NavigationEvent is a milestone of a session; fixes themselves are never stored
type NavigationEvent struct {
	SessionID       string    `json:"session_id"`
	Kind            EventKind `json:"kind"`
	StepIndex       int       `json:"step_index"`
	RemainingMeters float64   `json:"remaining_m"`
	Detail          string    `json:"detail,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// DataRepository defines the interface for data persistence
// This follows the Dependency Inversion Principle - domain defines the interface
type DataRepository interface {
	// SaveNavigationEvent persists a session milestone
	SaveNavigationEvent(ctx context.Context, event NavigationEvent) error

	// SaveIncidentAlert persists an alert and returns its id
	SaveIncidentAlert(ctx context.Context, alert IncidentAlert) (int64, error)

	// GetRecentAlerts retrieves alerts created between from and to
	GetRecentAlerts(ctx context.Context, from, to time.Time) ([]IncidentAlert, error)

	// Health checks database connectivity
	Health(ctx context.Context) error
}
