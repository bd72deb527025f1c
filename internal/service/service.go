package service

import (
	"context"

	"github.com/smartcity/navigation/internal/domain"
)

// DataRepository is re-exported from domain for convenience
type DataRepository = domain.DataRepository

// RouteProvider returns route alternatives, best first
type RouteProvider interface {
	Route(ctx context.Context, req domain.RouteRequest) ([]domain.RouteCandidate, error)
}

// Publisher pushes a JSON message to a session's watchers
type Publisher interface {
	Publish(sessionID string, v any) error
}

// IncidentReporter forwards detected sudden stops
type IncidentReporter interface {
	ReportIncident(ctx context.Context, sessionID string, inc domain.Incident) (domain.IncidentAlert, error)
}
