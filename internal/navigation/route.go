// Package navigation implements the live navigation tracking engine: it follows
// a selected route against a stream of position fixes, truncating the remaining
// polyline, announcing maneuvers once and signalling reroutes and arrival.
//
// Nothing in this package blocks or performs I/O. A Tracker is owned by a single
// caller; serialising calls to Advance is the owner's job.
package navigation

import (
	"errors"

	"github.com/smartcity/navigation/internal/domain"
)

var (
	// ErrInvalidRoute is returned when a route cannot be activated
	ErrInvalidRoute = errors.New("navigation: invalid route")
	// ErrNoActiveSession is returned by Advance before Activate
	ErrNoActiveSession = errors.New("navigation: no active session")
	// ErrInvalidFix is returned for non-finite or out-of-range fixes; the fix is dropped
	ErrInvalidFix = errors.New("navigation: invalid fix")
)

// Route is an immutable candidate path: polyline plus ordered maneuvers
type Route struct {
	polyline []domain.Coordinate
	steps    []domain.Step
	duration float64
	distance float64

	// suffix[i] is the along-polyline distance from vertex i to the last vertex;
	// suffix[len(polyline)] is 0.
	suffix []float64
}

// NewRoute builds a Route from routing collaborator output.
// Step order is trusted as given.
func NewRoute(c domain.RouteCandidate) (*Route, error) {
	if len(c.Geometry) == 0 {
		return nil, ErrInvalidRoute
	}
	for _, p := range c.Geometry {
		if !p.Valid() {
			return nil, ErrInvalidRoute
		}
	}
	for _, s := range c.Steps {
		if !s.Location.Valid() {
			return nil, ErrInvalidRoute
		}
	}

	r := &Route{
		polyline: append([]domain.Coordinate(nil), c.Geometry...),
		steps:    append([]domain.Step(nil), c.Steps...),
		duration: c.DurationSeconds,
		distance: c.DistanceMeters,
		suffix:   make([]float64, len(c.Geometry)+1),
	}
	for i := len(r.polyline) - 2; i >= 0; i-- {
		r.suffix[i] = r.suffix[i+1] + r.polyline[i].DistanceTo(r.polyline[i+1])
	}
	return r, nil
}

// Polyline returns a copy of the route geometry
func (r *Route) Polyline() []domain.Coordinate {
	return append([]domain.Coordinate(nil), r.polyline...)
}

// Steps returns a copy of the maneuvers
func (r *Route) Steps() []domain.Step {
	return append([]domain.Step(nil), r.steps...)
}

func (r *Route) TotalDurationSeconds() float64 { return r.duration }

func (r *Route) TotalDistanceMeters() float64 { return r.distance }

// remainingFrom returns the along-polyline distance from vertex offset to the end
func (r *Route) remainingFrom(offset int) float64 {
	if offset >= len(r.polyline) {
		return 0
	}
	return r.suffix[offset]
}
