package navigation

import "github.com/smartcity/navigation/internal/domain"

const (
	// ArrivalVertexRadiusMeters is how close a fix must be to the front vertex to pass it
	ArrivalVertexRadiusMeters = 15.0
	// OffRouteThresholdMeters is the distance from every remaining vertex that means off-route
	OffRouteThresholdMeters = 50.0
	// ManeuverTriggerRadiusMeters is how close a fix must be to a step to announce it
	ManeuverTriggerRadiusMeters = 30.0
)

// Thresholds holds the distance radii the tracker works with
type Thresholds struct {
	ArrivalVertexRadius   float64
	OffRoute              float64
	ManeuverTriggerRadius float64
}

// DefaultThresholds returns the standard 15/50/30 meter radii
func DefaultThresholds() Thresholds {
	return Thresholds{
		ArrivalVertexRadius:   ArrivalVertexRadiusMeters,
		OffRoute:              OffRouteThresholdMeters,
		ManeuverTriggerRadius: ManeuverTriggerRadiusMeters,
	}
}

// State is the tracker lifecycle state
type State int

const (
	StateIdle State = iota
	StateActive
	StateArrived
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateArrived:
		return "arrived"
	default:
		return "idle"
	}
}

// session is the mutable state of one navigation run.
// remaining polyline is route.polyline[offset:]; offset only grows.
type session struct {
	route         *Route
	start         domain.Coordinate
	offset        int
	stepIndex     int
	lastAnnounced int
	lastFix       *domain.Fix
	rerouteArmed  bool
	arrived       bool
}

// Snapshot is a copy of the session state
type Snapshot struct {
	State             State
	Start             domain.Coordinate
	RemainingPolyline []domain.Coordinate
	RemainingMeters   float64
	StepIndex         int
	LastAnnounced     int
	LastFix           *domain.Fix
	RerouteArmed      bool
}

// Tracker drives one NavigationSession. It is not safe for concurrent use.
type Tracker struct {
	thresholds Thresholds
	session    *session
}

// NewTracker creates an idle tracker
func NewTracker(thresholds Thresholds) *Tracker {
	return &Tracker{thresholds: thresholds}
}

// Activate discards any current session and starts a fresh one on route.
// The reroute signal is re-armed.
func (t *Tracker) Activate(route *Route, start domain.Coordinate) error {
	if route == nil || len(route.polyline) == 0 {
		return ErrInvalidRoute
	}
	t.session = &session{
		route:         route,
		start:         start,
		lastAnnounced: -1,
		rerouteArmed:  true,
	}
	return nil
}

// Stop discards the session; the tracker becomes idle
func (t *Tracker) Stop() {
	t.session = nil
}

// State returns the lifecycle state
func (t *Tracker) State() State {
	switch {
	case t.session == nil:
		return StateIdle
	case t.session.arrived:
		return StateArrived
	default:
		return StateActive
	}
}

// Route returns the active route, or nil when idle
func (t *Tracker) Route() *Route {
	if t.session == nil {
		return nil
	}
	return t.session.route
}

// LastFix returns the most recently consumed fix, or nil
func (t *Tracker) LastFix() *domain.Fix {
	if t.session == nil || t.session.lastFix == nil {
		return nil
	}
	f := *t.session.lastFix
	return &f
}

// Snapshot copies the session state; ok is false when idle
func (t *Tracker) Snapshot() (Snapshot, bool) {
	s := t.session
	if s == nil {
		return Snapshot{State: StateIdle, LastAnnounced: -1}, false
	}
	return Snapshot{
		State:             t.State(),
		Start:             s.start,
		RemainingPolyline: append([]domain.Coordinate(nil), s.route.polyline[s.offset:]...),
		RemainingMeters:   s.route.remainingFrom(s.offset),
		StepIndex:         s.stepIndex,
		LastAnnounced:     s.lastAnnounced,
		LastFix:           t.LastFix(),
		RerouteArmed:      s.rerouteArmed,
	}, true
}

// Advance consumes one fix and returns the resulting progress update.
// Fixes must arrive in non-decreasing timestamp order.
func (t *Tracker) Advance(fix domain.Fix) (domain.ProgressUpdate, error) {
	s := t.session
	if s == nil {
		return domain.ProgressUpdate{}, ErrNoActiveSession
	}
	if !fix.Coordinate.Valid() {
		return domain.ProgressUpdate{}, ErrInvalidFix
	}
	defer func() {
		f := fix
		s.lastFix = &f
	}()

	if s.arrived {
		return t.arrivedUpdate(), nil
	}

	poly := s.route.polyline
	for s.offset < len(poly) && fix.Coordinate.DistanceTo(poly[s.offset]) < t.thresholds.ArrivalVertexRadius {
		s.offset++
	}
	if s.offset == len(poly) {
		s.arrived = true
		return t.arrivedUpdate(), nil
	}

	remaining := poly[s.offset:]
	update := domain.ProgressUpdate{
		RemainingDistanceMeters: s.route.remainingFrom(s.offset),
		RemainingVertices:       len(remaining),
	}

	if IsOffRoute(fix, remaining, t.thresholds.OffRoute) && s.rerouteArmed {
		s.rerouteArmed = false
		update.RerouteRequested = true
	}

	res := CheckInstruction(fix, s.route.steps, s.stepIndex, s.lastAnnounced, t.thresholds.ManeuverTriggerRadius)
	s.stepIndex = res.StepIndex
	s.lastAnnounced = res.LastAnnounced
	if res.Announced {
		update.AnnouncedInstruction = res.Announcement
	}

	update.StepIndex = s.stepIndex
	if s.stepIndex < len(s.route.steps) {
		update.CurrentInstruction = s.route.steps[s.stepIndex].Instruction
	}
	return update, nil
}

func (t *Tracker) arrivedUpdate() domain.ProgressUpdate {
	return domain.ProgressUpdate{
		Arrived:   true,
		StepIndex: t.session.stepIndex,
	}
}
