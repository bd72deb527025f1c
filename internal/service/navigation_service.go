package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartcity/navigation/internal/domain"
	"github.com/smartcity/navigation/internal/navigation"
)

// ErrSessionNotFound is returned for unknown or stopped session ids
var ErrSessionNotFound = errors.New("navigation: session not found")

// NavigationConfig tunes the tracking engine
type NavigationConfig struct {
	Thresholds     navigation.Thresholds
	Incident       navigation.IncidentConfig
	RerouteTimeout time.Duration
}

// NavigationService owns every live navigation session
type NavigationService struct {
	routes    RouteProvider
	publisher Publisher
	incidents IncidentReporter
	eta       *ETAService
	repo      DataRepository
	cfg       NavigationConfig

	mu       sync.RWMutex
	sessions map[string]*navSession

	wgBg sync.WaitGroup // tracks reroutes and event writes for graceful shutdown
}

// navSession pairs a tracker with its alternatives. mu serialises every
// operation on the session.
type navSession struct {
	mu sync.Mutex

	id           string
	vehicle      domain.Vehicle
	destination  domain.Coordinate
	alternatives []*navigation.Route
	active       int
	tracker      *navigation.Tracker
	detector     *navigation.IncidentDetector
	eta          domain.ETA

	// generation changes on every activation; a reroute only lands on the
	// generation it was started from
	generation uint64
	rerouting  bool
	arrivalLog bool
	closed     bool
}

// NewNavigationService creates a new session manager
func NewNavigationService(
	routes RouteProvider,
	publisher Publisher,
	incidents IncidentReporter,
	eta *ETAService,
	repo DataRepository,
	cfg NavigationConfig,
) *NavigationService {
	if cfg.RerouteTimeout <= 0 {
		cfg.RerouteTimeout = 15 * time.Second
	}
	return &NavigationService{
		routes:    routes,
		publisher: publisher,
		incidents: incidents,
		eta:       eta,
		repo:      repo,
		cfg:       cfg,
		sessions:  map[string]*navSession{},
	}
}

// WaitBackground blocks until pending reroutes and event writes complete.
// Call during graceful shutdown.
func (s *NavigationService) WaitBackground() {
	s.wgBg.Wait()
}

// PlanRoute returns the alternatives for req without opening a session
func (s *NavigationService) PlanRoute(ctx context.Context, req domain.RouteRequest) ([]domain.RouteCandidate, error) {
	return s.routes.Route(ctx, req)
}

// StartSession fetches alternatives for req and activates the best one
func (s *NavigationService) StartSession(ctx context.Context, req domain.RouteRequest) (domain.SessionView, error) {
	candidates, err := s.routes.Route(ctx, req)
	if err != nil {
		return domain.SessionView{}, err
	}
	routes, err := buildRoutes(candidates)
	if err != nil {
		return domain.SessionView{}, err
	}

	sess := &navSession{
		id:           uuid.NewString(),
		vehicle:      req.Vehicle,
		destination:  req.End,
		alternatives: routes,
		tracker:      navigation.NewTracker(s.cfg.Thresholds),
		detector:     navigation.NewIncidentDetector(s.cfg.Incident),
	}
	if err := s.activate(sess, 0, req.Start); err != nil {
		return domain.SessionView{}, err
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	log.Printf("Navigation session %s started (%s, %d alternatives)", sess.id, req.Vehicle, len(routes))
	s.recordEvent(sess, domain.EventStarted, "")

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(sess), nil
}

// SelectRoute switches the session to alternative index, restarting progress from the last fix
func (s *NavigationService) SelectRoute(ctx context.Context, id string, index int) (domain.SessionView, error) {
	sess, err := s.session(id)
	if err != nil {
		return domain.SessionView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return domain.SessionView{}, ErrSessionNotFound
	}
	if index < 0 || index >= len(sess.alternatives) {
		return domain.SessionView{}, fmt.Errorf("%w: alternative %d out of range", navigation.ErrInvalidRoute, index)
	}

	if err := s.activate(sess, index, sess.position()); err != nil {
		return domain.SessionView{}, err
	}
	s.recordEventLocked(sess, domain.EventSelected, fmt.Sprintf("alternative %d", index))
	return s.view(sess), nil
}

// PushFix feeds one position fix to the session and publishes the resulting update
func (s *NavigationService) PushFix(ctx context.Context, id string, fix domain.Fix) (domain.NavigationUpdate, error) {
	sess, err := s.session(id)
	if err != nil {
		return domain.NavigationUpdate{}, err
	}

	update, err := s.advance(sess, fix)
	if err != nil {
		return domain.NavigationUpdate{}, err
	}
	s.publish(sess.id, update)
	return update, nil
}

// advance runs one fix through the session under sess.mu
func (s *NavigationService) advance(sess *navSession, fix domain.Fix) (domain.NavigationUpdate, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return domain.NavigationUpdate{}, ErrSessionNotFound
	}

	progress, err := sess.tracker.Advance(fix)
	if err != nil {
		return domain.NavigationUpdate{}, err
	}

	update := domain.NavigationUpdate{
		SessionID: sess.id,
		Progress:  progress,
		Timestamp: fix.Time(),
	}

	// stopping at the destination is not an incident
	if !progress.Arrived {
		speed, ok, incident := sess.detector.Observe(fix)
		if ok {
			update.SpeedKmh = &speed
		}
		if incident != nil {
			update.Incident = incident
			s.reportIncident(sess, *incident)
		}
	}

	switch {
	case progress.Arrived && !sess.arrivalLog:
		sess.arrivalLog = true
		// arrival is terminal; a reroute still in flight must not land
		sess.generation++
		sess.rerouting = false
		log.Printf("Navigation session %s arrived", sess.id)
		s.recordEventLocked(sess, domain.EventArrived, "")
	case progress.RerouteRequested:
		s.recordEventLocked(sess, domain.EventReroute, "")
		s.startReroute(sess, fix)
	}
	return update, nil
}

// StopSession ends the session; later calls for id return ErrSessionNotFound
func (s *NavigationService) StopSession(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.closed = true
	sess.generation++
	s.recordEventLocked(sess, domain.EventStopped, "")
	sess.tracker.Stop()
	return nil
}

// GetSession returns a snapshot of the session
func (s *NavigationService) GetSession(id string) (domain.SessionView, error) {
	sess, err := s.session(id)
	if err != nil {
		return domain.SessionView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return domain.SessionView{}, ErrSessionNotFound
	}
	return s.view(sess), nil
}

// ActiveSessions returns the number of open sessions
func (s *NavigationService) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *NavigationService) session(id string) (*navSession, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// activate makes alternative index the live route; caller holds sess.mu or owns sess
func (s *NavigationService) activate(sess *navSession, index int, from domain.Coordinate) error {
	route := sess.alternatives[index]
	if err := sess.tracker.Activate(route, from); err != nil {
		return err
	}
	sess.active = index
	sess.generation++
	sess.rerouting = false
	sess.arrivalLog = false
	sess.detector.Reset()
	sess.eta = s.eta.Estimate(route.TotalDurationSeconds())
	return nil
}

// startReroute requests a fresh route from fix to the destination in the background.
// Caller holds sess.mu.
func (s *NavigationService) startReroute(sess *navSession, fix domain.Fix) {
	if sess.rerouting {
		return
	}
	sess.rerouting = true
	generation := sess.generation
	req := domain.RouteRequest{
		Start:   fix.Coordinate,
		End:     sess.destination,
		Vehicle: sess.vehicle,
	}

	s.wgBg.Add(1)
	go func() {
		defer s.wgBg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RerouteTimeout)
		defer cancel()

		candidates, err := s.routes.Route(ctx, req)
		var routes []*navigation.Route
		if err == nil {
			routes, err = buildRoutes(candidates)
		}

		view, ok := s.applyReroute(sess, generation, req.Start, routes, err)
		if ok {
			s.publish(sess.id, map[string]any{"type": "rerouted", "session": view})
		}
	}()
}

// applyReroute swaps in the rerouted alternatives when generation is still current
func (s *NavigationService) applyReroute(sess *navSession, generation uint64, from domain.Coordinate, routes []*navigation.Route, err error) (domain.SessionView, bool) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed || sess.generation != generation {
		// stopped, arrived or another route was activated meanwhile
		return domain.SessionView{}, false
	}
	if err != nil {
		log.Printf("Reroute failed for session %s: %v", sess.id, err)
		sess.rerouting = false
		return domain.SessionView{}, false
	}

	sess.alternatives = routes
	if err := s.activate(sess, 0, from); err != nil {
		log.Printf("Reroute activation failed for session %s: %v", sess.id, err)
		sess.rerouting = false
		return domain.SessionView{}, false
	}
	log.Printf("Navigation session %s rerouted", sess.id)
	s.recordEventLocked(sess, domain.EventRerouted, "")
	return s.view(sess), true
}

func (s *NavigationService) reportIncident(sess *navSession, inc domain.Incident) {
	s.recordEventLocked(sess, domain.EventIncident,
		fmt.Sprintf("%.1f km/h -> %.1f km/h", inc.PreviousSpeedKmh, inc.CurrentSpeedKmh))
	if s.incidents == nil {
		return
	}

	id := sess.id
	s.wgBg.Add(1)
	go func() {
		defer s.wgBg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := s.incidents.ReportIncident(ctx, id, inc); err != nil {
			log.Printf("Failed to report incident for session %s: %v", id, err)
		}
	}()
}

func (s *NavigationService) publish(sessionID string, v any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(sessionID, v); err != nil {
		log.Printf("Failed to publish update for session %s: %v", sessionID, err)
	}
}

func (s *NavigationService) recordEvent(sess *navSession, kind domain.EventKind, detail string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.recordEventLocked(sess, kind, detail)
}

// recordEventLocked persists a milestone asynchronously; caller holds sess.mu
func (s *NavigationService) recordEventLocked(sess *navSession, kind domain.EventKind, detail string) {
	event := domain.NavigationEvent{
		SessionID: sess.id,
		Kind:      kind,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	if snap, ok := sess.tracker.Snapshot(); ok {
		event.StepIndex = snap.StepIndex
		event.RemainingMeters = snap.RemainingMeters
	}

	s.wgBg.Add(1)
	go func() {
		defer s.wgBg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.SaveNavigationEvent(ctx, event); err != nil {
			log.Printf("Failed to save navigation event: %v", err)
		}
	}()
}

// view builds the read model; caller holds sess.mu
func (s *NavigationService) view(sess *navSession) domain.SessionView {
	v := domain.SessionView{
		ID:           sess.id,
		Vehicle:      sess.vehicle,
		Destination:  sess.destination,
		Alternatives: make([]domain.RouteSummary, len(sess.alternatives)),
		Rerouting:    sess.rerouting,
	}
	for i, r := range sess.alternatives {
		v.Alternatives[i] = domain.RouteSummary{
			Index:           i,
			DurationSeconds: r.TotalDurationSeconds(),
			DistanceMeters:  r.TotalDistanceMeters(),
			Steps:           len(r.Steps()),
			Active:          i == sess.active,
		}
	}

	snap, _ := sess.tracker.Snapshot()
	v.State = snap.State.String()
	v.RemainingPolyline = snap.RemainingPolyline
	v.StepIndex = snap.StepIndex
	v.RerouteArmed = snap.RerouteArmed
	if snap.State != navigation.StateIdle {
		eta := sess.eta
		v.ETA = &eta
	}
	return v
}

// position is the last fix, or the session start when none was consumed
func (sess *navSession) position() domain.Coordinate {
	if f := sess.tracker.LastFix(); f != nil {
		return f.Coordinate
	}
	snap, _ := sess.tracker.Snapshot()
	return snap.Start
}

func buildRoutes(candidates []domain.RouteCandidate) ([]*navigation.Route, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no alternatives", navigation.ErrInvalidRoute)
	}
	routes := make([]*navigation.Route, 0, len(candidates))
	for i, c := range candidates {
		r, err := navigation.NewRoute(c)
		if err != nil {
			return nil, fmt.Errorf("alternative %d: %w", i, err)
		}
		routes = append(routes, r)
	}
	return routes, nil
}
