package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/smartcity/navigation/internal/domain"
)

var (
	// ErrRoutingUnavailable wraps every failure to obtain routes from the routing server
	ErrRoutingUnavailable = errors.New("routing: unavailable")
	// ErrInvalidRequest is returned for route requests with unusable endpoints
	ErrInvalidRequest = errors.New("routing: invalid request")
)

// RouteCache is the read-through cache used by RoutingService
type RouteCache interface {
	Get(ctx context.Context, profile string, req domain.RouteRequest) ([]domain.RouteCandidate, error)
	Set(ctx context.Context, profile string, req domain.RouteRequest, candidates []domain.RouteCandidate) error
}

// RoutingService fetches route alternatives from an OSRM server
type RoutingService struct {
	baseURL    string
	httpClient *http.Client
	cache      RouteCache
}

// NewRoutingService creates a routing client. cache may be nil.
func NewRoutingService(baseURL string, cache RouteCache) *RoutingService {
	return &RoutingService{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache: cache,
	}
}

// Profile maps a vehicle to its OSRM profile
func Profile(v domain.Vehicle) string {
	switch v {
	case domain.VehicleBike:
		return "cycling"
	case domain.VehicleWalk:
		return "foot"
	default:
		return "driving"
	}
}

// DurationMultiplier scales driving-profile durations to the vehicle
func DurationMultiplier(v domain.Vehicle) float64 {
	switch v {
	case domain.VehicleTruck:
		return 1.2
	case domain.VehicleBike:
		return 2
	case domain.VehicleWalk:
		return 6
	default:
		return 1
	}
}

// Route returns every alternative for req, best first, with durations scaled to the vehicle
func (s *RoutingService) Route(ctx context.Context, req domain.RouteRequest) ([]domain.RouteCandidate, error) {
	if !req.Start.Valid() || !req.End.Valid() {
		return nil, ErrInvalidRequest
	}

	profile := Profile(req.Vehicle)

	candidates, err := s.cached(ctx, profile, req)
	if err != nil {
		candidates, err = s.fetch(ctx, profile, req)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, profile, req, candidates); err != nil {
				log.Printf("Failed to cache route: %v", err)
			}
		}
	}

	// cached payloads are unscaled so car and truck can share the driving entry
	multiplier := DurationMultiplier(req.Vehicle)
	out := make([]domain.RouteCandidate, len(candidates))
	for i, c := range candidates {
		c.DurationSeconds *= multiplier
		out[i] = c
	}
	return out, nil
}

func (s *RoutingService) cached(ctx context.Context, profile string, req domain.RouteRequest) ([]domain.RouteCandidate, error) {
	if s.cache == nil {
		return nil, errors.New("routing: no cache")
	}
	candidates, err := s.cache.Get(ctx, profile, req)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, errors.New("routing: empty cache entry")
	}
	return candidates, nil
}

func (s *RoutingService) fetch(ctx context.Context, profile string, req domain.RouteRequest) ([]domain.RouteCandidate, error) {
	url := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=full&geometries=geojson&steps=true&alternatives=true",
		s.baseURL, profile, req.Start.Lng, req.Start.Lat, req.End.Lng, req.End.Lat)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("routing: failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRoutingUnavailable, err)
	}
	defer resp.Body.Close()

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response (status %d): %w", ErrRoutingUnavailable, resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || body.Code != "Ok" {
		return nil, fmt.Errorf("%w: status %d code %q: %s", ErrRoutingUnavailable, resp.StatusCode, body.Code, body.Message)
	}
	if len(body.Routes) == 0 {
		return nil, fmt.Errorf("%w: no routes returned", ErrRoutingUnavailable)
	}

	candidates := make([]domain.RouteCandidate, 0, len(body.Routes))
	for i, r := range body.Routes {
		c, err := r.candidate()
		if err != nil {
			return nil, fmt.Errorf("%w: route %d: %w", ErrRoutingUnavailable, i, err)
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// OSRM wire format

type osrmResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Routes  []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Duration float64 `json:"duration"`
	Distance float64 `json:"distance"`
	Geometry struct {
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"geometry"`
	Legs []struct {
		Steps []osrmStep `json:"steps"`
	} `json:"legs"`
}

type osrmStep struct {
	Name     string       `json:"name"`
	Maneuver osrmManeuver `json:"maneuver"`
}

type osrmManeuver struct {
	Location    []float64 `json:"location"`
	Type        string    `json:"type"`
	Modifier    string    `json:"modifier"`
	Exit        int       `json:"exit"`
	Instruction string    `json:"instruction"`
}

func (r osrmRoute) candidate() (domain.RouteCandidate, error) {
	c := domain.RouteCandidate{
		DurationSeconds: r.Duration,
		DistanceMeters:  r.Distance,
		Geometry:        make([]domain.Coordinate, 0, len(r.Geometry.Coordinates)),
	}

	for _, p := range r.Geometry.Coordinates {
		coord, err := lngLat(p)
		if err != nil {
			return domain.RouteCandidate{}, err
		}
		c.Geometry = append(c.Geometry, coord)
	}

	for _, leg := range r.Legs {
		for _, st := range leg.Steps {
			loc, err := lngLat(st.Maneuver.Location)
			if err != nil {
				return domain.RouteCandidate{}, err
			}
			instruction := st.Maneuver.Instruction
			if instruction == "" {
				instruction = composeInstruction(st.Maneuver, st.Name)
			}
			c.Steps = append(c.Steps, domain.Step{Location: loc, Instruction: instruction})
		}
	}
	return c, nil
}

// lngLat converts an OSRM [lng, lat] pair
func lngLat(p []float64) (domain.Coordinate, error) {
	if len(p) < 2 {
		return domain.Coordinate{}, fmt.Errorf("malformed coordinate %v", p)
	}
	return domain.Coordinate{Lat: p[1], Lng: p[0]}, nil
}

// composeInstruction builds maneuver text when the server sends none
func composeInstruction(m osrmManeuver, road string) string {
	onto := ""
	if road != "" {
		onto = " onto " + road
	}

	switch m.Type {
	case "depart":
		if road != "" {
			return "Head out on " + road
		}
		return "Head out"
	case "arrive":
		return "You have arrived at your destination"
	case "roundabout", "rotary":
		if m.Exit > 0 {
			return fmt.Sprintf("Enter the roundabout and take exit %d%s", m.Exit, onto)
		}
		return "Enter the roundabout" + onto
	case "turn", "end of road", "fork":
		if m.Modifier != "" {
			return "Turn " + m.Modifier + onto
		}
	case "new name", "continue":
		if road != "" {
			return "Continue on " + road
		}
		return "Continue"
	}

	text := capitalize(m.Type)
	if text == "" {
		text = "Continue"
	}
	if m.Modifier != "" {
		text += " " + m.Modifier
	}
	return text + onto
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
