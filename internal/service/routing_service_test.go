package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/navigation/internal/domain"
	"github.com/smartcity/navigation/internal/repository/redis"
)

const osrmTwoRoutes = `{
  "code": "Ok",
  "routes": [
    {
      "duration": 600, "distance": 4200,
      "geometry": {"coordinates": [[76.889709, 43.238949], [76.9, 43.24], [76.92848, 43.25654]]},
      "legs": [{"steps": [
        {"name": "Abai Avenue", "maneuver": {"location": [76.889709, 43.238949], "type": "depart", "instruction": "Head east on Abai Avenue"}},
        {"name": "Dostyk Avenue", "maneuver": {"location": [76.9, 43.24], "type": "turn", "modifier": "right"}},
        {"name": "", "maneuver": {"location": [76.92848, 43.25654], "type": "arrive"}}
      ]}]
    },
    {
      "duration": 720, "distance": 4800,
      "geometry": {"coordinates": [[76.889709, 43.238949], [76.92848, 43.25654]]},
      "legs": [{"steps": []}]
    }
  ]
}`

var almatyRequest = domain.RouteRequest{
	Start:   domain.Coordinate{Lat: 43.238949, Lng: 76.889709},
	End:     domain.Coordinate{Lat: 43.25654, Lng: 76.92848},
	Vehicle: domain.VehicleCar,
}

func osrmServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRoutingServiceParsesAlternatives(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(osrmTwoRoutes))
	}))
	defer srv.Close()

	candidates, err := NewRoutingService(srv.URL+"/", nil).Route(context.Background(), almatyRequest)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "/route/v1/driving/76.889709,43.238949;76.928480,43.256540", gotPath)
	assert.Contains(t, gotQuery, "geometries=geojson")
	assert.Contains(t, gotQuery, "steps=true")
	assert.Contains(t, gotQuery, "alternatives=true")

	best := candidates[0]
	assert.Equal(t, 600.0, best.DurationSeconds)
	assert.Equal(t, 4200.0, best.DistanceMeters)
	require.Len(t, best.Geometry, 3)
	assert.Equal(t, domain.Coordinate{Lat: 43.238949, Lng: 76.889709}, best.Geometry[0])

	require.Len(t, best.Steps, 3)
	assert.Equal(t, "Head east on Abai Avenue", best.Steps[0].Instruction)
	assert.Equal(t, "Turn right onto Dostyk Avenue", best.Steps[1].Instruction)
	assert.Equal(t, "You have arrived at your destination", best.Steps[2].Instruction)
	assert.Equal(t, domain.Coordinate{Lat: 43.24, Lng: 76.9}, best.Steps[1].Location)

	assert.Empty(t, candidates[1].Steps)
}

func TestRoutingServiceVehicleProfiles(t *testing.T) {
	tests := []struct {
		vehicle  domain.Vehicle
		profile  string
		duration float64
	}{
		{domain.VehicleCar, "driving", 600},
		{domain.VehicleTruck, "driving", 720},
		{domain.VehicleBike, "cycling", 1200},
		{domain.VehicleWalk, "foot", 3600},
		{"", "driving", 600},
	}

	for _, tt := range tests {
		t.Run(string(tt.vehicle), func(t *testing.T) {
			var path string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				path = r.URL.Path
				_, _ = w.Write([]byte(osrmTwoRoutes))
			}))
			defer srv.Close()

			req := almatyRequest
			req.Vehicle = tt.vehicle
			candidates, err := NewRoutingService(srv.URL, nil).Route(context.Background(), req)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(path, "/route/v1/"+tt.profile+"/"))
			assert.InDelta(t, tt.duration, candidates[0].DurationSeconds, 1e-9)
			assert.InDelta(t, 720*DurationMultiplier(tt.vehicle), candidates[1].DurationSeconds, 1e-9)
		})
	}
}

func TestRoutingServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"code":"Error","message":"boom"}`},
		{"no route", http.StatusOK, `{"code":"NoRoute","message":"Impossible route"}`},
		{"empty routes", http.StatusOK, `{"code":"Ok","routes":[]}`},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`},
		{"malformed coordinate", http.StatusOK, `{"code":"Ok","routes":[{"geometry":{"coordinates":[[1]]}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := osrmServer(t, tt.status, tt.body, nil)
			_, err := NewRoutingService(srv.URL, nil).Route(context.Background(), almatyRequest)
			assert.ErrorIs(t, err, ErrRoutingUnavailable)
		})
	}
}

func TestRoutingServiceUnreachable(t *testing.T) {
	srv := osrmServer(t, http.StatusOK, osrmTwoRoutes, nil)
	url := srv.URL
	srv.Close()

	_, err := NewRoutingService(url, nil).Route(context.Background(), almatyRequest)
	assert.ErrorIs(t, err, ErrRoutingUnavailable)
}

func TestRoutingServiceRejectsInvalidEndpoints(t *testing.T) {
	req := almatyRequest
	req.End = domain.Coordinate{Lat: 95, Lng: 0}

	_, err := NewRoutingService("http://unused", nil).Route(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRoutingServiceUsesCache(t *testing.T) {
	var hits int32
	srv := osrmServer(t, http.StatusOK, osrmTwoRoutes, &hits)

	s := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	defer rdb.Close()

	svc := NewRoutingService(srv.URL, redis.NewRouteCache(rdb, time.Minute))

	first, err := svc.Route(context.Background(), almatyRequest)
	require.NoError(t, err)

	truck := almatyRequest
	truck.Vehicle = domain.VehicleTruck
	second, err := svc.Route(context.Background(), truck)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "truck should reuse the driving entry")
	assert.InDelta(t, first[0].DurationSeconds*1.2, second[0].DurationSeconds, 1e-9)
}

func TestComposeInstruction(t *testing.T) {
	tests := []struct {
		m    osrmManeuver
		road string
		want string
	}{
		{osrmManeuver{Type: "depart"}, "", "Head out"},
		{osrmManeuver{Type: "turn", Modifier: "sharp left"}, "", "Turn sharp left"},
		{osrmManeuver{Type: "roundabout", Exit: 2}, "Satpaev Street", "Enter the roundabout and take exit 2 onto Satpaev Street"},
		{osrmManeuver{Type: "new name"}, "Al-Farabi", "Continue on Al-Farabi"},
		{osrmManeuver{Type: "merge", Modifier: "slight right"}, "", "Merge slight right"},
		{osrmManeuver{}, "", "Continue"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, composeInstruction(tt.m, tt.road))
	}
}
