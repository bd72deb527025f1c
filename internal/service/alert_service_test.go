package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/navigation/internal/domain"
	"github.com/smartcity/navigation/internal/repository/postgres"
)

// fakePublisher records published messages per session
type fakePublisher struct {
	mu       sync.Mutex
	messages map[string][]any
}

func (p *fakePublisher) Publish(sessionID string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.messages == nil {
		p.messages = map[string][]any{}
	}
	p.messages[sessionID] = append(p.messages[sessionID], v)
	return nil
}

func (p *fakePublisher) Count(sessionID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages[sessionID])
}

func (p *fakePublisher) Messages(sessionID string) []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]any(nil), p.messages[sessionID]...)
}

func floatPtr(v float64) *float64 { return &v }

func TestRaiseEmergency(t *testing.T) {
	var got webhookPayload
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer hook.Close()

	repo := postgres.NewMockRepository()
	pub := &fakePublisher{}
	svc := NewAlertService(repo, pub, hook.URL)

	alert, err := svc.RaiseEmergency(context.Background(), domain.EmergencyRequest{
		SessionID: "s-1",
		Lat:       floatPtr(13.0827),
		Lng:       floatPtr(80.2707),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), alert.ID)
	assert.False(t, alert.Automatic)
	assert.Equal(t, "https://www.google.com/maps?q=13.082700,80.270700", alert.LocationLink)
	assert.Contains(t, alert.Message, "EMERGENCY ALERT")
	assert.Contains(t, alert.Message, alert.LocationLink)

	assert.Equal(t, alert.Message, got.MessageBody)
	assert.Len(t, got.VoiceScript, 3)
	assert.Equal(t, "s-1", got.Alert.SessionID)
	assert.Equal(t, 1, pub.Count("s-1"))
}

func TestRaiseEmergencyValidation(t *testing.T) {
	svc := NewAlertService(postgres.NewMockRepository(), nil, "")

	_, err := svc.RaiseEmergency(context.Background(), domain.EmergencyRequest{Lat: floatPtr(1)})
	assert.ErrorIs(t, err, ErrMissingLocation)

	_, err = svc.RaiseEmergency(context.Background(), domain.EmergencyRequest{Lat: floatPtr(91), Lng: floatPtr(0)})
	assert.ErrorIs(t, err, ErrInvalidLocation)
}

func TestRaiseEmergencyWithoutSessionSkipsStream(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewAlertService(postgres.NewMockRepository(), pub, "")

	_, err := svc.RaiseEmergency(context.Background(), domain.EmergencyRequest{Lat: floatPtr(0), Lng: floatPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, 0, pub.Count(""))
}

func TestReportIncidentWebhookFailure(t *testing.T) {
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer hook.Close()

	repo := postgres.NewMockRepository()
	svc := NewAlertService(repo, nil, hook.URL)

	alert, err := svc.ReportIncident(context.Background(), "s-2", domain.Incident{
		Location:         domain.Coordinate{Lat: 43.2, Lng: 76.9},
		PreviousSpeedKmh: 62,
		CurrentSpeedKmh:  1.5,
	})
	assert.ErrorIs(t, err, ErrAlertDelivery)
	assert.True(t, alert.Automatic)
	assert.Equal(t, 62.0, alert.PreviousSpeedKmh)

	// stored even though delivery failed
	stored, err := svc.RecentAlerts(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "s-2", stored[0].SessionID)
}

func TestRecentAlertsWindow(t *testing.T) {
	repo := postgres.NewMockRepository()
	svc := NewAlertService(repo, nil, "")
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	svc.now = func() time.Time { return now.Add(-3 * time.Hour) }
	_, err := svc.RaiseEmergency(context.Background(), domain.EmergencyRequest{Lat: floatPtr(1), Lng: floatPtr(1)})
	require.NoError(t, err)

	svc.now = func() time.Time { return now }
	_, err = svc.RaiseEmergency(context.Background(), domain.EmergencyRequest{Lat: floatPtr(2), Lng: floatPtr(2)})
	require.NoError(t, err)

	alerts, err := svc.RecentAlerts(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, 2.0, alerts[0].Location.Lat)
}
