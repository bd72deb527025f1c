package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/navigation/internal/domain"
)

var errDB = errors.New("db down")

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestSaveNavigationEvent(t *testing.T) {
	mock := newMock(t)
	now := time.Now()

	mock.ExpectExec(`INSERT INTO navigation_events`).
		WithArgs("session-1", "arrived", 3, 0.0, "", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewPostgresRepository(mock)
	err := repo.SaveNavigationEvent(context.Background(), domain.NavigationEvent{
		SessionID: "session-1",
		Kind:      domain.EventArrived,
		StepIndex: 3,
		CreatedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveNavigationEventError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`INSERT INTO navigation_events`).WillReturnError(errDB)

	err := NewPostgresRepository(mock).SaveNavigationEvent(context.Background(), domain.NavigationEvent{})
	assert.ErrorIs(t, err, errDB)
}

func TestSaveIncidentAlert(t *testing.T) {
	mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO incident_alerts`).
		WithArgs(pgxmock.AnyArg(), 43.2, 76.9, "help", 0.0, 0.0, false, now).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := NewPostgresRepository(mock).SaveIncidentAlert(context.Background(), domain.IncidentAlert{
		Location:  domain.Coordinate{Lat: 43.2, Lng: 76.9},
		Message:   "help",
		CreatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRecentAlerts(t *testing.T) {
	mock := newMock(t)
	to := time.Now()
	from := to.Add(-time.Hour)

	mock.ExpectQuery(`SELECT id, COALESCE\(session_id, ''\), lat, lng, message`).
		WithArgs(from, to).
		WillReturnRows(pgxmock.NewRows([]string{"id", "session_id", "lat", "lng", "message", "prev", "cur", "automatic", "created_at"}).
			AddRow(int64(1), "session-1", 13.08, 80.27, "stop", 52.0, 1.0, true, to))

	alerts, err := NewPostgresRepository(mock).GetRecentAlerts(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "session-1", alerts[0].SessionID)
	assert.True(t, alerts[0].Automatic)
	assert.Contains(t, alerts[0].LocationLink, "q=13.080000,80.270000")
}

func TestGetRecentAlertsError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT id`).WillReturnError(errDB)

	_, err := NewPostgresRepository(mock).GetRecentAlerts(context.Background(), time.Now(), time.Now())
	assert.ErrorIs(t, err, errDB)
}

func TestHealth(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(errDB)

	repo := NewPostgresRepository(mock)
	assert.NoError(t, repo.Health(context.Background()))
	assert.ErrorIs(t, repo.Health(context.Background()), errDB)
}

func TestMockRepository(t *testing.T) {
	repo := NewMockRepository()
	ctx := context.Background()
	now := time.Now()

	id, err := repo.SaveIncidentAlert(ctx, domain.IncidentAlert{Message: "old", CreatedAt: now.Add(-2 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	_, _ = repo.SaveIncidentAlert(ctx, domain.IncidentAlert{Message: "new", CreatedAt: now})
	require.NoError(t, repo.SaveNavigationEvent(ctx, domain.NavigationEvent{Kind: domain.EventStarted}))

	alerts, err := repo.GetRecentAlerts(ctx, now.Add(-time.Hour), now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "new", alerts[0].Message)
	assert.Len(t, repo.Events(), 1)
	assert.NoError(t, repo.Health(ctx))
}
