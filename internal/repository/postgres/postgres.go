package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/smartcity/navigation/internal/domain"
)

// Querier is the subset of *pgxpool.Pool the repository needs.
// pgxmock pools satisfy it as well.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresRepository implements domain.DataRepository
type PostgresRepository struct {
	pool Querier
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool Querier) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// SaveNavigationEvent persists a session milestone to PostgreSQL
func (r *PostgresRepository) SaveNavigationEvent(ctx context.Context, event domain.NavigationEvent) error {
	query := `
		INSERT INTO navigation_events (
			session_id, kind, step_index, remaining_m, detail, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		event.SessionID, string(event.Kind), event.StepIndex, event.RemainingMeters, event.Detail, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save navigation event: %w", err)
	}

	return nil
}

// SaveIncidentAlert persists an alert and returns its id
func (r *PostgresRepository) SaveIncidentAlert(ctx context.Context, alert domain.IncidentAlert) (int64, error) {
	query := `
		INSERT INTO incident_alerts (
			session_id, lat, lng, message, prev_speed_kmh, cur_speed_kmh, automatic, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	// empty session id is stored as NULL for manual alerts raised outside navigation
	var sessionID interface{}
	if alert.SessionID != "" {
		sessionID = alert.SessionID
	}

	var id int64
	err := r.pool.QueryRow(ctx, query,
		sessionID, alert.Location.Lat, alert.Location.Lng, alert.Message,
		alert.PreviousSpeedKmh, alert.CurrentSpeedKmh, alert.Automatic, alert.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to save incident alert: %w", err)
	}

	return id, nil
}

// GetRecentAlerts retrieves alert history from PostgreSQL
func (r *PostgresRepository) GetRecentAlerts(ctx context.Context, from, to time.Time) ([]domain.IncidentAlert, error) {
	query := `
		SELECT id, COALESCE(session_id, ''), lat, lng, message,
			   prev_speed_kmh, cur_speed_kmh, automatic, created_at
		FROM incident_alerts
		WHERE created_at BETWEEN $1 AND $2
		ORDER BY created_at DESC
		LIMIT 100
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query incident alerts: %w", err)
	}
	defer rows.Close()

	var results []domain.IncidentAlert
	for rows.Next() {
		var a domain.IncidentAlert
		err := rows.Scan(
			&a.ID, &a.SessionID, &a.Location.Lat, &a.Location.Lng, &a.Message,
			&a.PreviousSpeedKmh, &a.CurrentSpeedKmh, &a.Automatic, &a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan incident alert row: %w", err)
		}
		a.LocationLink = domain.LocationLink(a.Location)
		results = append(results, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read incident alerts: %w", err)
	}

	return results, nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}
