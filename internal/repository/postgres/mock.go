package postgres

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/smartcity/navigation/internal/domain"
)

// MockRepository implements domain.DataRepository in memory for testing/demo mode
type MockRepository struct {
	mu     sync.RWMutex
	events []domain.NavigationEvent
	alerts []domain.IncidentAlert
}

// NewMockRepository creates a new mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

// SaveNavigationEvent keeps the event in memory
func (r *MockRepository) SaveNavigationEvent(ctx context.Context, event domain.NavigationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// SaveIncidentAlert keeps the alert in memory and assigns a sequential id
func (r *MockRepository) SaveIncidentAlert(ctx context.Context, alert domain.IncidentAlert) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert.ID = int64(len(r.alerts) + 1)
	r.alerts = append(r.alerts, alert)
	return alert.ID, nil
}

// GetRecentAlerts returns stored alerts in the window, newest first
func (r *MockRepository) GetRecentAlerts(ctx context.Context, from, to time.Time) ([]domain.IncidentAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []domain.IncidentAlert
	for _, a := range r.alerts {
		if !a.CreatedAt.Before(from) && !a.CreatedAt.After(to) {
			results = append(results, a)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results, nil
}

// Events returns a copy of the stored navigation events
func (r *MockRepository) Events() []domain.NavigationEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.NavigationEvent(nil), r.events...)
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(ctx context.Context) error {
	return nil
}
