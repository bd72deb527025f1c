package service

import (
	"math/rand"
	"sync"
	"time"

	"github.com/smartcity/navigation/internal/domain"
	"github.com/smartcity/navigation/pkg/utils"
)

const (
	minTrafficFactor = 0.85
	maxTrafficFactor = 1.15
)

// ETAService adjusts routing durations for time-of-day traffic
type ETAService struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewETAService creates an ETA estimator. A nil source seeds from the clock.
func NewETAService(src rand.Source) *ETAService {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &ETAService{
		rng: rand.New(src),
		now: time.Now,
	}
}

// Estimate returns a traffic-adjusted ETA for a route of baseSeconds
func (s *ETAService) Estimate(baseSeconds float64) domain.ETA {
	now := s.now()

	s.mu.Lock()
	index := s.congestionIndex(now.Hour(), now.Weekday())
	s.mu.Unlock()

	factor := trafficFactor(index)
	traffic := baseSeconds * factor

	return domain.ETA{
		BaseDurationSeconds:    baseSeconds,
		TrafficDurationSeconds: traffic,
		TrafficFactor:          utils.RoundTo(factor, 3),
		CongestionIndex:        utils.RoundTo(index, 1),
		CongestionLevel:        congestionLevel(index),
		Minutes:                utils.RoundTo(traffic/60, 1),
		ComputedAt:             now,
	}
}

// trafficFactor maps a 0-100 congestion index onto [0.85, 1.15]
func trafficFactor(index float64) float64 {
	f := minTrafficFactor + (maxTrafficFactor-minTrafficFactor)*index/100
	return utils.Clamp(f, minTrafficFactor, maxTrafficFactor)
}

// congestionIndex returns 0-100 based on time patterns; caller holds s.mu
func (s *ETAService) congestionIndex(hour int, weekday time.Weekday) float64 {
	if weekday == time.Saturday || weekday == time.Sunday {
		return 25 + s.rng.Float64()*20
	}

	switch {
	case hour >= 7 && hour <= 9: // morning rush
		return 70 + s.rng.Float64()*25
	case hour >= 17 && hour <= 19: // evening rush
		return 75 + s.rng.Float64()*20
	case hour >= 12 && hour <= 14:
		return 50 + s.rng.Float64()*15
	case hour >= 22 || hour <= 5:
		return 10 + s.rng.Float64()*10
	default:
		return 35 + s.rng.Float64()*20
	}
}

func congestionLevel(index float64) string {
	switch {
	case index >= 80:
		return "Severe"
	case index >= 60:
		return "Heavy"
	case index >= 40:
		return "Moderate"
	case index >= 20:
		return "Light"
	default:
		return "Free Flow"
	}
}
