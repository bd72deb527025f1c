package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/smartcity/navigation/internal/domain"
	"github.com/smartcity/navigation/pkg/utils"
)

// VehicleService compares travel times across vehicles
type VehicleService struct {
	routes RouteProvider
}

// NewVehicleService creates a new vehicle comparison service
func NewVehicleService(routes RouteProvider) *VehicleService {
	return &VehicleService{routes: routes}
}

// CompareVehicles fetches the best route for every vehicle concurrently.
// Vehicles whose lookup fails are reported unavailable; it errors only when all fail.
func (s *VehicleService) CompareVehicles(ctx context.Context, start, end domain.Coordinate) ([]domain.VehicleTime, error) {
	var (
		results = make([]domain.VehicleTime, len(domain.Vehicles))
		wg      sync.WaitGroup
		mu      sync.Mutex
		errs    []error
	)

	for i, v := range domain.Vehicles {
		wg.Add(1)
		go func(i int, v domain.Vehicle) {
			defer wg.Done()
			results[i] = domain.VehicleTime{Vehicle: v, Display: "unavailable"}

			candidates, err := s.routes.Route(ctx, domain.RouteRequest{Start: start, End: end, Vehicle: v})
			if err == nil && len(candidates) == 0 {
				err = fmt.Errorf("%w: no routes for %s", ErrRoutingUnavailable, v)
			}
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}

			best := candidates[0]
			results[i] = domain.VehicleTime{
				Vehicle:         v,
				DurationSeconds: best.DurationSeconds,
				DistanceMeters:  best.DistanceMeters,
				Display:         utils.FormatDuration(best.DurationSeconds) + " · " + utils.FormatDistance(best.DistanceMeters),
				Available:       true,
			}
		}(i, v)
	}

	wg.Wait()

	for _, err := range errs {
		log.Printf("Vehicle time fetch error: %v", err)
	}
	if len(errs) == len(domain.Vehicles) {
		return nil, errors.Join(errs...)
	}

	return results, nil
}
