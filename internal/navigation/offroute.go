package navigation

import (
	"math"

	"github.com/smartcity/navigation/internal/domain"
)

// NearestVertexMeters returns the distance from c to the closest vertex of polyline.
// ok is false for an empty polyline.
func NearestVertexMeters(c domain.Coordinate, polyline []domain.Coordinate) (float64, bool) {
	if len(polyline) == 0 {
		return 0, false
	}
	nearest := math.Inf(1)
	for _, p := range polyline {
		if d := c.DistanceTo(p); d < nearest {
			nearest = d
		}
	}
	return nearest, true
}

// IsOffRoute reports whether fix lies farther than threshold from every vertex of
// the remaining polyline. Distance is measured to vertices, not segments, so long
// sparse segments under-detect deviation. An empty polyline is never off-route.
func IsOffRoute(fix domain.Fix, remaining []domain.Coordinate, thresholdMeters float64) bool {
	nearest, ok := NearestVertexMeters(fix.Coordinate, remaining)
	if !ok {
		return false
	}
	return nearest > thresholdMeters
}
