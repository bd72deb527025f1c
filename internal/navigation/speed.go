package navigation

import (
	"time"

	"github.com/smartcity/navigation/internal/domain"
)

// EstimateSpeed derives km/h from two consecutive fixes.
// ok is false when prev is nil or no time elapsed.
func EstimateSpeed(prev *domain.Fix, cur domain.Fix) (kmh float64, ok bool) {
	if prev == nil {
		return 0, false
	}
	elapsed := float64(cur.TimestampMillis-prev.TimestampMillis) / 1000
	if elapsed <= 0 {
		return 0, false
	}
	return prev.Coordinate.DistanceTo(cur.Coordinate) / elapsed * 3.6, true
}

const (
	// DefaultSampleInterval is the cadence at which speed is sampled for incidents
	DefaultSampleInterval = 8 * time.Second
	// DefaultHighSpeedKmh is the speed the prior sample must exceed
	DefaultHighSpeedKmh = 40.0
	// DefaultStopSpeedKmh is the speed the current sample must fall under
	DefaultStopSpeedKmh = 5.0
)

// IncidentConfig tunes sudden-stop detection
type IncidentConfig struct {
	SampleInterval time.Duration
	HighSpeedKmh   float64
	StopSpeedKmh   float64
}

// DefaultIncidentConfig returns the 8s / 40 km/h / 5 km/h configuration
func DefaultIncidentConfig() IncidentConfig {
	return IncidentConfig{
		SampleInterval: DefaultSampleInterval,
		HighSpeedKmh:   DefaultHighSpeedKmh,
		StopSpeedKmh:   DefaultStopSpeedKmh,
	}
}

// IncidentDetector samples the speed derived from a fix stream at a fixed
// cadence and raises a single candidate incident when a high-speed sample is
// followed by a near-zero one. It stays silent until Reset.
type IncidentDetector struct {
	cfg IncidentConfig

	lastFix      *domain.Fix
	currentSpeed float64
	lastSampleAt int64
	sampled      bool
	prevSample   float64
	triggered    bool
}

// NewIncidentDetector creates an armed detector
func NewIncidentDetector(cfg IncidentConfig) *IncidentDetector {
	return &IncidentDetector{cfg: cfg}
}

// Observe feeds one fix. It returns the latest speed estimate (ok=false before
// one exists) and, at most once per arming, an incident.
func (d *IncidentDetector) Observe(fix domain.Fix) (speedKmh float64, ok bool, incident *domain.Incident) {
	speedKmh, ok = EstimateSpeed(d.lastFix, fix)
	if ok {
		d.currentSpeed = speedKmh
	}
	f := fix
	d.lastFix = &f

	interval := d.cfg.SampleInterval.Milliseconds()
	if d.sampled && fix.TimestampMillis-d.lastSampleAt < interval {
		return speedKmh, ok, nil
	}
	if !d.sampled {
		// first sample only establishes the cadence origin
		d.sampled = true
		d.lastSampleAt = fix.TimestampMillis
		d.prevSample = d.currentSpeed
		return speedKmh, ok, nil
	}

	sample := d.currentSpeed
	if !d.triggered && d.prevSample > d.cfg.HighSpeedKmh && sample < d.cfg.StopSpeedKmh {
		d.triggered = true
		incident = &domain.Incident{
			Location:         fix.Coordinate,
			TimestampMillis:  fix.TimestampMillis,
			PreviousSpeedKmh: d.prevSample,
			CurrentSpeedKmh:  sample,
		}
	}
	d.prevSample = sample
	d.lastSampleAt = fix.TimestampMillis
	return speedKmh, ok, incident
}

// Triggered reports whether an incident was raised since the last Reset
func (d *IncidentDetector) Triggered() bool {
	return d.triggered
}

// Reset re-arms the detector and restarts the sampling cadence.
// The speed estimate itself carries over.
func (d *IncidentDetector) Reset() {
	d.triggered = false
	d.sampled = false
	d.prevSample = 0
	d.lastSampleAt = 0
}
