// Package geo computes great-circle distances and delivery time estimates.
package geo

import (
	"math"
	"sync"
	"time"

	"courier-dispatch/internal/apperr"
	"courier-dispatch/internal/config"
	"courier-dispatch/internal/domain"
)

const earthRadiusKm = 6371

// Calculator holds the shared matching tunables. The working range is
// adjustable by an operator command and the average speed is refreshed
// periodically from completed-delivery metrics, so access is mutex-guarded.
type Calculator struct {
	mu           sync.RWMutex
	workingRange float64
	minRange     float64
	avgSpeed     float64
	waitingTime  float64

	now func() time.Time
}

// NewCalculator builds a Calculator from the dispatch settings.
func NewCalculator(cfg config.Dispatch) *Calculator {
	return &Calculator{
		workingRange: cfg.WorkingRangeKm,
		minRange:     cfg.MinWorkingRangeKm,
		avgSpeed:     cfg.AvgSpeedKmh,
		waitingTime:  cfg.WaitingTimeHours,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock, for tests.
func (c *Calculator) WithNow(now func() time.Time) *Calculator {
	c.now = now
	return c
}

// WorkingRange returns the current working range in km.
func (c *Calculator) WorkingRange() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.workingRange
}

// AdjustWorkingRange adds a signed delta to the working range and returns the
// new value. The range never drops below the configured floor, a zero or
// negative range would make every match impossible.
func (c *Calculator) AdjustWorkingRange(deltaKm float64) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.workingRange + deltaKm
	if next < c.minRange {
		return c.workingRange, apperr.ErrInvalid
	}
	c.workingRange = next
	return next, nil
}

// AvgSpeed returns the current average courier speed in km/h.
func (c *Calculator) AvgSpeed() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.avgSpeed
}

// SetAvgSpeed replaces the average courier speed. Non-positive values are
// ignored so a degenerate metrics sweep cannot break the ETA math.
func (c *Calculator) SetAvgSpeed(kmh float64) {
	if kmh <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.avgSpeed = kmh
}

// Distance sums the great-circle distance in km along the given path.
func (c *Calculator) Distance(points ...domain.Location) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += haversineKm(points[i-1], points[i])
	}
	return total
}

// EstimatedMinutes converts a path length into a delivery time estimate:
// travel at the average courier speed plus the fixed pickup waiting buffer.
func (c *Calculator) EstimatedMinutes(distanceKm float64) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return (distanceKm/c.avgSpeed + c.waitingTime) * 60
}

// FindCandidate scans the free couriers in the order given and picks the
// first one whose path courier→pickup→consumer fits within twice the working
// range. This is deliberately not a nearest-neighbor search: courier sets are
// small and any courier inside the threshold is acceptable, so the scan stops
// at the first hit.
func (c *Calculator) FindCandidate(
	pickup, consumer domain.Location,
	free []domain.Courier,
) (*domain.Courier, float64, float64, bool) {
	threshold := c.WorkingRange() * 2
	for i := range free {
		cr := free[i]
		if cr.Location == nil {
			continue
		}
		pathKm := c.Distance(*cr.Location, pickup, consumer)
		if pathKm <= threshold {
			return &cr, c.EstimatedMinutes(pathKm), pathKm, true
		}
	}
	return nil, 0, 0, false
}

// MatchDelivery tries to find a courier for the delivery. On success the
// delivery's estimated time and distance are set on the passed copy and the
// chosen courier is returned. On failure the priority counter is bumped and
// apperr.ErrNoCandidate is returned; the caller decides what to do with the
// bumped value.
func (c *Calculator) MatchDelivery(d *domain.Delivery, free []domain.Courier) (*domain.Courier, error) {
	courier, etaMinutes, distanceKm, ok := c.FindCandidate(d.Pickup, d.Consumer, free)
	if !ok {
		d.Priority++
		return nil, apperr.ErrNoCandidate
	}
	eta := c.now().Add(time.Duration(etaMinutes * float64(time.Minute)))
	d.EstimatedTime = &eta
	d.Distance = distanceKm
	return courier, nil
}

// haversineKm returns the great-circle distance between two points.
func haversineKm(a, b domain.Location) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
