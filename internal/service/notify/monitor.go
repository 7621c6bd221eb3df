// Package notify watches active deliveries for schedule slippage.
package notify

import (
	"time"

	"courier-dispatch/internal/config"
	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/geo"
	"courier-dispatch/internal/logx"
	"courier-dispatch/internal/metrics"
	"courier-dispatch/internal/registry"
)

// Monitor classifies active deliveries into behind-schedule and timed-out
// sets. It performs no messaging itself; the caller hands both sets to the
// notifier.
type Monitor struct {
	deliveries *registry.Deliveries
	couriers   *registry.Couriers
	calc       *geo.Calculator
	debounce   time.Duration
	logger     logx.Logger
	m          *metrics.Metrics
	now        func() time.Time
}

// NewMonitor wires the lateness monitor.
func NewMonitor(
	deliveries *registry.Deliveries,
	couriers *registry.Couriers,
	calc *geo.Calculator,
	cfg config.Dispatch,
	logger logx.Logger,
	m *metrics.Metrics,
) *Monitor {
	return &Monitor{
		deliveries: deliveries,
		couriers:   couriers,
		calc:       calc,
		debounce:   cfg.NotifyDebounce,
		logger:     logger,
		m:          m,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock, for tests.
func (mo *Monitor) WithNow(now func() time.Time) *Monitor {
	mo.now = now
	return mo
}

// Run scans the active deliveries once and returns two disjoint sets: those
// projected to miss their deadline (debounced) and those already past it.
// A timed-out delivery is never also reported as late.
func (mo *Monitor) Run() (toNotify, timedOut []domain.Delivery) {
	now := mo.now()
	active := mo.deliveries.ByStatus(domain.StatusAssigned, domain.StatusPickedUp)

	for i := range active {
		d := active[i]
		if d.EstimatedTime == nil {
			mo.logger.Warn("active delivery without estimate", logx.Int64("delivery_id", d.ID))
			continue
		}

		if !now.Before(*d.EstimatedTime) {
			timedOut = append(timedOut, d)
			mo.m.TimeoutsTotal.Inc()
			continue
		}

		if mo.onSchedule(&d, now) {
			continue
		}
		if !mo.debounced(&d, now) {
			continue
		}

		mo.deliveries.MarkNotified(d.ID, now)
		d.LastNotificationTS = &now
		toNotify = append(toNotify, d)
		mo.m.LateNotificationsTotal.Inc()
	}
	return toNotify, timedOut
}

// onSchedule projects the courier's arrival over the remaining path at the
// current average speed and compares it with the deadline. Unknown couriers
// or couriers without a location are treated as on schedule and logged, a
// stale reference must not spam lateness alerts.
func (mo *Monitor) onSchedule(d *domain.Delivery, now time.Time) bool {
	if d.CourierID == nil {
		mo.logger.Warn("active delivery without courier", logx.Int64("delivery_id", d.ID))
		return true
	}
	courier, ok := mo.couriers.Get(*d.CourierID)
	if !ok || courier.Location == nil {
		mo.logger.Warn("courier unavailable for timing check",
			logx.Int64("delivery_id", d.ID),
			logx.Int64("courier_id", *d.CourierID),
		)
		return true
	}

	var leftKm float64
	if d.Status == domain.StatusAssigned {
		leftKm = mo.calc.Distance(*courier.Location, d.Pickup, d.Consumer)
	} else {
		leftKm = mo.calc.Distance(*courier.Location, d.Consumer)
	}

	requiredHours := leftKm / mo.calc.AvgSpeed()
	projected := now.Add(time.Duration(requiredHours * float64(time.Hour)))
	return !projected.After(*d.EstimatedTime)
}

// debounced reports whether enough time has passed since the last lateness
// notification for this delivery.
func (mo *Monitor) debounced(d *domain.Delivery, now time.Time) bool {
	if d.LastNotificationTS == nil {
		return true
	}
	return now.Sub(*d.LastNotificationTS) >= mo.debounce
}
