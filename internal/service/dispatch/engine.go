// Package dispatch matches pending deliveries to free couriers and owns the
// delivery lifecycle transitions driven from the courier side.
package dispatch

import (
	"context"
	"time"

	"courier-dispatch/internal/apperr"
	"courier-dispatch/internal/config"
	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/geo"
	"courier-dispatch/internal/logx"
	"courier-dispatch/internal/metrics"
	"courier-dispatch/internal/registry"
	"courier-dispatch/internal/transport/kafka"
)

// Engine is the dispatch/matching core.
type Engine struct {
	couriers   *registry.Couriers
	deliveries *registry.Deliveries
	calc       *geo.Calculator
	admission  *Admission
	bus        Bus
	logger     logx.Logger
	m          *metrics.Metrics
	tolerance  float64
	now        func() time.Time
}

// NewEngine wires the dispatch engine.
func NewEngine(
	couriers *registry.Couriers,
	deliveries *registry.Deliveries,
	calc *geo.Calculator,
	admission *Admission,
	bus Bus,
	cfg config.Dispatch,
	logger logx.Logger,
	m *metrics.Metrics,
) *Engine {
	if bus == nil {
		bus = NopBus{}
	}
	return &Engine{
		couriers:   couriers,
		deliveries: deliveries,
		calc:       calc,
		admission:  admission,
		bus:        bus,
		logger:     logger,
		m:          m,
		tolerance:  cfg.ProximityToleranceKm,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock, for tests.
func (e *Engine) WithNow(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Admission exposes the engine's circuit breaker for out-of-band unlocks.
func (e *Engine) Admission() *Admission { return e.admission }

// RunTick performs one dispatch pass: admission check, then a matching
// attempt for every pending delivery in the tick-start snapshot. The
// returned slice is the tick's one-shot result set; the caller consumes it
// exactly once. A cancelled context aborts the scan between deliveries.
func (e *Engine) RunTick(ctx context.Context) []domain.AssignResult {
	if !e.admission.Allow(e.couriers.HasFree) {
		e.m.TicksSkippedTotal.Inc()
		e.logger.Debug("dispatch tick skipped: admission locked")
		return nil
	}

	free := e.couriers.Free()
	e.m.FreeCouriers.Set(float64(len(free)))
	if len(free) == 0 {
		// Nobody to match against; stop scanning until a courier shows up.
		e.admission.Lock()
		e.m.TicksSkippedTotal.Inc()
		e.logger.Info("dispatch tick found no free couriers, locking admission")
		return nil
	}

	pending := e.deliveries.ByStatus(domain.StatusPending)
	results := make([]domain.AssignResult, 0, len(pending))
	for i := range pending {
		if ctx.Err() != nil {
			e.logger.Warn("dispatch tick aborted", logx.Err(ctx.Err()))
			break
		}
		results = append(results, e.openDelivery(pending[i]))
	}
	return results
}

// openDelivery attempts to match one pending delivery. The courier
// reservation is a compare-and-swap inside the registry, so a concurrent
// tick or inbound upsert cannot double-book the courier.
func (e *Engine) openDelivery(d domain.Delivery) domain.AssignResult {
	courier, err := e.calc.MatchDelivery(&d, e.couriers.Free())
	if err != nil {
		e.deliveries.BumpPriority(d.ID)
		e.m.MatchFailuresTotal.Inc()
		return domain.AssignResult{DeliveryID: d.ID, Err: err}
	}

	if !e.couriers.Reserve(courier.ID, d.ID) {
		// Lost the reservation race; the delivery stays pending for the
		// next tick.
		e.deliveries.BumpPriority(d.ID)
		e.m.MatchFailuresTotal.Inc()
		return domain.AssignResult{DeliveryID: d.ID, Err: apperr.ErrNoCandidate}
	}

	d.Status = domain.StatusAssigned
	d.CourierID = &courier.ID
	e.deliveries.Assign(d.ID, courier.ID, *d.EstimatedTime, d.Distance)

	e.bus.Publish(kafka.TopicDeliveryUpdated, kafka.DeliverySnapshot(&d))
	e.m.MatchesTotal.Inc()
	e.logger.Info("delivery assigned",
		logx.Int64("delivery_id", d.ID),
		logx.Int64("courier_id", courier.ID),
		logx.Float64("distance_km", d.Distance),
	)

	return domain.AssignResult{DeliveryID: d.ID, Courier: courier, Delivery: &d}
}

// RegisterCourier puts a courier on the line and asks the authoritative
// store to replay the full profile.
func (e *Engine) RegisterCourier(c domain.Courier) {
	e.couriers.Upsert(c)
	e.admission.CourierAvailable()
	e.bus.Publish(kafka.TopicCourierProfileRequest, kafka.ProfileRequest{
		ID:        c.ID,
		Username:  c.Username,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	})
	e.logger.Info("courier registered", logx.Int64("courier_id", c.ID))
}

// RemoveCourier takes a courier off the line on an explicit stop-work event.
func (e *Engine) RemoveCourier(id int64) (domain.Courier, error) {
	c, ok := e.couriers.Delete(id)
	if !ok {
		return domain.Courier{}, apperr.ErrNotFound
	}
	e.logger.Info("courier removed", logx.Int64("courier_id", id))
	return c, nil
}

// UpdateLocation stores the courier's position and publishes it outward.
func (e *Engine) UpdateLocation(courierID int64, loc domain.Location) error {
	if !e.couriers.SetLocation(courierID, loc) {
		return apperr.ErrNotFound
	}
	e.bus.Publish(kafka.TopicCourierLocation, kafka.LocationUpdate{
		CourierID: courierID,
		Location:  kafka.LocationDTO{Lat: loc.Lat, Lon: loc.Lon},
	})
	return nil
}

// CourierDelivery returns the delivery currently carried by the courier.
func (e *Engine) CourierDelivery(courierID int64) (domain.Delivery, error) {
	c, ok := e.couriers.Get(courierID)
	if !ok {
		return domain.Delivery{}, apperr.ErrNotFound
	}
	if c.CurrentDeliveryID == nil {
		return domain.Delivery{}, apperr.ErrNotFound
	}
	d, ok := e.deliveries.Get(*c.CurrentDeliveryID)
	if !ok {
		e.logger.Warn("courier references missing delivery",
			logx.Int64("courier_id", courierID),
			logx.Int64("delivery_id", *c.CurrentDeliveryID),
		)
		return domain.Delivery{}, apperr.ErrStale
	}
	return d, nil
}

// ValidateProximity checks that the courier is within tolerance of the point
// relevant for their current delivery: the pickup while still en route to
// it, the consumer afterwards. It mutates nothing.
func (e *Engine) ValidateProximity(courierID int64) (bool, error) {
	c, ok := e.couriers.Get(courierID)
	if !ok {
		return false, apperr.ErrNotFound
	}
	if c.Location == nil {
		return false, nil
	}
	d, err := e.CourierDelivery(courierID)
	if err != nil {
		return false, err
	}

	point := d.Consumer
	if d.Status == domain.StatusAssigned {
		point = d.Pickup
	}
	return e.calc.Distance(*c.Location, point) <= e.tolerance, nil
}

// ConfirmPickup moves the courier's delivery to picked-up after the
// proximity check passes. The status change lands on the delivery record.
func (e *Engine) ConfirmPickup(courierID int64) (domain.Delivery, error) {
	onPoint, err := e.ValidateProximity(courierID)
	if err != nil {
		return domain.Delivery{}, err
	}
	if !onPoint {
		return domain.Delivery{}, apperr.ErrProximity
	}

	d, err := e.CourierDelivery(courierID)
	if err != nil {
		return domain.Delivery{}, err
	}
	if d.Status != domain.StatusAssigned {
		return domain.Delivery{}, apperr.ErrInvalid
	}

	e.deliveries.SetStatus(d.ID, domain.StatusPickedUp, e.now())
	d.Status = domain.StatusPickedUp
	e.bus.Publish(kafka.TopicDeliveryUpdated, kafka.DeliverySnapshot(&d))
	e.logger.Info("delivery picked up", logx.Int64("delivery_id", d.ID))
	return d, nil
}

// CloseDelivery finishes the courier's delivery with a terminal status,
// frees the courier and publishes the final snapshot. Completion also counts
// toward the courier's done totals.
func (e *Engine) CloseDelivery(courierID int64, final domain.DeliveryStatus) (domain.Delivery, error) {
	if !final.Terminal() {
		return domain.Delivery{}, apperr.ErrInvalid
	}

	onPoint, err := e.ValidateProximity(courierID)
	if err != nil {
		return domain.Delivery{}, err
	}
	if final == domain.StatusDelivered && !onPoint {
		return domain.Delivery{}, apperr.ErrProximity
	}

	d, err := e.CourierDelivery(courierID)
	if err != nil {
		return domain.Delivery{}, err
	}

	now := e.now()
	e.deliveries.SetStatus(d.ID, final, now)
	d.Status = final
	d.CompletedAt = &now

	if final == domain.StatusDelivered {
		e.couriers.Complete(courierID)
	} else {
		e.couriers.Release(courierID)
	}
	e.admission.CourierAvailable()

	e.bus.Publish(kafka.TopicDeliveryUpdated, kafka.DeliverySnapshot(&d))
	e.logger.Info("delivery closed",
		logx.Int64("delivery_id", d.ID),
		logx.String("status", final.String()),
	)
	return d, nil
}

// AdjustWorkingRange applies an operator delta to the matching range.
func (e *Engine) AdjustWorkingRange(deltaKm float64) (float64, error) {
	rangeKm, err := e.calc.AdjustWorkingRange(deltaKm)
	if err != nil {
		return rangeKm, err
	}
	e.logger.Info("working range adjusted", logx.Float64("working_range_km", rangeKm))
	return rangeKm, nil
}
