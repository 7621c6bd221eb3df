// Package cancel reconciles authoritative-side cancellations with the local
// registry.
package cancel

import (
	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/logx"
	"courier-dispatch/internal/metrics"
	"courier-dispatch/internal/registry"
)

// Waker is poked when a courier is freed by a cancellation.
type Waker interface {
	CourierAvailable()
}

// Reconciler drains the cancellation queue: the delivery leaves the active
// registry and the assigned courier is released. Every step is idempotent so
// a repeated tick over the same snapshot is a no-op.
type Reconciler struct {
	deliveries *registry.Deliveries
	couriers   *registry.Couriers
	queue      *registry.CancelQueue
	waker      Waker
	logger     logx.Logger
	m          *metrics.Metrics
}

// NewReconciler wires the cancellation reconciler.
func NewReconciler(
	deliveries *registry.Deliveries,
	couriers *registry.Couriers,
	queue *registry.CancelQueue,
	waker Waker,
	logger logx.Logger,
	m *metrics.Metrics,
) *Reconciler {
	return &Reconciler{
		deliveries: deliveries,
		couriers:   couriers,
		queue:      queue,
		waker:      waker,
		logger:     logger,
		m:          m,
	}
}

// Run processes the current queue snapshot and returns the couriers freed by
// it, for outward notification.
func (r *Reconciler) Run() []domain.Courier {
	var freed []domain.Courier
	for _, entry := range r.queue.Snapshot() {
		courierID := r.assignedCourier(entry)

		r.deliveries.Delete(entry.ID)
		r.queue.Delete(entry.ID)
		r.m.CancellationsTotal.Inc()
		r.logger.Info("delivery cancelled", logx.Int64("delivery_id", entry.ID))

		if courierID == nil {
			continue
		}
		courier, ok := r.couriers.Release(*courierID)
		if !ok {
			r.logger.Warn("cancelled delivery references missing courier",
				logx.Int64("delivery_id", entry.ID),
				logx.Int64("courier_id", *courierID),
			)
			continue
		}
		r.waker.CourierAvailable()
		freed = append(freed, courier)
	}
	return freed
}

// assignedCourier prefers the live registry record over the queue entry: the
// local assignment may be newer than the snapshot the authoritative side
// sent with the cancellation.
func (r *Reconciler) assignedCourier(entry domain.Delivery) *int64 {
	if active, ok := r.deliveries.Get(entry.ID); ok && active.CourierID != nil {
		return active.CourierID
	}
	return entry.CourierID
}
