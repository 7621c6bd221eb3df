package registry

import (
	"time"

	"courier-dispatch/internal/domain"
)

// Deliveries is the registry of active and recently completed deliveries.
type Deliveries struct {
	store *Store[domain.Delivery]
}

// NewDeliveries returns an empty delivery registry.
func NewDeliveries() *Deliveries {
	return &Deliveries{store: NewStore[domain.Delivery]()}
}

// Get returns a copy of the delivery with the given id.
func (d *Deliveries) Get(id int64) (domain.Delivery, bool) { return d.store.Get(id) }

// List returns all known deliveries.
func (d *Deliveries) List() []domain.Delivery { return d.store.List() }

// ByStatus returns deliveries currently in any of the given states.
func (d *Deliveries) ByStatus(statuses ...domain.DeliveryStatus) []domain.Delivery {
	return d.store.Filter(func(dv *domain.Delivery) bool {
		for _, s := range statuses {
			if dv.Status == s {
				return true
			}
		}
		return false
	})
}

// Upsert inserts or replaces a delivery record.
func (d *Deliveries) Upsert(dv domain.Delivery) { d.store.Upsert(dv.ID, dv) }

// Delete removes a delivery. Deleting an absent id is a no-op.
func (d *Deliveries) Delete(id int64) (domain.Delivery, bool) { return d.store.Delete(id) }

// Assign records a successful match on the delivery.
func (d *Deliveries) Assign(id, courierID int64, eta time.Time, distanceKm float64) bool {
	return d.store.Update(id, func(dv *domain.Delivery) bool {
		dv.Status = domain.StatusAssigned
		dv.CourierID = &courierID
		dv.EstimatedTime = &eta
		dv.Distance = distanceKm
		return true
	})
}

// SetStatus moves the delivery to the given state, stamping CompletedAt for
// terminal states.
func (d *Deliveries) SetStatus(id int64, status domain.DeliveryStatus, now time.Time) bool {
	return d.store.Update(id, func(dv *domain.Delivery) bool {
		dv.Status = status
		if status.Terminal() {
			dv.CompletedAt = &now
		}
		return true
	})
}

// BumpPriority increments the failed-match counter on the delivery.
func (d *Deliveries) BumpPriority(id int64) bool {
	return d.store.Update(id, func(dv *domain.Delivery) bool {
		dv.Priority++
		return true
	})
}

// MarkNotified stamps the lateness debounce marker.
func (d *Deliveries) MarkNotified(id int64, now time.Time) bool {
	return d.store.Update(id, func(dv *domain.Delivery) bool {
		dv.LastNotificationTS = &now
		return true
	})
}

// Merge inserts the delivery if absent, otherwise overlays only the provided
// fields, mirroring the courier merge policy.
func (d *Deliveries) Merge(p domain.PartialDelivery) {
	insert := domain.Delivery{ID: p.ID, Status: domain.StatusPending, StartedAt: time.Now()}
	applyDeliveryPartial(&insert, p)
	d.store.Merge(p.ID, insert, func(dv *domain.Delivery) {
		applyDeliveryPartial(dv, p)
	})
}

func applyDeliveryPartial(dv *domain.Delivery, p domain.PartialDelivery) {
	if p.Pickup != nil {
		dv.Pickup = *p.Pickup
	}
	if p.Consumer != nil {
		dv.Consumer = *p.Consumer
	}
	if p.CourierID != nil {
		dv.CourierID = p.CourierID
	}
	if p.Amount != nil {
		dv.Amount = *p.Amount
	}
	if p.Status != nil {
		dv.Status = *p.Status
	}
	if p.StartedAt != nil {
		dv.StartedAt = *p.StartedAt
	}
	if p.CompletedAt != nil {
		dv.CompletedAt = p.CompletedAt
	}
	if p.Address != nil {
		dv.Address = *p.Address
	}
	if p.Priority != nil {
		dv.Priority = *p.Priority
	}
	if p.EstimatedTime != nil {
		dv.EstimatedTime = p.EstimatedTime
	}
	if p.LastNotificationTS != nil {
		dv.LastNotificationTS = p.LastNotificationTS
	}
	if p.Distance != nil {
		dv.Distance = *p.Distance
	}
}
