package registry

import "courier-dispatch/internal/domain"

// Couriers is the registry of known couriers.
type Couriers struct {
	store *Store[domain.Courier]
}

// NewCouriers returns an empty courier registry.
func NewCouriers() *Couriers {
	return &Couriers{store: NewStore[domain.Courier]()}
}

// Get returns a copy of the courier with the given id.
func (c *Couriers) Get(id int64) (domain.Courier, bool) { return c.store.Get(id) }

// List returns all known couriers.
func (c *Couriers) List() []domain.Courier { return c.store.List() }

// Free returns couriers that are not busy and have a known location.
func (c *Couriers) Free() []domain.Courier {
	return c.store.Filter(func(cr *domain.Courier) bool { return cr.Free() })
}

// HasFree reports whether at least one courier could take a delivery.
func (c *Couriers) HasFree() bool {
	return len(c.Free()) > 0
}

// Upsert inserts or replaces a courier record.
func (c *Couriers) Upsert(cr domain.Courier) { c.store.Upsert(cr.ID, cr) }

// Delete removes a courier on an explicit stop-work event.
func (c *Couriers) Delete(id int64) (domain.Courier, bool) { return c.store.Delete(id) }

// SetLocation stores the courier's last known position.
func (c *Couriers) SetLocation(id int64, loc domain.Location) bool {
	return c.store.Update(id, func(cr *domain.Courier) bool {
		cr.Location = &loc
		return true
	})
}

// Reserve marks the courier busy with the given delivery. The check and the
// write run under one lock, so two concurrent dispatch ticks cannot reserve
// the same courier. Returns false if the courier is gone or already busy.
func (c *Couriers) Reserve(courierID, deliveryID int64) bool {
	return c.store.Update(courierID, func(cr *domain.Courier) bool {
		if cr.Busy {
			return false
		}
		cr.Busy = true
		cr.CurrentDeliveryID = &deliveryID
		return true
	})
}

// Release frees the courier after a completed or cancelled delivery.
func (c *Couriers) Release(courierID int64) (domain.Courier, bool) {
	var out domain.Courier
	ok := c.store.Update(courierID, func(cr *domain.Courier) bool {
		cr.Busy = false
		cr.CurrentDeliveryID = nil
		out = *cr
		return true
	})
	return out, ok
}

// Complete frees the courier and counts a finished delivery.
func (c *Couriers) Complete(courierID int64) bool {
	return c.store.Update(courierID, func(cr *domain.Courier) bool {
		cr.Busy = false
		cr.CurrentDeliveryID = nil
		cr.DoneDeliveries++
		return true
	})
}

// Merge inserts the courier if absent, otherwise overlays only the provided
// fields. Profile snapshots from the bus may carry any subset of fields and
// may arrive out of order, so absent fields must never clobber local state.
func (c *Couriers) Merge(p domain.PartialCourier) {
	insert := domain.Courier{ID: p.ID, Rank: 5}
	applyCourierPartial(&insert, p)
	c.store.Merge(p.ID, insert, func(cr *domain.Courier) {
		applyCourierPartial(cr, p)
	})
}

func applyCourierPartial(cr *domain.Courier, p domain.PartialCourier) {
	if p.Username != nil {
		cr.Username = *p.Username
	}
	if p.FirstName != nil {
		cr.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		cr.LastName = *p.LastName
	}
	if p.Location != nil {
		cr.Location = p.Location
	}
	if p.Busy != nil {
		cr.Busy = *p.Busy
	}
	if p.CurrentDeliveryID != nil {
		cr.CurrentDeliveryID = p.CurrentDeliveryID
	}
	if p.DoneDeliveries != nil {
		cr.DoneDeliveries = *p.DoneDeliveries
	}
	if p.Balance != nil {
		cr.Balance = *p.Balance
	}
	if p.Rank != nil {
		cr.Rank = *p.Rank
	}
}
