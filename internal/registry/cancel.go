package registry

import "courier-dispatch/internal/domain"

// CancelQueue is the set of deliveries flagged for cancellation by the
// authoritative side, keyed by delivery id. It is populated by the
// synchronization layer and drained by the cancellation reconciler.
type CancelQueue struct {
	store *Store[domain.Delivery]
}

// NewCancelQueue returns an empty cancellation queue.
func NewCancelQueue() *CancelQueue {
	return &CancelQueue{store: NewStore[domain.Delivery]()}
}

// Put flags a delivery for cancellation. Re-flagging is a no-op overwrite.
func (q *CancelQueue) Put(dv domain.Delivery) { q.store.Upsert(dv.ID, dv) }

// Snapshot returns the queued entries without removing them.
func (q *CancelQueue) Snapshot() []domain.Delivery { return q.store.List() }

// Delete removes a processed entry. Deleting an absent id is a no-op, which
// keeps reconciliation idempotent.
func (q *CancelQueue) Delete(id int64) bool {
	_, ok := q.store.Delete(id)
	return ok
}

// Len returns the number of queued entries.
func (q *CancelQueue) Len() int { return q.store.Len() }
