// Package registry holds the process-local view of couriers and deliveries.
// It is rebuilt from replayed bus events on restart and offers single-key
// atomicity only; multi-key flows go through explicit Update closures.
package registry

import "sync"

// Store is a mutex-guarded keyed set of entities. Values are stored and
// returned by copy so callers never share mutable state with the store.
type Store[T any] struct {
	mu    sync.RWMutex
	items map[int64]T
}

// NewStore returns an empty Store.
func NewStore[T any]() *Store[T] {
	return &Store[T]{items: make(map[int64]T)}
}

// Get returns a copy of the entity with the given id.
func (s *Store[T]) Get(id int64) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[id]
	return v, ok
}

// List returns copies of all stored entities in map iteration order.
func (s *Store[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.items))
	for _, v := range s.items {
		out = append(out, v)
	}
	return out
}

// Filter returns copies of all entities matching the predicate.
func (s *Store[T]) Filter(pred func(*T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []T
	for _, v := range s.items {
		if pred(&v) {
			out = append(out, v)
		}
	}
	return out
}

// Upsert inserts or replaces the entity under the given id.
func (s *Store[T]) Upsert(id int64, v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = v
}

// Update applies fn to the stored entity under the write lock. The closure
// sees and mutates the live copy, which makes a read-modify-write on one key
// atomic. Returns false if the id is absent; fn returning false aborts the
// write.
func (s *Store[T]) Update(id int64, fn func(*T) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[id]
	if !ok {
		return false
	}
	if !fn(&v) {
		return false
	}
	s.items[id] = v
	return true
}

// Merge inserts the entity if absent, otherwise applies overlay to the stored
// copy. Used by the synchronization layer for partial out-of-order updates.
func (s *Store[T]) Merge(id int64, v T, overlay func(*T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[id]
	if !ok {
		s.items[id] = v
		return
	}
	overlay(&cur)
	s.items[id] = cur
}

// Delete removes and returns the entity with the given id. Deleting an
// absent id is a no-op.
func (s *Store[T]) Delete(id int64) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[id]
	if ok {
		delete(s.items, id)
	}
	return v, ok
}

// Len returns the number of stored entities.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
