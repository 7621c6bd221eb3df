package dispatch

import "sync"

// Admission is the circuit breaker in front of the per-tick matching scan.
// While locked, ticks are skipped; after missThreshold skipped ticks every
// further tick re-checks whether a courier has freed up. The lock is also
// cleared out of band whenever a courier becomes available, the counter path
// is only a fallback poll.
type Admission struct {
	mu        sync.Mutex
	locked    bool
	missCount int
	threshold int
}

// NewAdmission returns an Admission that starts locked: until the first
// courier registers there is nobody to match against.
func NewAdmission(threshold int) *Admission {
	if threshold <= 0 {
		threshold = 5
	}
	return &Admission{locked: true, threshold: threshold}
}

// Allow decides whether a dispatch tick may run its matching scan. hasFree
// is consulted only on the fallback re-verification path.
func (a *Admission) Allow(hasFree func() bool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.locked {
		return true
	}
	if a.missCount < a.threshold {
		a.missCount++
		return false
	}
	if hasFree() {
		a.locked = false
		a.missCount = 0
	}
	return false
}

// CourierAvailable clears the lock immediately; called from registration,
// arrival and release paths.
func (a *Admission) CourierAvailable() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.locked = false
	a.missCount = 0
}

// Lock re-engages the breaker after a tick observed zero free couriers.
func (a *Admission) Lock() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.locked = true
	a.missCount = 0
}

// Locked reports the current lock state.
func (a *Admission) Locked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.locked
}
