package apperr

import "errors"

// ErrInvalid is returned when the input fails domain validation.
var ErrInvalid = errors.New("invalid input")

// ErrNotFound indicates that the requested entity does not exist in the registry.
var ErrNotFound = errors.New("not found")

// ErrNoCandidate indicates that no free courier was found within the working
// range. The delivery stays pending and its priority is bumped.
var ErrNoCandidate = errors.New("no candidate courier in range")

// ErrProximity blocks a pickup or close action because the courier's last
// known location is too far from the reference point.
var ErrProximity = errors.New("courier is not at the required point")

// ErrStale marks a cross-reference to an entity that is absent from the
// registry. Callers log it and continue.
var ErrStale = errors.New("stale entity reference")
