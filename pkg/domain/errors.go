package domain

import "errors"

// ErrNotFound is returned when a ref (or a prototype id) does not resolve.
var ErrNotFound = errors.New("not found")

// ErrNoContainer is returned by Transform when no instance of the target's parent type exists.
var ErrNoContainer = errors.New("no container for structure")

// ErrAmbiguousContainer is returned by Transform when more than one instance of the target's
// parent type exists and the container cannot be chosen.
var ErrAmbiguousContainer = errors.New("ambiguous container for structure")

// ErrInvalidTransition is returned when a state machine has no rule for the requested action.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrCardinalityConflict is returned when a one-to-one assignment is already taken.
var ErrCardinalityConflict = errors.New("cardinality conflict")

// ErrMissingID is returned when a prototype template is seeded without an id.
var ErrMissingID = errors.New("missing id")
