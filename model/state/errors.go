package state

import "errors"

var (
	// ErrNotFound is returned when an id or path does not resolve to a state.
	ErrNotFound = errors.New("state: not found")
	// ErrExists is returned when a local id is registered twice under a parent.
	ErrExists = errors.New("state: already exists")
	// ErrAmbiguous is returned when an @localId path matches several states.
	ErrAmbiguous = errors.New("state: ambiguous local id")
	// ErrInvalidID is returned for malformed local ids or already attached states.
	ErrInvalidID = errors.New("state: invalid id")
	// ErrNoInitialChild is returned when a composite state has no initial child.
	ErrNoInitialChild = errors.New("state: no initial child")
	// ErrNotRunning is returned when an event is sent to a stopped machine.
	ErrNotRunning = errors.New("machine not running")
)
