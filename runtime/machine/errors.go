package machine

import (
	"errors"
	"fmt"

	"github.com/viant/fluxchart/model/state"
)

var (
	// ErrAlreadyRunning is returned by Start on a running machine.
	ErrAlreadyRunning = errors.New("machine already running")
	// ErrNotRunning is returned by ReceiveEvent on a stopped machine.
	ErrNotRunning = state.ErrNotRunning
	// ErrContract reports an unsupported transition shape or a corrupted
	// active path; the machine stops with a FAILED outcome.
	ErrContract = errors.New("statechart contract violation")

	// errHalted signals that the machine already stopped while a transition was in progress.
	errHalted = errors.New("machine halted")
)

// PanicError is a fault created from a panic raised by a state callback.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("state callback panic: %v", e.Value)
}

func contractError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrContract, fmt.Sprintf(format, args...))
}
