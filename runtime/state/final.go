package state

import (
	"github.com/viant/fluxchart/model/outcome"
	"github.com/viant/fluxchart/model/state"
)

// Final is a terminal leaf; entering it finishes the machine.
type Final struct {
	*Base
	outcome outcome.Outcome
	cause   error
}

// Outcome returns the machine outcome.
func (f *Final) Outcome() outcome.Outcome { return f.outcome }

// FailureCause returns the failure cause for a Failed outcome.
func (f *Final) FailureCause() error { return f.cause }

// NewFinal creates a final state.
func NewFinal(localID string, value outcome.Outcome, cause error, opts ...Option) *Final {
	return &Final{Base: NewBase(localID, opts...), outcome: value, cause: cause}
}

var _ state.Final = (*Final)(nil)
