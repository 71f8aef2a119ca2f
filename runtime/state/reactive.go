package state

import (
	"github.com/viant/fluxchart/model/event"
	"github.com/viant/fluxchart/model/state"
)

// Transition maps an event type to a target path expression.
type Transition struct {
	Event  string
	Target string
}

// Reactive reacts to events with a declarative table; unmatched events fall
// back to the Base callback.
type Reactive struct {
	*Base
	on map[string]string
}

// NewReactive creates a reactive state.
func NewReactive(localID string, transitions []Transition, opts ...Option) *Reactive {
	ret := &Reactive{Base: NewBase(localID, opts...), on: map[string]string{}}
	for _, transition := range transitions {
		ret.on[transition.Event] = transition.Target
	}
	return ret
}

// HandleEvent returns the reaction configured for the event type.
func (r *Reactive) HandleEvent(exec state.Execution, evt event.Event) (state.Reaction, error) {
	if target, ok := r.on[evt.Type()]; ok {
		return state.ParseReaction(target), nil
	}
	return r.Base.HandleEvent(exec, evt)
}
