// Package lifecycle defines the notifications a machine emits while it runs
// and the fan-out delivering them to listeners.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/viant/fluxchart/internal/clock"
	"github.com/viant/fluxchart/model/event"
	"github.com/viant/fluxchart/model/outcome"
)

// Kind identifies a lifecycle event.
type Kind string

const (
	KindStarted      Kind = "started"
	KindEntered      Kind = "entered"
	KindLeft         Kind = "left"
	KindBounced      Kind = "bounced"
	KindEventHandled Kind = "eventHandled"
	KindFaultRaised  Kind = "faultRaised"
	KindFinished     Kind = "finished"
)

// FaultCase identifies the callback that raised a fault.
type FaultCase string

const (
	CaseEntry        FaultCase = "ENTRY"
	CaseInitialChild FaultCase = "INITIAL_CHILD"
	CaseHandleEvent  FaultCase = "HANDLE_EVENT"
)

// Event is one of Started, Entered, Left, Bounced, EventHandled, FaultRaised
// or Finished.
type Event interface {
	Kind() Kind
	// Source returns the emitting machine id.
	Source() string
	// Timestamp returns the creation time.
	Timestamp() time.Time
	String() string
	lifecycle()
}

// Header carries fields shared by all lifecycle events.
type Header struct {
	MachineID string
	CreatedAt time.Time
}

// Source returns the machine id.
func (h *Header) Source() string { return h.MachineID }

// Timestamp returns the creation time.
func (h *Header) Timestamp() time.Time { return h.CreatedAt }

func (h *Header) lifecycle() {}

// NewHeader creates a header stamped with the current time.
func NewHeader(machineID string) Header {
	return Header{MachineID: machineID, CreatedAt: clock.Now()}
}

// Started is emitted once a machine starts, before the initial entry.
type Started struct {
	Header
}

func (e *Started) Kind() Kind     { return KindStarted }
func (e *Started) String() string { return "Started" }

// Entered is emitted once a state accepted entry.
type Entered struct {
	Header
	StateID string
}

func (e *Entered) Kind() Kind     { return KindEntered }
func (e *Entered) String() string { return fmt.Sprintf("Entered[state=%s]", e.StateID) }

// Left is emitted once a state was exited.
type Left struct {
	Header
	StateID string
}

func (e *Left) Kind() Kind     { return KindLeft }
func (e *Left) String() string { return fmt.Sprintf("Left[state=%s]", e.StateID) }

// Bounced is emitted when a state rejected entry.
type Bounced struct {
	Header
	StateID string
	Target  string
}

func (e *Bounced) Kind() Kind { return KindBounced }
func (e *Bounced) String() string {
	return fmt.Sprintf("Bounced[state=%s, to=%s]", e.StateID, e.Target)
}

// EventHandled is emitted when a state handled an event; ToStateID is empty
// when the state stayed.
type EventHandled struct {
	Header
	StateID   string
	ToStateID string
	Event     event.Event
}

func (e *EventHandled) Kind() Kind { return KindEventHandled }
func (e *EventHandled) String() string {
	if e.ToStateID != "" {
		return fmt.Sprintf("EventHandled: state[%s], event=%s, to=state[%s]", e.StateID, event.String(e.Event), e.ToStateID)
	}
	return fmt.Sprintf("EventHandled: state[%s], event=%s", e.StateID, event.String(e.Event))
}

// FaultRaised is emitted when a state callback failed; ToStateID names the
// handler or is empty when none was found.
type FaultRaised struct {
	Header
	Fault     error
	ThrowerID string
	ToStateID string
	Case      FaultCase
	Event     event.Event
}

func (e *FaultRaised) Kind() Kind { return KindFaultRaised }
func (e *FaultRaised) String() string {
	evt := ""
	if e.Event != nil {
		evt = e.Event.Type()
	}
	return fmt.Sprintf("FaultRaised[event=%s,thrower=%s,to=%s,case=%s,fault=%v]", evt, e.ThrowerID, e.ToStateID, e.Case, e.Fault)
}

// Finished is emitted once a machine stopped.
type Finished struct {
	Header
	Outcome outcome.Outcome
	Fault   error
}

func (e *Finished) Kind() Kind { return KindFinished }
func (e *Finished) String() string {
	if e.Outcome == outcome.Failed {
		return fmt.Sprintf("Finished[state=%s, fault=%v]", e.Outcome, e.Fault)
	}
	return fmt.Sprintf("Finished[state=%s]", e.Outcome)
}
