package lifecycle

import (
	"time"

	"github.com/viant/fluxchart/model/event"
)

// Record is the serializable form of a lifecycle event.
type Record struct {
	Kind      Kind      `json:"kind" yaml:"kind"`
	MachineID string    `json:"machineId" yaml:"machineId"`
	StateID   string    `json:"stateId,omitempty" yaml:"stateId,omitempty"`
	ToStateID string    `json:"toStateId,omitempty" yaml:"toStateId,omitempty"`
	Event     string    `json:"event,omitempty" yaml:"event,omitempty"`
	Case      FaultCase `json:"case,omitempty" yaml:"case,omitempty"`
	Outcome   string    `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	Fault     string    `json:"fault,omitempty" yaml:"fault,omitempty"`
	Text      string    `json:"text" yaml:"text"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// NewRecord converts evt into a record.
func NewRecord(evt Event) *Record {
	ret := &Record{Kind: evt.Kind(), MachineID: evt.Source(), CreatedAt: evt.Timestamp(), Text: evt.String()}
	switch actual := evt.(type) {
	case *Entered:
		ret.StateID = actual.StateID
	case *Left:
		ret.StateID = actual.StateID
	case *Bounced:
		ret.StateID = actual.StateID
		ret.ToStateID = actual.Target
	case *EventHandled:
		ret.StateID = actual.StateID
		ret.ToStateID = actual.ToStateID
		ret.Event = event.String(actual.Event)
	case *FaultRaised:
		ret.StateID = actual.ThrowerID
		ret.ToStateID = actual.ToStateID
		ret.Case = actual.Case
		if actual.Event != nil {
			ret.Event = event.String(actual.Event)
		}
		ret.Fault = errorText(actual.Fault)
	case *Finished:
		ret.Outcome = actual.Outcome.String()
		ret.Fault = errorText(actual.Fault)
	}
	return ret
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
