// Package event defines external events delivered to a running machine.
package event

import (
	"fmt"
	"time"

	"github.com/viant/fluxchart/internal/clock"
	"github.com/viant/fluxchart/internal/idgen"
)

// EndType is the type of the distinguished end event.
const EndType = "end"

// Event is anything that can be routed through a machine. The type is used
// for routing and display.
type Event interface {
	Type() string
}

// Terminator marks an event that finishes a machine regardless of its
// current state.
type Terminator interface {
	Event
	EndOfEvents()
}

// Message is a general purpose event.
type Message struct {
	ID        string                 `json:"id" yaml:"id"`
	Kind      string                 `json:"type" yaml:"type"`
	Payload   interface{}            `json:"payload,omitempty" yaml:"payload,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	CreatedAt time.Time              `json:"createdAt" yaml:"createdAt"`
}

// Type returns the message type.
func (m *Message) Type() string { return m.Kind }

func (m *Message) String() string {
	if m.Payload == nil {
		return fmt.Sprintf("%s[%s]", m.Kind, m.ID)
	}
	return fmt.Sprintf("%s[%s]%v", m.Kind, m.ID, m.Payload)
}

// New creates a message of the given type.
func New(kind string, payload interface{}) *Message {
	return &Message{
		ID:        idgen.New(),
		Kind:      kind,
		Payload:   payload,
		CreatedAt: clock.Now(),
	}
}

type end struct{}

func (end) Type() string   { return EndType }
func (end) EndOfEvents()   {}
func (end) String() string { return EndType }

// End returns the distinguished end event.
func End() Event { return end{} }

// IsEnd returns true when evt finishes a machine.
func IsEnd(evt Event) bool {
	_, ok := evt.(Terminator)
	return ok
}

// String renders an event for logs.
func String(evt Event) string {
	if evt == nil {
		return "<nil>"
	}
	if s, ok := evt.(fmt.Stringer); ok {
		return s.String()
	}
	return evt.Type()
}
