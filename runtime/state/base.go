// Package state provides reusable states: Base for plain and composite
// states, Reactive for declarative event tables, Service for states driving an
// asynchronous operation and Final for terminal states. Build assembles a chart
// from a definition.
package state

import (
	"fmt"

	"github.com/viant/fluxchart/model/event"
	"github.com/viant/fluxchart/model/state"
)

type (
	// EnterFunc customises entry.
	EnterFunc func(exec state.Execution) (state.Entry, error)
	// LeaveFunc customises exit.
	LeaveFunc func(exec state.Execution) error
	// HandleFunc customises event handling.
	HandleFunc func(exec state.Execution, evt event.Event) (state.Reaction, error)
)

type options struct {
	node   []state.NodeOption
	resume bool
	enter  EnterFunc
	leave  LeaveFunc
	handle HandleFunc
}

// Option customises a Base state.
type Option func(o *options)

// WithInitial sets the default child local id.
func WithInitial(localID string) Option {
	return func(o *options) { o.node = append(o.node, state.WithDefaultChild(localID)) }
}

// WithError sets the fault handler child local id.
func WithError(localID string) Option {
	return func(o *options) { o.node = append(o.node, state.WithErrorChild(localID)) }
}

// WithHistory records the most recently exited child.
func WithHistory() Option {
	return func(o *options) { o.node = append(o.node, state.WithHistory()) }
}

// WithResume makes InitialChild return the recorded child when there is one.
func WithResume() Option {
	return func(o *options) { o.resume = true }
}

// OnEnter sets the entry callback.
func OnEnter(fn EnterFunc) Option {
	return func(o *options) { o.enter = fn }
}

// OnLeave sets the exit callback.
func OnLeave(fn LeaveFunc) Option {
	return func(o *options) { o.leave = fn }
}

// OnEvent sets the event callback.
func OnEvent(fn HandleFunc) Option {
	return func(o *options) { o.handle = fn }
}

// Base implements state.State with overridable callbacks. By default it
// accepts entry, ignores events and enters the default child.
type Base struct {
	node   *state.Node
	resume bool
	enter  EnterFunc
	leave  LeaveFunc
	handle HandleFunc
}

// NewBase creates a base state.
func NewBase(localID string, opts ...Option) *Base {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return &Base{
		node:   state.NewNode(localID, o.node...),
		resume: o.resume,
		enter:  o.enter,
		leave:  o.leave,
		handle: o.handle,
	}
}

// Node returns the hierarchy node.
func (b *Base) Node() *state.Node { return b.node }

// Enter runs the entry callback.
func (b *Base) Enter(exec state.Execution) (state.Entry, error) {
	if b.enter == nil {
		return state.Accept(), nil
	}
	return b.enter(exec)
}

// Leave runs the exit callback.
func (b *Base) Leave(exec state.Execution) error {
	if b.leave == nil {
		return nil
	}
	return b.leave(exec)
}

// HandleEvent runs the event callback.
func (b *Base) HandleEvent(exec state.Execution, evt event.Event) (state.Reaction, error) {
	if b.handle == nil {
		return state.Ignore(), nil
	}
	return b.handle(exec, evt)
}

// InitialChild returns the recorded child when resuming, otherwise the default child.
func (b *Base) InitialChild() (state.State, error) {
	if !b.node.IsComposite() {
		return nil, nil
	}
	if b.resume {
		if recent := b.node.RecentChild(); recent != nil {
			return recent, nil
		}
	}
	if child := b.node.DefaultChild(); child != nil {
		return child, nil
	}
	return nil, fmt.Errorf("%w: %v", state.ErrNoInitialChild, b.node.ID())
}

func (b *Base) String() string { return b.node.String() }
