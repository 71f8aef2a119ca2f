// Package state defines the hierarchy node bookkeeping and the capability
// contract every state of a chart implements.
package state

import (
	"context"

	"github.com/viant/fluxchart/model/event"
	"github.com/viant/fluxchart/model/outcome"
	"go.uber.org/zap"
)

// Execution is the running machine as seen by state callbacks.
type Execution interface {
	// ID returns the machine identifier.
	ID() string
	// Context returns the machine context; it is cancelled once the machine stops.
	Context() context.Context
	// ReceiveEvent enqueues an event for serialized delivery.
	ReceiveEvent(evt event.Event) error
	// Logger returns the machine logger.
	Logger() *zap.Logger
}

// State is implemented by every node of a chart. Callbacks run on the
// machine worker and must return promptly; long-running work belongs to an
// asynchronous operation reporting back through Execution.ReceiveEvent.
type State interface {
	// Node returns the hierarchy bookkeeping.
	Node() *Node
	// Enter accepts entry or redirects it (bounce) to a path expression.
	Enter(exec Execution) (Entry, error)
	// Leave is invoked on exit; a returned error is logged and ignored.
	Leave(exec Execution) error
	// HandleEvent reacts to an event: ignore it, absorb it, or name a target.
	HandleEvent(exec Execution, evt event.Event) (Reaction, error)
	// InitialChild returns the child entered when this composite state is entered.
	InitialChild() (State, error)
}

// Final is a terminal state reporting the machine outcome.
type Final interface {
	State
	Outcome() outcome.Outcome
	FailureCause() error
}

// Entry is the result of State.Enter.
type Entry struct {
	redirected bool
	target     string
}

// Accept accepts the entry.
func Accept() Entry { return Entry{} }

// Redirect rejects the entry and names another target.
func Redirect(path string) Entry { return Entry{redirected: true, target: path} }

// Accepted returns true when entry was accepted.
func (e Entry) Accepted() bool { return !e.redirected }

// Target returns the redirect path expression.
func (e Entry) Target() string { return e.target }

// ReactionKind classifies a Reaction.
type ReactionKind int

const (
	// Ignored lets the event propagate to the parent state.
	Ignored ReactionKind = iota
	// Stayed handles the event without a transition.
	Stayed
	// Moved handles the event with a transition to Target.
	Moved
)

// StayToken is the textual stay reaction used by declarative charts.
const StayToken = "$stay"

// Reaction is the result of State.HandleEvent.
type Reaction struct {
	kind   ReactionKind
	target string
}

// Ignore returns a reaction propagating the event upward.
func Ignore() Reaction { return Reaction{kind: Ignored} }

// Stay returns a reaction absorbing the event.
func Stay() Reaction { return Reaction{kind: Stayed} }

// Goto returns a reaction transitioning to the path expression.
func Goto(path string) Reaction { return Reaction{kind: Moved, target: path} }

// ParseReaction maps a declarative target to a reaction.
func ParseReaction(target string) Reaction {
	if target == StayToken {
		return Stay()
	}
	return Goto(target)
}

// Kind returns reaction kind.
func (r Reaction) Kind() ReactionKind { return r.kind }

// Target returns the transition path expression.
func (r Reaction) Target() string { return r.target }
