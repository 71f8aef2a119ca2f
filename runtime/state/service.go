package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/viant/fluxchart/internal/idgen"
	"github.com/viant/fluxchart/model/event"
	"github.com/viant/fluxchart/model/state"
	"github.com/viant/fluxchart/runtime/operation"
	"go.uber.org/zap"
)

// Factory creates the operation started on each entry.
type Factory func(exec state.Execution) (operation.Operation, error)

// Service starts an operation on entry and moves to Next once it stops or to
// OnFailure once it fails. Every entry uses a fresh execution tag so that
// status changes of earlier executions are absorbed.
type Service struct {
	*Base
	factory   Factory
	next      string
	onFailure string

	mux       sync.Mutex
	operation operation.Operation
	handle    int
	execID    string
	cause     error
}

// NewService creates a service state. An empty onFailure turns operation
// failures into faults of this state.
func NewService(localID string, factory Factory, next, onFailure string, opts ...Option) *Service {
	return &Service{Base: NewBase(localID, opts...), factory: factory, next: next, onFailure: onFailure}
}

// ExecID returns the tag of the current execution.
func (s *Service) ExecID() string {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.execID
}

// Operation returns the current operation.
func (s *Service) Operation() operation.Operation {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.operation
}

// Cause returns the most recent failure cause.
func (s *Service) Cause() error {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.cause
}

// Enter starts a new operation.
func (s *Service) Enter(exec state.Execution) (state.Entry, error) {
	if entry, err := s.Base.Enter(exec); err != nil || !entry.Accepted() {
		return entry, err
	}
	op, err := s.factory(exec)
	if err == nil && op == nil {
		err = fmt.Errorf("operation for %v was nil", s.Node().ID())
	}
	if err != nil {
		return s.failed(err)
	}
	tag := idgen.Tagged(s.Node().ID())
	handle := op.AddListener(relay(exec, tag))
	s.mux.Lock()
	s.operation, s.handle, s.execID, s.cause = op, handle, tag, nil
	s.mux.Unlock()
	if err = op.Start(exec.Context()); err != nil {
		op.RemoveListener(handle)
		return s.failed(err)
	}
	return state.Accept(), nil
}

func (s *Service) failed(cause error) (state.Entry, error) {
	s.mux.Lock()
	s.cause = cause
	s.mux.Unlock()
	if s.onFailure == "" {
		return state.Accept(), fmt.Errorf("failed to start %v: %w", s.Node().ID(), cause)
	}
	return state.Redirect(s.onFailure), nil
}

// Leave stops the running operation.
func (s *Service) Leave(exec state.Execution) error {
	s.mux.Lock()
	op, handle := s.operation, s.handle
	s.operation, s.execID = nil, ""
	s.mux.Unlock()
	if op != nil {
		op.RemoveListener(handle)
		op.Stop()
	}
	return s.Base.Leave(exec)
}

// HandleEvent routes status changes of the current execution.
func (s *Service) HandleEvent(exec state.Execution, evt event.Event) (state.Reaction, error) {
	change, ok := evt.(*operation.StateChanged)
	if !ok {
		return s.Base.HandleEvent(exec, evt)
	}
	s.mux.Lock()
	current := s.execID
	s.mux.Unlock()
	if change.Tag != current {
		return state.Stay(), nil
	}
	switch change.To {
	case operation.Stopped:
		return state.Goto(s.next), nil
	case operation.Failed:
		s.mux.Lock()
		s.cause = change.Err
		s.mux.Unlock()
		if s.onFailure == "" {
			return state.Ignore(), fmt.Errorf("%v failed: %w", s.Node().ID(), change.Err)
		}
		return state.Goto(s.onFailure), nil
	}
	return state.Stay(), nil
}

func relay(exec state.Execution, tag string) operation.Listener {
	return func(change *operation.StateChanged) {
		if change.From != operation.Running {
			return
		}
		if err := exec.ReceiveEvent(change.Tagged(tag)); err != nil && !errors.Is(err, state.ErrNotRunning) {
			exec.Logger().Warn("failed to relay operation status", zap.String("tag", tag), zap.Error(err))
		}
	}
}
