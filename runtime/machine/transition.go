package machine

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/fluxchart/model/event"
	"github.com/viant/fluxchart/model/outcome"
	"github.com/viant/fluxchart/model/state"
	"github.com/viant/fluxchart/service/lifecycle"
	"github.com/viant/fluxchart/tracing"
	"go.uber.org/zap"
)

func (m *Machine) startSpan(ctx context.Context, name string) func(err error) {
	if !m.tracing {
		return func(error) {}
	}
	_, span := tracing.Start(ctx, name, map[string]string{"machine.id": m.id, "chart.name": m.chart.Name()})
	m.span = span
	return func(err error) {
		m.span = nil
		span.End(err)
	}
}

// start runs on the worker.
func (m *Machine) start(ctx context.Context) (err error) {
	end := m.startSpan(ctx, "machine.start")
	defer func() { end(err) }()
	m.hops = 0
	m.notify(&lifecycle.Started{Header: m.header()})
	m.logger.Info("started", zap.String("chart", m.chart.Name()))
	redirect, err := m.enterLeaf(m.chart.Root(), nil)
	if err == nil && redirect != nil {
		err = m.gotoState(redirect, nil)
	}
	if err == nil {
		err = m.checkFinal()
	}
	return m.settle(err)
}

// handleEvent runs on the worker.
func (m *Machine) handleEvent(ctx context.Context, evt event.Event) (err error) {
	if !m.IsRunning() {
		return nil
	}
	end := m.startSpan(ctx, "machine.deliver")
	defer func() { end(err) }()
	m.span.SetAttributes(map[string]string{"event.type": evt.Type()})
	if event.IsEnd(evt) {
		m.stop(outcome.Completed, nil)
		return nil
	}
	m.hops = 0
	var target state.State
	path := m.snapshot()
	for i := len(path) - 1; i >= 0 && target == nil; i-- {
		current := path[i]
		reaction, fault := m.callHandleEvent(current, evt)
		if fault != nil {
			handler := m.faultHandler(current)
			m.logger.Warn("failed to handle event", zap.String("state", current.Node().ID()), zap.String("event", event.String(evt)), zap.Error(fault))
			m.notify(&lifecycle.FaultRaised{Header: m.header(), Fault: fault, ThrowerID: current.Node().ID(), ToStateID: idOf(handler), Case: lifecycle.CaseHandleEvent, Event: evt})
			m.notify(&lifecycle.EventHandled{Header: m.header(), StateID: current.Node().ID(), ToStateID: idOf(handler), Event: evt})
			target = handler
			continue
		}
		switch reaction.Kind() {
		case state.Ignored:
			m.notify(&lifecycle.EventHandled{Header: m.header(), StateID: current.Node().ID(), Event: evt})
			continue
		case state.Stayed:
			m.notify(&lifecycle.EventHandled{Header: m.header(), StateID: current.Node().ID(), Event: evt})
			m.logger.Info("handled", zap.String("event", event.String(evt)), zap.String("state", current.Node().ID()))
			return m.settle(m.checkFinal())
		}
		to, rErr := m.chart.Locate(current, reaction.Target())
		if rErr != nil {
			m.notify(&lifecycle.EventHandled{Header: m.header(), StateID: current.Node().ID(), Event: evt})
			return fmt.Errorf("invalid target of %v for %v: %w", current.Node().ID(), evt.Type(), rErr)
		}
		m.notify(&lifecycle.EventHandled{Header: m.header(), StateID: current.Node().ID(), ToStateID: to.Node().ID(), Event: evt})
		m.logger.Info("handled", zap.String("event", event.String(evt)), zap.String("state", current.Node().ID()), zap.String("goto", to.Node().ID()))
		target = to
	}
	if target != nil {
		if err = m.gotoState(target, evt); err != nil {
			return m.settle(err)
		}
	}
	return m.settle(m.checkFinal())
}

// settle turns transition errors into the machine outcome.
func (m *Machine) settle(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errHalted):
		return nil
	case errors.Is(err, ErrContract):
		m.logger.Error("contract violation", zap.Error(err))
		m.stop(outcome.Failed, err)
	}
	return err
}

// checkFinal stops the machine once the active leaf is a final state.
func (m *Machine) checkFinal() error {
	final, ok := m.current().(state.Final)
	if !ok || !m.IsRunning() {
		return nil
	}
	switch value := final.Outcome(); value {
	case outcome.Completed, outcome.Cancelled:
		m.stop(outcome.Completed, nil)
	case outcome.Failed:
		m.stop(outcome.Failed, final.FailureCause())
	default:
		return contractError("final state %v reported %v", final.Node().ID(), value)
	}
	return nil
}

// stop exits the whole active path, emits Finished and releases the worker.
func (m *Machine) stop(result outcome.Outcome, cause error) {
	m.mux.Lock()
	if !m.running {
		m.mux.Unlock()
		return
	}
	m.running, m.stopping = false, true
	finished, cancel, worker := m.finished, m.cancel, m.dispatcher
	m.mux.Unlock()
	for leaf := m.current(); leaf != nil; leaf = m.current() {
		m.exitState(leaf)
		m.pop()
	}
	m.mux.Lock()
	m.outcome, m.fault = result, cause
	m.mux.Unlock()
	m.notify(&lifecycle.Finished{Header: m.header(), Outcome: result, Fault: cause})
	if result == outcome.Failed {
		m.logger.Warn("finished", zap.Stringer("outcome", result), zap.Error(cause))
	} else {
		m.logger.Info("finished", zap.Stringer("outcome", result))
	}
	cancel()
	worker.Shutdown()
	m.mux.Lock()
	m.stopping = false
	m.mux.Unlock()
	close(finished)
}

// gotoState transitions from the active leaf to target.
func (m *Machine) gotoState(target state.State, cause event.Event) error {
	for {
		current := m.current()
		if current == nil {
			return contractError("empty active path on goto %v", target.Node().ID())
		}
		parent := target.Node().Parent()
		switch {
		case current == target:
			if !target.Node().IsComposite() {
				return nil
			}
		case current.Node().IsAncestorOf(target) && parent != current:
			return contractError("can not goto a descendant: current=%v, to=%v", current.Node().ID(), target.Node().ID())
		case target.Node().IsAncestorOf(current):
			if err := m.exitUpTo(target); err != nil {
				return err
			}
		case parent != nil && (parent == current || parent.Node().IsAncestorOf(current)):
			if err := m.exitUpTo(parent); err != nil {
				return err
			}
		default:
			return contractError("unrelated goto: current=%v, to=%v", current.Node().ID(), target.Node().ID())
		}
		redirect, err := m.enterLeaf(target, cause)
		if err != nil || redirect == nil {
			return err
		}
		if err = m.hop(target, redirect); err != nil {
			return err
		}
		target = redirect
	}
}

func (m *Machine) hop(from, to state.State) error {
	m.hops++
	if m.hops > m.maxRedirects {
		return contractError("exceeded %d redirects at %v -> %v", m.maxRedirects, from.Node().ID(), to.Node().ID())
	}
	return nil
}

// enterLeaf enters target unless it is the active leaf and descends to a
// leaf. It returns a redirect when an entry bounced outside its siblings.
func (m *Machine) enterLeaf(target state.State, cause event.Event) (state.State, error) {
	for {
		if m.current() != target {
			for {
				entry, fault := m.callEnter(target)
				var next state.State
				if fault == nil {
					if entry.Accepted() {
						break
					}
					located, err := m.chart.Locate(target, entry.Target())
					if err == nil {
						next = located
						m.notify(&lifecycle.Bounced{Header: m.header(), StateID: target.Node().ID(), Target: located.Node().ID()})
						m.logger.Info("bounced", zap.String("state", target.Node().ID()), zap.String("to", located.Node().ID()))
					} else {
						fault = fmt.Errorf("invalid bounce of %v: %w", target.Node().ID(), err)
					}
				}
				if fault != nil {
					next = m.faultHandler(target)
					m.logger.Warn("failed to enter", zap.String("state", target.Node().ID()), zap.Error(fault))
					m.notify(&lifecycle.FaultRaised{Header: m.header(), Fault: fault, ThrowerID: target.Node().ID(), ToStateID: idOf(next), Case: lifecycle.CaseEntry, Event: cause})
					if next == nil {
						m.stop(outcome.Failed, fault)
						return nil, errHalted
					}
				}
				if err := m.hop(target, next); err != nil {
					return nil, err
				}
				if next.Node().Parent() != target.Node().Parent() {
					return next, nil
				}
				target = next
			}
			m.push(target)
			m.notify(&lifecycle.Entered{Header: m.header(), StateID: target.Node().ID()})
			m.logger.Info("entered", zap.String("state", target.Node().ID()))
		}
		if !target.Node().IsComposite() {
			return nil, nil
		}
		child, fault := m.callInitialChild(target)
		if fault == nil && child == nil {
			fault = fmt.Errorf("%w: %v", state.ErrNoInitialChild, target.Node().ID())
		}
		if fault == nil && child.Node().Parent() != target {
			return nil, contractError("initial child %v is not a child of %v", child.Node().ID(), target.Node().ID())
		}
		if fault != nil {
			handler := m.faultHandler(target)
			m.logger.Warn("failed to get initial child", zap.String("state", target.Node().ID()), zap.Error(fault))
			m.notify(&lifecycle.FaultRaised{Header: m.header(), Fault: fault, ThrowerID: target.Node().ID(), ToStateID: idOf(handler), Case: lifecycle.CaseInitialChild, Event: cause})
			if handler == nil {
				m.stop(outcome.Failed, fault)
				return nil, errHalted
			}
			return handler, nil
		}
		target = child
	}
}

// exitUpTo exits active states below ancestor, leaf first.
func (m *Machine) exitUpTo(ancestor state.State) error {
	for {
		leaf := m.current()
		if leaf == nil {
			return contractError("active path exhausted before %v", ancestor.Node().ID())
		}
		if leaf == ancestor {
			return nil
		}
		m.exitState(leaf)
		m.pop()
	}
}

// exitState records history, calls Leave and emits Left.
func (m *Machine) exitState(s state.State) {
	if parent := s.Node().Parent(); parent != nil {
		if err := parent.Node().SetRecentChild(s.Node().LocalID()); err != nil {
			m.logger.Warn("failed to record history", zap.String("state", s.Node().ID()), zap.Error(err))
		}
	}
	if err := m.callLeave(s); err != nil {
		m.logger.Warn("ignored leave failure", zap.String("state", s.Node().ID()), zap.Error(err))
	}
	m.notify(&lifecycle.Left{Header: m.header(), StateID: s.Node().ID()})
	m.logger.Info("exited", zap.String("state", s.Node().ID()))
}

// faultHandler returns the error child of the nearest ancestor of raiser
// exposing one; handlers enclosing the raiser are skipped.
func (m *Machine) faultHandler(raiser state.State) state.State {
	for ancestor := raiser.Node().Parent(); ancestor != nil; ancestor = ancestor.Node().Parent() {
		handler := ancestor.Node().ErrorChild()
		if handler == nil || handler == raiser || handler.Node().IsAncestorOf(raiser) {
			continue
		}
		return handler
	}
	return nil
}

func (m *Machine) callEnter(s state.State) (entry state.Entry, err error) {
	defer recoverFault(&err)
	return s.Enter(m)
}

func (m *Machine) callLeave(s state.State) (err error) {
	defer recoverFault(&err)
	return s.Leave(m)
}

func (m *Machine) callHandleEvent(s state.State, evt event.Event) (reaction state.Reaction, err error) {
	defer recoverFault(&err)
	return s.HandleEvent(m, evt)
}

func (m *Machine) callInitialChild(s state.State) (child state.State, err error) {
	defer recoverFault(&err)
	return s.InitialChild()
}

func recoverFault(err *error) {
	if r := recover(); r != nil {
		*err = &PanicError{Value: r}
	}
}

func idOf(s state.State) string {
	if s == nil {
		return ""
	}
	return s.Node().ID()
}
