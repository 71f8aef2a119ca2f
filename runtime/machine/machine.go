// Package machine runs a chart: it owns the active path, serializes event
// delivery on a single worker and emits lifecycle events.
package machine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/viant/fluxchart/internal/idgen"
	"github.com/viant/fluxchart/internal/logging"
	"github.com/viant/fluxchart/model/chart"
	"github.com/viant/fluxchart/model/event"
	"github.com/viant/fluxchart/model/outcome"
	"github.com/viant/fluxchart/model/state"
	"github.com/viant/fluxchart/service/dispatcher"
	"github.com/viant/fluxchart/service/lifecycle"
	"github.com/viant/fluxchart/service/messaging"
	"github.com/viant/fluxchart/tracing"
	"go.uber.org/zap"
)

// Machine executes a chart.
type Machine struct {
	id           string
	chart        *chart.Chart
	logger       *zap.Logger
	notifier     *lifecycle.Notifier
	listeners    []lifecycle.Listener
	maxRedirects int
	newQueue     func() messaging.Queue[dispatcher.Task]
	tracing      bool

	mux        sync.Mutex
	running    bool
	stopping   bool
	path       []state.State
	dispatcher *dispatcher.Service
	ctx        context.Context
	cancel     context.CancelFunc
	finished   chan struct{}
	outcome    outcome.Outcome
	fault      error

	// worker only
	hops int
	span *tracing.Span
}

// New creates a stopped machine.
func New(c *chart.Chart, opts ...Option) (*Machine, error) {
	if c == nil {
		return nil, fmt.Errorf("chart was nil")
	}
	ret := &Machine{
		chart:        c,
		logger:       zap.NewNop(),
		maxRedirects: DefaultMaxRedirects,
		ctx:          context.Background(),
		finished:     make(chan struct{}),
	}
	close(ret.finished)
	for _, opt := range opts {
		opt(ret)
	}
	if ret.id == "" {
		ret.id = idgen.New()
	}
	ret.logger = ret.logger.Named(logging.ComponentMachine).With(zap.String("machine", ret.id))
	ret.notifier = lifecycle.NewNotifier(ret.logger)
	for _, listener := range ret.listeners {
		ret.notifier.Add(listener)
	}
	ret.listeners = nil
	return ret, nil
}

// ID returns the machine id.
func (m *Machine) ID() string { return m.id }

// Chart returns the executed chart.
func (m *Machine) Chart() *chart.Chart { return m.chart }

// Context returns the context of the current run; it is cancelled once the machine stops.
func (m *Machine) Context() context.Context {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.ctx
}

// Logger returns the machine logger.
func (m *Machine) Logger() *zap.Logger { return m.logger }

// AddListener registers a lifecycle listener and returns its handle.
func (m *Machine) AddListener(listener lifecycle.Listener) int {
	return m.notifier.Add(listener)
}

// RemoveListener removes a lifecycle listener.
func (m *Machine) RemoveListener(handle int) bool {
	return m.notifier.Remove(handle)
}

// IsRunning returns true between Start and stop.
func (m *Machine) IsRunning() bool {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.running
}

// CurrentState returns the active leaf or nil when stopped.
func (m *Machine) CurrentState() state.State {
	m.mux.Lock()
	defer m.mux.Unlock()
	if len(m.path) == 0 {
		return nil
	}
	return m.path[len(m.path)-1]
}

// ActivePath returns the ids of the active path from the root.
func (m *Machine) ActivePath() []string {
	m.mux.Lock()
	defer m.mux.Unlock()
	ret := make([]string, 0, len(m.path))
	for _, s := range m.path {
		ret = append(ret, s.Node().ID())
	}
	return ret
}

// Result returns the outcome and fault of the last finished run.
func (m *Machine) Result() (outcome.Outcome, error) {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.outcome, m.fault
}

// Start enters the root state and descends to the initial leaf. It blocks
// until the initial entry finished. A Start issued while a previous run is
// still unwinding waits for that run to finish first.
func (m *Machine) Start(ctx context.Context) error {
	m.mux.Lock()
	for m.stopping {
		finished := m.finished
		m.mux.Unlock()
		select {
		case <-finished:
		case <-ctx.Done():
			return ctx.Err()
		}
		m.mux.Lock()
	}
	if m.running {
		m.mux.Unlock()
		return ErrAlreadyRunning
	}
	previous := m.dispatcher
	m.running = true
	m.outcome, m.fault = outcome.Running, nil
	m.finished = make(chan struct{})
	m.ctx, m.cancel = context.WithCancel(context.WithoutCancel(ctx))
	var opts = []dispatcher.Option{dispatcher.WithName(m.id), dispatcher.WithLogger(m.logger)}
	if m.newQueue != nil {
		opts = append(opts, dispatcher.WithMessageQueue(m.newQueue()))
	}
	m.dispatcher = dispatcher.New(opts...)
	workerCtx, current := m.ctx, m.dispatcher
	// queued ahead of any event accepted once running is visible
	pending, err := current.Post(ctx, "start", func(ctx context.Context) error {
		return m.start(ctx)
	})
	if err != nil {
		m.running, m.dispatcher = false, previous
		m.outcome, m.fault = outcome.Failed, err
		m.cancel()
		close(m.finished)
		m.mux.Unlock()
		return err
	}
	m.mux.Unlock()

	if previous != nil {
		previous.Wait()
	}
	if err = current.Start(workerCtx); err != nil {
		return err
	}
	return pending.Wait(ctx)
}

// Stop exits the active path and finishes the machine with the given
// outcome. It returns once the request is queued; use WaitForFinished to
// wait for completion. Stopping a stopped machine is a no-op.
func (m *Machine) Stop(result outcome.Outcome, cause error) error {
	m.mux.Lock()
	running, worker := m.running, m.dispatcher
	m.mux.Unlock()
	if !running {
		return nil
	}
	return worker.Submit(context.Background(), "stop", func(ctx context.Context) error {
		m.stop(result, cause)
		return nil
	})
}

// ReceiveEvent queues evt for delivery; it never blocks.
func (m *Machine) ReceiveEvent(evt event.Event) error {
	if evt == nil {
		return fmt.Errorf("event was nil")
	}
	m.mux.Lock()
	running, worker := m.running, m.dispatcher
	m.mux.Unlock()
	if !running {
		return fmt.Errorf("%w: %v", ErrNotRunning, m.id)
	}
	return worker.Submit(context.Background(), evt.Type(), func(ctx context.Context) error {
		return m.handleEvent(ctx, evt)
	})
}

// Deliver queues evt and waits until it was handled. It must not be called
// from a state callback. Delivering to a stopped machine is a no-op.
func (m *Machine) Deliver(ctx context.Context, evt event.Event) error {
	if evt == nil {
		return fmt.Errorf("event was nil")
	}
	m.mux.Lock()
	running, worker := m.running, m.dispatcher
	m.mux.Unlock()
	if !running {
		return nil
	}
	err := worker.Call(ctx, evt.Type(), func(ctx context.Context) error {
		return m.handleEvent(ctx, evt)
	})
	if errors.Is(err, dispatcher.ErrStopped) {
		return nil
	}
	return err
}

// WaitForFinished blocks until the current run finished or ctx is done.
func (m *Machine) WaitForFinished(ctx context.Context) error {
	m.mux.Lock()
	finished := m.finished
	m.mux.Unlock()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Machine) String() string {
	current := m.CurrentState()
	if current == nil {
		return fmt.Sprintf("Machine[%s]", m.id)
	}
	return fmt.Sprintf("Machine[%s, current=%s]", m.id, current.Node().ID())
}

func (m *Machine) header() lifecycle.Header {
	return lifecycle.NewHeader(m.id)
}

func (m *Machine) notify(evt lifecycle.Event) {
	if m.span != nil {
		m.span.AddEvent(string(evt.Kind()), map[string]string{"text": evt.String()})
	}
	m.notifier.Notify(evt)
}

func (m *Machine) current() state.State {
	m.mux.Lock()
	defer m.mux.Unlock()
	if len(m.path) == 0 {
		return nil
	}
	return m.path[len(m.path)-1]
}

func (m *Machine) push(s state.State) {
	m.mux.Lock()
	m.path = append(m.path, s)
	m.mux.Unlock()
}

func (m *Machine) pop() {
	m.mux.Lock()
	m.path[len(m.path)-1] = nil
	m.path = m.path[:len(m.path)-1]
	m.mux.Unlock()
}

func (m *Machine) snapshot() []state.State {
	m.mux.Lock()
	defer m.mux.Unlock()
	return append([]state.State{}, m.path...)
}

// Machine is the Execution passed to state callbacks.
var _ state.Execution = (*Machine)(nil)
