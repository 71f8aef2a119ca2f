package fluxchart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/viant/fluxchart/internal/clock"
	"github.com/viant/fluxchart/model/definition"
	"github.com/viant/fluxchart/model/event"
	"github.com/viant/fluxchart/model/outcome"
	"github.com/viant/fluxchart/model/run"
	"github.com/viant/fluxchart/policy"
	"github.com/viant/fluxchart/progress"
	"github.com/viant/fluxchart/runtime/machine"
	"github.com/viant/fluxchart/service/dao"
	"github.com/viant/fluxchart/service/dao/store"
	"github.com/viant/fluxchart/service/lifecycle"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrUnknownMachine is returned for ids the runtime never started.
var ErrUnknownMachine = errors.New("unknown machine")

// entry is a registered machine.
type entry struct {
	ID       string
	Chart    string
	Machine  *machine.Machine
	Progress *progress.Progress
}

// Runtime starts machines from chart definitions and keeps them addressable by id.
type Runtime struct {
	service   *Service
	logger    *zap.Logger
	machines  *store.MemoryStore[string, entry]
	runs      dao.Service[string, run.Run]
	listeners []lifecycle.Listener
	mux       sync.Mutex
}

func newRuntime() *Runtime {
	return &Runtime{machines: store.NewMemoryStore[string, entry](func(e *entry) string { return e.ID }, nil)}
}

// StartMachine builds def, starts a machine and registers it. The machine
// context carries a progress tracker visible to actions.
func (r *Runtime) StartMachine(ctx context.Context, def *definition.Chart, opts ...machine.Option) (*machine.Machine, error) {
	if def == nil {
		return nil, fmt.Errorf("chart definition was nil")
	}
	c, err := r.service.Build(def)
	if err != nil {
		return nil, err
	}
	m, err := r.service.NewMachine(c, opts...)
	if err != nil {
		return nil, err
	}
	if r.service.policy != nil {
		ctx = policy.WithPolicy(ctx, r.service.policy)
	}
	runCtx, tracker := progress.WithNewTracker(ctx, m.ID(), def.Name, nil)
	record := run.New(m.ID(), def.Name, clock.Now())
	if err = r.runs.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save run %v: %w", m.ID(), err)
	}
	m.AddListener(tracker)
	m.AddListener(r.recorder(m.ID()))
	if collector := r.service.collector; collector != nil {
		m.AddListener(collector.Listener(def.Name))
	}
	for _, listener := range r.listeners {
		m.AddListener(listener)
	}
	if err = r.machines.Save(ctx, &entry{ID: m.ID(), Chart: def.Name, Machine: m, Progress: tracker}); err != nil {
		return nil, err
	}
	if err = m.Start(runCtx); err != nil {
		return m, err
	}
	r.logger.Info("machine started", zap.String("machine", m.ID()), zap.String("chart", def.Name))
	return m, nil
}

// recorder persists the run outcome once the machine finished.
func (r *Runtime) recorder(id string) lifecycle.Listener {
	return lifecycle.ListenerFunc(func(evt lifecycle.Event) error {
		finished, ok := evt.(*lifecycle.Finished)
		if !ok {
			return nil
		}
		ctx := context.Background()
		r.mux.Lock()
		defer r.mux.Unlock()
		record, err := r.runs.Load(ctx, id)
		if err != nil {
			r.logger.Warn("failed to load run", zap.String("machine", id), zap.Error(err))
			return nil
		}
		if e, lErr := r.machines.Load(ctx, id); lErr == nil {
			record.Events = e.Progress.Snapshot().Handled
		}
		record.Finish(finished.Outcome, finished.Fault, finished.CreatedAt)
		if err = r.runs.Save(ctx, record); err != nil {
			r.logger.Warn("failed to save run", zap.String("machine", id), zap.Error(err))
		}
		return nil
	})
}

// Machine returns a registered machine.
func (r *Runtime) Machine(ctx context.Context, id string) (*machine.Machine, error) {
	e, err := r.machines.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownMachine, id)
	}
	return e.Machine, nil
}

// Progress returns the counters of a registered machine.
func (r *Runtime) Progress(ctx context.Context, id string) (progress.Progress, error) {
	e, err := r.machines.Load(ctx, id)
	if err != nil {
		return progress.Progress{}, fmt.Errorf("%w: %v", ErrUnknownMachine, id)
	}
	return e.Progress.Snapshot(), nil
}

// Send queues an event for a machine.
func (r *Runtime) Send(ctx context.Context, id string, evt event.Event) error {
	m, err := r.Machine(ctx, id)
	if err != nil {
		return err
	}
	return m.ReceiveEvent(evt)
}

// Deliver hands an event to a machine and waits until it was handled.
func (r *Runtime) Deliver(ctx context.Context, id string, evt event.Event) error {
	m, err := r.Machine(ctx, id)
	if err != nil {
		return err
	}
	return m.Deliver(ctx, evt)
}

// Stop cancels a machine.
func (r *Runtime) Stop(ctx context.Context, id string) error {
	m, err := r.Machine(ctx, id)
	if err != nil {
		return err
	}
	return m.Stop(outcome.Cancelled, nil)
}

// Wait blocks until the machine finished and returns its run record.
func (r *Runtime) Wait(ctx context.Context, id string) (*run.Run, error) {
	m, err := r.Machine(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = m.WaitForFinished(ctx); err != nil {
		return nil, err
	}
	return r.Run(ctx, id)
}

// Run returns the run record; a running machine reports its active path.
func (r *Runtime) Run(ctx context.Context, id string) (*run.Run, error) {
	r.mux.Lock()
	record, err := r.runs.Load(ctx, id)
	r.mux.Unlock()
	if err != nil {
		return nil, err
	}
	if m, mErr := r.Machine(ctx, id); mErr == nil && m.IsRunning() {
		record.ActivePath = m.ActivePath()
	}
	return record, nil
}

// Machines lists run records, optionally restricted to the given outcomes.
func (r *Runtime) Machines(ctx context.Context, outcomes ...outcome.Outcome) ([]*run.Run, error) {
	var parameters []*dao.Parameter
	if len(outcomes) > 0 {
		var names []string
		for _, value := range outcomes {
			names = append(names, value.String())
		}
		parameters = append(parameters, dao.NewParameter("Outcome", names...))
	}
	ret, err := r.runs.List(ctx, parameters...)
	if err != nil {
		return nil, err
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].StartedAt.Equal(ret[j].StartedAt) {
			return ret[i].ID < ret[j].ID
		}
		return ret[i].StartedAt.Before(ret[j].StartedAt)
	})
	return ret, nil
}

// RefreshChart discards the cached definition so that the next load reads it again.
func (r *Runtime) RefreshChart(ctx context.Context, location string) (*definition.Chart, error) {
	return r.service.charts.Refresh(ctx, location)
}

// UpsertDefinition parses YAML and caches the definition as if it was loaded from location.
func (r *Runtime) UpsertDefinition(ctx context.Context, location string, data []byte) (*definition.Chart, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to decode chart YAML: %w", err)
	}
	def, err := r.service.charts.ParseChart(location, &node)
	if err != nil {
		return nil, err
	}
	if err = r.service.charts.Save(ctx, def); err != nil {
		return nil, err
	}
	return def, nil
}

// Shutdown cancels running machines and waits for them to finish.
func (r *Runtime) Shutdown(ctx context.Context) error {
	entries, err := r.machines.List(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, e := range entries {
		if !e.Machine.IsRunning() {
			continue
		}
		if err = e.Machine.Stop(outcome.Cancelled, nil); err != nil {
			errs = append(errs, err)
			continue
		}
		if err = e.Machine.WaitForFinished(ctx); err != nil {
			errs = append(errs, fmt.Errorf("machine %v: %w", e.ID, err))
		}
	}
	return errors.Join(errs...)
}
