package progress

import (
	"context"
	"sync"
	"time"

	"github.com/viant/fluxchart/service/lifecycle"
)

// Delta represents an incremental counter change. Fields are signed.
type Delta struct {
	Entered       int
	Left          int
	Bounced       int
	Handled       int
	Faults        int
	Actions       int
	FailedActions int
}

// Progress keeps aggregated counters of one machine run. It is safe for
// concurrent use and doubles as a lifecycle listener.
type Progress struct {
	MachineID string
	Chart     string
	StartedAt time.Time

	Entered       int
	Left          int
	Bounced       int
	Handled       int
	Faults        int
	Actions       int
	FailedActions int
	// Depth is the number of active states
	Depth   int
	Outcome string

	sync.Mutex
	onChange func(Progress)
}

// Update applies the supplied delta. The onChange callback receives a copy
// outside the critical section.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.Lock()
	p.apply(d)
	snapshot, cb := p.copy(), p.onChange
	p.Unlock()
	if cb != nil {
		cb(snapshot)
	}
}

func (p *Progress) apply(d Delta) {
	p.Entered += d.Entered
	p.Left += d.Left
	p.Bounced += d.Bounced
	p.Handled += d.Handled
	p.Faults += d.Faults
	p.Actions += d.Actions
	p.FailedActions += d.FailedActions
	p.Depth += d.Entered - d.Left
}

// OnEvent counts lifecycle events.
func (p *Progress) OnEvent(evt lifecycle.Event) error {
	switch actual := evt.(type) {
	case *lifecycle.Started:
		p.Lock()
		p.StartedAt, p.Outcome = actual.CreatedAt, ""
		p.Unlock()
	case *lifecycle.Entered:
		p.Update(Delta{Entered: 1})
	case *lifecycle.Left:
		p.Update(Delta{Left: 1})
	case *lifecycle.Bounced:
		p.Update(Delta{Bounced: 1})
	case *lifecycle.EventHandled:
		p.Update(Delta{Handled: 1})
	case *lifecycle.FaultRaised:
		p.Update(Delta{Faults: 1})
	case *lifecycle.Finished:
		p.Lock()
		p.Outcome = actual.Outcome.String()
		snapshot, cb := p.copy(), p.onChange
		p.Unlock()
		if cb != nil {
			cb(snapshot)
		}
	}
	return nil
}

// Snapshot returns a copy for read-only inspection.
func (p *Progress) Snapshot() Progress {
	if p == nil {
		return Progress{}
	}
	p.Lock()
	defer p.Unlock()
	return p.copy()
}

func (p *Progress) copy() Progress {
	return Progress{
		MachineID:     p.MachineID,
		Chart:         p.Chart,
		StartedAt:     p.StartedAt,
		Entered:       p.Entered,
		Left:          p.Left,
		Bounced:       p.Bounced,
		Handled:       p.Handled,
		Faults:        p.Faults,
		Actions:       p.Actions,
		FailedActions: p.FailedActions,
		Depth:         p.Depth,
		Outcome:       p.Outcome,
	}
}

// OnChange registers a callback invoked after every update; nil disables it.
func (p *Progress) OnChange(cb func(Progress)) {
	if p == nil {
		return
	}
	p.Lock()
	p.onChange = cb
	p.Unlock()
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithNewTracker creates a tracker and embeds it in a derived context.
func WithNewTracker(ctx context.Context, machineID, chart string, onChange func(Progress)) (context.Context, *Progress) {
	if ctx == nil {
		ctx = context.Background()
	}
	tr := &Progress{
		MachineID: machineID,
		Chart:     chart,
		StartedAt: time.Now(),
		onChange:  onChange,
	}
	return context.WithValue(ctx, trackerKey, tr), tr
}

// FromContext extracts the tracker from ctx.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// GetSnapshot combines FromContext and Snapshot.
func GetSnapshot(ctx context.Context) (Progress, bool) {
	if tr, ok := FromContext(ctx); ok {
		return tr.Snapshot(), true
	}
	return Progress{}, false
}

// UpdateCtx applies d to the tracker carried by ctx, if any.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
