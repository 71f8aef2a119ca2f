// Package operation defines asynchronous operations driven by service states
// and a goroutine-backed implementation.
package operation

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Status represents an operation status.
type Status int

const (
	// Idle means the operation has not been started.
	Idle Status = iota
	// Running means the operation is in progress.
	Running
	// Stopped means the operation completed or was stopped.
	Stopped
	// Failed means the operation terminated with an error.
	Failed
)

var statusNames = map[Status]string{
	Idle:    "IDLE",
	Running: "RUNNING",
	Stopped: "STOPPED",
	Failed:  "FAILED",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// IsTerminal returns true for Stopped and Failed.
func (s Status) IsTerminal() bool { return s == Stopped || s == Failed }

// ErrAlreadyStarted is returned when an operation is started twice.
var ErrAlreadyStarted = errors.New("operation already started")

// Listener observes operation status changes.
type Listener func(change *StateChanged)

// Operation is an asynchronous unit of work.
type Operation interface {
	// Start launches the operation; it does not wait for completion.
	Start(ctx context.Context) error
	// Stop requests termination; a stopped operation reports Stopped.
	Stop()
	// Status returns the current status.
	Status() Status
	// Err returns the failure cause once Failed.
	Err() error
	// AddListener registers a status change listener and returns its handle.
	AddListener(listener Listener) int
	// RemoveListener removes a listener by handle.
	RemoveListener(handle int)
}

// Func is the body of a Task.
type Func func(ctx context.Context) error

// Task runs a Func in its own goroutine.
type Task struct {
	fn        Func
	mux       sync.Mutex
	status    Status
	err       error
	cancel    context.CancelFunc
	stopped   bool
	listeners map[int]Listener
	seq       int
	done      chan struct{}
}

// New creates a task for fn.
func New(fn Func) *Task {
	return &Task{fn: fn, listeners: map[int]Listener{}, done: make(chan struct{})}
}

// Start launches the task.
func (t *Task) Start(ctx context.Context) error {
	t.mux.Lock()
	if t.status != Idle {
		t.mux.Unlock()
		return ErrAlreadyStarted
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, t.cancel = context.WithCancel(ctx)
	t.mux.Unlock()
	t.transit(Running, nil)
	go t.run(ctx)
	return nil
}

func (t *Task) run(ctx context.Context) {
	defer close(t.done)
	err := t.call(ctx)
	t.mux.Lock()
	stopped := t.stopped
	t.cancel()
	t.mux.Unlock()
	switch {
	case err == nil, stopped && errors.Is(err, context.Canceled):
		t.transit(Stopped, nil)
	default:
		t.transit(Failed, err)
	}
}

func (t *Task) call(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("operation panic: %v", r)
		}
	}()
	return t.fn(ctx)
}

// Stop cancels the task context.
func (t *Task) Stop() {
	t.mux.Lock()
	defer t.mux.Unlock()
	if t.status != Running {
		return
	}
	t.stopped = true
	t.cancel()
}

// Status returns the task status.
func (t *Task) Status() Status {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.status
}

// Err returns the failure cause.
func (t *Task) Err() error {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.err
}

// Done returns a channel closed once the task terminates.
func (t *Task) Done() <-chan struct{} { return t.done }

// AddListener registers a listener.
func (t *Task) AddListener(listener Listener) int {
	t.mux.Lock()
	defer t.mux.Unlock()
	t.seq++
	t.listeners[t.seq] = listener
	return t.seq
}

// RemoveListener removes a listener.
func (t *Task) RemoveListener(handle int) {
	t.mux.Lock()
	defer t.mux.Unlock()
	delete(t.listeners, handle)
}

func (t *Task) transit(to Status, err error) {
	t.mux.Lock()
	from := t.status
	t.status = to
	t.err = err
	listeners := make([]Listener, 0, len(t.listeners))
	for i := 1; i <= t.seq; i++ {
		if l, ok := t.listeners[i]; ok {
			listeners = append(listeners, l)
		}
	}
	t.mux.Unlock()
	change := &StateChanged{From: from, To: to, Err: err}
	for _, listener := range listeners {
		listener(change)
	}
}
