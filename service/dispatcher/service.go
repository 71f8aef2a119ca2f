package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/viant/fluxchart/internal/logging"
	"github.com/viant/fluxchart/service/messaging"
	"github.com/viant/fluxchart/service/messaging/memory"
	"go.uber.org/zap"
)

var (
	// ErrAlreadyStarted is returned when the worker is started twice.
	ErrAlreadyStarted = errors.New("dispatcher already started")
	// ErrStopped is returned when waiting on a task the worker will never run.
	ErrStopped = errors.New("dispatcher stopped")
)

// Task is a unit of work executed by the worker.
type Task struct {
	// Name describes the task in logs
	Name string
	Run  func(ctx context.Context) error
	done chan error
}

// Service runs submitted tasks on a single worker.
type Service struct {
	name   string
	queue  messaging.Queue[Task]
	logger *zap.Logger

	mux     sync.Mutex
	started bool
	cancel  context.CancelFunc
	stopped chan struct{}

	processed atomic.Int64
	failed    atomic.Int64
}

// New creates a dispatcher; the default queue is an unbounded memory queue
// that drops failed tasks, their errors are reported to the caller and logged.
func New(options ...Option) *Service {
	s := &Service{logger: zap.NewNop(), stopped: make(chan struct{})}
	for _, opt := range options {
		opt(s)
	}
	if s.queue == nil {
		config := memory.DefaultConfig()
		config.MaxRetries = 0
		config.DeadLetter = false
		s.queue = memory.NewQueue[Task](config)
	}
	s.logger = s.logger.Named(logging.ComponentDispatcher).With(zap.String("dispatcher", s.name))
	return s
}

// Start launches the worker.
func (s *Service) Start(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	workerCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.run(workerCtx)
	return nil
}

func (s *Service) run(ctx context.Context) {
	defer close(s.stopped)
	for ctx.Err() == nil {
		msg, err := s.queue.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("failed to consume task", zap.Error(err))
			continue
		}
		if msg == nil {
			continue
		}
		if err = s.process(ctx, msg); err != nil {
			s.logger.Warn("failed to settle task", zap.Error(err))
		}
	}
}

func (s *Service) process(ctx context.Context, msg messaging.Message[Task]) error {
	task := msg.T()
	err := execute(ctx, task)
	s.processed.Add(1)
	if task.done != nil {
		select {
		case task.done <- err:
		default:
		}
	}
	if err != nil {
		s.failed.Add(1)
		s.logger.Warn("task failed", zap.String("task", task.Name), zap.Error(err))
		return msg.Nack(err)
	}
	return msg.Ack()
}

func execute(ctx context.Context, task *Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %v panic: %v", task.Name, r)
		}
	}()
	if task.Run == nil {
		return nil
	}
	return task.Run(ctx)
}

// Submit enqueues a task without waiting for it.
func (s *Service) Submit(ctx context.Context, name string, run func(ctx context.Context) error) error {
	return s.queue.Publish(ctx, &Task{Name: name, Run: run})
}

// Pending tracks the result of a posted task.
type Pending struct {
	service *Service
	done    chan error
}

// Post enqueues a task and returns a handle to wait for its result. The
// worker does not need to be started yet.
func (s *Service) Post(ctx context.Context, name string, run func(ctx context.Context) error) (*Pending, error) {
	done := make(chan error, 1)
	if err := s.queue.Publish(ctx, &Task{Name: name, Run: run, done: done}); err != nil {
		return nil, err
	}
	return &Pending{service: s, done: done}, nil
}

// Wait blocks until the task returned, the worker exited or ctx is done.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case err := <-p.done:
		return err
	case <-p.service.stopped:
		select {
		case err := <-p.done:
			return err
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Call enqueues a task and waits for its result. It must not be invoked
// from a task running on the same dispatcher.
func (s *Service) Call(ctx context.Context, name string, run func(ctx context.Context) error) error {
	pending, err := s.Post(ctx, name, run)
	if err != nil {
		return err
	}
	return pending.Wait(ctx)
}

// Shutdown stops the worker once the running task returns; queued tasks are
// not executed. It does not wait and is safe to call from a task.
func (s *Service) Shutdown() {
	s.mux.Lock()
	cancel := s.cancel
	s.mux.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Done returns a channel closed once the worker exited.
func (s *Service) Done() <-chan struct{} { return s.stopped }

// Wait blocks until the worker exited.
func (s *Service) Wait() { <-s.stopped }

// Processed returns the number of executed tasks.
func (s *Service) Processed() int64 { return s.processed.Load() }

// Failed returns the number of failed tasks.
func (s *Service) Failed() int64 { return s.failed.Load() }
