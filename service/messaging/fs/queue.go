// Package fs implements a durable messaging.Queue on top of afs. Messages are
// JSON files moved between pending, processing, completed and dlq folders; a
// file name starts with the publish time so listing order is publish order.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"github.com/viant/fluxchart/service/messaging"
)

// MessageState represents the state of a message in the filesystem queue
type MessageState string

const (
	// MessageStatePending indicates a message is waiting to be processed
	MessageStatePending MessageState = "pending"
	// MessageStateProcessing indicates a message is being processed
	MessageStateProcessing MessageState = "processing"
	// MessageStateCompleted indicates a message was successfully processed
	MessageStateCompleted MessageState = "completed"
	// MessageStateDead indicates a message exhausted its retries
	MessageStateDead MessageState = "dlq"
)

// Message implements messaging.Message for the filesystem queue
type Message[T any] struct {
	ID        string       `json:"id"`
	Data      T            `json:"data"`
	State     MessageState `json:"state"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	NotBefore time.Time    `json:"notBefore,omitempty"`
	Retries   int          `json:"retries"`

	queue     *Queue[T]
	name      string
	processed bool
	mu        sync.Mutex
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.Data
}

// Ack moves the message to the completed folder.
func (m *Message[T]) Ack() error {
	if err := m.settle(); err != nil {
		return err
	}
	m.State = MessageStateCompleted
	return m.queue.move(context.Background(), m, MessageStateProcessing, MessageStateCompleted)
}

// Nack schedules a retry or moves the message to the dead letter folder.
func (m *Message[T]) Nack(err error) error {
	if sErr := m.settle(); sErr != nil {
		return sErr
	}
	if err != nil {
		m.Error = err.Error()
	}
	m.Retries++
	if m.Retries > m.queue.config.MaxRetries {
		m.State = MessageStateDead
		return m.queue.move(context.Background(), m, MessageStateProcessing, MessageStateDead)
	}
	m.State = MessageStatePending
	m.NotBefore = time.Now().Add(m.queue.config.RetryDelay)
	return m.queue.move(context.Background(), m, MessageStateProcessing, MessageStatePending)
}

func (m *Message[T]) settle() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %v already processed", m.ID)
	}
	m.processed = true
	m.UpdatedAt = time.Now()
	return nil
}

// Config holds configuration for filesystem queue
type Config struct {
	// BaseURL is the queue root folder
	BaseURL      string
	MaxRetries   int
	RetryDelay   time.Duration
	PollInterval time.Duration
}

// DefaultConfig returns a default queue configuration
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:      baseURL,
		MaxRetries:   3,
		RetryDelay:   time.Second,
		PollInterval: 100 * time.Millisecond,
	}
}

// Queue implements a filesystem-based messaging.Queue
type Queue[T any] struct {
	fs       afs.Service
	config   Config
	sequence atomic.Int64
	mu       sync.Mutex
}

// NewQueue creates the queue folders and returns messages left in
// processing by a previous process to pending.
func NewQueue[T any](ctx context.Context, fs afs.Service, config Config) (*Queue[T], error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 100 * time.Millisecond
	}
	config.BaseURL = url.Normalize(config.BaseURL, file.Scheme)
	q := &Queue[T]{fs: fs, config: config}
	for _, state := range []MessageState{MessageStatePending, MessageStateProcessing, MessageStateCompleted, MessageStateDead} {
		dir := q.dir(state)
		if exists, _ := fs.Exists(ctx, dir); exists {
			continue
		}
		if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := q.recover(ctx); err != nil {
		return nil, err
	}
	return q, nil
}

// Publish adds a new message to the queue
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	now := time.Now()
	message := &Message[T]{
		ID:        uuid.New().String(),
		Data:      *t,
		State:     MessageStatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	message.name = fmt.Sprintf("%020d-%06d-%s.json", now.UnixNano(), q.sequence.Add(1)%1000000, message.ID)
	return q.upload(ctx, q.dir(MessageStatePending), message)
}

// Consume blocks until a pending message is due or ctx is done.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	for {
		message, err := q.next(ctx)
		if err != nil || message != nil {
			return message, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(q.config.PollInterval):
		}
	}
}

func (q *Queue[T]) next(ctx context.Context) (*Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	objects, err := q.list(ctx, MessageStatePending)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for _, object := range objects {
		message, err := q.read(ctx, object)
		if err != nil {
			_ = q.fs.Move(ctx, object.URL(), url.Join(q.dir(MessageStateDead), "invalid-"+object.Name()))
			return nil, err
		}
		if now.Before(message.NotBefore) {
			continue
		}
		message.State = MessageStateProcessing
		message.UpdatedAt = now
		if err = q.upload(ctx, q.dir(MessageStateProcessing), message); err != nil {
			return nil, fmt.Errorf("failed to move message %v to processing: %w", message.ID, err)
		}
		if err = q.fs.Delete(ctx, object.URL()); err != nil {
			return nil, fmt.Errorf("failed to delete pending message %v: %w", message.ID, err)
		}
		return message, nil
	}
	return nil, nil
}

// Len returns the number of messages in the given state.
func (q *Queue[T]) Len(ctx context.Context, state MessageState) (int, error) {
	objects, err := q.list(ctx, state)
	return len(objects), err
}

// Messages returns messages in the given state in publish order.
func (q *Queue[T]) Messages(ctx context.Context, state MessageState) ([]*Message[T], error) {
	objects, err := q.list(ctx, state)
	if err != nil {
		return nil, err
	}
	var ret []*Message[T]
	for _, object := range objects {
		message, err := q.read(ctx, object)
		if err != nil {
			return nil, err
		}
		ret = append(ret, message)
	}
	return ret, nil
}

func (q *Queue[T]) recover(ctx context.Context) error {
	objects, err := q.list(ctx, MessageStateProcessing)
	if err != nil {
		return err
	}
	for _, object := range objects {
		if err = q.fs.Move(ctx, object.URL(), url.Join(q.dir(MessageStatePending), object.Name())); err != nil {
			return fmt.Errorf("failed to recover %v: %w", object.Name(), err)
		}
	}
	return nil
}

func (q *Queue[T]) move(ctx context.Context, m *Message[T], from, to MessageState) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.upload(ctx, q.dir(to), m); err != nil {
		return fmt.Errorf("failed to move message %v to %v: %w", m.ID, to, err)
	}
	source := url.Join(q.dir(from), m.name)
	if exists, _ := q.fs.Exists(ctx, source); exists {
		return q.fs.Delete(ctx, source)
	}
	return nil
}

func (q *Queue[T]) dir(state MessageState) string {
	return url.Join(q.config.BaseURL, string(state))
}

func (q *Queue[T]) list(ctx context.Context, state MessageState) ([]storage.Object, error) {
	objects, err := q.fs.List(ctx, q.dir(state))
	if err != nil {
		return nil, fmt.Errorf("failed to list %v messages: %w", state, err)
	}
	var ret []storage.Object
	for _, object := range objects {
		if !object.IsDir() && strings.HasSuffix(object.Name(), ".json") {
			ret = append(ret, object)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name() < ret[j].Name() })
	return ret, nil
}

func (q *Queue[T]) upload(ctx context.Context, dir string, m *Message[T]) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return q.fs.Upload(ctx, url.Join(dir, m.name), file.DefaultFileOsMode, bytes.NewReader(data))
}

func (q *Queue[T]) read(ctx context.Context, object storage.Object) (*Message[T], error) {
	data, err := q.fs.Download(ctx, object)
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", object.URL(), err)
	}
	message := &Message[T]{queue: q, name: object.Name()}
	if err = json.Unmarshal(data, message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", object.URL(), err)
	}
	return message, nil
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
