package lifecycle

import (
	"fmt"
	"sync"

	"github.com/viant/fluxchart/internal/logging"
	"go.uber.org/zap"
)

// Listener receives lifecycle events. A listener returning an error or
// panicking is removed from the notifier.
type Listener interface {
	OnEvent(evt Event) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(evt Event) error

// OnEvent calls fn.
func (fn ListenerFunc) OnEvent(evt Event) error { return fn(evt) }

type registration struct {
	id       int
	listener Listener
}

// Notifier delivers events to listeners synchronously in registration order.
type Notifier struct {
	mux       sync.RWMutex
	seq       int
	listeners []registration
	logger    *zap.Logger
}

// NewNotifier creates a notifier.
func NewNotifier(logger *zap.Logger) *Notifier {
	return &Notifier{logger: logging.OrNop(logger).Named(logging.ComponentLifecycle)}
}

// Add registers a listener and returns its handle.
func (n *Notifier) Add(listener Listener) int {
	n.mux.Lock()
	defer n.mux.Unlock()
	n.seq++
	n.listeners = append(n.listeners, registration{id: n.seq, listener: listener})
	return n.seq
}

// Remove removes a listener by handle; it returns false for unknown handles.
func (n *Notifier) Remove(id int) bool {
	n.mux.Lock()
	defer n.mux.Unlock()
	for i, candidate := range n.listeners {
		if candidate.id == id {
			n.listeners = append(n.listeners[:i:i], n.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of registered listeners.
func (n *Notifier) Len() int {
	n.mux.RLock()
	defer n.mux.RUnlock()
	return len(n.listeners)
}

// Notify delivers evt to the listeners registered when the call started.
func (n *Notifier) Notify(evt Event) {
	n.mux.RLock()
	snapshot := make([]registration, len(n.listeners))
	copy(snapshot, n.listeners)
	n.mux.RUnlock()
	for _, candidate := range snapshot {
		if err := deliver(candidate.listener, evt); err != nil {
			n.Remove(candidate.id)
			n.logger.Warn("removed failing listener", zap.Int("listener", candidate.id), zap.Stringer("event", evt), zap.Error(err))
		}
	}
}

func deliver(listener Listener, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return listener.OnEvent(evt)
}
