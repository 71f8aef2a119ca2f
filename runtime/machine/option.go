package machine

import (
	"github.com/viant/fluxchart/service/dispatcher"
	"github.com/viant/fluxchart/service/lifecycle"
	"github.com/viant/fluxchart/service/messaging"
	"go.uber.org/zap"
)

// DefaultMaxRedirects bounds bounces and redirects within one transition.
const DefaultMaxRedirects = 64

// Option customises a machine.
type Option func(m *Machine)

// WithID sets the machine id.
func WithID(id string) Option {
	return func(m *Machine) { m.id = id }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithListeners registers lifecycle listeners.
func WithListeners(listeners ...lifecycle.Listener) Option {
	return func(m *Machine) { m.listeners = append(m.listeners, listeners...) }
}

// WithMaxRedirects sets the bounce and redirect limit of a single transition.
func WithMaxRedirects(limit int) Option {
	return func(m *Machine) {
		if limit > 0 {
			m.maxRedirects = limit
		}
	}
}

// WithQueue sets the factory creating the event queue of each run.
func WithQueue(newQueue func() messaging.Queue[dispatcher.Task]) Option {
	return func(m *Machine) { m.newQueue = newQueue }
}

// WithTracing records spans for start, delivery and stop.
func WithTracing(enabled bool) Option {
	return func(m *Machine) { m.tracing = enabled }
}
