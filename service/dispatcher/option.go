package dispatcher

import (
	"github.com/viant/fluxchart/service/messaging"
	"go.uber.org/zap"
)

// Option customises the dispatcher.
type Option func(*Service)

// WithMessageQueue sets the queue implementation
func WithMessageQueue(queue messaging.Queue[Task]) Option {
	return func(s *Service) {
		s.queue = queue
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithName sets the dispatcher name used in logs
func WithName(name string) Option {
	return func(s *Service) {
		s.name = name
	}
}
