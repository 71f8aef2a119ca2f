package fluxchart

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/afs/storage"
	"github.com/viant/fluxchart/model/run"
	"github.com/viant/fluxchart/model/types"
	"github.com/viant/fluxchart/policy"
	"github.com/viant/fluxchart/service/dao"
	"github.com/viant/fluxchart/service/executor"
	"github.com/viant/fluxchart/service/lifecycle"
	"github.com/viant/fluxchart/service/meta"
	"go.uber.org/zap"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the service.
type Option func(s *Service)

// WithConfig sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithLogger sets the logger; by default one is built from the logging config.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetaService sets the meta service
func WithMetaService(service *meta.Service) Option {
	return func(s *Service) {
		s.metaService = service
	}
}

// WithMetaBaseURL sets the meta base URL
func WithMetaBaseURL(url string) Option {
	return func(s *Service) {
		s.metaBaseURL = url
	}
}

// WithMetaFsOptions with meta file system options
func WithMetaFsOptions(options ...storage.Option) Option {
	return func(s *Service) {
		s.metaFsOptions = options
	}
}

// WithExtensionServices registers additional action services
func WithExtensionServices(services ...types.Service) Option {
	return func(s *Service) {
		s.extensionServices = append(s.extensionServices, services...)
	}
}

// WithExecutorOptions lets the caller supply additional executor options.
func WithExecutorOptions(opts ...executor.Option) Option {
	return func(s *Service) {
		s.executorOptions = append(s.executorOptions, opts...)
	}
}

// WithRunDAO sets the run record store
func WithRunDAO(dao dao.Service[string, run.Run]) Option {
	return func(s *Service) {
		s.runtime.runs = dao
	}
}

// WithListeners adds lifecycle listeners to every machine started by the runtime.
func WithListeners(listeners ...lifecycle.Listener) Option {
	return func(s *Service) {
		s.runtime.listeners = append(s.runtime.listeners, listeners...)
	}
}

// WithMetrics exports machine metrics with the supplied registerer.
func WithMetrics(registerer prometheus.Registerer) Option {
	return func(s *Service) {
		s.registerer = registerer
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom
// SpanExporter, for example OTLP, and enables machine spans.
func WithTracingExporter(exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		s.exporter = exporter
	}
}

// WithPolicy gates actions of started machines; it overrides the configured policy.
func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}
