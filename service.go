package fluxchart

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/fluxchart/extension"
	"github.com/viant/fluxchart/internal/logging"
	"github.com/viant/fluxchart/metrics"
	"github.com/viant/fluxchart/model/chart"
	"github.com/viant/fluxchart/model/definition"
	"github.com/viant/fluxchart/model/types"
	"github.com/viant/fluxchart/policy"
	"github.com/viant/fluxchart/runtime/machine"
	"github.com/viant/fluxchart/runtime/state"
	"github.com/viant/fluxchart/service/action/nop"
	"github.com/viant/fluxchart/service/action/printer"
	"github.com/viant/fluxchart/service/action/shell"
	astorage "github.com/viant/fluxchart/service/action/storage"
	"github.com/viant/fluxchart/service/action/timer"
	dchart "github.com/viant/fluxchart/service/dao/chart"
	"github.com/viant/fluxchart/service/dao/run/fs"
	rmemory "github.com/viant/fluxchart/service/dao/run/memory"
	"github.com/viant/fluxchart/service/dispatcher"
	"github.com/viant/fluxchart/service/executor"
	"github.com/viant/fluxchart/service/messaging"
	"github.com/viant/fluxchart/service/messaging/memory"
	"github.com/viant/fluxchart/service/meta"
	"github.com/viant/fluxchart/tracing"
	"go.uber.org/zap"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Service wires chart loading, action execution and the machine runtime.
type Service struct {
	config            *Config
	logger            *zap.Logger
	runtime           *Runtime
	metaService       *meta.Service
	metaBaseURL       string
	metaFsOptions     []storage.Option
	charts            *dchart.Service
	actions           *extension.Actions
	extensionServices []types.Service
	executor          executor.Service
	executorOptions   []executor.Option
	registerer        prometheus.Registerer
	collector         *metrics.Collector
	exporter          sdktrace.SpanExporter
	policy            *policy.Policy
}

func (s *Service) init(options []Option) error {
	for _, option := range options {
		option(s)
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if s.logger == nil {
		s.logger = logging.New(s.config.Logging.Level, logging.Format(s.config.Logging.Format))
	}
	if err := s.initTracing(); err != nil {
		return err
	}
	if s.metaService == nil {
		var fsOptions []interface{}
		for _, option := range s.metaFsOptions {
			fsOptions = append(fsOptions, option)
		}
		s.metaService = meta.New(afs.New(), s.metaBaseURL, fsOptions...)
	}
	s.charts = dchart.New(dchart.WithMetaService(s.metaService))
	s.actions = extension.NewActions(nop.New(), printer.New(os.Stdout), timer.New(), astorage.New(afs.New()), shell.New())
	for _, service := range s.extensionServices {
		s.actions.Register(service)
	}
	s.executor = executor.New(s.actions, s.executorOptions...)
	if s.policy == nil && !s.config.Policy.IsEmpty() {
		s.policy = policy.New(&s.config.Policy, nil)
	}
	if s.registerer != nil {
		s.collector = metrics.New(s.registerer)
	}
	return s.runtime.init(s)
}

func (s *Service) initTracing() error {
	tracingConfig := s.config.Tracing
	switch {
	case s.exporter != nil:
		return tracing.InitWithExporter(tracingConfig.ServiceName, tracingConfig.ServiceVersion, s.exporter)
	case tracingConfig.Enabled:
		return tracing.Init(tracingConfig.ServiceName, tracingConfig.ServiceVersion, tracingConfig.Output)
	}
	return nil
}

func (s *Service) tracingEnabled() bool {
	return s.config.Tracing.Enabled || s.exporter != nil
}

// Config returns the effective configuration.
func (s *Service) Config() *Config { return s.config }

// Logger returns the service logger.
func (s *Service) Logger() *zap.Logger { return s.logger }

// Actions returns the action registry.
func (s *Service) Actions() *extension.Actions { return s.actions }

// Runtime returns the machine runtime.
func (s *Service) Runtime() *Runtime { return s.runtime }

// Charts returns the chart definition store.
func (s *Service) Charts() *dchart.Service { return s.charts }

// RegisterExtensionServices registers action services after construction.
func (s *Service) RegisterExtensionServices(services ...types.Service) {
	for i := range services {
		s.actions.Register(services[i])
	}
}

// LoadChart loads a chart definition
func (s *Service) LoadChart(ctx context.Context, location string) (*definition.Chart, error) {
	return s.charts.Load(ctx, location)
}

// DecodeYAMLChart decodes a chart definition
func (s *Service) DecodeYAMLChart(data []byte) (*definition.Chart, error) {
	return s.charts.DecodeYAML(data)
}

// Build turns a definition into an executable chart bound to the service actions.
func (s *Service) Build(def *definition.Chart) (*chart.Chart, error) {
	return state.Build(def, s.executor)
}

// NewMachine creates a stopped machine configured from the service config.
func (s *Service) NewMachine(c *chart.Chart, opts ...machine.Option) (*machine.Machine, error) {
	queueConfig := memory.DefaultConfig()
	queueConfig.MaxRetries = s.config.Queue.MaxRetries
	queueConfig.RetryDelay = s.config.Queue.RetryDelay
	base := []machine.Option{
		machine.WithLogger(s.logger),
		machine.WithMaxRedirects(s.config.Machine.MaxRedirects),
		machine.WithTracing(s.tracingEnabled()),
		machine.WithQueue(func() messaging.Queue[dispatcher.Task] {
			return memory.NewQueue[dispatcher.Task](queueConfig)
		}),
	}
	return machine.New(c, append(base, opts...)...)
}

func (r *Runtime) init(s *Service) error {
	r.service = s
	r.logger = s.logger.Named(logging.ComponentRuntime)
	if r.runs != nil {
		return nil
	}
	if s.config.Runs.StoreURL == "" {
		r.runs = rmemory.New()
		return nil
	}
	runs, err := fs.New(context.Background(), s.config.Runs.StoreURL, r.logger)
	if err != nil {
		return fmt.Errorf("failed to create run store: %w", err)
	}
	r.runs = runs
	return nil
}

// New creates a service
func New(options ...Option) (*Service, error) {
	ret := &Service{config: DefaultConfig(), runtime: newRuntime()}
	if err := ret.init(options); err != nil {
		return nil, err
	}
	return ret, nil
}
