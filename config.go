package fluxchart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viant/afs"
	"github.com/viant/fluxchart/internal/logging"
	"github.com/viant/fluxchart/policy"
	"github.com/viant/fluxchart/runtime/machine"
	"github.com/viant/fluxchart/service/meta"
)

// Config is a serialisable representation of the engine configuration. The
// zero value of a nested field inherits the package default.
type Config struct {
	Machine MachineConfig `json:"machine" yaml:"machine"`
	Queue   QueueConfig   `json:"queue" yaml:"queue"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`
	Runs    RunsConfig    `json:"runs" yaml:"runs"`
	// Policy gates actions of every started machine
	Policy policy.Config `json:"policy,omitempty" yaml:"policy,omitempty"`
}

// MachineConfig configures the transition engine.
type MachineConfig struct {
	// MaxRedirects bounds bounces and redirects within one transition
	MaxRedirects int `json:"maxRedirects" yaml:"maxRedirects"`
}

// QueueConfig configures the per machine event queue.
type QueueConfig struct {
	// MaxRetries is the number of times a failed event task is redelivered
	MaxRetries int           `json:"maxRetries" yaml:"maxRetries"`
	RetryDelay time.Duration `json:"retryDelay" yaml:"retryDelay"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// TracingConfig configures OpenTelemetry spans.
type TracingConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	ServiceName    string `json:"serviceName" yaml:"serviceName"`
	ServiceVersion string `json:"serviceVersion" yaml:"serviceVersion"`
	// Output is a file path; empty means stdout
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
}

// RunsConfig configures where run records are kept.
type RunsConfig struct {
	// StoreURL is a folder for JSON run records; empty keeps them in memory
	StoreURL string `json:"storeURL,omitempty" yaml:"storeURL,omitempty"`
}

// DefaultConfig returns a Config populated with package defaults.
func DefaultConfig() *Config {
	return &Config{
		Machine: MachineConfig{MaxRedirects: machine.DefaultMaxRedirects},
		Queue:   QueueConfig{RetryDelay: 100 * time.Millisecond},
		Logging: LoggingConfig{Level: "INFO", Format: string(logging.FormatConsole)},
		Tracing: TracingConfig{ServiceName: "fluxchart", ServiceVersion: "dev"},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Machine.MaxRedirects <= 0 {
		errs = append(errs, fmt.Errorf("machine.maxRedirects must be > 0"))
	}
	if c.Queue.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("queue.maxRetries must be >= 0"))
	}
	if c.Queue.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("queue.retryDelay must be >= 0"))
	}
	switch strings.ToUpper(c.Logging.Level) {
	case "", "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		errs = append(errs, fmt.Errorf("logging.level: unsupported %q", c.Logging.Level))
	}
	switch logging.Format(strings.ToUpper(c.Logging.Format)) {
	case "", logging.FormatConsole, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("logging.format: unsupported %q", c.Logging.Format))
	}
	if c.Tracing.Enabled && c.Tracing.ServiceName == "" {
		errs = append(errs, fmt.Errorf("tracing.serviceName is required when tracing is enabled"))
	}
	if err := c.Policy.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LoadConfig reads a YAML config from URL on top of DefaultConfig.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	ret := DefaultConfig()
	if err := meta.New(afs.New(), "").Load(ctx, URL, ret); err != nil {
		return nil, err
	}
	if err := ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %v: %w", URL, err)
	}
	return ret, nil
}
