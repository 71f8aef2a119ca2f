// Package shell runs local commands as a chart action through a gosh bash
// session.
package shell

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/viant/fluxchart/model/types"
	"github.com/viant/gosh"
	"github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/local"
)

// Name of the service as used by chart actions.
const Name = "shell"

// DefaultTimeout bounds a single command.
const DefaultTimeout = time.Minute

// Service runs commands; each call uses its own session.
type Service struct{}

// Input represents commands executed in order within one session
type Input struct {
	Commands []string          `json:"commands" yaml:"commands"`
	Workdir  string            `json:"workdir,omitempty" yaml:"workdir,omitempty"`
	Env      map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Timeout  time.Duration     `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// IgnoreErrors keeps running after a non zero status
	IgnoreErrors bool `json:"ignoreErrors,omitempty" yaml:"ignoreErrors,omitempty"`
}

// Command represents one executed command
type Command struct {
	Input  string `json:"input" yaml:"input"`
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
	Status int    `json:"status" yaml:"status"`
}

// Output represents execution results
type Output struct {
	Commands []*Command `json:"commands,omitempty" yaml:"commands,omitempty"`
	Stdout   string     `json:"stdout,omitempty" yaml:"stdout,omitempty"`
	Status   int        `json:"status" yaml:"status"`
}

// StatusError reports a command that exited with a non zero status.
type StatusError struct {
	Command string
	Status  int
	Output  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("command %q exited with %d: %s", e.Command, e.Status, strings.TrimSpace(e.Output))
}

// Execute runs the input commands. A non zero status fails the call unless
// IgnoreErrors is set.
func (s *Service) Execute(ctx context.Context, input *Input, output *Output) error {
	if len(input.Commands) == 0 {
		return fmt.Errorf("commands were empty")
	}
	var options []runner.Option
	if len(input.Env) > 0 {
		options = append(options, runner.WithEnvironment(input.Env))
	}
	session, err := gosh.New(ctx, local.New(options...))
	if err != nil {
		return fmt.Errorf("failed to start shell: %w", err)
	}
	defer session.Close()
	timeout := input.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if input.Workdir != "" {
		if _, status, err := session.Run(ctx, "cd "+input.Workdir); err != nil || status != 0 {
			return fmt.Errorf("failed to change directory to %v: %w", input.Workdir, &StatusError{Command: "cd", Status: status, Output: errorText(err)})
		}
	}
	var stdout strings.Builder
	for _, cmd := range input.Commands {
		text, status, err := session.Run(ctx, cmd, runner.WithTimeout(int(timeout.Milliseconds())))
		if err != nil && status == 0 {
			status = -1
			text = err.Error()
		}
		output.Commands = append(output.Commands, &Command{Input: cmd, Output: text, Status: status})
		output.Status = status
		if text != "" {
			stdout.WriteString(text)
			stdout.WriteString("\n")
		}
		if status != 0 && !input.IgnoreErrors {
			output.Stdout = strings.TrimSpace(stdout.String())
			return &StatusError{Command: cmd, Status: status, Output: text}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	output.Stdout = strings.TrimSpace(stdout.String())
	return nil
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Name returns the service name
func (s *Service) Name() string { return Name }

// Methods returns the service methods
func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{
			Name:        "run",
			Description: "Runs commands in one local bash session; each entry is a separate command line.",
			Input:       reflect.TypeOf(&Input{}),
			Output:      reflect.TypeOf(&Output{}),
		},
	}
}

// Method returns the specified method
func (s *Service) Method(name string) (types.Executable, error) {
	switch strings.ToLower(name) {
	case "run":
		return s.run, nil
	default:
		return nil, types.NewMethodNotFoundError(name)
	}
}

func (s *Service) run(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*Input)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*Output)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return s.Execute(ctx, input, output)
}

// New creates a shell service
func New() *Service {
	return &Service{}
}
