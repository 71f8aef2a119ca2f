// Package input provides an action that collects answers from a terminal so
// that a service state can wait for a human.
package input

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/viant/fluxchart/model/types"
)

// Name of the service as used by chart actions.
const Name = "input"

// Service reads answers line by line. One reader is shared across calls so
// that buffered input is not lost between prompts.
type Service struct {
	reader *bufio.Reader
	out    io.Writer
}

// AskInput represents a free-form prompt
type AskInput struct {
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
}

// AskOutput represents the answer
type AskOutput struct {
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
}

// ChooseInput represents a single choice prompt
type ChooseInput struct {
	Message string   `json:"message,omitempty" yaml:"message,omitempty"`
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`
	Default string   `json:"default,omitempty" yaml:"default,omitempty"`
}

// ChooseOutput represents the chosen option
type ChooseOutput struct {
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
	Index int    `json:"index" yaml:"index"`
}

// ErrNoChoice is returned when the answer matches no option.
var ErrNoChoice = fmt.Errorf("answer matches no option")

func (s *Service) ask(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*AskInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*AskOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	answer, err := s.readLine(ctx, prompt(input.Message))
	if err != nil {
		return err
	}
	if answer == "" {
		answer = input.Default
	}
	output.Text = answer
	return nil
}

func (s *Service) choose(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*ChooseInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*ChooseOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	var text strings.Builder
	text.WriteString(strings.TrimSpace(input.Message))
	for i, option := range input.Options {
		fmt.Fprintf(&text, "\n  %d) %s", i+1, option)
	}
	answer, err := s.readLine(ctx, prompt(text.String()))
	if err != nil {
		return err
	}
	if answer == "" {
		answer = input.Default
	}
	index := optionIndex(answer, input.Options)
	if index < 0 {
		return fmt.Errorf("%w: %q", ErrNoChoice, answer)
	}
	output.Index = index
	output.Value = input.Options[index]
	return nil
}

// readLine prints text and returns the trimmed next line. The read runs in a
// goroutine; a cancelled ctx abandons it.
func (s *Service) readLine(ctx context.Context, text string) (string, error) {
	fmt.Fprint(s.out, text)
	type result struct {
		line string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		line, err := s.reader.ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		done <- result{line: strings.TrimSpace(line), err: err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case ret := <-done:
		if ret.err == io.EOF {
			return "", nil
		}
		return ret.line, ret.err
	}
}

func prompt(message string) string {
	message = strings.TrimSpace(message)
	if message == "" {
		message = "?"
	}
	return message + " "
}

// optionIndex accepts a 1-based number or an option value (case-insensitive).
func optionIndex(answer string, options []string) int {
	if n, err := strconv.Atoi(answer); err == nil {
		if n >= 1 && n <= len(options) {
			return n - 1
		}
		return -1
	}
	for i, option := range options {
		if strings.EqualFold(option, answer) {
			return i
		}
	}
	return -1
}

// Name returns the service name
func (s *Service) Name() string { return Name }

// Methods returns the service methods
func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{
			Name:        "ask",
			Description: "Prompts for a line of text.",
			Input:       reflect.TypeOf(&AskInput{}),
			Output:      reflect.TypeOf(&AskOutput{}),
		},
		{
			Name:        "choose",
			Description: "Prompts for one of the listed options.",
			Input:       reflect.TypeOf(&ChooseInput{}),
			Output:      reflect.TypeOf(&ChooseOutput{}),
		},
	}
}

// Method returns the specified method
func (s *Service) Method(name string) (types.Executable, error) {
	switch strings.ToLower(name) {
	case "ask":
		return s.ask, nil
	case "choose":
		return s.choose, nil
	default:
		return nil, types.NewMethodNotFoundError(name)
	}
}

// New returns a Service that reads from stdin and writes to stdout.
func New() *Service {
	return NewWithIO(os.Stdin, os.Stdout)
}

// NewWithIO creates a Service using the supplied streams.
func NewWithIO(in io.Reader, out io.Writer) *Service {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Service{reader: bufio.NewReader(in), out: out}
}
