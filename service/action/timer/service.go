package timer

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/viant/fluxchart/internal/clock"
	"github.com/viant/fluxchart/model/types"
)

const name = "timer"

// Service waits for a period of time
type Service struct{}

// Input represents sleep input; a non-empty Error fails the call once the
// period elapsed.
type Input struct {
	Duration time.Duration
	Error    string
}

// Output represents sleep output
type Output struct {
	Elapsed time.Duration
}

// New creates a timer service
func New() *Service {
	return &Service{}
}

// Name returns the service name
func (s *Service) Name() string {
	return name
}

// Methods returns the service methods
func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{
			Name:        "sleep",
			Description: "Waits for the given duration or until cancelled.",
			Input:       reflect.TypeOf(&Input{}),
			Output:      reflect.TypeOf(&Output{}),
		},
	}
}

// Method returns the specified method
func (s *Service) Method(name string) (types.Executable, error) {
	switch strings.ToLower(name) {
	case "sleep":
		return s.sleep, nil
	default:
		return nil, types.NewMethodNotFoundError(name)
	}
}

func (s *Service) sleep(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*Input)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*Output)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	started := clock.Now()
	timer := time.NewTimer(input.Duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	output.Elapsed = clock.Since(started)
	if input.Error != "" {
		return errors.New(input.Error)
	}
	return nil
}
