package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/viant/fluxchart/extension"
	"github.com/viant/fluxchart/model/definition"
	"github.com/viant/fluxchart/policy"
	"github.com/viant/fluxchart/progress"
)

// Listener is invoked once an action completes successfully. Implementations
// can log, collect metrics or perform any other side-effects they require.
type Listener func(action *definition.Action, input, output interface{})

// StdoutListener serialises the action, input and output into JSON and prints
// them to standard output.
func StdoutListener(action *definition.Action, input, output interface{}) {
	if action == nil {
		return
	}
	encoded, _ := json.Marshal(action)
	fmt.Println(string(encoded))
	if input != nil {
		in, _ := json.Marshal(input)
		fmt.Println(string(in))
	}
	if output != nil {
		out, _ := json.Marshal(output)
		fmt.Println(string(out))
	}
}

// Option is used to customise the executor instance.
type Option func(*service)

// WithListener sets the listener invoked after every executed action.
func WithListener(l Listener) Option {
	return func(s *service) {
		s.listener = l
	}
}

// Service executes registered actions.
type Service interface {
	Execute(ctx context.Context, action *definition.Action) (interface{}, error)
}

type service struct {
	actions  *extension.Actions
	listener Listener
}

// Execute decodes the action input into the method input type, invokes the
// method and returns its output.
func (s *service) Execute(ctx context.Context, action *definition.Action) (interface{}, error) {
	if action == nil {
		return nil, nil
	}
	actionService := s.actions.Lookup(action.Service)
	if actionService == nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceNotFound, action.Service)
	}
	if action.Method == "" {
		return nil, fmt.Errorf("%w: service %v", ErrMethodNotFound, action.Service)
	}
	method, err := actionService.Method(action.Method)
	if err != nil {
		return nil, fmt.Errorf("failed to find method %v for service %v: %w", action.Method, action.Service, err)
	}
	signature := actionService.Methods().Lookup(action.Method)
	if signature == nil {
		return nil, fmt.Errorf("%w: %v.%v", ErrMethodNotFound, action.Service, action.Method)
	}
	input, err := decode(signature.Input, action.Input)
	if err != nil {
		return nil, fmt.Errorf("invalid input for %v.%v: %w", action.Service, action.Method, err)
	}
	if err = policy.FromContext(ctx).Check(ctx, action.Service+":"+action.Method, input); err != nil {
		return nil, err
	}
	output := newValue(signature.Output)
	if err = method(ctx, input, output); err != nil {
		progress.UpdateCtx(ctx, progress.Delta{Actions: 1, FailedActions: 1})
		return nil, err
	}
	progress.UpdateCtx(ctx, progress.Delta{Actions: 1})
	if s.listener != nil {
		s.listener(action, input, output)
	}
	return output, nil
}

func newValue(t reflect.Type) interface{} {
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Ptr {
		return reflect.New(t.Elem()).Interface()
	}
	return reflect.New(t).Interface()
}

func decode(t reflect.Type, input interface{}) (interface{}, error) {
	ret := newValue(t)
	if ret == nil || input == nil {
		return ret, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           ret,
	})
	if err != nil {
		return nil, err
	}
	if err = decoder.Decode(input); err != nil {
		return nil, err
	}
	return ret, nil
}

// New creates a new executor service instance.
func New(actions *extension.Actions, opts ...Option) Service {
	s := &service{actions: actions}
	for _, o := range opts {
		o(s)
	}
	return s
}
