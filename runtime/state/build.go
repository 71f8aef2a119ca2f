package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/fluxchart/model/chart"
	"github.com/viant/fluxchart/model/definition"
	"github.com/viant/fluxchart/model/outcome"
	"github.com/viant/fluxchart/model/state"
	"github.com/viant/fluxchart/model/types"
	"github.com/viant/fluxchart/runtime/operation"
	"github.com/viant/fluxchart/service/executor"
)

// DefaultRootName is the local id of a root state without a name.
const DefaultRootName = "root"

// Build creates a chart from a definition; service states run their action
// through the executor.
func Build(def *definition.Chart, exec executor.Service) (*chart.Chart, error) {
	if def == nil {
		return nil, fmt.Errorf("chart definition was nil")
	}
	if def.Root != nil {
		def.Root.AssignIDs("", true)
	}
	if issues := def.Validate(); len(issues) > 0 {
		return nil, fmt.Errorf("invalid chart %v: %w", def.Name, errors.Join(issues...))
	}
	rootName := def.Root.Name
	if rootName == "" {
		rootName = DefaultRootName
	}
	root, err := build(rootName, def.Root, exec)
	if err != nil {
		return nil, err
	}
	return chart.New(root, chart.WithName(def.Name))
}

func build(localID string, def *definition.State, exec executor.Service) (state.State, error) {
	var opts []Option
	if initial := def.InitialChild(); initial != "" {
		opts = append(opts, WithInitial(initial))
	}
	if def.Error != "" {
		opts = append(opts, WithError(def.Error))
	}
	if def.History {
		opts = append(opts, WithHistory())
	}
	if def.Resume {
		opts = append(opts, WithResume())
	}
	var ret state.State
	switch def.Kind() {
	case definition.KindFinal:
		value, err := outcome.Parse(def.Outcome)
		if err != nil {
			return nil, fmt.Errorf("state %v: %w", def.ID, err)
		}
		var cause error
		if def.Fault != "" {
			cause = errors.New(def.Fault)
		}
		ret = NewFinal(localID, value, cause, opts...)
	case definition.KindService:
		if exec == nil {
			return nil, fmt.Errorf("state %v: executor was nil", def.ID)
		}
		ret = NewService(localID, actionFactory(def.ID, def.Action, exec), def.Next, def.OnFailure, opts...)
	default:
		transitions := make([]Transition, 0, len(def.On))
		for _, transition := range def.On {
			transitions = append(transitions, Transition{Event: transition.Event, Target: transition.Target})
		}
		ret = NewReactive(localID, transitions, opts...)
	}
	for _, childDef := range def.States {
		child, err := build(childDef.Name, childDef, exec)
		if err != nil {
			return nil, err
		}
		if err = state.Attach(ret, child); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func actionFactory(stateID string, action *definition.Action, exec executor.Service) Factory {
	return func(execution state.Execution) (operation.Operation, error) {
		return operation.New(func(ctx context.Context) error {
			ctx = types.EnsureExecutionContext(ctx, "machineID", execution.ID(), "stateID", stateID)
			_, err := exec.Execute(ctx, action)
			return err
		}), nil
	}
}
