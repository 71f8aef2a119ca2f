// Package definition contains the declarative representation of a chart as
// loaded from YAML. Definitions are turned into running states by
// runtime/state.Build.
package definition

import (
	"fmt"
	"strings"

	"github.com/viant/fluxchart/model/outcome"
)

// Kind classifies a state definition.
type Kind string

const (
	// KindReactive is a plain or composite state reacting through its `on` table.
	KindReactive Kind = "reactive"
	// KindService drives an asynchronous action.
	KindService Kind = "service"
	// KindFinal terminates the machine with an outcome.
	KindFinal Kind = "final"
)

// Chart represents a chart definition.
type Chart struct {
	// Source provides information about the origin of the chart
	Source *Source `json:"source,omitempty" yaml:"source,omitempty"`
	// Name is the chart identifier
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	// Root is the root state; its children are the top level states
	Root *State `json:"root,omitempty" yaml:"root,omitempty"`
}

// Source represents the origin of a definition.
type Source struct {
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// State represents a state definition.
type State struct {
	// ID is the hierarchical id assigned once the tree is parsed
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Initial is the local id of the default child
	Initial string `json:"initial,omitempty" yaml:"initial,omitempty"`
	// History records the most recently exited child
	History bool `json:"history,omitempty" yaml:"history,omitempty"`
	// Resume re-enters the recorded child instead of the default one
	Resume bool `json:"resume,omitempty" yaml:"resume,omitempty"`
	// Error is the local id of the fault handler child
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	Action    *Action `json:"action,omitempty" yaml:"action,omitempty"`
	Next      string  `json:"next,omitempty" yaml:"next,omitempty"`
	OnFailure string  `json:"onFailure,omitempty" yaml:"onFailure,omitempty"`

	On []*Transition `json:"on,omitempty" yaml:"on,omitempty"`

	Outcome string `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	Fault   string `json:"fault,omitempty" yaml:"fault,omitempty"`

	States []*State `json:"states,omitempty" yaml:"states,omitempty"`
}

// Action names a registered service method.
type Action struct {
	Service string      `json:"service" yaml:"service"`
	Method  string      `json:"method" yaml:"method"`
	Input   interface{} `json:"input,omitempty" yaml:"input,omitempty"`
}

// Transition maps an event type to a target path expression.
type Transition struct {
	Event  string `json:"event" yaml:"event"`
	Target string `json:"target" yaml:"target"`
}

// Kind returns the state kind.
func (s *State) Kind() Kind {
	switch {
	case s.Outcome != "":
		return KindFinal
	case s.Action != nil:
		return KindService
	}
	return KindReactive
}

// Child returns a child definition by name.
func (s *State) Child(name string) *State {
	for _, child := range s.States {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// InitialChild returns the initial child name; it defaults to the first child.
func (s *State) InitialChild() string {
	if s.Initial != "" || len(s.States) == 0 {
		return s.Initial
	}
	return s.States[0].Name
}

// AssignIDs assigns hierarchical ids starting at s.
func (s *State) AssignIDs(parentID string, isRoot bool) {
	if isRoot {
		s.ID = ""
	} else {
		s.ID = parentID + "/" + s.Name
	}
	for _, child := range s.States {
		child.AssignIDs(s.ID, false)
	}
}

// Validate performs a structural validation of the chart. The returned
// slice is empty when the chart is sound.
func (c *Chart) Validate() []error {
	var issues []error
	if c.Root == nil {
		return append(issues, fmt.Errorf("chart %v: root state was empty", c.Name))
	}
	var walk func(s *State, isRoot bool)
	walk = func(s *State, isRoot bool) {
		label := s.ID
		if isRoot {
			label = "<root>"
		}
		if !isRoot && (s.Name == "" || strings.Contains(s.Name, "/")) {
			issues = append(issues, fmt.Errorf("state %v: invalid name %q", label, s.Name))
		}
		seen := map[string]bool{}
		for _, child := range s.States {
			if seen[child.Name] {
				issues = append(issues, fmt.Errorf("state %v: duplicate child %v", label, child.Name))
			}
			seen[child.Name] = true
		}
		if s.Initial != "" && !seen[s.Initial] {
			issues = append(issues, fmt.Errorf("state %v: unknown initial child %v", label, s.Initial))
		}
		if s.Error != "" && !seen[s.Error] {
			issues = append(issues, fmt.Errorf("state %v: unknown error child %v", label, s.Error))
		}
		if s.Resume && !s.History {
			issues = append(issues, fmt.Errorf("state %v: resume requires history", label))
		}
		switch s.Kind() {
		case KindFinal:
			if len(s.States) > 0 || s.Action != nil || len(s.On) > 0 {
				issues = append(issues, fmt.Errorf("final state %v can not have children, action or transitions", label))
			}
			if value, err := outcome.Parse(s.Outcome); err != nil {
				issues = append(issues, fmt.Errorf("final state %v: %w", label, err))
			} else if value == outcome.Running {
				issues = append(issues, fmt.Errorf("final state %v: outcome can not be %v", label, value))
			}
		case KindService:
			if len(s.States) > 0 {
				issues = append(issues, fmt.Errorf("service state %v can not have children", label))
			}
			if s.Action.Service == "" || s.Action.Method == "" {
				issues = append(issues, fmt.Errorf("service state %v: action service and method are required", label))
			}
			if s.Next == "" {
				issues = append(issues, fmt.Errorf("service state %v: next was empty", label))
			}
		}
		if isRoot && s.Kind() != KindReactive {
			issues = append(issues, fmt.Errorf("root state can only be reactive"))
		}
		for _, transition := range s.On {
			if transition.Event == "" {
				issues = append(issues, fmt.Errorf("state %v: transition event was empty", label))
			}
		}
		for _, child := range s.States {
			walk(child, false)
		}
	}
	walk(c.Root, true)
	return issues
}
