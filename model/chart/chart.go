// Package chart holds a state hierarchy and resolves hierarchical ids and
// relative path expressions to states.
//
// Path expressions are '/'-separated segments evaluated from a starting
// state:
//
//	""        the root (a leading '/' makes the path absolute)
//	"."       the current state
//	".."      the parent state
//	"@luid"   the single state with that local id anywhere in the chart
//	"luid"    the child of the current state
//
// A backslash escapes the following character.
package chart

import (
	"fmt"
	"strings"

	"github.com/viant/fluxchart/model/state"
)

// Chart is an immutable state hierarchy.
type Chart struct {
	name string
	root state.State
}

// Name returns the chart name.
func (c *Chart) Name() string { return c.name }

// Root returns the root state.
func (c *Chart) Root() state.State { return c.root }

// Resolve returns the state with the given hierarchical id; ids other than
// the root's start with the separator.
func (c *Chart) Resolve(id string) (state.State, error) {
	current := c.root
	parts := strings.Split(id, state.Separator)
	if parts[0] != "" {
		return nil, fmt.Errorf("failed to resolve %q: id is not rooted: %w", id, state.ErrNotFound)
	}
	for i := 1; i < len(parts); i++ {
		next, err := current.Node().Child(parts[i])
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %q: %w", id, err)
		}
		current = next
	}
	return current, nil
}

// FindByLocalID returns all states with the given local id in breadth-first order.
func (c *Chart) FindByLocalID(localID string) []state.State {
	var found []state.State
	queue := []state.State{c.root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.Node().LocalID() == localID {
			found = append(found, current)
		}
		queue = append(queue, current.Node().Children()...)
	}
	return found
}

// Locate resolves a path expression relative to from.
func (c *Chart) Locate(from state.State, path string) (state.State, error) {
	parts, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	current := from
	idx := 0
	switch head := parts[0]; {
	case head == "":
		current = c.root
		idx++
	case strings.HasPrefix(head, "@"):
		founds := c.FindByLocalID(head[1:])
		switch len(founds) {
		case 0:
			return nil, fmt.Errorf("%w: local id %q", state.ErrNotFound, head[1:])
		case 1:
			current = founds[0]
			idx++
		default:
			return nil, fmt.Errorf("%w: %q matches %d states", state.ErrAmbiguous, head[1:], len(founds))
		}
	}
	for ; idx < len(parts); idx++ {
		switch segment := parts[idx]; segment {
		case "..":
			parent := current.Node().Parent()
			if parent == nil {
				return nil, fmt.Errorf("%w: from=%q path=%q", state.ErrNotFound, from.Node().ID(), path)
			}
			current = parent
		case ".", "":
		default:
			child, err := current.Node().Child(segment)
			if err != nil {
				return nil, fmt.Errorf("from=%q path=%q: %w", from.Node().ID(), path, err)
			}
			current = child
		}
	}
	return current, nil
}

// Walk visits states depth-first, parents before children.
func (c *Chart) Walk(fn func(s state.State) error) error {
	return walk(c.root, fn)
}

func walk(s state.State, fn func(s state.State) error) error {
	if err := fn(s); err != nil {
		return err
	}
	for _, child := range s.Node().Children() {
		if err := walk(child, fn); err != nil {
			return err
		}
	}
	return nil
}

// Option customises a chart.
type Option func(c *Chart)

// WithName sets the chart name.
func WithName(name string) Option {
	return func(c *Chart) { c.name = name }
}

// New validates the hierarchy rooted at root and returns a chart.
func New(root state.State, opts ...Option) (*Chart, error) {
	if root == nil {
		return nil, fmt.Errorf("root state was nil")
	}
	if root.Node().Parent() != nil {
		return nil, fmt.Errorf("%w: root %q has a parent", state.ErrInvalidID, root.Node().ID())
	}
	ret := &Chart{root: root}
	for _, opt := range opts {
		opt(ret)
	}
	if err := ret.Walk(validate); err != nil {
		return nil, err
	}
	return ret, nil
}

func validate(s state.State) error {
	node := s.Node()
	if id := node.DefaultChildID(); id != "" && node.DefaultChild() == nil {
		return fmt.Errorf("%w: default child %q of %q", state.ErrNotFound, id, node.ID())
	}
	if id := node.ErrorChildID(); id != "" && node.ErrorChild() == nil {
		return fmt.Errorf("%w: error child %q of %q", state.ErrNotFound, id, node.ID())
	}
	return nil
}

func splitPath(path string) ([]string, error) {
	var parts []string
	var segment strings.Builder
	for i := 0; i < len(path); i++ {
		c := path[i]
		switch c {
		case '/':
			parts = append(parts, segment.String())
			segment.Reset()
			continue
		case '\\':
			if i++; i >= len(path) {
				return nil, fmt.Errorf("invalid path %q: dangling escape", path)
			}
			c = path[i]
		}
		segment.WriteByte(c)
	}
	if segment.Len() > 0 || len(parts) == 0 {
		parts = append(parts, segment.String())
	}
	return parts, nil
}
