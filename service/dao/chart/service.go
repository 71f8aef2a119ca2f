package chart

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/viant/afs"
	"github.com/viant/fluxchart/internal/yml"
	"github.com/viant/fluxchart/model/definition"
	"github.com/viant/fluxchart/service/dao"
	"github.com/viant/fluxchart/service/dao/criteria"
	"github.com/viant/fluxchart/service/meta"
	"gopkg.in/yaml.v3"
)

// Service loads chart definitions from YAML and caches them by name and URL.
type Service struct {
	metaService *meta.Service
	mux         sync.RWMutex
	charts      map[string]*definition.Chart
	urls        map[string]string
}

var _ dao.Service[string, definition.Chart] = (*Service)(nil)

// DecodeYAML decodes a chart from YAML
func (s *Service) DecodeYAML(encoded []byte) (*definition.Chart, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(encoded, &node); err != nil {
		return nil, err
	}
	return s.ParseChart("", &node)
}

// Load returns a cached chart by name or URL, loading the URL on a miss.
func (s *Service) Load(ctx context.Context, id string) (*definition.Chart, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	if ret := s.cached(id); ret != nil {
		return ret, nil
	}
	return s.Refresh(ctx, id)
}

// Refresh reloads a chart from its URL, replacing the cached copy. A name
// of a chart loaded earlier is resolved to its source URL.
func (s *Service) Refresh(ctx context.Context, URL string) (*definition.Chart, error) {
	s.mux.RLock()
	if c, ok := s.charts[URL]; ok && c.Source != nil && c.Source.URL != "" {
		URL = c.Source.URL
	}
	s.mux.RUnlock()
	if filepath.Ext(URL) == "" {
		URL += ".yaml"
	}
	var node yaml.Node
	if err := s.metaService.Load(ctx, URL, &node); err != nil {
		return nil, fmt.Errorf("failed to load chart from %s: %w", URL, err)
	}
	ret, err := s.ParseChart(URL, &node)
	if err != nil {
		return nil, err
	}
	s.put(ret)
	return ret, nil
}

// Save validates and caches a chart under its name.
func (s *Service) Save(_ context.Context, c *definition.Chart) error {
	if c == nil {
		return dao.ErrNilEntity
	}
	if c.Name == "" {
		return dao.ErrInvalidID
	}
	if c.Root != nil {
		c.Root.AssignIDs("", true)
	}
	if issues := c.Validate(); len(issues) > 0 {
		return errors.Join(issues...)
	}
	s.put(c)
	return nil
}

// Delete removes a cached chart by name or URL.
func (s *Service) Delete(_ context.Context, id string) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	c, ok := s.charts[id]
	if !ok {
		if name, found := s.urls[id]; found {
			c, ok = s.charts[name]
		}
	}
	if !ok {
		return dao.ErrNotFound
	}
	delete(s.charts, c.Name)
	if c.Source != nil {
		delete(s.urls, c.Source.URL)
	}
	return nil
}

// List returns cached charts ordered by name; a Name parameter filters them.
func (s *Service) List(_ context.Context, parameters ...*dao.Parameter) ([]*definition.Chart, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	var ret []*definition.Chart
	for _, c := range s.charts {
		if !criteria.Match("Name", c.Name, parameters) {
			continue
		}
		ret = append(ret, c)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret, nil
}

func (s *Service) cached(id string) *definition.Chart {
	s.mux.RLock()
	defer s.mux.RUnlock()
	if ret, ok := s.charts[id]; ok {
		return ret
	}
	if name, ok := s.urls[id]; ok {
		return s.charts[name]
	}
	return nil
}

func (s *Service) put(c *definition.Chart) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.charts[c.Name] = c
	if c.Source != nil && c.Source.URL != "" {
		s.urls[c.Source.URL] = c.Name
	}
}

// ParseChart converts a YAML document into a validated chart definition.
func (s *Service) ParseChart(URL string, node *yaml.Node) (*definition.Chart, error) {
	ret := &definition.Chart{
		Source: &definition.Source{URL: URL},
		Name:   getChartNameFromURL(URL),
		Root:   &definition.State{},
	}
	if err := parseChart((*yml.Node)(node).Root(), ret); err != nil {
		return nil, fmt.Errorf("failed to parse chart from %s: %w", URL, err)
	}
	if ret.Name == "" {
		ret.Name = generateAnonymousName()
	}
	ret.Root.AssignIDs("", true)
	if issues := ret.Validate(); len(issues) > 0 {
		return nil, fmt.Errorf("invalid chart %v: %w", ret.Name, errors.Join(issues...))
	}
	return ret, nil
}

var anonymous atomic.Int32

func generateAnonymousName() string {
	return fmt.Sprintf("anonymous-%d", anonymous.Add(1))
}

// getChartNameFromURL extracts the chart name from URL (file name without extension)
func getChartNameFromURL(URL string) string {
	if URL == "" {
		return ""
	}
	base := filepath.Base(URL)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func parseChart(node *yml.Node, c *definition.Chart) error {
	if node == nil || node.Kind != yaml.MappingNode {
		return fmt.Errorf("chart node should be a mapping")
	}
	return node.Pairs(func(key string, valueNode *yml.Node) error {
		var err error
		switch strings.ToLower(key) {
		case "name":
			c.Name, err = valueNode.String()
		case "description":
			c.Description, err = valueNode.String()
		case "version":
			c.Version, err = valueNode.String()
		case "root":
			c.Root.Name, err = valueNode.String()
		default:
			err = parseProperty(c.Root, key, valueNode)
		}
		return err
	})
}

// parseState converts a YAML mapping into a state definition
func parseState(name string, node *yml.Node) (*definition.State, error) {
	ret := &definition.State{Name: name}
	if node.Kind == yaml.ScalarNode && node.Value == "" {
		return ret, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("state %v: node should be a mapping", name)
	}
	err := node.Pairs(func(key string, valueNode *yml.Node) error {
		return parseProperty(ret, key, valueNode)
	})
	if err != nil {
		return nil, fmt.Errorf("state %v: %w", name, err)
	}
	return ret, nil
}

func parseProperty(s *definition.State, key string, valueNode *yml.Node) error {
	var err error
	switch strings.ToLower(key) {
	case "description":
		s.Description, err = valueNode.String()
	case "initial":
		s.Initial, err = valueNode.String()
	case "history":
		s.History, err = valueNode.Bool()
	case "resume":
		s.Resume, err = valueNode.Bool()
	case "error":
		s.Error, err = valueNode.String()
	case "next":
		s.Next, err = valueNode.String()
	case "onfailure":
		s.OnFailure, err = valueNode.String()
	case "outcome":
		s.Outcome, err = valueNode.String()
	case "fault":
		s.Fault, err = valueNode.String()
	case "action":
		s.Action, err = parseAction(s.Action, valueNode)
	case "input":
		if s.Action == nil {
			s.Action = &definition.Action{}
		}
		s.Action.Input = valueNode.Interface()
	case "on":
		s.On, err = parseTransitions(valueNode)
	case "states":
		if valueNode.Kind != yaml.MappingNode {
			return fmt.Errorf("states node should be a mapping")
		}
		err = valueNode.Pairs(func(name string, child *yml.Node) error {
			return appendChild(s, name, child)
		})
	default:
		// a nested mapping under an unknown key declares a child state
		if valueNode.Kind == yaml.MappingNode {
			err = appendChild(s, key, valueNode)
		}
	}
	return err
}

func appendChild(s *definition.State, name string, node *yml.Node) error {
	child, err := parseState(name, node)
	if err != nil {
		return err
	}
	s.States = append(s.States, child)
	return nil
}

// parseAction accepts "service:method" or a mapping with service, method and input.
func parseAction(action *definition.Action, node *yml.Node) (*definition.Action, error) {
	if action == nil {
		action = &definition.Action{}
	}
	switch node.Kind {
	case yaml.ScalarNode:
		service, method, _ := strings.Cut(node.Value, ":")
		action.Service, action.Method = service, method
	case yaml.MappingNode:
		err := node.Pairs(func(key string, valueNode *yml.Node) error {
			switch strings.ToLower(key) {
			case "service":
				action.Service = valueNode.Value
			case "method":
				action.Method = valueNode.Value
			case "input":
				action.Input = valueNode.Interface()
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("line %d: action should be a scalar or a mapping", node.Line)
	}
	return action, nil
}

// parseTransitions accepts an event to target mapping or a sequence of
// {event, target} mappings.
func parseTransitions(node *yml.Node) ([]*definition.Transition, error) {
	var ret []*definition.Transition
	switch node.Kind {
	case yaml.MappingNode:
		err := node.Pairs(func(event string, target *yml.Node) error {
			value, err := target.String()
			if err != nil {
				return fmt.Errorf("transition %v: %w", event, err)
			}
			ret = append(ret, &definition.Transition{Event: event, Target: value})
			return nil
		})
		return ret, err
	case yaml.SequenceNode:
		err := node.Items(func(_ int, item *yml.Node) error {
			transition := &definition.Transition{}
			if err := item.Pairs(func(key string, valueNode *yml.Node) error {
				switch strings.ToLower(key) {
				case "event":
					transition.Event = valueNode.Value
				case "target":
					transition.Target = valueNode.Value
				}
				return nil
			}); err != nil {
				return err
			}
			ret = append(ret, transition)
			return nil
		})
		return ret, err
	}
	return nil, fmt.Errorf("line %d: on should be a mapping or a sequence", node.Line)
}

// New creates a chart service; by default resources are read with afs
// relative to the working directory.
func New(opts ...Option) *Service {
	ret := &Service{
		metaService: meta.New(afs.New(), ""),
		charts:      map[string]*definition.Chart{},
		urls:        map[string]string{},
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}
