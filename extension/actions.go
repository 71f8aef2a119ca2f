package extension

import (
	"sort"
	"sync"

	"github.com/viant/fluxchart/model/types"
)

// Actions provides action service
type Actions struct {
	services map[string]types.Service
	mux      sync.RWMutex
}

// Lookup returns a service by name
func (s *Actions) Lookup(name string) types.Service {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.services[name]
}

// Register registers a service
func (s *Actions) Register(service types.Service) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.services[service.Name()] = service
}

// Names returns registered service names in order.
func (s *Actions) Names() []string {
	s.mux.RLock()
	defer s.mux.RUnlock()
	ret := make([]string, 0, len(s.services))
	for name := range s.services {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// NewActions creates a new action service
func NewActions(services ...types.Service) *Actions {
	ret := &Actions{services: make(map[string]types.Service)}
	for _, service := range services {
		if service != nil {
			ret.Register(service)
		}
	}
	return ret
}
