package memory

import (
	"context"

	"github.com/viant/fluxchart/model/run"
	"github.com/viant/fluxchart/service/dao"
	"github.com/viant/fluxchart/service/dao/criteria"
	"github.com/viant/fluxchart/service/dao/store"
)

// Service implements an in-memory, thread-safe store of run records. It
// works with copies to avoid data races between goroutines.
type Service struct {
	store *store.MemoryStore[string, run.Run]
}

var _ dao.Service[string, run.Run] = (*Service)(nil)

func (s *Service) Save(ctx context.Context, r *run.Run) error {
	if r == nil {
		return dao.ErrNilEntity
	}
	return s.store.Save(ctx, r.Clone())
}

func (s *Service) Load(ctx context.Context, id string) (*run.Run, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	ret, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return ret.Clone(), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	return s.store.Delete(ctx, id)
}

// List supports Outcome and Chart parameters.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*run.Run, error) {
	records, err := s.store.List(ctx, parameters...)
	if err != nil {
		return nil, err
	}
	ret := make([]*run.Run, 0, len(records))
	for _, r := range records {
		ret = append(ret, r.Clone())
	}
	return ret, nil
}

// Matches reports whether r satisfies Outcome and Chart parameters.
func Matches(r *run.Run, parameters []*dao.Parameter) bool {
	return criteria.Match("Outcome", r.Outcome, parameters) && criteria.Match("Chart", r.Chart, parameters)
}

func New() *Service {
	return &Service{store: store.NewMemoryStore[string, run.Run](func(r *run.Run) string { return r.ID }, Matches)}
}
