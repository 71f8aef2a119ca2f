package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/fluxchart/model/run"
	"github.com/viant/fluxchart/service/dao"
	"github.com/viant/fluxchart/service/dao/run/memory"
	"go.uber.org/zap"
)

// Service stores run records as JSON files under a base URL.
type Service struct {
	baseURL string
	fs      afs.Service
	logger  *zap.Logger
	mu      sync.RWMutex
}

var _ dao.Service[string, run.Run] = (*Service)(nil)

// Save persists a run record
func (s *Service) Save(ctx context.Context, r *run.Run) error {
	if r == nil {
		return dao.ErrNilEntity
	}
	if r.ID == "" {
		return dao.ErrInvalidID
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal run %v: %w", r.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	location := s.runURL(r.ID)
	if err = s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save run to %s: %w", location, err)
	}
	return nil
}

// Load retrieves a run record
func (s *Service) Load(ctx context.Context, id string) (*run.Run, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	location := s.runURL(id)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check run %v: %w", id, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: run %s", dao.ErrNotFound, id)
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}
	ret := &run.Run{}
	if err = json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run %v: %w", id, err)
	}
	return ret, nil
}

// Delete removes a run record
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	location := s.runURL(id)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return fmt.Errorf("failed to check run %v: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("%w: run %s", dao.ErrNotFound, id)
	}
	return s.fs.Delete(ctx, location)
}

// List returns stored runs matching Outcome and Chart parameters.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*run.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects, err := s.fs.List(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	var ret []*run.Run
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			s.logger.Warn("failed to read run file", zap.String("url", object.URL()), zap.Error(err))
			continue
		}
		r := &run.Run{}
		if err := json.Unmarshal(data, r); err != nil {
			s.logger.Warn("failed to unmarshal run file", zap.String("url", object.URL()), zap.Error(err))
			continue
		}
		if !memory.Matches(r, parameters) {
			continue
		}
		ret = append(ret, r)
	}
	return ret, nil
}

func (s *Service) runURL(id string) string {
	return url.Join(s.baseURL, path.Base(id)+".json")
}

// New creates a file based run store; the base location is created when missing.
func New(ctx context.Context, baseURL string, logger *zap.Logger) (*Service, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	fs := afs.New()
	baseURL = url.Normalize(baseURL, file.Scheme)
	exists, _ := fs.Exists(ctx, baseURL)
	if !exists {
		if err := fs.Create(ctx, baseURL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}
	return &Service{baseURL: baseURL, fs: fs, logger: logger}, nil
}
