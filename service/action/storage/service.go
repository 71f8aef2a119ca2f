// Package storage exposes file operations backed by viant/afs as chart
// actions, so service states can wait for uploads, downloads and listings.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"reflect"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"github.com/viant/fluxchart/model/types"
)

// Name of the service as used by chart actions.
const Name = "storage"

// Service provides file operations
type Service struct {
	fs afs.Service
}

// ListInput represents list parameters
type ListInput struct {
	URL       string `json:"url" yaml:"url"`
	Recursive bool   `json:"recursive,omitempty" yaml:"recursive,omitempty"`
}

// ListOutput represents listed assets; the listed folder itself is skipped
type ListOutput struct {
	Assets []*Asset `json:"assets,omitempty" yaml:"assets,omitempty"`
}

// DownloadInput represents download parameters
type DownloadInput struct {
	URLs []string `json:"urls" yaml:"urls"`
	// Dest is an optional folder receiving copies
	Dest string `json:"dest,omitempty" yaml:"dest,omitempty"`
}

// DownloadOutput represents downloaded assets with their data
type DownloadOutput struct {
	Assets []*Asset `json:"assets,omitempty" yaml:"assets,omitempty"`
}

// UploadInput represents upload parameters
type UploadInput struct {
	URL  string `json:"url" yaml:"url"`
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
	Data []byte `json:"data,omitempty" yaml:"data,omitempty"`
}

// UploadOutput represents the uploaded asset
type UploadOutput struct {
	Asset *Asset `json:"asset,omitempty" yaml:"asset,omitempty"`
}

// List lists assets under a URL
func (s *Service) List(ctx context.Context, input *ListInput, output *ListOutput) error {
	if input.URL == "" {
		return fmt.Errorf("url was empty")
	}
	var options []storage.Option
	if input.Recursive {
		options = append(options, option.NewRecursive(true))
	}
	objects, err := s.fs.List(ctx, input.URL, options...)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", input.URL, err)
	}
	base := strings.TrimRight(url.Path(input.URL), "/")
	for _, object := range objects {
		if object.IsDir() && strings.TrimRight(url.Path(object.URL()), "/") == base {
			continue
		}
		output.Assets = append(output.Assets, newAsset(object))
	}
	return nil
}

// Download reads assets and optionally copies them to Dest
func (s *Service) Download(ctx context.Context, input *DownloadInput, output *DownloadOutput) error {
	if len(input.URLs) == 0 {
		return fmt.Errorf("urls were empty")
	}
	for _, location := range input.URLs {
		object, err := s.fs.Object(ctx, location)
		if err != nil {
			return fmt.Errorf("failed to get %s: %w", location, err)
		}
		if object.IsDir() {
			return fmt.Errorf("can not download folder %s", location)
		}
		asset := newAsset(object)
		if asset.Data, err = s.fs.Download(ctx, object); err != nil {
			return fmt.Errorf("failed to download %s: %w", location, err)
		}
		if input.Dest != "" {
			dest := url.Join(input.Dest, asset.Name)
			if err = s.fs.Upload(ctx, dest, file.DefaultFileOsMode, bytes.NewReader(asset.Data)); err != nil {
				return fmt.Errorf("failed to copy %s to %s: %w", location, dest, err)
			}
		}
		output.Assets = append(output.Assets, asset)
	}
	return nil
}

// Upload writes Text or Data to URL
func (s *Service) Upload(ctx context.Context, input *UploadInput, output *UploadOutput) error {
	if input.URL == "" {
		return fmt.Errorf("url was empty")
	}
	data := input.Data
	if input.Text != "" {
		data = []byte(input.Text)
	}
	if err := s.fs.Upload(ctx, input.URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to upload %s: %w", input.URL, err)
	}
	object, err := s.fs.Object(ctx, input.URL)
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", input.URL, err)
	}
	output.Asset = newAsset(object)
	return nil
}

func newAsset(object storage.Object) *Asset {
	return &Asset{
		URL:         object.URL(),
		Name:        path.Base(url.Path(object.URL())),
		IsDir:       object.IsDir(),
		Size:        object.Size(),
		ModTime:     object.ModTime(),
		ContentType: contentType(object.URL()),
	}
}

// Name returns the service name
func (s *Service) Name() string { return Name }

// Methods returns the service methods
func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{Name: "list", Description: "Lists assets under a URL.", Input: reflect.TypeOf(&ListInput{}), Output: reflect.TypeOf(&ListOutput{})},
		{Name: "download", Description: "Reads assets.", Input: reflect.TypeOf(&DownloadInput{}), Output: reflect.TypeOf(&DownloadOutput{})},
		{Name: "upload", Description: "Writes an asset.", Input: reflect.TypeOf(&UploadInput{}), Output: reflect.TypeOf(&UploadOutput{})},
	}
}

// Method returns the specified method
func (s *Service) Method(name string) (types.Executable, error) {
	switch strings.ToLower(name) {
	case "list":
		return func(ctx context.Context, in, out interface{}) error {
			input, output, err := cast[ListInput, ListOutput](in, out)
			if err != nil {
				return err
			}
			return s.List(ctx, input, output)
		}, nil
	case "download":
		return func(ctx context.Context, in, out interface{}) error {
			input, output, err := cast[DownloadInput, DownloadOutput](in, out)
			if err != nil {
				return err
			}
			return s.Download(ctx, input, output)
		}, nil
	case "upload":
		return func(ctx context.Context, in, out interface{}) error {
			input, output, err := cast[UploadInput, UploadOutput](in, out)
			if err != nil {
				return err
			}
			return s.Upload(ctx, input, output)
		}, nil
	default:
		return nil, types.NewMethodNotFoundError(name)
	}
}

func cast[I, O any](in, out interface{}) (*I, *O, error) {
	input, ok := in.(*I)
	if !ok {
		return nil, nil, types.NewInvalidInputError(in)
	}
	output, ok := out.(*O)
	if !ok {
		return nil, nil, types.NewInvalidOutputError(out)
	}
	return input, output, nil
}

// New creates a storage service; a nil fs uses afs.New().
func New(fs afs.Service) *Service {
	if fs == nil {
		fs = afs.New()
	}
	return &Service{fs: fs}
}
