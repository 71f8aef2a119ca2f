package printer

import (
	"context"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/viant/fluxchart/model/types"
)

const name = "printer"

// Service prints messages
type Service struct {
	mux    sync.Mutex
	writer io.Writer
}

type Input struct {
	Message string
}

type Output struct{}

// New creates a printer writing to w; nil means standard output
func New(w io.Writer) *Service {
	if w == nil {
		w = os.Stdout
	}
	return &Service{writer: w}
}

// Name returns the service name
func (s *Service) Name() string {
	return name
}

// Methods returns the service methods
func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{
			Name:        "print",
			Description: "Prints the given message.",
			Input:       reflect.TypeOf(&Input{}),
			Output:      reflect.TypeOf(&Output{}),
		},
	}
}

// Method returns the specified method
func (s *Service) Method(name string) (types.Executable, error) {
	switch strings.ToLower(name) {
	case "print":
		return s.print, nil
	default:
		return nil, types.NewMethodNotFoundError(name)
	}
}

func (s *Service) print(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*Input)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	_, err := fmt.Fprintln(s.writer, input.Message)
	return err
}
