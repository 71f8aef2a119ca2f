package extension

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/fluxchart/model/types"
)

type named string

func (n named) Name() string              { return string(n) }
func (n named) Methods() types.Signatures { return nil }
func (n named) Method(name string) (types.Executable, error) {
	return func(context.Context, interface{}, interface{}) error { return nil }, nil
}

func TestActions(t *testing.T) {
	actions := NewActions(named("b"), nil, named("a"))
	assert.Equal(t, []string{"a", "b"}, actions.Names())
	assert.NotNil(t, actions.Lookup("a"))
	assert.Nil(t, actions.Lookup("c"))
	actions.Register(named("c"))
	assert.Equal(t, named("c"), actions.Lookup("c"))
}
