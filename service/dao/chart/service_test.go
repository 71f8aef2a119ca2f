package chart

import (
	"context"
	"embed"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	_ "github.com/viant/afs/embed"
	"github.com/viant/afs/file"
	"github.com/viant/fluxchart/model/definition"
	"github.com/viant/fluxchart/service/dao"
	"github.com/viant/fluxchart/service/meta"
	"strings"
)

//go:embed testdata/*
var testFS embed.FS

func TestService_Load(t *testing.T) {
	t.Setenv("ORDER_REJECT_REASON", "card declined")
	ctx := context.Background()
	srv := New(WithMetaService(meta.New(afs.New(), "embed:///testdata", &testFS)))

	c, err := srv.Load(ctx, "order")
	require.NoError(t, err)
	assert.Equal(t, "order", c.Name)
	assert.Equal(t, "2", c.Version)
	assert.Equal(t, "order.yaml", c.Source.URL)

	root := c.Root
	assert.Equal(t, "idle", root.Initial)
	assert.Equal(t, "recovery", root.Error)
	assert.Equal(t, []*definition.Transition{{Event: "cancel", Target: "/cancelled"}}, root.On)
	var names []string
	for _, child := range root.States {
		names = append(names, child.Name)
	}
	assert.Equal(t, []string{"idle", "processing", "recovery", "done", "cancelled", "rejected"}, names)

	processing := root.Child("processing")
	require.NotNil(t, processing)
	assert.True(t, processing.History)
	assert.True(t, processing.Resume)
	assert.Equal(t, "validate", processing.InitialChild())
	validate := processing.Child("validate")
	assert.Equal(t, "/processing/validate", validate.ID)
	assert.Equal(t, definition.KindService, validate.Kind())
	assert.Equal(t, &definition.Action{Service: "timer", Method: "sleep", Input: map[string]interface{}{"duration": "10ms"}}, validate.Action)
	assert.Equal(t, "../../rejected", validate.OnFailure)
	charge := processing.Child("charge")
	assert.Equal(t, map[string]interface{}{"amount": 12}, charge.Action.Input)

	assert.Equal(t, []*definition.Transition{{Event: "retry", Target: "../processing"}}, root.Child("recovery").On)
	assert.Equal(t, "card declined", root.Child("rejected").Fault)
	assert.Equal(t, definition.KindFinal, root.Child("done").Kind())

	again, err := srv.Load(ctx, "order.yaml")
	require.NoError(t, err)
	assert.Same(t, c, again, "charts are cached by URL")
	refreshed, err := srv.Refresh(ctx, "order")
	require.NoError(t, err)
	assert.NotSame(t, c, refreshed)

	_, err = srv.Load(ctx, "broken")
	assert.Error(t, err)
	_, err = srv.Load(ctx, "missing")
	assert.Error(t, err)
}

func TestService_DecodeYAML(t *testing.T) {
	var testCases = []struct {
		description string
		yaml        string
		expectErr   string
		check       func(t *testing.T, c *definition.Chart)
	}{
		{
			description: "root name and anonymous chart",
			yaml:        "root: main\nstates:\n  a: {}\n  b:\n",
			check: func(t *testing.T, c *definition.Chart) {
				assert.True(t, strings.HasPrefix(c.Name, "anonymous-"))
				assert.Equal(t, "main", c.Root.Name)
				assert.Equal(t, "a", c.Root.InitialChild())
				assert.Len(t, c.Root.States, 2)
			},
		},
		{
			description: "invalid final",
			yaml:        "states:\n  done:\n    outcome: RUNNING\n",
			expectErr:   "outcome can not be RUNNING",
		},
		{
			description: "service without next",
			yaml:        "states:\n  work:\n    action: nop:nop\n",
			expectErr:   "next was empty",
		},
		{
			description: "bad transition",
			yaml:        "on:\n  go: [a, b]\nstates:\n  a: {}\n",
			expectErr:   "transition go",
		},
		{
			description: "bad bool",
			yaml:        "states:\n  a:\n    history: maybe\n",
			expectErr:   "invalid boolean",
		},
	}
	srv := New()
	for _, testCase := range testCases {
		c, err := srv.DecodeYAML([]byte(testCase.yaml))
		if testCase.expectErr != "" {
			require.Error(t, err, testCase.description)
			assert.Contains(t, err.Error(), testCase.expectErr, testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		testCase.check(t, c)
	}
}

func TestService_SaveListDelete(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	require.NoError(t, fs.Upload(ctx, "mem://localhost/charts/light.yaml", file.DefaultFileOsMode, strings.NewReader("states:\n  red:\n    on: {tick: ../green}\n  green:\n    on: {tick: ../red}\n")))
	srv := New(WithMetaService(meta.New(fs, "mem://localhost/charts")))
	_, err := srv.Load(ctx, "light")
	require.NoError(t, err)

	assert.ErrorIs(t, srv.Save(ctx, nil), dao.ErrNilEntity)
	assert.ErrorIs(t, srv.Save(ctx, &definition.Chart{}), dao.ErrInvalidID)
	assert.Error(t, srv.Save(ctx, &definition.Chart{Name: "bad"}))
	require.NoError(t, srv.Save(ctx, &definition.Chart{Name: "adhoc", Root: &definition.State{States: []*definition.State{{Name: "only"}}}}))

	listed, err := srv.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "adhoc", listed[0].Name)
	assert.Equal(t, "light", listed[1].Name)
	assert.Equal(t, "/only", listed[0].Root.States[0].ID)

	listed, err = srv.List(ctx, dao.NewParameter("Name", "light"))
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	require.NoError(t, srv.Delete(ctx, "light.yaml"))
	assert.ErrorIs(t, srv.Delete(ctx, "light"), dao.ErrNotFound)
}
