package fluxchart_test

import (
	"context"
	"embed"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "github.com/viant/afs/embed"
	"github.com/viant/fluxchart"
	"github.com/viant/fluxchart/model/event"
	"github.com/viant/fluxchart/model/outcome"
	"github.com/viant/fluxchart/service/lifecycle"
	"go.uber.org/zap"
)

//go:embed testdata/*
var embedFS embed.FS

func newService(t *testing.T, options ...fluxchart.Option) *fluxchart.Service {
	t.Helper()
	base := []fluxchart.Option{
		fluxchart.WithMetaFsOptions(&embedFS),
		fluxchart.WithMetaBaseURL("embed:///testdata"),
		fluxchart.WithLogger(zap.NewNop()),
	}
	srv, err := fluxchart.New(append(base, options...)...)
	require.NoError(t, err)
	return srv
}

func TestService_LoadChart(t *testing.T) {
	srv := newService(t)
	ctx := context.Background()
	def, err := srv.LoadChart(ctx, "light.yaml")
	require.NoError(t, err)
	assert.Equal(t, "light", def.Name)
	cached, err := srv.LoadChart(ctx, "light")
	require.NoError(t, err)
	assert.Same(t, def, cached)

	_, err = srv.LoadChart(ctx, "missing.yaml")
	assert.Error(t, err)
}

func TestService_InvalidConfig(t *testing.T) {
	config := fluxchart.DefaultConfig()
	config.Machine.MaxRedirects = -1
	_, err := fluxchart.New(fluxchart.WithConfig(config))
	assert.Error(t, err)
}

func TestRuntime_Light(t *testing.T) {
	var kinds []lifecycle.Kind
	recorder := lifecycle.ListenerFunc(func(evt lifecycle.Event) error {
		kinds = append(kinds, evt.Kind())
		return nil
	})
	registry := prometheus.NewRegistry()
	srv := newService(t, fluxchart.WithListeners(recorder), fluxchart.WithMetrics(registry))
	ctx := context.Background()
	def, err := srv.LoadChart(ctx, "light.yaml")
	require.NoError(t, err)
	rt := srv.Runtime()
	m, err := rt.StartMachine(ctx, def)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "/operating", "/operating/red"}, m.ActivePath())

	for _, evt := range []string{"tick", "tick", "maintenance"} {
		require.NoError(t, rt.Deliver(ctx, m.ID(), event.New(evt, nil)))
	}
	assert.Equal(t, []string{"", "/maintenance"}, m.ActivePath())
	require.NoError(t, rt.Deliver(ctx, m.ID(), event.New("resume", nil)))
	assert.Equal(t, []string{"", "/operating", "/operating/yellow"}, m.ActivePath())

	running, err := rt.Run(ctx, m.ID())
	require.NoError(t, err)
	assert.Equal(t, outcome.Running.String(), running.Outcome)
	assert.Equal(t, []string{"", "/operating", "/operating/yellow"}, running.ActivePath)

	require.NoError(t, rt.Send(ctx, m.ID(), event.New("shutdown", nil)))
	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	record, err := rt.Wait(waitCtx, m.ID())
	require.NoError(t, err)
	assert.Equal(t, outcome.Completed.String(), record.Outcome)
	assert.True(t, record.IsFinished())
	assert.Empty(t, record.ActivePath)
	assert.Equal(t, 8, record.Events)

	snapshot, err := rt.Progress(ctx, m.ID())
	require.NoError(t, err)
	assert.Equal(t, 8, snapshot.Handled)
	assert.Equal(t, 0, snapshot.Depth)
	assert.Equal(t, lifecycle.KindStarted, kinds[0])
	assert.Equal(t, lifecycle.KindFinished, kinds[len(kinds)-1])

	completed, err := rt.Machines(ctx, outcome.Completed)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, m.ID(), completed[0].ID)
	failed, err := rt.Machines(ctx, outcome.Failed)
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestRuntime_Pipeline(t *testing.T) {
	srv := newService(t)
	ctx := context.Background()
	def, err := srv.LoadChart(ctx, "pipeline")
	require.NoError(t, err)
	rt := srv.Runtime()
	m, err := rt.StartMachine(ctx, def)
	require.NoError(t, err)
	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	record, err := rt.Wait(waitCtx, m.ID())
	require.NoError(t, err)
	assert.Equal(t, outcome.Completed.String(), record.Outcome)

	snapshot, err := rt.Progress(ctx, m.ID())
	require.NoError(t, err)
	assert.Equal(t, 2, snapshot.Actions)
	assert.Equal(t, 0, snapshot.FailedActions)
}

func TestRuntime_StopAndShutdown(t *testing.T) {
	srv := newService(t)
	ctx := context.Background()
	def, err := srv.LoadChart(ctx, "light")
	require.NoError(t, err)
	rt := srv.Runtime()
	first, err := rt.StartMachine(ctx, def)
	require.NoError(t, err)
	second, err := rt.StartMachine(ctx, def)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())

	require.NoError(t, rt.Stop(ctx, first.ID()))
	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	record, err := rt.Wait(waitCtx, first.ID())
	require.NoError(t, err)
	assert.Equal(t, outcome.Cancelled.String(), record.Outcome)

	require.NoError(t, rt.Shutdown(waitCtx))
	assert.False(t, second.IsRunning())
	runs, err := rt.Machines(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	_, err = rt.Machine(ctx, "unknown")
	assert.ErrorIs(t, err, fluxchart.ErrUnknownMachine)
	assert.ErrorIs(t, rt.Send(ctx, "unknown", event.New("tick", nil)), fluxchart.ErrUnknownMachine)
}

func TestRuntime_UpsertDefinition(t *testing.T) {
	srv := newService(t)
	ctx := context.Background()
	rt := srv.Runtime()
	def, err := rt.UpsertDefinition(ctx, "mem://localhost/charts/switch.yaml", []byte(`
initial: dark
states:
  dark:
    on:
      flip: ../lit
  lit:
    on:
      flip: ../dark
`))
	require.NoError(t, err)
	assert.Equal(t, "switch", def.Name)
	loaded, err := srv.LoadChart(ctx, "switch")
	require.NoError(t, err)
	assert.Same(t, def, loaded)

	_, err = rt.UpsertDefinition(ctx, "mem://localhost/charts/bad.yaml", []byte("initial: nowhere\nstates:\n  a: {}\n"))
	assert.Error(t, err)
}
