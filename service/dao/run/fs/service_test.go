package fs

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/fluxchart/model/outcome"
	"github.com/viant/fluxchart/model/run"
	"github.com/viant/fluxchart/service/dao"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	srv, err := New(ctx, t.TempDir(), nil)
	require.NoError(t, err)

	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	first := run.New("m1", "order", started)
	first.ActivePath = []string{"", "/idle"}
	second := run.New("m2", "order", started)
	second.Finish(outcome.Failed, errors.New("boom"), started.Add(time.Second))
	require.NoError(t, srv.Save(ctx, first))
	require.NoError(t, srv.Save(ctx, second))
	assert.ErrorIs(t, srv.Save(ctx, &run.Run{}), dao.ErrInvalidID)

	loaded, err := srv.Load(ctx, "m2")
	require.NoError(t, err)
	assert.Equal(t, "FAILED", loaded.Outcome)
	assert.Equal(t, "boom", loaded.Fault)
	assert.True(t, loaded.IsFinished())

	_, err = srv.Load(ctx, "m3")
	assert.ErrorIs(t, err, dao.ErrNotFound)

	all, err := srv.List(ctx)
	require.NoError(t, err)
	var ids []string
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	sort.Strings(ids)
	assert.Equal(t, []string{"m1", "m2"}, ids)

	failed, err := srv.List(ctx, dao.NewParameter("Outcome", "FAILED"))
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "m2", failed[0].ID)

	require.NoError(t, srv.Delete(ctx, "m1"))
	assert.ErrorIs(t, srv.Delete(ctx, "m1"), dao.ErrNotFound)
}
