package memory

import (
	"context"
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
	srv := New()
	r := run.New("m1", "order", time.Now())
	r.ActivePath = []string{"", "/a"}
	require.NoError(t, srv.Save(ctx, r))
	r.ActivePath[1] = "/mutated"

	loaded, err := srv.Load(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"", "/a"}, loaded.ActivePath, "records are copied")

	done := run.New("m2", "other", time.Now())
	done.Finish(outcome.Completed, nil, time.Now())
	require.NoError(t, srv.Save(ctx, done))

	var testCases = []struct {
		description string
		parameters  []*dao.Parameter
		expect      int
	}{
		{description: "all", expect: 2},
		{description: "running", parameters: []*dao.Parameter{dao.NewParameter("Outcome", "RUNNING")}, expect: 1},
		{description: "by chart", parameters: []*dao.Parameter{dao.NewParameter("Chart", "other")}, expect: 1},
		{description: "no match", parameters: []*dao.Parameter{dao.NewParameter("Chart", "order"), dao.NewParameter("Outcome", "COMPLETED")}},
	}
	for _, testCase := range testCases {
		listed, err := srv.List(ctx, testCase.parameters...)
		require.NoError(t, err, testCase.description)
		assert.Len(t, listed, testCase.expect, testCase.description)
	}
	assert.ErrorIs(t, srv.Delete(ctx, ""), dao.ErrInvalidID)
}
