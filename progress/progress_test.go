package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/fluxchart/model/outcome"
	"github.com/viant/fluxchart/service/lifecycle"
)

func TestProgress_OnEvent(t *testing.T) {
	var changes []Progress
	ctx, tracker := WithNewTracker(context.Background(), "m1", "order", func(p Progress) {
		changes = append(changes, p)
	})
	header := lifecycle.NewHeader("m1")
	events := []lifecycle.Event{
		&lifecycle.Started{Header: header},
		&lifecycle.Entered{Header: header, StateID: ""},
		&lifecycle.Entered{Header: header, StateID: "/a"},
		&lifecycle.Bounced{Header: header, StateID: "/a", Target: "/b"},
		&lifecycle.EventHandled{Header: header, StateID: "/a"},
		&lifecycle.FaultRaised{Header: header, Fault: errors.New("boom"), ThrowerID: "/a", Case: lifecycle.CaseHandleEvent},
		&lifecycle.Left{Header: header, StateID: "/a"},
		&lifecycle.Finished{Header: header, Outcome: outcome.Completed},
	}
	for _, evt := range events {
		require.NoError(t, tracker.OnEvent(evt))
	}
	UpdateCtx(ctx, Delta{Actions: 2, FailedActions: 1})

	snapshot, ok := GetSnapshot(ctx)
	require.True(t, ok)
	assert.Equal(t, "m1", snapshot.MachineID)
	assert.Equal(t, 2, snapshot.Entered)
	assert.Equal(t, 1, snapshot.Left)
	assert.Equal(t, 1, snapshot.Depth)
	assert.Equal(t, 1, snapshot.Bounced)
	assert.Equal(t, 1, snapshot.Handled)
	assert.Equal(t, 1, snapshot.Faults)
	assert.Equal(t, 2, snapshot.Actions)
	assert.Equal(t, 1, snapshot.FailedActions)
	assert.Equal(t, "COMPLETED", snapshot.Outcome)
	assert.Len(t, changes, 8)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
	UpdateCtx(context.Background(), Delta{Actions: 1})
	var nilTracker *Progress
	nilTracker.Update(Delta{Entered: 1})
	assert.Equal(t, Progress{}, nilTracker.Snapshot())
}
