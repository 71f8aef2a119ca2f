package types

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureExecutionContext(t *testing.T) {
	ctx := EnsureExecutionContext(context.Background(), "machineID", "m1", "stateID")
	assert.Equal(t, "m1", ExecutionValue(ctx, "machineID"))
	assert.Equal(t, "", ExecutionValue(ctx, "stateID"))
	ctx = EnsureExecutionContext(ctx, "stateID", "/a")
	assert.Equal(t, "/a", ExecutionValue(ctx, "stateID"))
	assert.Equal(t, "", ExecutionValue(context.Background(), "machineID"))
}
