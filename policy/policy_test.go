package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Check(t *testing.T) {
	approve := func(answer bool, err error) AskFunc {
		return func(ctx context.Context, action string, input interface{}) (bool, error) {
			return answer, err
		}
	}
	var testCases = []struct {
		description string
		policy      *Policy
		action      string
		expectErr   error
	}{
		{description: "nil policy", action: "shell:run"},
		{description: "auto", policy: &Policy{Mode: ModeAuto}, action: "shell:run"},
		{description: "blocked service", policy: &Policy{Block: []string{"shell"}}, action: "shell:run", expectErr: ErrDenied},
		{description: "blocked method", policy: &Policy{Block: []string{"storage:upload"}}, action: "storage:list"},
		{description: "not allowed", policy: &Policy{Allow: []string{"nop:nop"}}, action: "timer:sleep", expectErr: ErrDenied},
		{description: "allowed case-insensitive", policy: &Policy{Allow: []string{"Timer"}}, action: "timer:sleep"},
		{description: "deny", policy: &Policy{Mode: ModeDeny}, action: "nop:nop", expectErr: ErrDenied},
		{description: "ask without func", policy: &Policy{Mode: ModeAsk}, action: "nop:nop", expectErr: ErrDenied},
		{description: "ask approved", policy: &Policy{Mode: ModeAsk, Ask: approve(true, nil)}, action: "nop:nop"},
		{description: "ask rejected", policy: &Policy{Mode: ModeAsk, Ask: approve(false, nil)}, action: "nop:nop", expectErr: ErrDenied},
	}
	for _, testCase := range testCases {
		err := testCase.policy.Check(context.Background(), testCase.action, nil)
		if testCase.expectErr == nil {
			assert.NoError(t, err, testCase.description)
			continue
		}
		assert.ErrorIs(t, err, testCase.expectErr, testCase.description)
	}

	failure := errors.New("tty closed")
	err := (&Policy{Mode: ModeAsk, Ask: approve(false, failure)}).Check(context.Background(), "nop:nop", nil)
	assert.ErrorIs(t, err, failure)
}

func TestConfig(t *testing.T) {
	assert.True(t, (&Config{}).IsEmpty())
	assert.True(t, (&Config{Mode: "AUTO"}).IsEmpty())
	assert.False(t, (&Config{Block: []string{"shell"}}).IsEmpty())
	assert.NoError(t, (&Config{Mode: "Ask"}).Validate())
	assert.Error(t, (&Config{Mode: "maybe"}).Validate())
	assert.Equal(t, ModeAsk, New(&Config{Mode: "ASK"}, nil).Mode)
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	p := &Policy{Mode: ModeDeny}
	assert.Same(t, p, FromContext(WithPolicy(context.Background(), p)))
}
