package outcome

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		text      string
		expect    Outcome
		expectErr bool
	}{
		{text: "completed", expect: Completed},
		{text: " FAILED ", expect: Failed},
		{text: "Cancelled", expect: Cancelled},
		{text: "running", expect: Running},
		{text: "done", expectErr: true},
	}
	for _, tc := range testCases {
		actual, err := Parse(tc.text)
		if tc.expectErr {
			assert.Error(t, err, tc.text)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, tc.expect, actual)
	}
	assert.True(t, Failed.IsTerminal())
	assert.False(t, Running.IsTerminal())
	assert.Equal(t, "outcome(9)", Outcome(9).String())
	assert.Equal(t, "COMPLETED", Completed.String())
}
