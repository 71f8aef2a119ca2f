package shell

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Execute(t *testing.T) {
	var testCases = []struct {
		description  string
		input        *Input
		expectStdout string
		expectStatus int
		expectErr    bool
	}{
		{
			description:  "commands share the session",
			input:        &Input{Commands: []string{"X=flux", "echo $X"}},
			expectStdout: "flux",
		},
		{
			description:  "environment",
			input:        &Input{Commands: []string{"echo $CHART"}, Env: map[string]string{"CHART": "order"}},
			expectStdout: "order",
		},
		{
			description:  "non zero status fails",
			input:        &Input{Commands: []string{"false", "echo skipped"}},
			expectStatus: 1,
			expectErr:    true,
		},
		{
			description:  "ignored errors",
			input:        &Input{Commands: []string{"false", "echo done"}, IgnoreErrors: true},
			expectStdout: "done",
		},
		{
			description: "no commands",
			input:       &Input{},
			expectErr:   true,
		},
	}
	srv := New()
	for _, testCase := range testCases {
		output := &Output{}
		err := srv.Execute(context.Background(), testCase.input, output)
		if testCase.expectErr {
			assert.Error(t, err, testCase.description)
			assert.Equal(t, testCase.expectStatus, output.Status, testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expectStdout, output.Stdout, testCase.description)
	}
}

func TestService_Method(t *testing.T) {
	srv := New()
	method, err := srv.Method("run")
	require.NoError(t, err)
	assert.Error(t, method(context.Background(), &Output{}, &Output{}))
	_, err = srv.Method("exec")
	assert.Error(t, err)
}
