package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	for _, cmd := range rootCmd.Commands() {
		cmd.Flags().VisitAll(resetFlag)
	}
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// resetFlag restores defaults since commands are package globals.
func resetFlag(flag *pflag.Flag) {
	if slice, ok := flag.Value.(pflag.SliceValue); ok {
		_ = slice.Replace(nil)
	} else {
		_ = flag.Value.Set(flag.DefValue)
	}
	flag.Changed = false
}

func TestValidate(t *testing.T) {
	output, err := execute(t, "", "validate", "../../testdata/light.yaml", "../../testdata/pipeline.yaml")
	require.NoError(t, err)
	assert.Contains(t, output, "light.yaml: ok")
	assert.Contains(t, output, "pipeline.yaml: ok")

	output, err = execute(t, "", "validate", "../../service/dao/chart/testdata/broken.yaml")
	assert.Error(t, err)
	assert.Contains(t, output, "broken.yaml:")
}

func TestRun(t *testing.T) {
	var testCases = []struct {
		description string
		stdin       string
		args        []string
		expect      string
	}{
		{
			description: "events from flags",
			args:        []string{"run", "../../testdata/light.yaml", "--quiet=true", "--stdin=false", "-e", "tick", "-e", "shutdown"},
			expect:      "finished: COMPLETED",
		},
		{
			description: "events from stdin",
			stdin:       "tick\n\nmaintenance\n",
			args:        []string{"run", "../../testdata/light.yaml", "--quiet=false", "--stdin=true"},
			expect:      "Finished[state=COMPLETED]",
		},
		{
			description: "service states",
			args:        []string{"run", "../../testdata/pipeline.yaml", "--quiet=true", "--stdin=false"},
			expect:      "finished: COMPLETED",
		},
	}
	for _, testCase := range testCases {
		output, err := execute(t, testCase.stdin, testCase.args...)
		require.NoError(t, err, testCase.description)
		assert.Contains(t, output, testCase.expect, testCase.description)
	}
}

func TestJournal(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "", "run", "../../testdata/light.yaml", "--quiet=true", "--stdin=false", "--journal", dir, "-e", "shutdown")
	require.NoError(t, err)

	output, err := execute(t, "", "journal", dir, "--follow=false")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(output), "\n")
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], "Started")
	assert.Contains(t, lines[len(lines)-1], "Finished[state=COMPLETED]")

	output, err = execute(t, "", "journal", dir)
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(output))
}

func TestRunAsk(t *testing.T) {
	output, err := execute(t, "no\n", "run", "../../testdata/pipeline.yaml", "--quiet=true", "--ask")
	assert.Error(t, err)
	assert.Contains(t, output, "run timer:sleep?")
	assert.Contains(t, output, "finished: FAILED")

	_, err = execute(t, "", "run", "../../testdata/pipeline.yaml", "--ask", "--stdin")
	assert.Error(t, err)
}
