package input

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Ask(t *testing.T) {
	var testCases = []struct {
		description string
		userIO      string
		input       *AskInput
		expect      string
	}{
		{description: "answer", userIO: "Bob\n", input: &AskInput{Message: "name?", Default: "anon"}, expect: "Bob"},
		{description: "default on empty line", userIO: "\n", input: &AskInput{Message: "city?", Default: "NYC"}, expect: "NYC"},
		{description: "default on eof", userIO: "", input: &AskInput{Default: "x"}, expect: "x"},
		{description: "last line without newline", userIO: "tail", input: &AskInput{}, expect: "tail"},
	}
	for _, testCase := range testCases {
		out := &bytes.Buffer{}
		srv := NewWithIO(strings.NewReader(testCase.userIO), out)
		method, err := srv.Method("ask")
		require.NoError(t, err, testCase.description)
		output := &AskOutput{}
		err = method(context.Background(), testCase.input, output)
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expect, output.Text, testCase.description)
		assert.True(t, strings.HasSuffix(out.String(), " "), testCase.description)
	}
}

func TestService_Choose(t *testing.T) {
	options := []string{"approve", "reject"}
	var testCases = []struct {
		description string
		userIO      string
		defaultTo   string
		expect      string
		expectIndex int
		expectErr   bool
	}{
		{description: "by number", userIO: "2\n", expect: "reject", expectIndex: 1},
		{description: "by value", userIO: "APPROVE\n", expect: "approve", expectIndex: 0},
		{description: "default", userIO: "\n", defaultTo: "reject", expect: "reject", expectIndex: 1},
		{description: "out of range", userIO: "3\n", expectErr: true},
		{description: "unknown", userIO: "maybe\n", expectErr: true},
	}
	for _, testCase := range testCases {
		srv := NewWithIO(strings.NewReader(testCase.userIO), io.Discard)
		method, err := srv.Method("choose")
		require.NoError(t, err)
		output := &ChooseOutput{}
		err = method(context.Background(), &ChooseInput{Message: "decision", Options: options, Default: testCase.defaultTo}, output)
		if testCase.expectErr {
			assert.ErrorIs(t, err, ErrNoChoice, testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expect, output.Value, testCase.description)
		assert.Equal(t, testCase.expectIndex, output.Index, testCase.description)
	}
}

func TestService_AskCancelled(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()
	srv := NewWithIO(reader, io.Discard)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := srv.ask(ctx, &AskInput{Message: "never"}, &AskOutput{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestService_Method(t *testing.T) {
	srv := New()
	_, err := srv.Method("form")
	assert.Error(t, err)
	assert.Len(t, srv.Methods(), 2)
}
