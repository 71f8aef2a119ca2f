package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnvExpr(t *testing.T) {
	var testCases = []struct {
		description string
		env         map[string]string
		input       string
		expect      string
	}{
		{description: "plain text", input: "just a plain string", expect: "just a plain string"},
		{description: "single", env: map[string]string{"FOO": "bar"}, input: "value is ${env.FOO}", expect: "value is bar"},
		{description: "multiple", env: map[string]string{"A": "1", "B": "2"}, input: "${env.A}-${env.B}-${env.A}", expect: "1-2-1"},
		{description: "unset", input: "x${env.META_UNSET_KEY}y", expect: "xy"},
		{description: "unterminated", env: map[string]string{"FOO": "bar"}, input: "a ${env.FOO", expect: "a ${env.FOO"},
		{description: "invalid key", env: map[string]string{"FOO": "bar"}, input: "${env.F-O}${env.FOO}", expect: "${env.F-O}bar"},
		{description: "empty key", input: "${env.}", expect: ""},
	}
	for _, testCase := range testCases {
		for k, v := range testCase.env {
			t.Setenv(k, v)
		}
		assert.Equal(t, testCase.expect, expandEnvExpr(testCase.input), testCase.description)
	}
}
