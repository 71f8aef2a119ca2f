package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/fluxchart/service/dao"
)

func TestMatch(t *testing.T) {
	var testCases = []struct {
		description string
		value       string
		parameters  []*dao.Parameter
		expect      bool
	}{
		{description: "no parameters", value: "FAILED", expect: true},
		{description: "other name", value: "FAILED", parameters: []*dao.Parameter{dao.NewParameter("Chart", "x")}, expect: true},
		{description: "single match", value: "FAILED", parameters: []*dao.Parameter{dao.NewParameter("Outcome", "FAILED")}, expect: true},
		{description: "single mismatch", value: "FAILED", parameters: []*dao.Parameter{dao.NewParameter("Outcome", "COMPLETED")}},
		{description: "any of", value: "FAILED", parameters: []*dao.Parameter{dao.NewParameter("Outcome", "COMPLETED", "FAILED")}, expect: true},
		{description: "none of", value: "RUNNING", parameters: []*dao.Parameter{dao.NewParameter("Outcome", "COMPLETED", "FAILED")}},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, Match("Outcome", testCase.value, testCase.parameters), testCase.description)
	}
}
