// Package run describes the persisted summary of one machine run.
package run

import (
	"time"

	"github.com/viant/fluxchart/model/outcome"
)

// Run summarises a machine run.
type Run struct {
	ID         string   `json:"id" yaml:"id"`
	Chart      string   `json:"chart" yaml:"chart"`
	Outcome    string   `json:"outcome" yaml:"outcome"`
	Fault      string   `json:"fault,omitempty" yaml:"fault,omitempty"`
	ActivePath []string `json:"activePath,omitempty" yaml:"activePath,omitempty"`
	// Events counts the states that were offered an event
	Events     int        `json:"events" yaml:"events"`
	StartedAt  time.Time  `json:"startedAt" yaml:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty" yaml:"finishedAt,omitempty"`
}

// New creates a running record.
func New(id, chart string, startedAt time.Time) *Run {
	return &Run{ID: id, Chart: chart, Outcome: outcome.Running.String(), StartedAt: startedAt}
}

// Finish records the outcome.
func (r *Run) Finish(value outcome.Outcome, fault error, at time.Time) {
	r.Outcome = value.String()
	r.Fault = ""
	if fault != nil {
		r.Fault = fault.Error()
	}
	r.ActivePath = nil
	r.FinishedAt = &at
}

// IsFinished returns true once an outcome was recorded.
func (r *Run) IsFinished() bool { return r.FinishedAt != nil }

// Clone returns a copy safe to hand out to other goroutines.
func (r *Run) Clone() *Run {
	ret := *r
	ret.ActivePath = append([]string(nil), r.ActivePath...)
	if r.FinishedAt != nil {
		at := *r.FinishedAt
		ret.FinishedAt = &at
	}
	return &ret
}
