// Package outcome defines the result of an asynchronous operation. Terminal
// states report one to decide how a machine finishes.
package outcome

import (
	"fmt"
	"strings"
)

// Outcome represents the state of an asynchronous operation.
type Outcome int

const (
	Running Outcome = iota
	Completed
	Cancelled
	Failed
)

var names = map[Outcome]string{
	Running:   "RUNNING",
	Completed: "COMPLETED",
	Cancelled: "CANCELLED",
	Failed:    "FAILED",
}

func (o Outcome) String() string {
	if name, ok := names[o]; ok {
		return name
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// IsTerminal returns true for Completed, Cancelled and Failed.
func (o Outcome) IsTerminal() bool {
	return o == Completed || o == Cancelled || o == Failed
}

// Parse converts a textual outcome.
func Parse(text string) (Outcome, error) {
	for k, v := range names {
		if strings.EqualFold(v, strings.TrimSpace(text)) {
			return k, nil
		}
	}
	return Running, fmt.Errorf("unknown outcome: %q", text)
}
