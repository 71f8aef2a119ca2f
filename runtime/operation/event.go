package operation

import "fmt"

// StateChangedType is the event type of StateChanged.
const StateChangedType = "operation.stateChanged"

// StateChanged reports an operation status change. Tag identifies the
// execution that started the operation.
type StateChanged struct {
	Tag  string
	From Status
	To   Status
	Err  error
}

// Type returns the event type.
func (e *StateChanged) Type() string { return StateChangedType }

// Tagged returns a copy of e with the given tag.
func (e *StateChanged) Tagged(tag string) *StateChanged {
	ret := *e
	ret.Tag = tag
	return &ret
}

func (e *StateChanged) String() string {
	if e.Err != nil {
		return fmt.Sprintf("%s[%s: %v -> %v, cause=%v]", StateChangedType, e.Tag, e.From, e.To, e.Err)
	}
	return fmt.Sprintf("%s[%s: %v -> %v]", StateChangedType, e.Tag, e.From, e.To)
}
