package idgen

import "github.com/google/uuid"

// NewFunc returns a new globally unique identifier as string. It is a
// variable so tests can stub it.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new identifier.
func New() string { return NewFunc() }

// Tagged returns an identifier prefixed with the supplied tag, e.g.
// "/order/charge:2f6c...". Used to correlate asynchronous completions with
// the state entry that started them.
func Tagged(tag string) string {
	if tag == "" {
		return New()
	}
	return tag + ":" + New()
}
