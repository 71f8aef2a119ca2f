package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEnd(t *testing.T) {
	assert.True(t, IsEnd(End()))
	assert.False(t, IsEnd(New("ping", nil)))
	assert.Equal(t, EndType, End().Type())
}

func TestString(t *testing.T) {
	msg := New("ping", 1)
	msg.ID = "x"
	assert.Equal(t, "ping[x]1", String(msg))
	assert.Equal(t, "<nil>", String(nil))
	assert.Equal(t, "end", String(End()))
}
