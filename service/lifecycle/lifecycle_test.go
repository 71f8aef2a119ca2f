package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/fluxchart/model/event"
	"github.com/viant/fluxchart/model/outcome"
	"github.com/viant/fluxchart/service/messaging/memory"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNotifier(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	notifier := NewNotifier(zap.New(core))
	var received []string
	record := func(name string) Listener {
		return ListenerFunc(func(evt Event) error {
			received = append(received, name+":"+string(evt.Kind()))
			return nil
		})
	}
	notifier.Add(record("a"))
	notifier.Add(ListenerFunc(func(evt Event) error { return errors.New("broken") }))
	notifier.Add(ListenerFunc(func(evt Event) error { panic("oops") }))
	var lateID int
	notifier.Add(ListenerFunc(func(evt Event) error {
		// registered during notification: effective for the next event only
		if lateID == 0 {
			lateID = notifier.Add(record("late"))
		}
		return nil
	}))
	assert.Equal(t, 4, notifier.Len())

	notifier.Notify(&Started{Header: NewHeader("m1")})
	assert.Equal(t, []string{"a:started"}, received)
	assert.Equal(t, 3, notifier.Len())
	assert.Equal(t, 2, logs.FilterMessage("removed failing listener").Len())

	notifier.Notify(&Entered{Header: NewHeader("m1"), StateID: "/a"})
	assert.Equal(t, []string{"a:started", "a:entered", "late:entered"}, received)

	assert.True(t, notifier.Remove(lateID))
	assert.False(t, notifier.Remove(lateID))
}

func TestEvent_String(t *testing.T) {
	boom := errors.New("boom")
	msg := &event.Message{ID: "1", Kind: "go"}
	var testCases = []struct {
		event  Event
		expect string
	}{
		{event: &Started{}, expect: "Started"},
		{event: &Entered{StateID: "/a"}, expect: "Entered[state=/a]"},
		{event: &Left{StateID: "/a"}, expect: "Left[state=/a]"},
		{event: &Bounced{StateID: "/a", Target: "../b"}, expect: "Bounced[state=/a, to=../b]"},
		{event: &EventHandled{StateID: "/a", Event: msg}, expect: "EventHandled: state[/a], event=go[1]"},
		{event: &EventHandled{StateID: "/a", ToStateID: "/b", Event: msg}, expect: "EventHandled: state[/a], event=go[1], to=state[/b]"},
		{event: &FaultRaised{ThrowerID: "/a", ToStateID: "/e", Case: CaseHandleEvent, Event: msg, Fault: boom}, expect: "FaultRaised[event=go,thrower=/a,to=/e,case=HANDLE_EVENT,fault=boom]"},
		{event: &Finished{Outcome: outcome.Completed}, expect: "Finished[state=COMPLETED]"},
		{event: &Finished{Outcome: outcome.Failed, Fault: boom}, expect: "Finished[state=FAILED, fault=boom]"},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, testCase.event.String())
	}
}

func TestPublisherConsumer(t *testing.T) {
	queue := memory.NewQueue[Record](memory.DefaultConfig())
	publisher := NewPublisher(context.Background(), queue)
	notifier := NewNotifier(nil)
	notifier.Add(publisher)

	notifier.Notify(&Started{Header: NewHeader("m1")})
	notifier.Notify(&FaultRaised{Header: NewHeader("m1"), ThrowerID: "/a", Case: CaseEntry, Fault: errors.New("boom")})
	notifier.Notify(&Finished{Header: NewHeader("m1"), Outcome: outcome.Failed, Fault: errors.New("boom")})

	var mux sync.Mutex
	var records []*Record
	ctx, cancel := context.WithCancel(context.Background())
	consumer := NewConsumer(queue, func(record *Record) error {
		mux.Lock()
		defer mux.Unlock()
		records = append(records, record)
		if len(records) == 3 {
			cancel()
		}
		return nil
	})
	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not finish")
	}
	require.Len(t, records, 3)
	assert.Equal(t, KindStarted, records[0].Kind)
	assert.Equal(t, "m1", records[0].MachineID)
	assert.Equal(t, "/a", records[1].StateID)
	assert.Equal(t, CaseEntry, records[1].Case)
	assert.Equal(t, "FAILED", records[2].Outcome)
	assert.Equal(t, "boom", records[2].Fault)
}
