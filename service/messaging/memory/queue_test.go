package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signal struct {
	Type string
	Seq  int
}

func TestQueue_PublishConsume(t *testing.T) {
	ctx := context.Background()
	queue := NewQueue[signal](DefaultConfig())
	for i := 0; i < 3; i++ {
		require.NoError(t, queue.Publish(ctx, &signal{Type: "tick", Seq: i}))
	}
	assert.Equal(t, 3, queue.Size())
	for i := 0; i < 3; i++ {
		msg, err := queue.Consume(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, msg.T().Seq)
		assert.NotEmpty(t, msg.(*Message[signal]).ID())
		require.NoError(t, msg.Ack())
		assert.Error(t, msg.Ack(), "second ack")
		assert.Error(t, msg.Nack(errors.New("late")), "nack after ack")
	}
	assert.Equal(t, 0, queue.Size())
	assert.Error(t, queue.Publish(ctx, nil))
}

func TestQueue_Nack(t *testing.T) {
	var testCases = []struct {
		description   string
		config        Config
		nacks         int
		expectRetries int
		expectDead    int
	}{
		{description: "no retries goes to dlq", config: Config{DeadLetter: true}, nacks: 1, expectDead: 1},
		{description: "no retries without dlq drops", config: Config{}, nacks: 1},
		{description: "retried until exhausted", config: Config{MaxRetries: 2, DeadLetter: true}, nacks: 3, expectRetries: 2, expectDead: 1},
		{description: "delayed retry", config: Config{MaxRetries: 1, RetryDelay: 5 * time.Millisecond, DeadLetter: true}, nacks: 2, expectRetries: 1, expectDead: 1},
		{description: "negative retries", config: Config{MaxRetries: -1, DeadLetter: true}, nacks: 1, expectDead: 1},
	}
	for _, testCase := range testCases {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		queue := NewQueue[signal](testCase.config)
		require.NoError(t, queue.Publish(ctx, &signal{Type: "charge"}))
		retries := 0
		for i := 0; i < testCase.nacks; i++ {
			msg, err := queue.Consume(ctx)
			require.NoError(t, err, testCase.description)
			if i > 0 {
				retries++
				assert.NoError(t, msg.(*Message[signal]).Cause(), testCase.description)
			}
			require.NoError(t, msg.Nack(errors.New("declined")), testCase.description)
		}
		cancel()
		assert.Equal(t, testCase.expectRetries, retries, testCase.description)
		assert.Equal(t, testCase.expectDead, queue.DLQSize(), testCase.description)
		if testCase.expectDead > 0 {
			assert.EqualError(t, queue.DeadLetters()[0].Cause(), "declined", testCase.description)
		}
	}
}

func TestQueue_ConsumeWaits(t *testing.T) {
	queue := NewQueue[signal](DefaultConfig())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = queue.Publish(context.Background(), &signal{Type: "late"})
	}()
	msg, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "late", msg.T().Type)

	cancelled, stop := context.WithCancel(context.Background())
	stop()
	_, err = queue.Consume(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, queue.Publish(cancelled, &signal{}), context.Canceled)
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	const producers, perProducer = 4, 50
	queue := NewQueue[signal](DefaultConfig())
	ctx := context.Background()
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = queue.Publish(ctx, &signal{Type: string(rune('a' + p)), Seq: i})
			}
		}(p)
	}
	last := map[string]int{}
	for i := 0; i < producers*perProducer; i++ {
		msg, err := queue.Consume(ctx)
		require.NoError(t, err)
		payload := msg.T()
		if seq, ok := last[payload.Type]; ok {
			assert.Greater(t, payload.Seq, seq, "per producer order")
		}
		last[payload.Type] = payload.Seq
		require.NoError(t, msg.Ack())
	}
	wg.Wait()
	assert.Equal(t, 0, queue.Size())
}
