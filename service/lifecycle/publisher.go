package lifecycle

import (
	"context"

	"github.com/viant/fluxchart/service/messaging"
)

// Publisher is a listener forwarding records to a queue so that slow
// observers do not hold up the machine.
type Publisher struct {
	queue messaging.Queue[Record]
	ctx   context.Context
}

// NewPublisher creates a publisher.
func NewPublisher(ctx context.Context, queue messaging.Queue[Record]) *Publisher {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Publisher{queue: queue, ctx: ctx}
}

// OnEvent publishes the event record.
func (p *Publisher) OnEvent(evt Event) error {
	return p.queue.Publish(p.ctx, NewRecord(evt))
}

// Consumer drains a record queue into a handler.
type Consumer struct {
	queue   messaging.Queue[Record]
	handler func(record *Record) error
}

// NewConsumer creates a consumer.
func NewConsumer(queue messaging.Queue[Record], handler func(record *Record) error) *Consumer {
	return &Consumer{queue: queue, handler: handler}
}

// Run consumes records until ctx is done; handler failures nack the record.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.queue.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if msg == nil {
			continue
		}
		if err = c.handler(msg.T()); err != nil {
			if nErr := msg.Nack(err); nErr != nil {
				return nErr
			}
			continue
		}
		if err = msg.Ack(); err != nil {
			return err
		}
	}
}
