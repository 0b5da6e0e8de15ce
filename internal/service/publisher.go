// Package service holds the use cases shared by the HTTP server and the
// operator CLI.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/box-builder/internal/queue"
)

// Publisher delivers order events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, ev queue.OrderCreatedEvent) error
}

// AMQPPublisher opens a short-lived connection per event. Order volume is
// low enough that a pooled channel is not worth the reconnect handling.
type AMQPPublisher struct {
	URL string
}

var _ Publisher = (*AMQPPublisher)(nil)

func NewAMQPPublisher(url string) *AMQPPublisher { return &AMQPPublisher{URL: url} }

// PublishOrderCreated sends ev as a persistent message to the order.created
// queue, declaring the queue first.
func (p *AMQPPublisher) PublishOrderCreated(ctx context.Context, ev queue.OrderCreatedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(queue.OrderCreatedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	err = ch.PublishWithContext(ctx, "", queue.OrderCreatedQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.OrderID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// NopPublisher drops every event. It backs deployments without a broker.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(context.Context, queue.OrderCreatedEvent) error { return nil }
