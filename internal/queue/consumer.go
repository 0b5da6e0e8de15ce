package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer appends one line per order.created message to LogPath.
type Consumer struct {
	URL     string
	LogPath string
	logger  *log.Logger
}

func NewConsumer(url, logPath string, logger *log.Logger) *Consumer {
	return &Consumer{URL: url, LogPath: logPath, logger: logger}
}

// Run consumes until ctx is cancelled, reconnecting with exponential
// backoff (1s doubling up to 30s) whenever the broker goes away.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.logger.Warn("dial broker failed", "err", err, "retry", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, 30*time.Second)
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("consume loop ended, reconnecting", "err", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(50, 0, false); err != nil {
		c.logger.Warn("set qos failed", "err", err)
	}
	if _, err := ch.QueueDeclare(OrderCreatedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, OrderCreatedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.logger.Info("consuming", "queue", OrderCreatedQueue)

	for d := range msgs {
		if err := c.Handle(d.Body); err != nil {
			c.logger.Error("handle message failed", "err", err)
			// Requeueing a malformed message would spin forever.
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// Handle decodes one message and appends it to the order log.
func (c *Consumer) Handle(body []byte) error {
	var ev OrderCreatedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.OrderID == "" {
		return errors.New("event without order_id")
	}
	if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := log.NewWithOptions(f, log.Options{Formatter: log.LogfmtFormatter})
	line.Info("order created",
		"at", ev.CreatedAt,
		"order_id", ev.OrderID,
		"box_id", ev.BoxID,
		"box", ev.BoxName,
		"status", ev.Status,
		"total", ev.Total,
		"items", describe(ev.Placements),
	)
	return nil
}

// describe renders placements as "slot:name" pairs in slot order of arrival.
func describe(ps []EventPlacement) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		name := p.ItemName
		if name == "" {
			name = p.ItemID
		}
		parts[i] = strconv.Itoa(p.Slot) + ":" + name
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
