package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const maxBackoff = 30 * time.Second

type Consumer struct {
	url        string
	queue      string
	deadLetter string
	prefetch   int
	attempts   int
	backoff    time.Duration
	logger     *slog.Logger
}

type ConsumerOption func(*Consumer)

// WithRetry sets how many times a delivery is handed to the handler before
// it is given up on, and the first pause between tries. The pause doubles.
func WithRetry(attempts int, backoff time.Duration) ConsumerOption {
	return func(c *Consumer) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if backoff > 0 {
			c.backoff = backoff
		}
	}
}

// WithDeadLetterQueue parks deliveries that exhausted their retries on queue.
func WithDeadLetterQueue(queue string) ConsumerOption {
	return func(c *Consumer) {
		c.deadLetter = queue
	}
}

func NewConsumer(url, queue string, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Consumer{
		url:      url,
		queue:    queue,
		prefetch: 50,
		attempts: 3,
		backoff:  200 * time.Millisecond,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Consume reconnects with exponential backoff until ctx ends. A delivery is
// acked when handler succeeds. One that keeps failing goes to the dead-letter
// queue when there is one; otherwise it is requeued once and then dropped.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, []byte) error) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.WarnContext(ctx, "rabbitmq dial failed", "error", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn, handler)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.WarnContext(ctx, "rabbitmq consume loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection, handler func(context.Context, []byte) error) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		c.logger.WarnContext(ctx, "rabbitmq set qos failed", "error", err)
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	var park deadLetterFunc
	if c.deadLetter != "" {
		if _, err := ch.QueueDeclare(c.deadLetter, true, false, false, false, nil); err != nil {
			return fmt.Errorf("dead letter queue declare: %w", err)
		}
		park = func(ctx context.Context, d amqp.Delivery, cause error) error {
			return ch.PublishWithContext(ctx, "", c.deadLetter, false, false, amqp.Publishing{
				ContentType:  d.ContentType,
				DeliveryMode: amqp.Persistent,
				MessageId:    d.MessageId,
				Timestamp:    d.Timestamp,
				Headers:      amqp.Table{"x-error": cause.Error(), "x-source-queue": c.queue},
				Body:         d.Body,
			})
		}
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.handleDelivery(ctx, d, handler, park)
		}
	}
}

type deadLetterFunc func(ctx context.Context, d amqp.Delivery, cause error) error

func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery, handler func(context.Context, []byte) error, park deadLetterFunc) {
	backoff := c.backoff
	var err error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err = handler(ctx, d.Body); err == nil {
			_ = d.Ack(false)
			return
		}
		c.logger.WarnContext(ctx, "rabbitmq handle message failed",
			"error", err, "message_id", d.MessageId, "attempt", attempt)
		if attempt == c.attempts {
			break
		}
		if !sleep(ctx, backoff) {
			// shutting down; let another consumer have it
			_ = d.Nack(false, true)
			return
		}
		backoff *= 2
	}

	if park != nil {
		if perr := park(ctx, d, err); perr != nil {
			c.logger.ErrorContext(ctx, "rabbitmq dead letter publish failed", "error", perr, "message_id", d.MessageId)
			_ = d.Nack(false, true)
			return
		}
		_ = d.Ack(false)
		return
	}
	if d.Redelivered {
		c.logger.ErrorContext(ctx, "rabbitmq dropping message after redelivery", "error", err, "message_id", d.MessageId)
	}
	_ = d.Nack(false, !d.Redelivered)
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
