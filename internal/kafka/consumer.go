package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// messageReader is the part of *kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	brokers    []string
	reader     messageReader
	deadLetter messageWriter
	logger     *slog.Logger
	attempts   int
	backoff    time.Duration
}

type ConsumerOption func(*Consumer)

func WithConsumerLogger(logger *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRetry sets how many times a message is handed to the handler before it
// is given up on, and the first pause between tries. The pause doubles.
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

// WithDeadLetterTopic parks messages that exhausted their retries on topic
// so their offsets can be committed.
func WithDeadLetterTopic(topic string) ConsumerOption {
	return func(c *Consumer) {
		if topic == "" {
			return
		}
		c.deadLetter = &kafka.Writer{
			Addr:         kafka.TCP(c.brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		}
	}
}

func NewConsumer(brokers []string, groupID, topic string, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		brokers: brokers,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		logger:   slog.Default(),
		attempts: 3,
		backoff:  200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	var errs []error
	if c.deadLetter != nil {
		errs = append(errs, c.deadLetter.Close())
	}
	errs = append(errs, c.reader.Close())
	return errors.Join(errs...)
}

// Consume fetches until ctx ends or the reader fails. An offset is committed
// only after handler succeeded or the message was dead-lettered. Without a
// dead-letter topic a failed message stays uncommitted until a later offset
// of its partition is committed. Handler failures are logged and do not stop
// the loop.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, []byte) error) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		handled, err := c.handle(ctx, msg, handler)
		if err != nil {
			return err
		}
		if !handled {
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// redelivered after a rebalance; the handler tolerates repeats
			c.logger.WarnContext(ctx, "kafka commit failed",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
	}
}

// handle reports whether msg may be committed. It only returns an error when
// ctx ended while waiting to retry.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message, handler func(context.Context, []byte) error) (bool, error) {
	backoff := c.backoff
	var err error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err = handler(ctx, msg.Value); err == nil {
			return true, nil
		}
		c.logger.WarnContext(ctx, "kafka handle message failed",
			"offset", msg.Offset, "attempt", attempt, "error", err)
		if attempt == c.attempts {
			break
		}
		if !sleep(ctx, backoff) {
			return false, ctx.Err()
		}
		backoff *= 2
	}

	if c.deadLetter == nil {
		c.logger.ErrorContext(ctx, "kafka message left uncommitted",
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
		return false, nil
	}
	dead := kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(msg.Headers,
			kafka.Header{Key: "x-error", Value: []byte(err.Error())},
			kafka.Header{Key: "x-source-topic", Value: []byte(msg.Topic)},
		),
	}
	if werr := c.deadLetter.WriteMessages(ctx, dead); werr != nil {
		c.logger.ErrorContext(ctx, "kafka dead letter write failed",
			"offset", msg.Offset, "error", werr)
		return false, nil
	}
	c.logger.WarnContext(ctx, "kafka message dead-lettered", "offset", msg.Offset, "error", err)
	return true, nil
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
