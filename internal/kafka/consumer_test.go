package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu        sync.Mutex
	pending   []kafka.Message
	committed []int64
	fetchErr  error
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if f.fetchErr != nil {
		err := f.fetchErr
		f.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(f.pending) > 0 {
		msg := f.pending[0]
		f.pending = f.pending[1:]
		f.mu.Unlock()
		return msg, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func (f *fakeReader) commits() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.committed...)
}

type fakeWriter struct {
	written []kafka.Message
	err     error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func newTestConsumer(reader messageReader, deadLetter messageWriter) *Consumer {
	return &Consumer{
		reader:     reader,
		deadLetter: deadLetter,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		attempts:   3,
		backoff:    time.Millisecond,
	}
}

func messages(values ...string) []kafka.Message {
	out := make([]kafka.Message, 0, len(values))
	for i, v := range values {
		out = append(out, kafka.Message{Topic: "booking-notifications", Offset: int64(i), Value: []byte(v)})
	}
	return out
}

// runUntilDrained consumes until every pending message was handed over, then
// stops the loop.
func runUntilDrained(t *testing.T, c *Consumer, reader *fakeReader, handler func(context.Context, []byte) error) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.Consume(ctx, handler) }()

	require.Eventually(t, func() bool {
		reader.mu.Lock()
		defer reader.mu.Unlock()
		return len(reader.pending) == 0
	}, 2*time.Second, time.Millisecond)
	// let the last message finish before stopping
	time.Sleep(20 * time.Millisecond)
	cancel()
	return <-done
}

func TestConsume_CommitsAfterHandler(t *testing.T) {
	reader := &fakeReader{pending: messages("a", "b")}
	c := newTestConsumer(reader, nil)

	var mu sync.Mutex
	var seen []string
	err := runUntilDrained(t, c, reader, func(_ context.Context, v []byte) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, string(v))
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, []int64{0, 1}, reader.commits())
}

func TestConsume_FailedMessageNotCommitted(t *testing.T) {
	reader := &fakeReader{pending: messages("bad", "good")}
	c := newTestConsumer(reader, nil)

	var mu sync.Mutex
	attempts := map[string]int{}
	err := runUntilDrained(t, c, reader, func(_ context.Context, v []byte) error {
		mu.Lock()
		defer mu.Unlock()
		attempts[string(v)]++
		if string(v) == "bad" {
			return errors.New("write ticket: disk full")
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, attempts["bad"])
	assert.Equal(t, 1, attempts["good"])
	assert.Equal(t, []int64{1}, reader.commits(), "only the handled message is committed")
}

func TestConsume_DeadLettersExhaustedMessage(t *testing.T) {
	reader := &fakeReader{pending: messages("bad")}
	dlq := &fakeWriter{}
	c := newTestConsumer(reader, dlq)

	err := runUntilDrained(t, c, reader, func(context.Context, []byte) error {
		return errors.New("smtp down")
	})

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, dlq.written, 1)
	assert.Equal(t, []byte("bad"), dlq.written[0].Value)
	assert.Contains(t, dlq.written[0].Headers, kafka.Header{Key: "x-error", Value: []byte("smtp down")})
	assert.Equal(t, []int64{0}, reader.commits())
}

func TestConsume_DeadLetterWriteFailureLeavesUncommitted(t *testing.T) {
	reader := &fakeReader{pending: messages("bad")}
	c := newTestConsumer(reader, &fakeWriter{err: errors.New("broker down")})

	err := runUntilDrained(t, c, reader, func(context.Context, []byte) error {
		return errors.New("smtp down")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reader.commits())
}

func TestConsume_FetchError(t *testing.T) {
	fetchErr := errors.New("group coordinator gone")
	c := newTestConsumer(&fakeReader{fetchErr: fetchErr}, nil)

	err := c.Consume(context.Background(), func(context.Context, []byte) error { return nil })
	assert.ErrorIs(t, err, fetchErr)
}

func TestConsumer_CloseClosesReader(t *testing.T) {
	reader := &fakeReader{}
	c := newTestConsumer(reader, &fakeWriter{})

	require.NoError(t, c.Close())
	assert.True(t, reader.closed)
}
