package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Domenick1991/busbooking/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	now := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	ev := events.BookingEvent{Type: events.TypeBookingConfirmed, BookingID: "b-1", TripID: "trip-1"}

	msg, err := newMessage("booking-events", "b-1", ev, now)
	require.NoError(t, err)

	assert.Equal(t, "booking-events", msg.Topic)
	assert.Equal(t, []byte("b-1"), msg.Key)
	assert.Equal(t, now, msg.Time)

	var decoded events.BookingEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ev.BookingID, decoded.BookingID)
}

func TestNewMessage_MarshalError(t *testing.T) {
	_, err := newMessage("t", "k", make(chan int), time.Now())
	assert.Error(t, err)
}

func TestProducer_CheckConnectionWithoutBrokers(t *testing.T) {
	p := NewProducer(nil, nil)
	defer p.Close()

	assert.Error(t, p.CheckConnection(t.Context()))
}

func TestConsumer_CloseNil(t *testing.T) {
	var c *Consumer
	assert.NoError(t, c.Close())
}
