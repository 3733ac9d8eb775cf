package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeFor(t *testing.T) {
	assert.Equal(t, TypeBookingConfirmed, TypeFor(domain.BookingStatusConfirmed))
	assert.Equal(t, TypeBookingCancelledByUser, TypeFor(domain.BookingStatusCancelledByUser))
	assert.Equal(t, TypeBookingCancelledByAdmin, TypeFor(domain.BookingStatusCancelledByAdmin))
}

func TestNewBookingEvent_DecodeRoundTrip(t *testing.T) {
	at := time.Date(2026, 5, 2, 8, 30, 0, 0, time.UTC)
	b := &domain.Booking{
		ID:              "b-1",
		TripID:          "trip-1",
		OperatorID:      "op-1",
		RiderID:         "rider-1",
		RiderName:       "Asha",
		SeatIDs:         []string{"L-1-1", "L-1-2"},
		SeatLabels:      []string{"L1", "L2"},
		PassengerCount:  2,
		TotalPriceCents: 1000,
		Status:          domain.BookingStatusCancelledByAdmin,
		CancelledByName: "Green Line",
	}
	ev := NewBookingEvent(b, at).WithTrip(domain.Trip{Name: "Night Rider", FromCity: "Pune", ToCity: "Goa"})

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, TypeBookingCancelledByAdmin, got.Type)
	assert.Equal(t, "Green Line", got.CancelledByName)
	assert.Equal(t, []string{"L1", "L2"}, got.SeatLabels)
	assert.Equal(t, "Pune", got.FromCity)
	assert.True(t, at.Equal(got.OccurredAt))

	// event owns its slices
	b.SeatIDs[0] = "U-1-1"
	assert.Equal(t, "L-1-1", ev.SeatIDs[0])
}

func TestDecode_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":     `{`,
		"unknown type": `{"type":"booking_created","booking_id":"b-1"}`,
		"missing id":   `{"type":"booking_confirmed"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(body))
			assert.ErrorIs(t, err, ErrMalformedEvent)
		})
	}
}
