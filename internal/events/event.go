// Package events defines the booking event payload shared by the Kafka and
// RabbitMQ transports and the notification worker.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
)

const (
	TypeBookingConfirmed        = "booking_confirmed"
	TypeBookingCancelledByUser  = "booking_cancelled_by_user"
	TypeBookingCancelledByAdmin = "booking_cancelled_by_admin"
)

var ErrMalformedEvent = errors.New("malformed booking event")

type BookingEvent struct {
	Type            string    `json:"type"`
	BookingID       string    `json:"booking_id"`
	TripID          string    `json:"trip_id"`
	OperatorID      string    `json:"operator_id"`
	RiderID         string    `json:"rider_id"`
	RiderName       string    `json:"rider_name"`
	SeatIDs         []string  `json:"seat_ids"`
	SeatLabels      []string  `json:"seat_labels"`
	PassengerCount  int       `json:"passenger_count"`
	Status          string    `json:"status"`
	TotalPriceCents int64     `json:"total_price_cents"`
	CancelledByName string    `json:"cancelled_by_name,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`

	// Trip display data; only filled on confirmation.
	TripName      string    `json:"trip_name,omitempty"`
	FromCity      string    `json:"from_city,omitempty"`
	ToCity        string    `json:"to_city,omitempty"`
	DepartureTime time.Time `json:"departure_time"`
}

// TypeFor maps a ledger status to the event announcing the transition into it.
func TypeFor(status domain.BookingStatus) string {
	switch status {
	case domain.BookingStatusCancelledByUser:
		return TypeBookingCancelledByUser
	case domain.BookingStatusCancelledByAdmin:
		return TypeBookingCancelledByAdmin
	default:
		return TypeBookingConfirmed
	}
}

func NewBookingEvent(b *domain.Booking, occurredAt time.Time) BookingEvent {
	return BookingEvent{
		Type:            TypeFor(b.Status),
		BookingID:       b.ID,
		TripID:          b.TripID,
		OperatorID:      b.OperatorID,
		RiderID:         b.RiderID,
		RiderName:       b.RiderName,
		SeatIDs:         append([]string(nil), b.SeatIDs...),
		SeatLabels:      append([]string(nil), b.SeatLabels...),
		PassengerCount:  b.PassengerCount,
		Status:          string(b.Status),
		TotalPriceCents: b.TotalPriceCents,
		CancelledByName: b.CancelledByName,
		OccurredAt:      occurredAt.UTC(),
	}
}

// WithTrip copies the trip display fields onto the event.
func (e BookingEvent) WithTrip(t domain.Trip) BookingEvent {
	e.TripName = t.Name
	e.FromCity = t.FromCity
	e.ToCity = t.ToCity
	e.DepartureTime = t.DepartureTime
	return e
}

func Decode(data []byte) (BookingEvent, error) {
	var ev BookingEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return BookingEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	switch ev.Type {
	case TypeBookingConfirmed, TypeBookingCancelledByUser, TypeBookingCancelledByAdmin:
	default:
		return BookingEvent{}, fmt.Errorf("%w: unknown type %q", ErrMalformedEvent, ev.Type)
	}
	if ev.BookingID == "" {
		return BookingEvent{}, fmt.Errorf("%w: missing booking_id", ErrMalformedEvent)
	}
	return ev, nil
}
