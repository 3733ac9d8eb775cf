package domain

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed        BookingStatus = "confirmed"
	BookingStatusCancelledByUser  BookingStatus = "cancelled_by_user"
	BookingStatusCancelledByAdmin BookingStatus = "cancelled_by_admin"
)

// Valid reports whether s is one of the known ledger states.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusConfirmed, BookingStatusCancelledByUser, BookingStatusCancelledByAdmin:
		return true
	}
	return false
}

func (s BookingStatus) Cancelled() bool {
	return s == BookingStatusCancelledByUser || s == BookingStatusCancelledByAdmin
}

type Booking struct {
	ID              string
	TripID          string
	OperatorID      string
	RiderID         string
	RiderName       string
	SeatIDs         []string
	SeatLabels      []string
	PassengerCount  int
	UnitPriceCents  int64
	TotalPriceCents int64
	PaymentRef      string
	Status          BookingStatus
	CreatedAt       time.Time
	CancelledAt     *time.Time
	CancelledByName string
}

// HoldsSeats reports whether the booking currently occupies its seats.
func (b *Booking) HoldsSeats() bool {
	return b.Status == BookingStatusConfirmed
}

// Clone returns a deep copy so callers can't mutate stored slices.
func (b Booking) Clone() Booking {
	out := b
	out.SeatIDs = append([]string(nil), b.SeatIDs...)
	out.SeatLabels = append([]string(nil), b.SeatLabels...)
	if b.CancelledAt != nil {
		at := *b.CancelledAt
		out.CancelledAt = &at
	}
	return out
}

// BookingFilter narrows a listing projection. Zero value keeps everything.
type BookingFilter struct {
	Status BookingStatus
}

func (f BookingFilter) Apply(bookings []Booking) []Booking {
	if f.Status == "" {
		return bookings
	}
	out := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Status == f.Status {
			out = append(out, b)
		}
	}
	return out
}

// BookingSummary aggregates an operator's bookings for the dashboard counters.
type BookingSummary struct {
	Total        int   `json:"total"`
	Confirmed    int   `json:"confirmed"`
	Cancelled    int   `json:"cancelled"`
	RevenueCents int64 `json:"revenue_cents"`
}

func Summarize(bookings []Booking) BookingSummary {
	var s BookingSummary
	for _, b := range bookings {
		s.Total++
		if b.Status.Cancelled() {
			s.Cancelled++
			continue
		}
		s.Confirmed++
		s.RevenueCents += b.TotalPriceCents
	}
	return s
}
