package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
)

// TripRepository is the read side of the external trip catalog plus the
// upsert used for seeding.
type TripRepository interface {
	List(ctx context.Context) ([]domain.Trip, error)
	GetByID(ctx context.Context, id string) (*domain.Trip, error)
	Upsert(ctx context.Context, trip *domain.Trip) error
}

// BookingRepository is the storage behind the reservation ledger.
//
// Create must refuse to persist a booking whose seats overlap a confirmed
// booking of the same trip, returning *domain.SeatConflictError. The cancel
// methods perform the ownership check and the status transition as one
// conditional write; they return ErrUnauthorized, ErrAlreadyCancelled or
// ErrBookingNotFound without revealing the foreign record.
type BookingRepository interface {
	ConfirmedSeats(ctx context.Context, tripID string) ([]string, error)
	Create(ctx context.Context, booking *domain.Booking) error
	GetVisibleTo(ctx context.Context, id, userID string) (*domain.Booking, error)
	CancelByRider(ctx context.Context, id, riderID string, at time.Time) (*domain.Booking, error)
	CancelByOperator(ctx context.Context, id, operatorID, operatorName string, at time.Time) (*domain.Booking, error)
	ListByRider(ctx context.Context, riderID string) ([]domain.Booking, error)
	ListByOperator(ctx context.Context, operatorID string) ([]domain.Booking, error)
}
