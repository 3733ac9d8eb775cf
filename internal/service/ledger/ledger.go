// Package ledger is the authoritative record of bookings. It owns the
// booking status state machine and is the only writer of status,
// cancellation time and cancelling operator.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/lock"
	"github.com/Domenick1991/busbooking/internal/repository"
	"github.com/Domenick1991/busbooking/internal/seatmap"
	"github.com/Domenick1991/busbooking/internal/service/availability"
	"github.com/google/uuid"
)

type Ledger struct {
	bookings repository.BookingRepository
	resolver *availability.Resolver
	seats    *seatmap.Generator
	locker   lock.Locker
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

type Option func(*Ledger)

// WithLocker replaces the default in-process per-trip lock.
func WithLocker(l lock.Locker) Option {
	return func(led *Ledger) { led.locker = l }
}

func WithLogger(logger *slog.Logger) Option {
	return func(led *Ledger) { led.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(led *Ledger) { led.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(led *Ledger) { led.newID = newID }
}

func New(bookings repository.BookingRepository, seats *seatmap.Generator, opts ...Option) *Ledger {
	l := &Ledger{
		bookings: bookings,
		resolver: availability.NewResolver(bookings),
		seats:    seats,
		locker:   lock.NewKeyed(),
		logger:   slog.Default(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type CommitRequest struct {
	Trip       domain.Trip
	Rider      domain.Principal
	SeatIDs    []string
	PaymentRef string
}

// Commit records a confirmed booking. The held-seat union is re-read inside
// the per-trip critical section, so two overlapping commits can never both
// pass the conflict check.
func (l *Ledger) Commit(ctx context.Context, req CommitRequest) (*domain.Booking, error) {
	if req.Rider.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	selected, err := seatmap.Validate(l.seats.Generate(req.Trip.TotalSeats), req.SeatIDs)
	if err != nil {
		return nil, err
	}
	if req.PaymentRef == "" {
		return nil, &domain.SelectionError{Reason: "payment reference is required"}
	}
	seatIDs := seatmap.IDs(selected)

	unlock, err := l.locker.Lock(ctx, req.Trip.ID)
	if err != nil {
		return nil, domain.NewStorageError("lock trip "+req.Trip.ID, err)
	}
	defer unlock()

	held, err := l.resolver.Resolve(ctx, req.Trip.ID)
	if err != nil {
		return nil, err
	}
	if taken := held.Intersect(seatIDs); len(taken) > 0 {
		sort.Strings(taken)
		l.logger.InfoContext(ctx, "seat conflict", "trip_id", req.Trip.ID, "rider_id", req.Rider.UserID, "seats", taken)
		return nil, &domain.SeatConflictError{SeatIDs: taken}
	}

	booking := &domain.Booking{
		ID:              l.newID(),
		TripID:          req.Trip.ID,
		OperatorID:      req.Trip.OperatorID,
		RiderID:         req.Rider.UserID,
		RiderName:       req.Rider.Name,
		SeatIDs:         seatIDs,
		SeatLabels:      seatmap.Labels(selected),
		PassengerCount:  len(selected),
		UnitPriceCents:  req.Trip.PriceCents,
		TotalPriceCents: Total(len(selected), req.Trip.PriceCents),
		PaymentRef:      req.PaymentRef,
		Status:          domain.BookingStatusConfirmed,
		CreatedAt:       l.now().UTC(),
	}
	if err := l.bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("commit booking: %w", err)
	}

	l.logger.InfoContext(ctx, "booking confirmed",
		"booking_id", booking.ID, "trip_id", booking.TripID, "rider_id", booking.RiderID,
		"seats", booking.SeatIDs, "total_price_cents", booking.TotalPriceCents)
	return booking, nil
}

// Total is the fare for a selection: seats × unit price.
func Total(seats int, unitPriceCents int64) int64 {
	return int64(seats) * unitPriceCents
}

func (l *Ledger) CancelByRider(ctx context.Context, rider domain.Principal, bookingID string) (*domain.Booking, error) {
	if rider.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	b, err := l.bookings.CancelByRider(ctx, bookingID, rider.UserID, l.now().UTC())
	if err != nil {
		return nil, err
	}
	l.logger.InfoContext(ctx, "booking cancelled by rider", "booking_id", b.ID, "trip_id", b.TripID, "rider_id", rider.UserID)
	return b, nil
}

func (l *Ledger) CancelByOperator(ctx context.Context, operator domain.Principal, bookingID string) (*domain.Booking, error) {
	if operator.UserID == "" || !operator.IsOperator() {
		return nil, domain.ErrUnauthorized
	}
	name := operator.Name
	if name == "" {
		name = operator.UserID
	}
	b, err := l.bookings.CancelByOperator(ctx, bookingID, operator.UserID, name, l.now().UTC())
	if err != nil {
		return nil, err
	}
	l.logger.InfoContext(ctx, "booking cancelled by operator", "booking_id", b.ID, "trip_id", b.TripID, "operator_id", operator.UserID)
	return b, nil
}

func (l *Ledger) Get(ctx context.Context, who domain.Principal, bookingID string) (*domain.Booking, error) {
	if who.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	return l.bookings.GetVisibleTo(ctx, bookingID, who.UserID)
}

func (l *Ledger) ListForRider(ctx context.Context, rider domain.Principal) ([]domain.Booking, error) {
	if rider.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	return l.bookings.ListByRider(ctx, rider.UserID)
}

func (l *Ledger) ListForOperator(ctx context.Context, operator domain.Principal) ([]domain.Booking, error) {
	if operator.UserID == "" || !operator.IsOperator() {
		return nil, domain.ErrUnauthorized
	}
	return l.bookings.ListByOperator(ctx, operator.UserID)
}
