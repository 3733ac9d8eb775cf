package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
)

// MemoryStore keeps trips and bookings in process memory. It implements
// both repositories with the same guarantees as the Postgres stores and is
// used for local runs (storage.driver: memory) and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	trips    map[string]domain.Trip
	bookings map[string]*domain.Booking
	seq      map[string]int
	next     int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trips:    make(map[string]domain.Trip),
		bookings: make(map[string]*domain.Booking),
		seq:      make(map[string]int),
	}
}

func (s *MemoryStore) List(_ context.Context) ([]domain.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trips := make([]domain.Trip, 0, len(s.trips))
	for _, t := range s.trips {
		trips = append(trips, t)
	}
	sort.Slice(trips, func(i, j int) bool {
		if !trips[i].DepartureTime.Equal(trips[j].DepartureTime) {
			return trips[i].DepartureTime.Before(trips[j].DepartureTime)
		}
		return trips[i].ID < trips[j].ID
	})
	return trips, nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*domain.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.trips[id]
	if !ok {
		return nil, domain.ErrTripNotFound
	}
	return &t, nil
}

func (s *MemoryStore) Upsert(_ context.Context, trip *domain.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.trips[trip.ID]; ok {
		trip.OperatorID = existing.OperatorID
		trip.CreatedAt = existing.CreatedAt
	} else {
		trip.CreatedAt = now
	}
	trip.UpdatedAt = now
	s.trips[trip.ID] = *trip
	return nil
}

func (s *MemoryStore) ConfirmedSeats(_ context.Context, tripID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.confirmedSeatsLocked(tripID), nil
}

func (s *MemoryStore) confirmedSeatsLocked(tripID string) []string {
	var seats []string
	for _, b := range s.bookings {
		if b.TripID == tripID && b.HoldsSeats() {
			seats = append(seats, b.SeatIDs...)
		}
	}
	return seats
}

func (s *MemoryStore) Create(_ context.Context, booking *domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trip, ok := s.trips[booking.TripID]
	if !ok {
		return domain.ErrTripNotFound
	}

	held := make(map[string]struct{})
	for _, id := range s.confirmedSeatsLocked(booking.TripID) {
		held[id] = struct{}{}
	}
	var taken []string
	for _, id := range booking.SeatIDs {
		if _, ok := held[id]; ok {
			taken = append(taken, id)
		}
	}
	if len(taken) > 0 {
		sort.Strings(taken)
		return &domain.SeatConflictError{SeatIDs: taken}
	}

	booking.OperatorID = trip.OperatorID
	stored := booking.Clone()
	s.bookings[booking.ID] = &stored
	s.next++
	s.seq[booking.ID] = s.next
	return nil
}

func (s *MemoryStore) GetVisibleTo(_ context.Context, id, userID string) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	if b.RiderID != userID && s.tripOperatorLocked(b) != userID {
		return nil, domain.ErrUnauthorized
	}
	out := b.Clone()
	return &out, nil
}

func (s *MemoryStore) tripOperatorLocked(b *domain.Booking) string {
	if t, ok := s.trips[b.TripID]; ok {
		return t.OperatorID
	}
	return b.OperatorID
}

func (s *MemoryStore) CancelByRider(_ context.Context, id, riderID string, at time.Time) (*domain.Booking, error) {
	return s.cancel(id, func(b *domain.Booking) bool { return b.RiderID == riderID },
		domain.BookingStatusCancelledByUser, at, "")
}

func (s *MemoryStore) CancelByOperator(_ context.Context, id, operatorID, operatorName string, at time.Time) (*domain.Booking, error) {
	return s.cancel(id, func(b *domain.Booking) bool { return s.tripOperatorLocked(b) == operatorID },
		domain.BookingStatusCancelledByAdmin, at, operatorName)
}

func (s *MemoryStore) cancel(id string, owns func(*domain.Booking) bool, next domain.BookingStatus, at time.Time, byName string) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	if !owns(b) {
		return nil, domain.ErrUnauthorized
	}
	if b.Status != domain.BookingStatusConfirmed {
		return nil, domain.ErrAlreadyCancelled
	}

	b.Status = next
	cancelledAt := at
	b.CancelledAt = &cancelledAt
	b.CancelledByName = byName
	out := b.Clone()
	return &out, nil
}

func (s *MemoryStore) ListByRider(_ context.Context, riderID string) ([]domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(func(b *domain.Booking) bool { return b.RiderID == riderID }), nil
}

func (s *MemoryStore) ListByOperator(_ context.Context, operatorID string) ([]domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(func(b *domain.Booking) bool { return s.tripOperatorLocked(b) == operatorID }), nil
}

// listLocked returns matches newest first; equal timestamps fall back to
// reverse insertion order.
func (s *MemoryStore) listLocked(match func(*domain.Booking) bool) []domain.Booking {
	out := make([]domain.Booking, 0)
	for _, b := range s.bookings {
		if match(b) {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.seq[out[i].ID] > s.seq[out[j].ID]
	})
	return out
}

var (
	_ TripRepository    = (*MemoryStore)(nil)
	_ BookingRepository = (*MemoryStore)(nil)
)
