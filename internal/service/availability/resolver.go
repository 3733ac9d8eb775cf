// Package availability projects which seats of a trip are held by
// confirmed bookings.
package availability

import (
	"context"
	"fmt"
)

// SeatSource is the part of the ledger storage the resolver reads.
type SeatSource interface {
	ConfirmedSeats(ctx context.Context, tripID string) ([]string, error)
}

// Set is a set of seat ids.
type Set map[string]struct{}

func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Intersect returns the members of ids that are in s, in ids order.
func (s Set) Intersect(ids []string) []string {
	var out []string
	for _, id := range ids {
		if s.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

type Resolver struct {
	seats SeatSource
}

func NewResolver(seats SeatSource) *Resolver {
	return &Resolver{seats: seats}
}

// Resolve reads storage on every call.
func (r *Resolver) Resolve(ctx context.Context, tripID string) (Set, error) {
	ids, err := r.seats.ConfirmedSeats(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("resolve availability for trip %s: %w", tripID, err)
	}
	held := make(Set, len(ids))
	for _, id := range ids {
		held[id] = struct{}{}
	}
	return held, nil
}
