package trips

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/repository"
)

type TripUseCase interface {
	List(ctx context.Context) ([]domain.Trip, error)
	GetByID(ctx context.Context, id string) (*domain.Trip, error)
}

// TripCache caches the catalog listing only. Single-trip reads always hit
// the repository so commits price against the current catalog row.
type TripCache interface {
	GetTrips(ctx context.Context) ([]domain.Trip, error)
	SetTrips(ctx context.Context, trips []domain.Trip) error
	InvalidateTrips(ctx context.Context) error
}

type TripService struct {
	repo   repository.TripRepository
	cache  TripCache
	logger *slog.Logger
}

func NewTripService(repo repository.TripRepository, cache TripCache, logger *slog.Logger) *TripService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TripService{repo: repo, cache: cache, logger: logger}
}

func (s *TripService) List(ctx context.Context) ([]domain.Trip, error) {
	if s.cache != nil {
		cached, err := s.cache.GetTrips(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "trip cache read failed", "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	trips, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetTrips(ctx, trips); err != nil {
			s.logger.WarnContext(ctx, "trip cache write failed", "error", err)
		}
	}
	return trips, nil
}

func (s *TripService) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	return s.repo.GetByID(ctx, id)
}

// Import upserts catalog trips and drops the cached listing so the new rows
// and prices are served right away.
func (s *TripService) Import(ctx context.Context, trips []domain.Trip) (int, error) {
	n, err := repository.Seed(ctx, s.repo, trips)
	if n > 0 && s.cache != nil {
		if cerr := s.cache.InvalidateTrips(ctx); cerr != nil {
			return n, fmt.Errorf("invalidate trip cache: %w", cerr)
		}
	}
	return n, err
}

var _ TripUseCase = (*TripService)(nil)
