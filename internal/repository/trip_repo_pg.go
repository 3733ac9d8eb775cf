package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

const tripColumns = `id, operator_id, operator_name, name, bus_type, from_city, to_city,
	departure_time, arrival_time, total_seats, price_cents, created_at, updated_at`

type PGTripRepository struct {
	db DB
}

func NewTripRepository(db DB) TripRepository {
	return &PGTripRepository{db: db}
}

func scanTrip(row pgx.Row) (*domain.Trip, error) {
	var t domain.Trip
	var departure, arrival *time.Time
	if err := row.Scan(&t.ID, &t.OperatorID, &t.OperatorName, &t.Name, &t.BusType, &t.FromCity, &t.ToCity,
		&departure, &arrival, &t.TotalSeats, &t.PriceCents, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if departure != nil {
		t.DepartureTime = *departure
	}
	if arrival != nil {
		t.ArrivalTime = *arrival
	}
	return &t, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (r *PGTripRepository) List(ctx context.Context) ([]domain.Trip, error) {
	rows, err := r.db.Query(ctx, `SELECT `+tripColumns+` FROM trips ORDER BY departure_time NULLS LAST, id`)
	if err != nil {
		return nil, domain.NewStorageError("list trips", err)
	}
	defer rows.Close()

	trips := make([]domain.Trip, 0)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, domain.NewStorageError("list trips", err)
		}
		trips = append(trips, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("list trips", err)
	}
	return trips, nil
}

func (r *PGTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	t, err := scanTrip(r.db.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTripNotFound
		}
		return nil, domain.NewStorageError("get trip", err)
	}
	return t, nil
}

func (r *PGTripRepository) Upsert(ctx context.Context, trip *domain.Trip) error {
	err := r.db.QueryRow(ctx, `INSERT INTO trips (id, operator_id, operator_name, name, bus_type, from_city, to_city,
			departure_time, arrival_time, total_seats, price_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			operator_name = EXCLUDED.operator_name, name = EXCLUDED.name, bus_type = EXCLUDED.bus_type,
			from_city = EXCLUDED.from_city, to_city = EXCLUDED.to_city,
			departure_time = EXCLUDED.departure_time, arrival_time = EXCLUDED.arrival_time,
			total_seats = EXCLUDED.total_seats, price_cents = EXCLUDED.price_cents, updated_at = now()
		RETURNING created_at, updated_at`,
		trip.ID, trip.OperatorID, trip.OperatorName, trip.Name, trip.BusType, trip.FromCity, trip.ToCity,
		nullTime(trip.DepartureTime), nullTime(trip.ArrivalTime), trip.TotalSeats, trip.PriceCents).
		Scan(&trip.CreatedAt, &trip.UpdatedAt)
	if err != nil {
		return domain.NewStorageError("upsert trip", err)
	}
	return nil
}

var _ TripRepository = (*PGTripRepository)(nil)
