package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const bookingColumns = `b.id, b.trip_id, b.operator_id, b.rider_id, b.rider_name, b.seat_ids, b.seat_labels,
	b.passenger_count, b.unit_price_cents, b.total_price_cents, b.payment_ref, b.status,
	b.created_at, b.cancelled_at, b.cancelled_by_name`

type PGBookingRepository struct {
	db DB
}

func NewBookingRepository(db DB) BookingRepository {
	return &PGBookingRepository{db: db}
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.TripID, &b.OperatorID, &b.RiderID, &b.RiderName, &b.SeatIDs, &b.SeatLabels,
		&b.PassengerCount, &b.UnitPriceCents, &b.TotalPriceCents, &b.PaymentRef, &b.Status,
		&b.CreatedAt, &b.CancelledAt, &b.CancelledByName); err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	defer rows.Close()
	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingRepository) ConfirmedSeats(ctx context.Context, tripID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT unnest(seat_ids) FROM bookings WHERE trip_id=$1 AND status=$2`,
		tripID, domain.BookingStatusConfirmed)
	if err != nil {
		return nil, domain.NewStorageError("read confirmed seats", err)
	}
	seats, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, domain.NewStorageError("read confirmed seats", err)
	}
	return seats, nil
}

// Create locks the trip row for the duration of the transaction, so commits
// for one trip are serialized across every process sharing the database.
func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.NewStorageError("begin commit", err)
	}
	defer tx.Rollback(ctx)

	var operatorID string
	if err := tx.QueryRow(ctx, `SELECT operator_id FROM trips WHERE id=$1 FOR UPDATE`, booking.TripID).Scan(&operatorID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTripNotFound
		}
		return domain.NewStorageError("lock trip", err)
	}
	booking.OperatorID = operatorID

	taken, err := activeSeats(ctx, tx, booking.TripID, booking.SeatIDs)
	if err != nil {
		return domain.NewStorageError("check seats", err)
	}
	if len(taken) > 0 {
		return &domain.SeatConflictError{SeatIDs: taken}
	}

	if _, err := tx.Exec(ctx, `INSERT INTO bookings (id, trip_id, operator_id, rider_id, rider_name, seat_ids, seat_labels,
			passenger_count, unit_price_cents, total_price_cents, payment_ref, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		booking.ID, booking.TripID, booking.OperatorID, booking.RiderID, booking.RiderName, booking.SeatIDs, booking.SeatLabels,
		booking.PassengerCount, booking.UnitPriceCents, booking.TotalPriceCents, booking.PaymentRef, booking.Status, booking.CreatedAt); err != nil {
		return domain.NewStorageError("insert booking", err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO booking_seats (booking_id, trip_id, seat_id) SELECT $1, $2, unnest($3::text[])`,
		booking.ID, booking.TripID, booking.SeatIDs); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// the transaction is aborted; look up the holders outside it
			_ = tx.Rollback(ctx)
			return r.seatConflict(ctx, booking)
		}
		return domain.NewStorageError("insert booking seats", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.NewStorageError("commit booking", err)
	}
	return nil
}

func activeSeats(ctx context.Context, q querier, tripID string, seatIDs []string) ([]string, error) {
	rows, err := q.Query(ctx, `SELECT seat_id FROM booking_seats WHERE trip_id=$1 AND active AND seat_id = ANY($2) ORDER BY seat_id`,
		tripID, seatIDs)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// seatConflict names the requested seats another booking holds. If the
// holder is already gone the whole selection is reported.
func (r *PGBookingRepository) seatConflict(ctx context.Context, booking *domain.Booking) error {
	taken, err := activeSeats(ctx, r.db, booking.TripID, booking.SeatIDs)
	if err != nil || len(taken) == 0 {
		return &domain.SeatConflictError{SeatIDs: booking.SeatIDs}
	}
	return &domain.SeatConflictError{SeatIDs: taken}
}

func (r *PGBookingRepository) GetVisibleTo(ctx context.Context, id, userID string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+`
		FROM bookings b JOIN trips t ON t.id = b.trip_id
		WHERE b.id=$1 AND (b.rider_id=$2 OR t.operator_id=$2)`, id, userID))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewStorageError("get booking", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id=$1)`, id).Scan(&exists); err != nil {
		return nil, domain.NewStorageError("get booking", err)
	}
	if exists {
		return nil, domain.ErrUnauthorized
	}
	return nil, domain.ErrBookingNotFound
}

func (r *PGBookingRepository) CancelByRider(ctx context.Context, id, riderID string, at time.Time) (*domain.Booking, error) {
	return r.cancel(ctx, id, riderID, `SELECT b.status, b.rider_id FROM bookings b WHERE b.id=$1 FOR UPDATE`,
		domain.BookingStatusCancelledByUser, at, "")
}

func (r *PGBookingRepository) CancelByOperator(ctx context.Context, id, operatorID, operatorName string, at time.Time) (*domain.Booking, error) {
	return r.cancel(ctx, id, operatorID, `SELECT b.status, t.operator_id FROM bookings b JOIN trips t ON t.id = b.trip_id WHERE b.id=$1 FOR UPDATE OF b`,
		domain.BookingStatusCancelledByAdmin, at, operatorName)
}

// cancel runs the ownership check and the transition under a row lock on
// the booking, so two concurrent cancels can't both succeed.
func (r *PGBookingRepository) cancel(ctx context.Context, id, principalID, ownerQuery string, next domain.BookingStatus, at time.Time, byName string) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, domain.NewStorageError("begin cancel", err)
	}
	defer tx.Rollback(ctx)

	var status domain.BookingStatus
	var owner string
	if err := tx.QueryRow(ctx, ownerQuery, id).Scan(&status, &owner); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, domain.NewStorageError("lock booking", err)
	}
	if owner != principalID {
		return nil, domain.ErrUnauthorized
	}
	if status != domain.BookingStatusConfirmed {
		return nil, domain.ErrAlreadyCancelled
	}

	updated, err := scanBooking(tx.QueryRow(ctx, `UPDATE bookings AS b SET status=$2, cancelled_at=$3, cancelled_by_name=$4
		WHERE b.id=$1 AND b.status=$5 RETURNING `+bookingColumns, id, next, at, byName, domain.BookingStatusConfirmed))
	if err != nil {
		return nil, domain.NewStorageError("update booking status", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE booking_seats SET active = FALSE WHERE booking_id=$1`, id); err != nil {
		return nil, domain.NewStorageError("release seats", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.NewStorageError("commit cancel", err)
	}
	return updated, nil
}

func (r *PGBookingRepository) ListByRider(ctx context.Context, riderID string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.rider_id=$1 ORDER BY b.created_at DESC, b.id`, riderID)
	if err != nil {
		return nil, domain.NewStorageError("list rider bookings", err)
	}
	bookings, err := collectBookings(rows)
	if err != nil {
		return nil, domain.NewStorageError("list rider bookings", err)
	}
	return bookings, nil
}

func (r *PGBookingRepository) ListByOperator(ctx context.Context, operatorID string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+`
		FROM bookings b JOIN trips t ON t.id = b.trip_id
		WHERE t.operator_id=$1 ORDER BY b.created_at DESC, b.id`, operatorID)
	if err != nil {
		return nil, domain.NewStorageError("list operator bookings", err)
	}
	bookings, err := collectBookings(rows)
	if err != nil {
		return nil, domain.NewStorageError("list operator bookings", err)
	}
	return bookings, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
