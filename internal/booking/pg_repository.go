package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	exclusionViolation   = "23P01"
	noOverlapConstraint  = "bookings_no_therapist_overlap"
	bookingSelectColumns = `id, service, therapist_name, duration_minutes, price::text,
		customer_name, customer_phone, start_time, payment_status, created_at, updated_at`
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var price string

	err := row.Scan(
		&b.ID,
		&b.Service,
		&b.TherapistName,
		&b.DurationMinutes,
		&price,
		&b.CustomerName,
		&b.CustomerPhone,
		&b.StartTime,
		&b.PaymentStatus,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	b.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("decode price %q: %w", price, err)
	}
	b.StartTime = WallClock(b.StartTime)
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]Booking, error) {
	defer rows.Close()

	result := []Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Interface methods

func (r *PgRepository) CreateBooking(ctx context.Context, b Booking) (*Booking, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (id, service, therapist_name, duration_minutes, price,
			customer_name, customer_phone, start_time, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, now(), now())
		RETURNING `+bookingSelectColumns,
		id, b.Service, b.TherapistName, b.DurationMinutes, b.Price.StringFixed(2),
		b.CustomerName, b.CustomerPhone, b.StartTime, PaymentPending)

	created, err := scanBooking(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation && pgErr.ConstraintName == noOverlapConstraint {
			return nil, &ConflictError{Therapist: b.TherapistName}
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bookingSelectColumns+`
		FROM bookings
		WHERE id = $1
	`, id)
	return scanBooking(row)
}

func (r *PgRepository) ListBookings(ctx context.Context) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingSelectColumns+`
		FROM bookings
		ORDER BY start_time DESC, created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *PgRepository) ListByTherapistStartingBetween(ctx context.Context, therapist string, from, to time.Time) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingSelectColumns+`
		FROM bookings
		WHERE therapist_name = $1
		  AND start_time >= $2
		  AND start_time <= $3
		ORDER BY start_time ASC
	`, therapist, from, to)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *PgRepository) DeleteBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		DELETE FROM bookings
		WHERE id = $1
		RETURNING `+bookingSelectColumns, id)
	return scanBooking(row)
}

func (r *PgRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings
		SET payment_status = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+bookingSelectColumns, id, status)
	return scanBooking(row)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO booking_events (event_type, booking_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.BookingID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert booking event: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
