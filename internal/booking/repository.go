package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CandidateFinder is the read the conflict checker needs.
type CandidateFinder interface {
	// ListByTherapistStartingBetween returns bookings of therapist whose start lies in [from, to].
	ListByTherapistStartingBetween(ctx context.Context, therapist string, from, to time.Time) ([]Booking, error)
}

// Repository contains all DB interactions needed by the service.
type Repository interface {
	CandidateFinder

	CreateBooking(ctx context.Context, b Booking) (*Booking, error)
	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListBookings(ctx context.Context) ([]Booking, error)
	DeleteBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) (*Booking, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
