package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

// Booking start times are wall-clock values in the configured booking zone,
// carried in time.UTC so that storage round-trips do not shift them.
type Booking struct {
	ID              uuid.UUID
	Service         string
	TherapistName   string
	DurationMinutes int
	Price           decimal.Decimal
	CustomerName    string
	CustomerPhone   string
	StartTime       time.Time
	PaymentStatus   PaymentStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (b Booking) EndTime() time.Time {
	return b.StartTime.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

func (b Booking) Window() Window {
	return Window{Start: b.StartTime, End: b.EndTime()}
}

type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingCancelled EventType = "booking.cancelled"
	EventPaymentConfirmed EventType = "booking.payment_confirmed"
)

// Event is handed to the Notifier after a booking state change has been persisted.
type Event struct {
	Type    EventType
	Booking Booking
	At      time.Time
}

// EventLog is the audit row written for every lifecycle transition.
type EventLog struct {
	ID        int64
	EventType EventType
	BookingID *uuid.UUID
	Payload   []byte
	CreatedAt time.Time
}
