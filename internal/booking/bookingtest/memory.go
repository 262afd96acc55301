// Package bookingtest provides an in-memory booking.Repository for tests.
package bookingtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/spa-bookings/internal/booking"
)

type MemoryRepository struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]booking.Booking
	events   []booking.EventLog
	creates  int

	// CreateErr and EventErr, when set, are returned by CreateBooking and InsertEvent.
	CreateErr error
	EventErr  error
	// CreateDelay widens the window between check and insert in race tests.
	CreateDelay time.Duration
}

var _ booking.Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{bookings: make(map[uuid.UUID]booking.Booking)}
}

func (m *MemoryRepository) CreateBooking(ctx context.Context, b booking.Booking) (*booking.Booking, error) {
	if m.CreateDelay > 0 {
		time.Sleep(m.CreateDelay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return nil, m.CreateErr
	}

	now := time.Now()
	b.ID = uuid.New()
	b.PaymentStatus = booking.PaymentPending
	b.CreatedAt = now
	b.UpdatedAt = now
	m.bookings[b.ID] = b
	m.creates++

	out := b
	return &out, nil
}

func (m *MemoryRepository) GetBookingByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	return &b, nil
}

func (m *MemoryRepository) ListBookings(ctx context.Context) ([]booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]booking.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out, nil
}

func (m *MemoryRepository) ListByTherapistStartingBetween(ctx context.Context, therapist string, from, to time.Time) ([]booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []booking.Booking
	for _, b := range m.bookings {
		if b.TherapistName != therapist {
			continue
		}
		if b.StartTime.Before(from) || b.StartTime.After(to) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (m *MemoryRepository) DeleteBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	delete(m.bookings, id)
	return &b, nil
}

func (m *MemoryRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status booking.PaymentStatus) (*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	b.PaymentStatus = status
	b.UpdatedAt = time.Now()
	m.bookings[id] = b
	return &b, nil
}

func (m *MemoryRepository) InsertEvent(ctx context.Context, ev booking.EventLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.EventErr != nil {
		return m.EventErr
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *MemoryRepository) Events() []booking.EventLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]booking.EventLog(nil), m.events...)
}

// Creates counts successful CreateBooking calls.
func (m *MemoryRepository) Creates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates
}

// RecordingNotifier stores every event it receives and returns Err.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []booking.Event
	Err    error
}

func (r *RecordingNotifier) Notify(ctx context.Context, ev booking.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.Err
}

func (r *RecordingNotifier) Events() []booking.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]booking.Event(nil), r.events...)
}
