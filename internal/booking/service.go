package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hackgods/spa-bookings/internal/config"
	redisclient "github.com/hackgods/spa-bookings/internal/redis"
)

// Notifier receives booking events after they have been persisted. Errors are
// logged by the service and never reach the caller.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

type Service struct {
	repo        Repository
	checker     *ConflictChecker
	locker      redisclient.Locker
	notifier    Notifier
	maxDuration time.Duration
	log         *slog.Logger
	now         func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, notifier Notifier, cfg config.Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	maxDuration := cfg.MaxBookingDuration
	if maxDuration <= 0 {
		maxDuration = DefaultLookback
	}
	// a lookback shorter than the longest booking would miss real conflicts
	lookback := cfg.ConflictLookback
	if lookback < maxDuration {
		lookback = maxDuration
	}

	return &Service{
		repo:        repo,
		checker:     NewConflictChecker(repo, lookback),
		locker:      locker,
		notifier:    notifier,
		maxDuration: maxDuration,
		log:         log.With(slog.String("component", "booking.service")),
		now:         time.Now,
	}
}

type CreateInput struct {
	Service         string
	TherapistName   string
	DurationMinutes int
	Price           decimal.Decimal
	CustomerName    string
	CustomerPhone   string
	StartTime       time.Time
}

func (s *Service) validate(in CreateInput) (CreateInput, error) {
	in.Service = strings.TrimSpace(in.Service)
	in.TherapistName = strings.TrimSpace(in.TherapistName)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)

	switch {
	case in.Service == "":
		return in, validationError("service", "service is required")
	case in.TherapistName == "":
		return in, validationError("therapistName", "therapistName is required")
	case in.CustomerName == "":
		return in, validationError("customerName", "customerName is required")
	case in.CustomerPhone == "":
		return in, validationError("customerPhone", "customerPhone is required")
	case in.StartTime.IsZero():
		return in, validationError("startTime", "startTime is required")
	case in.DurationMinutes <= 0:
		return in, validationError("durationMinutes", "durationMinutes must be positive")
	case in.DurationMinutes > int(s.maxDuration/time.Minute):
		return in, validationError("durationMinutes",
			fmt.Sprintf("durationMinutes must not exceed %d", int(s.maxDuration/time.Minute)))
	case in.Price.IsNegative():
		return in, validationError("price", "price must not be negative")
	}

	return in, nil
}

// Create validates the input, checks the therapist's schedule and persists the
// booking with a pending payment. Check and insert run under a per-therapist lock.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Booking, error) {
	in, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	window, err := NewWindow(in.StartTime, in.DurationMinutes)
	if err != nil {
		return nil, validationError("durationMinutes", err.Error())
	}

	var created *Booking

	err = s.locker.WithTherapistLock(ctx, in.TherapistName, func(lockCtx context.Context) error {
		if err := s.checker.Check(lockCtx, in.TherapistName, window); err != nil {
			return err
		}

		b, err := s.repo.CreateBooking(lockCtx, Booking{
			Service:         in.Service,
			TherapistName:   in.TherapistName,
			DurationMinutes: in.DurationMinutes,
			Price:           in.Price,
			CustomerName:    in.CustomerName,
			CustomerPhone:   in.CustomerPhone,
			StartTime:       in.StartTime,
			PaymentStatus:   PaymentPending,
		})
		if err != nil {
			return s.describeConflict(lockCtx, in.TherapistName, window, err)
		}

		created = b
		return nil
	})
	if err != nil {
		var conflict *ConflictError
		switch {
		case errors.As(err, &conflict):
			s.log.Info("booking conflict",
				slog.String("therapist", in.TherapistName),
				slog.String("requested_start", FormatTime(window.Start)),
				slog.String("reason", conflict.Error()),
			)
			return nil, err
		case errors.Is(err, redisclient.ErrLockNotAcquired):
			return nil, ErrTherapistBusy
		default:
			return nil, fmt.Errorf("create booking: %w", err)
		}
	}

	s.logEvent(ctx, created.ID, EventBookingCreated, map[string]any{
		"therapist":  created.TherapistName,
		"start_time": FormatTime(created.StartTime),
		"end_time":   FormatTime(created.EndTime()),
	})
	s.dispatch(ctx, EventBookingCreated, *created)

	return created, nil
}

// describeConflict fills in the conflicting window when the storage constraint,
// rather than the checker, rejected the insert.
func (s *Service) describeConflict(ctx context.Context, therapist string, window Window, err error) error {
	var conflict *ConflictError
	if !errors.As(err, &conflict) || !conflict.Existing.Start.IsZero() {
		return err
	}
	if checkErr := s.checker.Check(ctx, therapist, window); checkErr != nil {
		var found *ConflictError
		if errors.As(checkErr, &found) {
			return found
		}
	}
	return err
}

func (s *Service) List(ctx context.Context) ([]Booking, error) {
	bookings, err := s.repo.ListBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Booking, error) {
	b, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// Cancel hard-deletes the booking and returns the removed record.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Booking, error) {
	deleted, err := s.repo.DeleteBooking(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("delete booking: %w", err)
	}

	s.logEvent(ctx, deleted.ID, EventBookingCancelled, map[string]any{
		"therapist":  deleted.TherapistName,
		"start_time": FormatTime(deleted.StartTime),
	})
	s.dispatch(ctx, EventBookingCancelled, *deleted)

	return deleted, nil
}

// ConfirmPayment marks the booking paid. Confirming an already paid booking succeeds.
func (s *Service) ConfirmPayment(ctx context.Context, id uuid.UUID) (*Booking, error) {
	updated, err := s.repo.UpdatePaymentStatus(ctx, id, PaymentCompleted)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("confirm payment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventPaymentConfirmed, map[string]any{
		"price": updated.Price.StringFixed(2),
	})

	return updated, nil
}

func (s *Service) dispatch(ctx context.Context, typ EventType, b Booking) {
	if s.notifier == nil {
		return
	}
	ev := Event{Type: typ, Booking: b, At: s.now()}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.log.Warn("notification failed",
			slog.String("event", string(typ)),
			slog.String("booking_id", b.ID.String()),
			slog.Any("err", err),
		)
	}
}

func (s *Service) logEvent(ctx context.Context, bookingID uuid.UUID, eventType EventType, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("failed to marshal event payload", slog.String("event", string(eventType)), slog.Any("err", err))
		data = nil
	}

	id := bookingID

	ev := EventLog{
		EventType: eventType,
		BookingID: &id,
		Payload:   data,
		CreatedAt: s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Warn("failed to insert booking event",
			slog.String("event", string(eventType)),
			slog.String("booking_id", bookingID.String()),
			slog.Any("err", err),
		)
	}
}
