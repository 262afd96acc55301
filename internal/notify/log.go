package notify

import (
	"context"
	"log/slog"

	"github.com/hackgods/spa-bookings/internal/booking"
)

// Log writes events to the structured logger. It is the fallback when no
// outbound channel is configured.
type Log struct {
	log *slog.Logger
}

func NewLog(log *slog.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) Notify(ctx context.Context, ev booking.Event) error {
	b := ev.Booking
	l.log.InfoContext(ctx, "booking notification",
		"event", ev.Type,
		"booking_id", b.ID,
		"service", b.Service,
		"therapist", b.TherapistName,
		"customer", b.CustomerName,
		"start", booking.FormatTime(b.StartTime),
		"end", booking.FormatTime(b.EndTime()),
	)
	return nil
}
