package notify

import (
	"context"
	"errors"

	"github.com/hackgods/spa-bookings/internal/booking"
)

// Multi delivers to every channel and joins their errors.
type Multi []booking.Notifier

func (m Multi) Notify(ctx context.Context, ev booking.Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
