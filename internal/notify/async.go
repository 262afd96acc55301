package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hackgods/spa-bookings/internal/booking"
)

var (
	ErrQueueFull = errors.New("notification queue full, event dropped")
	ErrClosed    = errors.New("notifier closed")
)

// Async hands events to a bounded queue drained by worker goroutines, so
// Notify returns without waiting on the network.
type Async struct {
	next    booking.Notifier
	queue   chan booking.Event
	timeout time.Duration
	log     *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsync(next booking.Notifier, queueSize, workers int, timeout time.Duration, log *slog.Logger) *Async {
	if queueSize < 1 {
		queueSize = 1
	}
	if workers < 1 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	a := &Async{
		next:    next,
		queue:   make(chan booking.Event, queueSize),
		timeout: timeout,
		log:     log,
	}
	for i := 0; i < workers; i++ {
		a.wg.Add(1)
		go a.worker()
	}
	return a
}

// Notify enqueues ev. The caller's context is not used for delivery.
func (a *Async) Notify(_ context.Context, ev booking.Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

func (a *Async) worker() {
	defer a.wg.Done()

	for ev := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		err := a.next.Notify(ctx, ev)
		cancel()

		if err != nil {
			a.log.Warn("notification delivery failed", "event", ev.Type, "booking_id", ev.Booking.ID, "err", err)
		}
	}
}

// Close stops accepting events and waits for queued ones until ctx is done.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
