package redisclient

import (
	"context"
	"sync"
	"time"
)

// localTherapistLocker is the single-process Locker used when LOCK_BACKEND=local.
// Each therapist gets a one-slot channel acting as a mutex that can be waited on
// with a deadline.
type localTherapistLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
	wait  time.Duration
}

func NewLocalTherapistLocker(wait time.Duration) Locker {
	return &localTherapistLocker{
		slots: make(map[string]chan struct{}),
		wait:  wait,
	}
}

func (l *localTherapistLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

func (l *localTherapistLocker) WithTherapistLock(ctx context.Context, therapist string, fn func(ctx context.Context) error) error {
	ch := l.slot(lockKey(therapist))

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
	case <-timer.C:
		return ErrLockNotAcquired
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-ch }()

	return fn(ctx)
}
