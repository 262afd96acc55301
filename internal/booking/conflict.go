package booking

import (
	"context"
	"fmt"
	"time"
)

// DefaultLookback is the candidate margin used when none is configured.
const DefaultLookback = 2 * time.Hour

// ConflictChecker decides whether a proposed window collides with an existing
// booking of the same therapist.
//
// Only start times are filtered in storage: candidates are the bookings starting in
// [proposed.Start - lookback, proposed.End]. Any booking no longer than lookback that
// overlaps the proposal starts inside that range, so lookback must be at least the
// longest bookable duration. NewService enforces this.
type ConflictChecker struct {
	finder   CandidateFinder
	lookback time.Duration
}

func NewConflictChecker(finder CandidateFinder, lookback time.Duration) *ConflictChecker {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &ConflictChecker{finder: finder, lookback: lookback}
}

func (c *ConflictChecker) Lookback() time.Duration {
	return c.lookback
}

// Check returns nil when the window is free, a *ConflictError naming the first
// overlapping booking, or a wrapped storage error.
func (c *ConflictChecker) Check(ctx context.Context, therapist string, proposed Window) error {
	candidates, err := c.finder.ListByTherapistStartingBetween(ctx, therapist, proposed.Start.Add(-c.lookback), proposed.End)
	if err != nil {
		return fmt.Errorf("list candidate bookings: %w", err)
	}

	for _, existing := range candidates {
		w := existing.Window()
		if Overlaps(w, proposed) {
			return &ConflictError{
				Therapist:  therapist,
				ExistingID: existing.ID,
				Existing:   w,
			}
		}
	}

	return nil
}
