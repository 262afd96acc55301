package booking

import (
	"errors"
	"time"
)

// TimeLayout is how every booking timestamp is rendered to clients and in notifications.
const TimeLayout = "2006-01-02 03:04 PM"

var errNonPositiveDuration = errors.New("duration must be positive")

// Window is the half-open interval [Start, End) an appointment occupies.
type Window struct {
	Start time.Time
	End   time.Time
}

func NewWindow(start time.Time, durationMinutes int) (Window, error) {
	if durationMinutes <= 0 {
		return Window{}, errNonPositiveDuration
	}
	return Window{
		Start: start,
		End:   start.Add(time.Duration(durationMinutes) * time.Minute),
	}, nil
}

// Overlaps reports whether a and b intersect. Back-to-back windows do not.
func Overlaps(a, b Window) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

func (w Window) Overlaps(other Window) bool {
	return Overlaps(w, other)
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}
