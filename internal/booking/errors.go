package booking

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrTherapistBusy   = errors.New("therapist schedule is being updated, please retry shortly")
)

type ValidationError struct {
	Field string
	msg   string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(field, msg string) error {
	return &ValidationError{Field: field, msg: msg}
}

// ConflictError reports that a proposed window overlaps an existing booking of the
// same therapist. Existing is zero when the overlap was caught by the database
// constraint rather than the checker.
type ConflictError struct {
	Therapist  string
	ExistingID uuid.UUID
	Existing   Window
}

func (e *ConflictError) Error() string {
	if e.Existing.Start.IsZero() {
		return fmt.Sprintf("Therapist %s already has a booking overlapping the requested time", e.Therapist)
	}
	return fmt.Sprintf("Therapist %s is already booked from %s to %s",
		e.Therapist, FormatTime(e.Existing.Start), FormatTime(e.Existing.End))
}
