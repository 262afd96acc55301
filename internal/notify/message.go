// Package notify delivers booking lifecycle events to outbound channels.
package notify

import (
	"fmt"
	"strings"

	"github.com/hackgods/spa-bookings/internal/booking"
)

func title(t booking.EventType) string {
	switch t {
	case booking.EventBookingCreated:
		return "New booking"
	case booking.EventBookingCancelled:
		return "Booking cancelled"
	case booking.EventPaymentConfirmed:
		return "Payment confirmed"
	default:
		return string(t)
	}
}

// FormatMessage renders the chat text for an event.
func FormatMessage(ev booking.Event) string {
	b := ev.Booking

	var sb strings.Builder
	sb.WriteString(title(ev.Type))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Service: %s\n", b.Service)
	fmt.Fprintf(&sb, "Therapist: %s\n", b.TherapistName)
	fmt.Fprintf(&sb, "Customer: %s (%s)\n", b.CustomerName, b.CustomerPhone)
	fmt.Fprintf(&sb, "Price: %s\n", b.Price.StringFixed(2))
	fmt.Fprintf(&sb, "Start: %s\n", booking.FormatTime(b.StartTime))
	fmt.Fprintf(&sb, "End: %s", booking.FormatTime(b.EndTime()))
	return sb.String()
}

// FormatSMS is the short customer-facing text.
func FormatSMS(ev booking.Event) string {
	b := ev.Booking
	switch ev.Type {
	case booking.EventBookingCreated:
		return fmt.Sprintf("Hi %s, your %s with %s is booked for %s.",
			b.CustomerName, b.Service, b.TherapistName, booking.FormatTime(b.StartTime))
	case booking.EventBookingCancelled:
		return fmt.Sprintf("Hi %s, your %s with %s on %s has been cancelled.",
			b.CustomerName, b.Service, b.TherapistName, booking.FormatTime(b.StartTime))
	default:
		return fmt.Sprintf("Hi %s, your booking on %s was updated.", b.CustomerName, booking.FormatTime(b.StartTime))
	}
}
