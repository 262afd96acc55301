package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/spa-bookings/internal/booking"
)

type BookingService interface {
	Create(ctx context.Context, in booking.CreateInput) (*booking.Booking, error)
	List(ctx context.Context) ([]booking.Booking, error)
	Get(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	Cancel(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	ConfirmPayment(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
}

func listBookingsHandler(svc BookingService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookings, err := svc.List(r.Context())
		if err != nil {
			handleBookingError(w, r, log, err)
			return
		}

		resp := make([]BookingResponse, 0, len(bookings))
		for _, b := range bookings {
			resp = append(resp, toBookingResponse(b))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createBookingHandler(svc BookingService, loc *time.Location, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBookingRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		minutes, err := booking.ParseDurationMinutes(req.Duration.String())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		price, err := booking.ParsePrice(req.Price.String())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		start, err := booking.ParseStartTime(req.Datetime, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		b, err := svc.Create(r.Context(), booking.CreateInput{
			Service:         req.Service,
			TherapistName:   req.therapist(),
			DurationMinutes: minutes,
			Price:           price,
			CustomerName:    req.Name,
			CustomerPhone:   req.Phone,
			StartTime:       start,
		})
		if err != nil {
			handleBookingError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, toBookingResponse(*b))
	}
}

func getBookingHandler(svc BookingService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseBookingID(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, booking.ErrBookingNotFound.Error())
			return
		}

		b, err := svc.Get(r.Context(), id)
		if err != nil {
			handleBookingError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toBookingResponse(*b))
	}
}

func deleteBookingHandler(svc BookingService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cancelBooking(w, r, svc, log, chi.URLParam(r, "id"), "Booking deleted successfully")
	}
}

func cancelViaBotHandler(svc BookingService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookingIDRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		cancelBooking(w, r, svc, log, req.BookingID, "Booking cancelled successfully")
	}
}

func cancelBooking(w http.ResponseWriter, r *http.Request, svc BookingService, log *slog.Logger, rawID, msg string) {
	id, ok := parseBookingID(rawID)
	if !ok {
		writeError(w, http.StatusNotFound, booking.ErrBookingNotFound.Error())
		return
	}

	b, err := svc.Cancel(r.Context(), id)
	if err != nil {
		handleBookingError(w, r, log, err)
		return
	}

	resp := toBookingResponse(*b)
	writeJSON(w, http.StatusOK, MessageResponse{Message: msg, Booking: &resp})
}

func confirmPaymentHandler(svc BookingService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookingIDRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		id, ok := parseBookingID(req.BookingID)
		if !ok {
			writeError(w, http.StatusNotFound, booking.ErrBookingNotFound.Error())
			return
		}

		b, err := svc.ConfirmPayment(r.Context(), id)
		if err != nil {
			handleBookingError(w, r, log, err)
			return
		}

		resp := toBookingResponse(*b)
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Payment confirmed", Booking: &resp})
	}
}

// parseBookingID treats a malformed id like an unknown one: no booking has it.
func parseBookingID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func handleBookingError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var vErr *booking.ValidationError
	var conflict *booking.ConflictError

	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Error())
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, conflict.Error())
	case errors.Is(err, booking.ErrTherapistBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, booking.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		internalError(w, r, log, err)
	}
}

// internalError logs the cause and answers with a generic message.
func internalError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	log.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
		slog.Any("err", err),
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
