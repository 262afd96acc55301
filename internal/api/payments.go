package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hackgods/spa-bookings/internal/booking"
	"github.com/hackgods/spa-bookings/internal/payment"
)

type PaymentService interface {
	Initiate(ctx context.Context, in payment.InitiateInput) (*payment.Initiation, error)
}

func initiatePaymentHandler(svc PaymentService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req InitiatePaymentRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		amount, err := booking.ParsePrice(req.Amount.String())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		p, err := svc.Initiate(r.Context(), payment.InitiateInput{
			Amount:      amount,
			ServiceName: req.ServiceName,
			BookingID:   req.BookingID,
		})
		if err != nil {
			var vErr *payment.ValidationError
			if errors.As(err, &vErr) {
				writeError(w, http.StatusBadRequest, vErr.Error())
				return
			}
			internalError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, toPaymentInitiatedResponse(p))
	}
}
