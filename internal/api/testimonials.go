package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/spa-bookings/internal/testimonial"
)

type TestimonialService interface {
	Create(ctx context.Context, in testimonial.CreateInput) (*testimonial.Testimonial, error)
	List(ctx context.Context) ([]testimonial.Testimonial, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

func createTestimonialHandler(svc TestimonialService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateTestimonialRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		t, err := svc.Create(r.Context(), testimonial.CreateInput{
			ReviewerName:   req.ReviewerName,
			ReviewerEmail:  req.ReviewerEmail,
			ReviewTitle:    req.ReviewTitle,
			ReviewText:     req.ReviewText,
			Rating:         req.Rating,
			GenuineOpinion: req.GenuineOpinion,
		})
		if err != nil {
			handleTestimonialError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, toTestimonialResponse(*t))
	}
}

func listTestimonialsHandler(svc TestimonialService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			handleTestimonialError(w, r, log, err)
			return
		}

		resp := make([]TestimonialResponse, 0, len(items))
		for _, t := range items {
			resp = append(resp, toTestimonialResponse(t))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func deleteTestimonialHandler(svc TestimonialService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, testimonial.ErrTestimonialNotFound.Error())
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			handleTestimonialError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Testimonial deleted successfully"})
	}
}

func handleTestimonialError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var vErr *testimonial.ValidationError

	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, testimonial.ErrTestimonialNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		internalError(w, r, log, err)
	}
}
