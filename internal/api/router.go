package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	Bookings       BookingService
	Testimonials   TestimonialService
	Payments       PaymentService
	Health         *HealthHandler
	Location       *time.Location
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "http"))

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(log))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.Liveness)
		r.Get("/health/ready", cfg.Health.Readiness)
	}

	r.Route("/bookings", func(r chi.Router) {
		r.Get("/", listBookingsHandler(cfg.Bookings, log))
		r.Post("/", createBookingHandler(cfg.Bookings, loc, log))
		r.Get("/{id}", getBookingHandler(cfg.Bookings, log))
		r.Delete("/{id}", deleteBookingHandler(cfg.Bookings, log))
	})
	r.Post("/cancel-via-bot", cancelViaBotHandler(cfg.Bookings, log))

	r.Post("/payments/initiate", initiatePaymentHandler(cfg.Payments, log))
	r.Post("/payments/confirm", confirmPaymentHandler(cfg.Bookings, log))

	r.Route("/testimonials", func(r chi.Router) {
		r.Get("/", listTestimonialsHandler(cfg.Testimonials, log))
		r.Post("/", createTestimonialHandler(cfg.Testimonials, log))
		r.Delete("/{id}", deleteTestimonialHandler(cfg.Testimonials, log))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
