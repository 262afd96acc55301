package testimonial

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrTestimonialNotFound = errors.New("testimonial not found")

type Repository interface {
	CreateTestimonial(ctx context.Context, t Testimonial) (*Testimonial, error)
	ListTestimonials(ctx context.Context) ([]Testimonial, error)
	DeleteTestimonial(ctx context.Context, id uuid.UUID) error
}
