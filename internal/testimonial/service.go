package testimonial

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
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

type Service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

type CreateInput struct {
	ReviewerName   string
	ReviewerEmail  string
	ReviewTitle    string
	ReviewText     string
	Rating         int
	GenuineOpinion bool
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Testimonial, error) {
	t := Testimonial{
		ReviewerName:   strings.TrimSpace(in.ReviewerName),
		ReviewerEmail:  strings.TrimSpace(in.ReviewerEmail),
		ReviewTitle:    strings.TrimSpace(in.ReviewTitle),
		ReviewText:     strings.TrimSpace(in.ReviewText),
		Rating:         in.Rating,
		GenuineOpinion: in.GenuineOpinion,
	}

	switch {
	case t.ReviewerName == "":
		return nil, validationError("reviewerName", "reviewerName is required")
	case t.ReviewerEmail == "":
		return nil, validationError("reviewerEmail", "reviewerEmail is required")
	case s.validate.Var(t.ReviewerEmail, "email") != nil:
		return nil, validationError("reviewerEmail", "reviewerEmail must be a valid email address")
	case t.ReviewText == "":
		return nil, validationError("reviewText", "reviewText is required")
	case t.Rating < MinRating || t.Rating > MaxRating:
		return nil, validationError("rating", fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	case !t.GenuineOpinion:
		return nil, validationError("genuineOpinion", "genuineOpinion must be confirmed")
	}

	created, err := s.repo.CreateTestimonial(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("create testimonial: %w", err)
	}
	return created, nil
}

// List returns testimonials newest first.
func (s *Service) List(ctx context.Context) ([]Testimonial, error) {
	list, err := s.repo.ListTestimonials(ctx)
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	return list, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteTestimonial(ctx, id); err != nil {
		if errors.Is(err, ErrTestimonialNotFound) {
			return err
		}
		return fmt.Errorf("delete testimonial: %w", err)
	}
	return nil
}
