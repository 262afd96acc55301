package testimonial

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeRepo struct {
	createFn func(ctx context.Context, t Testimonial) (*Testimonial, error)
	listFn   func(ctx context.Context) ([]Testimonial, error)
	deleteFn func(ctx context.Context, id uuid.UUID) error
}

func (f *fakeRepo) CreateTestimonial(ctx context.Context, t Testimonial) (*Testimonial, error) {
	if f.createFn == nil {
		panic("CreateTestimonial not configured")
	}
	return f.createFn(ctx, t)
}

func (f *fakeRepo) ListTestimonials(ctx context.Context) ([]Testimonial, error) {
	if f.listFn == nil {
		panic("ListTestimonials not configured")
	}
	return f.listFn(ctx)
}

func (f *fakeRepo) DeleteTestimonial(ctx context.Context, id uuid.UUID) error {
	if f.deleteFn == nil {
		panic("DeleteTestimonial not configured")
	}
	return f.deleteFn(ctx, id)
}

func validInput() CreateInput {
	return CreateInput{
		ReviewerName:   "Maya Lin",
		ReviewerEmail:  "maya@example.com",
		ReviewTitle:    "Wonderful",
		ReviewText:     "Best massage in town.",
		Rating:         5,
		GenuineOpinion: true,
	}
}

func TestServiceCreate_TrimsAndPersists(t *testing.T) {
	var got Testimonial
	svc := NewService(&fakeRepo{
		createFn: func(ctx context.Context, tm Testimonial) (*Testimonial, error) {
			got = tm
			tm.ID = uuid.New()
			tm.CreatedAt = time.Now()
			return &tm, nil
		},
	})

	in := validInput()
	in.ReviewerName = "  Maya Lin "
	in.ReviewTitle = ""

	created, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatalf("expected id")
	}
	if got.ReviewerName != "Maya Lin" {
		t.Fatalf("reviewer name = %q, want trimmed", got.ReviewerName)
	}
	if got.ReviewTitle != "" {
		t.Fatalf("review title = %q, want empty (optional)", got.ReviewTitle)
	}
}

func TestServiceCreate_Validation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(in *CreateInput)
		wantField string
	}{
		{"missing name", func(in *CreateInput) { in.ReviewerName = "" }, "reviewerName"},
		{"missing email", func(in *CreateInput) { in.ReviewerEmail = " " }, "reviewerEmail"},
		{"malformed email", func(in *CreateInput) { in.ReviewerEmail = "maya-at-example" }, "reviewerEmail"},
		{"missing text", func(in *CreateInput) { in.ReviewText = "" }, "reviewText"},
		{"rating too low", func(in *CreateInput) { in.Rating = 0 }, "rating"},
		{"rating too high", func(in *CreateInput) { in.Rating = 6 }, "rating"},
		{"opinion not confirmed", func(in *CreateInput) { in.GenuineOpinion = false }, "genuineOpinion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&fakeRepo{})

			in := validInput()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), in)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if vErr.Field != tt.wantField {
				t.Fatalf("field = %q, want %q", vErr.Field, tt.wantField)
			}
		})
	}
}

func TestServiceCreate_RatingBounds(t *testing.T) {
	for rating := MinRating; rating <= MaxRating; rating++ {
		svc := NewService(&fakeRepo{
			createFn: func(ctx context.Context, tm Testimonial) (*Testimonial, error) {
				return &tm, nil
			},
		})
		in := validInput()
		in.Rating = rating
		if _, err := svc.Create(context.Background(), in); err != nil {
			t.Fatalf("rating %d error: %v", rating, err)
		}
	}
}

func TestServiceDelete(t *testing.T) {
	storeErr := errors.New("timeout")

	tests := []struct {
		name      string
		repoErr   error
		wantIs    error
		wantNoErr bool
	}{
		{name: "deleted", wantNoErr: true},
		{name: "not found", repoErr: ErrTestimonialNotFound, wantIs: ErrTestimonialNotFound},
		{name: "store error", repoErr: storeErr, wantIs: storeErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&fakeRepo{
				deleteFn: func(ctx context.Context, id uuid.UUID) error {
					return tt.repoErr
				},
			})

			err := svc.Delete(context.Background(), uuid.New())
			if tt.wantNoErr {
				if err != nil {
					t.Fatalf("Delete error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantIs) {
				t.Fatalf("error = %v, want %v", err, tt.wantIs)
			}
		})
	}
}

func TestServiceList_WrapsStoreError(t *testing.T) {
	storeErr := errors.New("timeout")
	svc := NewService(&fakeRepo{
		listFn: func(ctx context.Context) ([]Testimonial, error) {
			return nil, storeErr
		},
	})

	if _, err := svc.List(context.Background()); !errors.Is(err, storeErr) {
		t.Fatalf("error = %v, want wrapped %v", err, storeErr)
	}
}
