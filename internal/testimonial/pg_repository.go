package testimonial

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanTestimonial(row pgx.Row) (*Testimonial, error) {
	var t Testimonial

	err := row.Scan(
		&t.ID,
		&t.ReviewerName,
		&t.ReviewerEmail,
		&t.ReviewTitle,
		&t.ReviewText,
		&t.Rating,
		&t.GenuineOpinion,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestimonialNotFound
		}
		return nil, err
	}

	return &t, nil
}

func (r *PgRepository) CreateTestimonial(ctx context.Context, t Testimonial) (*Testimonial, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO testimonials (id, reviewer_name, reviewer_email, review_title, review_text,
			rating, genuine_opinion, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING id, reviewer_name, reviewer_email, review_title, review_text,
			rating, genuine_opinion, created_at
	`, uuid.New(), t.ReviewerName, t.ReviewerEmail, t.ReviewTitle, t.ReviewText, t.Rating, t.GenuineOpinion)

	return scanTestimonial(row)
}

func (r *PgRepository) ListTestimonials(ctx context.Context) ([]Testimonial, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, reviewer_name, reviewer_email, review_title, review_text,
			rating, genuine_opinion, created_at
		FROM testimonials
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Testimonial{}
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) DeleteTestimonial(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM testimonials WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTestimonialNotFound
	}
	return nil
}
