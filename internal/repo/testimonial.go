package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/atob/internal/domain"
)

// TestimonialRepo defines the persistence operations for Testimonials.
// Reads join the author's username.
type TestimonialRepo interface {
	Create(ctx context.Context, t domain.Testimonial) (domain.Testimonial, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Testimonial, error)
	// List returns one page ordered newest first, plus the total count.
	List(ctx context.Context, p domain.PaginationParams) ([]domain.Testimonial, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgTestimonialRepo struct {
	db db
}

// NewTestimonialRepo constructs a TestimonialRepo backed by the provided db connection.
func NewTestimonialRepo(db db) TestimonialRepo {
	return &pgTestimonialRepo{db: db}
}

const testimonialColumns = `t.id, t.user_id, u.username, t.feedback, t.rate, t.testimonial_date, t.created_at`

func (r *pgTestimonialRepo) Create(ctx context.Context, t domain.Testimonial) (domain.Testimonial, error) {
	q := `
		WITH t AS (
			INSERT INTO testimonials (user_id, feedback, rate, testimonial_date)
			VALUES (@user_id, @feedback, @rate, @testimonial_date)
			RETURNING *
		)
		SELECT ` + testimonialColumns + `
		FROM t JOIN users u ON u.id = t.user_id`

	args := pgx.NamedArgs{
		"user_id":          t.UserID,
		"feedback":         t.Feedback,
		"rate":             t.Rate,
		"testimonial_date": t.Date,
	}

	result, err := scanTestimonial(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Testimonial{}, fmt.Errorf("repo.TestimonialRepo.Create: %w", mapWriteError(err))
	}
	return result, nil
}

func (r *pgTestimonialRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Testimonial, error) {
	q := `
		SELECT ` + testimonialColumns + `
		FROM testimonials t JOIN users u ON u.id = t.user_id
		WHERE t.id = @id`

	result, err := scanTestimonial(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Testimonial{}, fmt.Errorf("repo.TestimonialRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgTestimonialRepo) List(ctx context.Context, p domain.PaginationParams) ([]domain.Testimonial, int64, error) {
	q := `
		SELECT ` + testimonialColumns + `
		FROM testimonials t JOIN users u ON u.id = t.user_id
		ORDER BY t.testimonial_date DESC, t.created_at DESC
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TestimonialRepo.List: %w", err)
	}
	defer rows.Close()

	var out []domain.Testimonial
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.TestimonialRepo.List: scan: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.TestimonialRepo.List: rows: %w", err)
	}

	total, err := count(ctx, r.db, `SELECT count(*) FROM testimonials`, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TestimonialRepo.List: count: %w", err)
	}
	return out, total, nil
}

func (r *pgTestimonialRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM testimonials WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TestimonialRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TestimonialRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanTestimonial(s scanner) (domain.Testimonial, error) {
	var (
		t      domain.Testimonial
		id     pgtype.UUID
		userID pgtype.UUID
		date   pgtype.Date
		rate   int16
	)

	if err := s.Scan(&id, &userID, &t.Username, &t.Feedback, &rate, &date, &t.CreatedAt); err != nil {
		return domain.Testimonial{}, mapReadError(err)
	}

	t.ID = fromPgUUID(id)
	t.UserID = fromPgUUID(userID)
	t.Rate = int(rate)
	t.Date = date.Time
	return t, nil
}
