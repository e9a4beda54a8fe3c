package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/atob/internal/domain"
	"github.com/pkordes/atob/internal/repo"
)

// TestimonialService manages user feedback shown on the public site.
type TestimonialService struct {
	testimonials repo.TestimonialRepo
	now          Clock
}

// NewTestimonialService constructs a TestimonialService. A nil clock means
// time.Now.
func NewTestimonialService(testimonials repo.TestimonialRepo, now Clock) *TestimonialService {
	return &TestimonialService{testimonials: testimonials, now: clockOrNow(now)}
}

// Create records feedback from the caller. A zero date means today.
func (s *TestimonialService) Create(ctx context.Context, t domain.Testimonial) (domain.Testimonial, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return domain.Testimonial{}, err
	}

	today := dateOnly(s.now())
	t.UserID = actor.UserID
	t.Feedback = strings.TrimSpace(t.Feedback)
	if t.Date.IsZero() {
		t.Date = today
	} else {
		t.Date = dateOnly(t.Date)
	}

	var v domain.ValidationError
	checkLength(&v, "feedback", t.Feedback, domain.FeedbackMin, domain.FeedbackMax)
	if t.Rate < domain.RateMin || t.Rate > domain.RateMax {
		v.Add("rate", domain.CodeOutOfRange, fmt.Sprintf("rate must be between %d and %d", domain.RateMin, domain.RateMax))
	}
	if t.Date.After(today) {
		v.Add("date", domain.CodeInFuture, "date cannot be in the future")
	}
	if err := v.Err(); err != nil {
		return domain.Testimonial{}, err
	}

	created, err := s.testimonials.Create(ctx, t)
	if err != nil {
		return domain.Testimonial{}, fmt.Errorf("service.TestimonialService.Create: %w", err)
	}
	return created, nil
}

// GetByID returns one testimonial. Testimonials are public.
func (s *TestimonialService) GetByID(ctx context.Context, id uuid.UUID) (domain.Testimonial, error) {
	t, err := s.testimonials.GetByID(ctx, id)
	if err != nil {
		return domain.Testimonial{}, fmt.Errorf("service.TestimonialService.GetByID: %w", err)
	}
	return t, nil
}

// List returns one page of testimonials, newest first, and the total count.
func (s *TestimonialService) List(ctx context.Context, p domain.PaginationParams) ([]domain.Testimonial, int64, error) {
	items, total, err := s.testimonials.List(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TestimonialService.List: %w", err)
	}
	if items == nil {
		items = []domain.Testimonial{}
	}
	return items, total, nil
}

// Delete removes a testimonial. Only its author or an administrator may.
func (s *TestimonialService) Delete(ctx context.Context, id uuid.UUID) error {
	t, err := s.testimonials.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("service.TestimonialService.Delete: %w", err)
	}
	if _, err := authorize(ctx, t.UserID); err != nil {
		return err
	}
	if err := s.testimonials.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TestimonialService.Delete: %w", err)
	}
	return nil
}
