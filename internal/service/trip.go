package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pkordes/atob/internal/domain"
	"github.com/pkordes/atob/internal/repo"
)

// TripService implements business logic for Trip operations.
type TripService struct {
	repos repo.Repos
	now   Clock
}

// NewTripService constructs a TripService. A nil clock means time.Now.
func NewTripService(repos repo.Repos, now Clock) *TripService {
	return &TripService{repos: repos, now: clockOrNow(now)}
}

// Create validates and persists a new trip owned by the caller.
// The start date may not be in the past.
func (s *TripService) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return domain.Trip{}, err
	}

	trip = normalizeTrip(trip)
	trip.UserID = actor.UserID
	if err := validateTrip(trip, dateOnly(s.now()), true); err != nil {
		return domain.Trip{}, err
	}

	created, err := s.repos.Trips.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return created, nil
}

// GetByID returns a trip with its ordered steps and travels.
func (s *TripService) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	trip, err := s.repos.Trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	if _, err := authorize(ctx, trip.UserID); err != nil {
		return domain.Trip{}, err
	}

	if trip.Steps, err = s.repos.Steps.ListByTrip(ctx, id); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: steps: %w", err)
	}
	if trip.Travels, err = s.repos.Travels.ListByTrip(ctx, id); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: travels: %w", err)
	}
	return trip, nil
}

// ListMine returns one page of the caller's trips and the total count.
func (s *TripService) ListMine(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	return s.listByUser(ctx, actor.UserID, p, "ListMine")
}

// ListByUser returns one page of another user's trips. Administrators only.
func (s *TripService) ListByUser(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, 0, err
	}
	if _, err := s.repos.Users.GetByID(ctx, userID); err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListByUser: %w", err)
	}
	return s.listByUser(ctx, userID, p, "ListByUser")
}

func (s *TripService) listByUser(ctx context.Context, userID uuid.UUID, p domain.PaginationParams, op string) ([]domain.Trip, int64, error) {
	trips, total, err := s.repos.Trips.ListByUser(ctx, userID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.%s: %w", op, err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, total, nil
}

// ListAll returns one page of every trip. Administrators only.
func (s *TripService) ListAll(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, 0, err
	}
	trips, total, err := s.repos.Trips.ListAll(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListAll: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, total, nil
}

// Update replaces the editable fields of an existing trip. A start date in
// the past is accepted so trips already under way stay editable.
func (s *TripService) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	existing, err := s.repos.Trips.GetByID(ctx, trip.ID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	if _, err := authorize(ctx, existing.UserID); err != nil {
		return domain.Trip{}, err
	}

	trip = normalizeTrip(trip)
	existing.Name = trip.Name
	existing.Description = trip.Description
	existing.StartDate = trip.StartDate
	existing.EndDate = trip.EndDate
	existing.BackgroundPicturePath = trip.BackgroundPicturePath
	if err := validateTrip(existing, dateOnly(s.now()), false); err != nil {
		return domain.Trip{}, err
	}

	updated, err := s.repos.Trips.Update(ctx, existing)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	return updated, nil
}

// Delete removes a trip with its steps and travels.
func (s *TripService) Delete(ctx context.Context, id uuid.UUID) error {
	trip, err := s.repos.Trips.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	if _, err := authorize(ctx, trip.UserID); err != nil {
		return err
	}
	if err := s.repos.Trips.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	return nil
}

func normalizeTrip(t domain.Trip) domain.Trip {
	t.Name = strings.TrimSpace(t.Name)
	t.Description = strings.TrimSpace(t.Description)
	t.BackgroundPicturePath = strings.TrimSpace(t.BackgroundPicturePath)
	if !t.StartDate.IsZero() {
		t.StartDate = dateOnly(t.StartDate)
	}
	if !t.EndDate.IsZero() {
		t.EndDate = dateOnly(t.EndDate)
	}
	return t
}

// validateTrip enforces trip business rules. today is midnight UTC.
func validateTrip(t domain.Trip, today time.Time, creating bool) error {
	var v domain.ValidationError
	checkLength(&v, "name", t.Name, domain.TripNameMin, domain.TripNameMax)
	if n := utf8.RuneCountInString(t.Description); n > domain.TripDescriptionMax {
		v.Add("description", domain.CodeTooLong, fmt.Sprintf("description must be at most %d characters", domain.TripDescriptionMax))
	}
	if n := len(t.BackgroundPicturePath); n > domain.PicturePathMax {
		v.Add("background_picture_path", domain.CodeTooLong, fmt.Sprintf("background_picture_path must be at most %d characters", domain.PicturePathMax))
	}

	switch {
	case t.StartDate.IsZero():
		v.Add("start_date", domain.CodeRequired, "start_date is required")
	case creating && t.StartDate.Before(today):
		v.Add("start_date", domain.CodeInPast, "start_date cannot be in the past")
	}
	switch {
	case t.EndDate.IsZero():
		v.Add("end_date", domain.CodeRequired, "end_date is required")
	case !t.StartDate.IsZero() && t.EndDate.Before(t.StartDate):
		v.Add("end_date", domain.CodeBeforeStart, "end_date must be on or after start_date")
	}
	return v.Err()
}

// checkLength records a required/too_short/too_long issue for a trimmed value.
func checkLength(v *domain.ValidationError, field, value string, minLen, maxLen int) {
	n := utf8.RuneCountInString(value)
	switch {
	case n == 0:
		v.Add(field, domain.CodeRequired, field+" is required")
	case n < minLen:
		v.Add(field, domain.CodeTooShort, fmt.Sprintf("%s must be at least %d characters", field, minLen))
	case n > maxLen:
		v.Add(field, domain.CodeTooLong, fmt.Sprintf("%s must be at most %d characters", field, maxLen))
	}
}
