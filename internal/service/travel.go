package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pkordes/atob/internal/domain"
	"github.com/pkordes/atob/internal/itinerary"
	"github.com/pkordes/atob/internal/repo"
)

// TravelService manages the travel segments between consecutive steps.
type TravelService struct {
	repos repo.Repos
	uow   repo.UnitOfWork
}

// NewTravelService constructs a TravelService.
func NewTravelService(repos repo.Repos, uow repo.UnitOfWork) *TravelService {
	return &TravelService{repos: repos, uow: uow}
}

// AddBetween records how the trip goes from origin to the step right after
// it. Any travel already leaving origin or arriving at destination is
// replaced. A missing distance is derived from the route, or from the two
// step coordinates when there is no route.
func (s *TravelService) AddBetween(ctx context.Context, draft domain.TravelDraft) (domain.Travel, error) {
	draft.TransportMode = strings.ToLower(strings.TrimSpace(draft.TransportMode))
	if err := validateTravel(draft); err != nil {
		return domain.Travel{}, err
	}

	var created domain.Travel
	err := s.uow.Do(ctx, func(r repo.Repos) error {
		origin, err := r.Steps.GetByID(ctx, draft.OriginStepID)
		if err != nil {
			return err
		}
		trip, err := r.Trips.LockByID(ctx, origin.TripID)
		if err != nil {
			return err
		}
		if _, err := authorize(ctx, trip.UserID); err != nil {
			return err
		}

		// Orders are read again under the trip lock.
		if origin, err = r.Steps.GetByID(ctx, draft.OriginStepID); err != nil {
			return err
		}
		destination, err := r.Steps.GetByID(ctx, draft.DestinationStepID)
		if err != nil {
			return err
		}
		if destination.TripID != origin.TripID {
			return domain.Invalid("destination_step_id", domain.CodeOriginDestinationNotInSameTrip, "origin and destination must belong to the same trip")
		}
		if destination.Order != origin.Order+1 {
			return domain.Invalid("destination_step_id", domain.CodeStepsNotSequential, "destination must be the step right after origin")
		}

		if _, err := r.Travels.DeleteTouching(ctx, origin.ID, destination.ID); err != nil {
			return err
		}

		distance := itinerary.EstimateDistance(origin, destination, draft.Route)
		if draft.Distance != nil {
			distance = *draft.Distance
		}
		created, err = r.Travels.Create(ctx, domain.Travel{
			TripID:            trip.ID,
			OriginStepID:      origin.ID,
			DestinationStepID: destination.ID,
			TransportMode:     draft.TransportMode,
			Distance:          distance,
			Duration:          draft.Duration,
			CarbonEmission:    draft.CarbonEmission,
			Route:             draft.Route,
		})
		return err
	})
	if err != nil {
		return domain.Travel{}, fmt.Errorf("service.TravelService.AddBetween: %w", err)
	}
	return created, nil
}

// GetByID returns a travel the caller may access.
func (s *TravelService) GetByID(ctx context.Context, id uuid.UUID) (domain.Travel, error) {
	travel, err := s.repos.Travels.GetByID(ctx, id)
	if err != nil {
		return domain.Travel{}, fmt.Errorf("service.TravelService.GetByID: %w", err)
	}
	if err := s.authorizeTrip(ctx, travel.TripID); err != nil {
		return domain.Travel{}, fmt.Errorf("service.TravelService.GetByID: %w", err)
	}
	return travel, nil
}

// ListByTrip returns a trip's travels ordered by origin step.
func (s *TravelService) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Travel, error) {
	if err := s.authorizeTrip(ctx, tripID); err != nil {
		return nil, fmt.Errorf("service.TravelService.ListByTrip: %w", err)
	}
	travels, err := s.repos.Travels.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.TravelService.ListByTrip: %w", err)
	}
	if travels == nil {
		travels = []domain.Travel{}
	}
	return travels, nil
}

// Delete removes a travel.
func (s *TravelService) Delete(ctx context.Context, id uuid.UUID) error {
	travel, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repos.Travels.Delete(ctx, travel.ID); err != nil {
		return fmt.Errorf("service.TravelService.Delete: %w", err)
	}
	return nil
}

func (s *TravelService) authorizeTrip(ctx context.Context, tripID uuid.UUID) error {
	trip, err := s.repos.Trips.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	_, err = authorize(ctx, trip.UserID)
	return err
}

func validateTravel(d domain.TravelDraft) error {
	var v domain.ValidationError
	if d.OriginStepID == d.DestinationStepID {
		v.Add("destination_step_id", domain.CodeOriginDestinationSame, "origin and destination must be different steps")
	}
	switch n := utf8.RuneCountInString(d.TransportMode); {
	case n == 0:
		v.Add("transport_mode", domain.CodeRequired, "transport_mode is required")
	case n > domain.TransportModeMax:
		v.Add("transport_mode", domain.CodeTooLong, fmt.Sprintf("transport_mode must be at most %d characters", domain.TransportModeMax))
	}
	if d.Distance != nil && *d.Distance < 0 {
		v.Add("distance", domain.CodeOutOfRange, "distance must be zero or more")
	}
	if d.Duration < 0 {
		v.Add("duration", domain.CodeOutOfRange, "duration must be zero or more")
	}
	if d.CarbonEmission != nil && *d.CarbonEmission < 0 {
		v.Add("carbon_emission", domain.CodeOutOfRange, "carbon_emission must be zero or more")
	}
	if err := itinerary.ValidateRoute(d.Route); err != nil {
		v.Add("route", domain.CodeInvalidRoute, err.Error())
	}
	return v.Err()
}
