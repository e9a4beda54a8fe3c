package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pkordes/atob/internal/domain"
	"github.com/pkordes/atob/internal/itinerary"
	"github.com/pkordes/atob/internal/repo"
)

// StepService manages the ordered steps of a trip. Every write that can
// change step orders runs in one unit of work that first locks the trip row,
// so concurrent edits of the same itinerary serialize.
type StepService struct {
	repos repo.Repos
	uow   repo.UnitOfWork
	newID func() uuid.UUID
}

// NewStepService constructs a StepService.
func NewStepService(repos repo.Repos, uow repo.UnitOfWork) *StepService {
	return &StepService{repos: repos, uow: uow, newID: uuid.New}
}

// AddLast appends a step to the end of the trip.
func (s *StepService) AddLast(ctx context.Context, tripID uuid.UUID, step domain.Step) (domain.Step, error) {
	return s.add(ctx, "AddLast", tripID, step, itinerary.End())
}

// AddBefore inserts a step immediately before target. A travel that
// connected target's predecessor to target is removed.
func (s *StepService) AddBefore(ctx context.Context, tripID, targetID uuid.UUID, step domain.Step) (domain.Step, error) {
	return s.add(ctx, "AddBefore", tripID, step, itinerary.Before(targetID))
}

// AddAfter inserts a step immediately after target. A travel leaving
// target is removed.
func (s *StepService) AddAfter(ctx context.Context, tripID, targetID uuid.UUID, step domain.Step) (domain.Step, error) {
	return s.add(ctx, "AddAfter", tripID, step, itinerary.After(targetID))
}

func (s *StepService) add(ctx context.Context, op string, tripID uuid.UUID, step domain.Step, pos itinerary.Position) (domain.Step, error) {
	step = normalizeStep(step)
	if err := validateStep(step); err != nil {
		return domain.Step{}, err
	}

	var created domain.Step
	err := s.uow.Do(ctx, func(r repo.Repos) error {
		trip, err := r.Trips.LockByID(ctx, tripID)
		if err != nil {
			return err
		}
		if _, err := authorize(ctx, trip.UserID); err != nil {
			return err
		}
		if target, ok := pos.Target(); ok {
			if err := checkTarget(ctx, r, tripID, target); err != nil {
				return err
			}
		}

		steps, travels, err := loadItinerary(ctx, r, tripID)
		if err != nil {
			return err
		}
		seq := itinerary.FromSteps(steps)
		id := s.newID()
		next, err := itinerary.Insert(seq, id, pos)
		if err != nil {
			return mapItineraryError(err)
		}
		if err := applyPlan(ctx, r, itinerary.Diff(seq, next, itinerary.EdgesOf(travels))); err != nil {
			return err
		}

		step.ID = id
		step.TripID = tripID
		step.Order = next.Order(id)
		created, err = r.Steps.Create(ctx, step)
		return err
	})
	if err != nil {
		return domain.Step{}, fmt.Errorf("service.StepService.%s: %w", op, err)
	}
	return created, nil
}

// GetByID returns a step the caller may access.
func (s *StepService) GetByID(ctx context.Context, id uuid.UUID) (domain.Step, error) {
	step, err := s.repos.Steps.GetByID(ctx, id)
	if err != nil {
		return domain.Step{}, fmt.Errorf("service.StepService.GetByID: %w", err)
	}
	if err := s.authorizeTrip(ctx, step.TripID); err != nil {
		return domain.Step{}, fmt.Errorf("service.StepService.GetByID: %w", err)
	}
	return step, nil
}

// ListByTrip returns the steps of a trip in order.
func (s *StepService) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Step, error) {
	if err := s.authorizeTrip(ctx, tripID); err != nil {
		return nil, fmt.Errorf("service.StepService.ListByTrip: %w", err)
	}
	steps, err := s.repos.Steps.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.StepService.ListByTrip: %w", err)
	}
	if steps == nil {
		steps = []domain.Step{}
	}
	return steps, nil
}

// Update applies patch to a step under the trip lock. Order is never
// changed here.
func (s *StepService) Update(ctx context.Context, id uuid.UUID, patch domain.StepPatch) (domain.Step, error) {
	var updated domain.Step
	err := s.uow.Do(ctx, func(r repo.Repos) error {
		step, err := r.Steps.GetByID(ctx, id)
		if err != nil {
			return err
		}
		trip, err := r.Trips.LockByID(ctx, step.TripID)
		if err != nil {
			return err
		}
		if _, err := authorize(ctx, trip.UserID); err != nil {
			return err
		}

		step = normalizeStep(patch.Apply(step))
		if err := validateStep(step); err != nil {
			return err
		}
		updated, err = r.Steps.Update(ctx, step)
		return err
	})
	if err != nil {
		return domain.Step{}, fmt.Errorf("service.StepService.Update: %w", err)
	}
	return updated, nil
}

// MoveToEnd moves a step after every other step of its trip.
func (s *StepService) MoveToEnd(ctx context.Context, id uuid.UUID) (domain.Step, error) {
	return s.move(ctx, "MoveToEnd", id, itinerary.End())
}

// MoveBefore moves a step immediately before target.
func (s *StepService) MoveBefore(ctx context.Context, id, targetID uuid.UUID) (domain.Step, error) {
	return s.move(ctx, "MoveBefore", id, itinerary.Before(targetID))
}

// MoveAfter moves a step immediately after target.
func (s *StepService) MoveAfter(ctx context.Context, id, targetID uuid.UUID) (domain.Step, error) {
	return s.move(ctx, "MoveAfter", id, itinerary.After(targetID))
}

// move relocates a step. Travels whose endpoints stop being adjacent are
// deleted; moving a step to where it already is changes nothing.
func (s *StepService) move(ctx context.Context, op string, id uuid.UUID, pos itinerary.Position) (domain.Step, error) {
	if target, ok := pos.Target(); ok && target == id {
		return domain.Step{}, domain.Invalid("target_step_id", domain.CodeSameStep, "a step cannot be moved relative to itself")
	}

	var moved domain.Step
	err := s.uow.Do(ctx, func(r repo.Repos) error {
		step, err := r.Steps.GetByID(ctx, id)
		if err != nil {
			return err
		}
		trip, err := r.Trips.LockByID(ctx, step.TripID)
		if err != nil {
			return err
		}
		if _, err := authorize(ctx, trip.UserID); err != nil {
			return err
		}
		if target, ok := pos.Target(); ok {
			if err := checkTarget(ctx, r, trip.ID, target); err != nil {
				return err
			}
		}

		steps, travels, err := loadItinerary(ctx, r, trip.ID)
		if err != nil {
			return err
		}
		seq := itinerary.FromSteps(steps)
		next, err := itinerary.Move(seq, id, pos)
		if err != nil {
			return mapItineraryError(err)
		}
		if err := applyPlan(ctx, r, itinerary.Diff(seq, next, itinerary.EdgesOf(travels))); err != nil {
			return err
		}

		moved = step
		moved.Order = next.Order(id)
		return nil
	})
	if err != nil {
		return domain.Step{}, fmt.Errorf("service.StepService.%s: %w", op, err)
	}
	return moved, nil
}

// Delete removes a step, the travels touching it, and closes the gap in the
// orders of the steps that followed it.
func (s *StepService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.uow.Do(ctx, func(r repo.Repos) error {
		step, err := r.Steps.GetByID(ctx, id)
		if err != nil {
			return err
		}
		trip, err := r.Trips.LockByID(ctx, step.TripID)
		if err != nil {
			return err
		}
		if _, err := authorize(ctx, trip.UserID); err != nil {
			return err
		}

		steps, travels, err := loadItinerary(ctx, r, trip.ID)
		if err != nil {
			return err
		}
		seq := itinerary.FromSteps(steps)
		next, err := itinerary.Remove(seq, id)
		if err != nil {
			return mapItineraryError(err)
		}
		plan := itinerary.Diff(seq, next, itinerary.EdgesOf(travels))

		// Severed travels go first: deleting the step cascades to the ones
		// touching it, which would make DeleteIDs miss them.
		if err := r.Travels.DeleteIDs(ctx, plan.Severed); err != nil {
			return err
		}
		if err := r.Steps.Delete(ctx, id); err != nil {
			return err
		}
		return r.Steps.SetOrders(ctx, plan.Renumber)
	})
	if err != nil {
		return fmt.Errorf("service.StepService.Delete: %w", err)
	}
	return nil
}

func (s *StepService) authorizeTrip(ctx context.Context, tripID uuid.UUID) error {
	trip, err := s.repos.Trips.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	_, err = authorize(ctx, trip.UserID)
	return err
}

func loadItinerary(ctx context.Context, r repo.Repos, tripID uuid.UUID) ([]domain.Step, []domain.Travel, error) {
	steps, err := r.Steps.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, nil, err
	}
	travels, err := r.Travels.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, nil, err
	}
	return steps, travels, nil
}

// checkTarget resolves the reference step of a relative position.
func checkTarget(ctx context.Context, r repo.Repos, tripID, targetID uuid.UUID) error {
	target, err := r.Steps.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target.TripID != tripID {
		return domain.Invalid("target_step_id", domain.CodeStepsNotInSameTrip, "target step belongs to another trip")
	}
	return nil
}

func applyPlan(ctx context.Context, r repo.Repos, plan itinerary.Plan) error {
	if plan.Empty() {
		return nil
	}
	if err := r.Travels.DeleteIDs(ctx, plan.Severed); err != nil {
		return err
	}
	return r.Steps.SetOrders(ctx, plan.Renumber)
}

func mapItineraryError(err error) error {
	switch {
	case errors.Is(err, itinerary.ErrSameStep):
		return domain.Invalid("target_step_id", domain.CodeSameStep, "a step cannot be positioned relative to itself")
	case errors.Is(err, itinerary.ErrUnknownStep), errors.Is(err, itinerary.ErrUnknownTarget):
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	default:
		return err
	}
}

func normalizeStep(s domain.Step) domain.Step {
	s.Name = strings.TrimSpace(s.Name)
	s.Description = strings.TrimSpace(s.Description)
	return s
}

func validateStep(s domain.Step) error {
	var v domain.ValidationError
	checkLength(&v, "name", s.Name, domain.StepNameMin, domain.StepNameMax)
	if utf8.RuneCountInString(s.Description) > domain.StepDescriptionMax {
		v.Add("description", domain.CodeTooLong, fmt.Sprintf("description must be at most %d characters", domain.StepDescriptionMax))
	}
	if s.Latitude < -90 || s.Latitude > 90 {
		v.Add("latitude", domain.CodeOutOfRange, "latitude must be between -90 and 90")
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		v.Add("longitude", domain.CodeOutOfRange, "longitude must be between -180 and 180")
	}
	if s.StartAt != nil && s.EndAt != nil && s.EndAt.Before(*s.StartAt) {
		v.Add("end_at", domain.CodeBeforeStart, "end_at must be on or after start_at")
	}
	return v.Err()
}
