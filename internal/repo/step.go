package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/atob/internal/domain"
)

// StepRepo defines the persistence operations for Steps.
// Ordering decisions are made by the caller; the repo only stores orders.
type StepRepo interface {
	// Create inserts a step with the ID and Order set by the caller.
	Create(ctx context.Context, step domain.Step) (domain.Step, error)

	// GetByID returns domain.ErrNotFound if no step has that ID.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Step, error)

	// ListByTrip returns a trip's steps ordered by step order.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Step, error)

	// Update overwrites name, description, coordinates and dates.
	// The order is left untouched.
	Update(ctx context.Context, step domain.Step) (domain.Step, error)

	// SetOrders writes new orders for the given steps. Uniqueness of
	// (trip, order) is checked when the transaction commits.
	SetOrders(ctx context.Context, orders map[uuid.UUID]int) error

	// Delete removes a step and, through the foreign keys, any travel
	// touching it. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgStepRepo struct {
	db db
}

// NewStepRepo constructs a StepRepo backed by the provided db connection.
func NewStepRepo(db db) StepRepo {
	return &pgStepRepo{db: db}
}

const stepColumns = `id, trip_id, step_order, name, description, latitude, longitude,
	start_at, end_at, created_at, updated_at`

func (r *pgStepRepo) Create(ctx context.Context, step domain.Step) (domain.Step, error) {
	q := `
		INSERT INTO steps (id, trip_id, step_order, name, description, latitude, longitude, start_at, end_at)
		VALUES (@id, @trip_id, @step_order, @name, @description, @latitude, @longitude, @start_at, @end_at)
		RETURNING ` + stepColumns

	id := step.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	args := pgx.NamedArgs{
		"id":          id,
		"trip_id":     step.TripID,
		"step_order":  step.Order,
		"name":        step.Name,
		"description": step.Description,
		"latitude":    step.Latitude,
		"longitude":   step.Longitude,
		"start_at":    step.StartAt,
		"end_at":      step.EndAt,
	}

	result, err := scanStep(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Step{}, fmt.Errorf("repo.StepRepo.Create: %w", mapWriteError(err))
	}
	return result, nil
}

func (r *pgStepRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Step, error) {
	q := `SELECT ` + stepColumns + ` FROM steps WHERE id = @id`

	result, err := scanStep(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Step{}, fmt.Errorf("repo.StepRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgStepRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Step, error) {
	q := `SELECT ` + stepColumns + ` FROM steps WHERE trip_id = @trip_id ORDER BY step_order`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.StepRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	var steps []domain.Step
	for rows.Next() {
		s, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.StepRepo.ListByTrip: scan: %w", err)
		}
		steps = append(steps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.StepRepo.ListByTrip: rows: %w", err)
	}
	return steps, nil
}

func (r *pgStepRepo) Update(ctx context.Context, step domain.Step) (domain.Step, error) {
	q := `
		UPDATE steps
		SET name        = @name,
		    description = @description,
		    latitude    = @latitude,
		    longitude   = @longitude,
		    start_at    = @start_at,
		    end_at      = @end_at,
		    updated_at  = now()
		WHERE id = @id
		RETURNING ` + stepColumns

	args := pgx.NamedArgs{
		"id":          step.ID,
		"name":        step.Name,
		"description": step.Description,
		"latitude":    step.Latitude,
		"longitude":   step.Longitude,
		"start_at":    step.StartAt,
		"end_at":      step.EndAt,
	}

	result, err := scanStep(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Step{}, fmt.Errorf("repo.StepRepo.Update: %w", mapWriteError(err))
	}
	return result, nil
}

func (r *pgStepRepo) SetOrders(ctx context.Context, orders map[uuid.UUID]int) error {
	const q = `UPDATE steps SET step_order = @step_order, updated_at = now() WHERE id = @id`

	argSets := make([]pgx.NamedArgs, 0, len(orders))
	for id, order := range orders {
		argSets = append(argSets, pgx.NamedArgs{"id": id, "step_order": order})
	}
	if err := execBatch(ctx, r.db, q, argSets); err != nil {
		return fmt.Errorf("repo.StepRepo.SetOrders: %w", err)
	}
	return nil
}

func (r *pgStepRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM steps WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.StepRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.StepRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanStep(s scanner) (domain.Step, error) {
	var (
		st     domain.Step
		id     pgtype.UUID
		tripID pgtype.UUID
	)

	err := s.Scan(&id, &tripID, &st.Order, &st.Name, &st.Description, &st.Latitude, &st.Longitude,
		&st.StartAt, &st.EndAt, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return domain.Step{}, mapReadError(err)
	}

	st.ID = fromPgUUID(id)
	st.TripID = fromPgUUID(tripID)
	return st, nil
}
