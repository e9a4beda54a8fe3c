package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/paulmach/orb"

	"github.com/pkordes/atob/internal/domain"
)

// TravelRepo defines the persistence operations for Travels.
type TravelRepo interface {
	// Create inserts a travel. Returns domain.ErrConflict if a travel already
	// leaves the origin or arrives at the destination.
	Create(ctx context.Context, travel domain.Travel) (domain.Travel, error)

	// GetByID returns domain.ErrNotFound if no travel has that ID.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Travel, error)

	// ListByTrip returns a trip's travels ordered by their origin step.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Travel, error)

	// DeleteTouching removes any travel leaving origin or arriving at
	// destination and returns how many were removed.
	DeleteTouching(ctx context.Context, originID, destinationID uuid.UUID) (int64, error)

	// DeleteIDs removes the given travels. Every ID must exist.
	DeleteIDs(ctx context.Context, ids []uuid.UUID) error

	// Delete returns domain.ErrNotFound if the travel does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgTravelRepo struct {
	db db
}

// NewTravelRepo constructs a TravelRepo backed by the provided db connection.
func NewTravelRepo(db db) TravelRepo {
	return &pgTravelRepo{db: db}
}

const travelColumns = `t.id, t.trip_id, t.origin_step_id, t.destination_step_id, t.transport_mode,
	t.distance_m, t.duration_s, t.carbon_emission_g, t.route, t.created_at`

func (r *pgTravelRepo) Create(ctx context.Context, travel domain.Travel) (domain.Travel, error) {
	q := `
		INSERT INTO travels AS t (trip_id, origin_step_id, destination_step_id, transport_mode,
		                          distance_m, duration_s, carbon_emission_g, route)
		VALUES (@trip_id, @origin_step_id, @destination_step_id, @transport_mode,
		        @distance_m, @duration_s, @carbon_emission_g, @route)
		RETURNING ` + travelColumns

	route, err := encodeRoute(travel.Route)
	if err != nil {
		return domain.Travel{}, fmt.Errorf("repo.TravelRepo.Create: %w", err)
	}
	args := pgx.NamedArgs{
		"trip_id":             travel.TripID,
		"origin_step_id":      travel.OriginStepID,
		"destination_step_id": travel.DestinationStepID,
		"transport_mode":      travel.TransportMode,
		"distance_m":          travel.Distance,
		"duration_s":          travel.Duration,
		"carbon_emission_g":   travel.CarbonEmission,
		"route":               route,
	}

	result, err := scanTravel(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Travel{}, fmt.Errorf("repo.TravelRepo.Create: %w", mapWriteError(err))
	}
	return result, nil
}

func (r *pgTravelRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Travel, error) {
	q := `SELECT ` + travelColumns + ` FROM travels t WHERE t.id = @id`

	result, err := scanTravel(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Travel{}, fmt.Errorf("repo.TravelRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgTravelRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Travel, error) {
	q := `
		SELECT ` + travelColumns + `
		FROM travels t
		JOIN steps o ON o.id = t.origin_step_id
		WHERE t.trip_id = @trip_id
		ORDER BY o.step_order`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.TravelRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	var travels []domain.Travel
	for rows.Next() {
		t, err := scanTravel(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TravelRepo.ListByTrip: scan: %w", err)
		}
		travels = append(travels, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TravelRepo.ListByTrip: rows: %w", err)
	}
	return travels, nil
}

func (r *pgTravelRepo) DeleteTouching(ctx context.Context, originID, destinationID uuid.UUID) (int64, error) {
	const q = `
		DELETE FROM travels
		WHERE origin_step_id = @origin OR destination_step_id = @destination`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"origin": originID, "destination": destinationID})
	if err != nil {
		return 0, fmt.Errorf("repo.TravelRepo.DeleteTouching: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgTravelRepo) DeleteIDs(ctx context.Context, ids []uuid.UUID) error {
	const q = `DELETE FROM travels WHERE id = @id`

	argSets := make([]pgx.NamedArgs, len(ids))
	for i, id := range ids {
		argSets[i] = pgx.NamedArgs{"id": id}
	}
	if err := execBatch(ctx, r.db, q, argSets); err != nil {
		return fmt.Errorf("repo.TravelRepo.DeleteIDs: %w", err)
	}
	return nil
}

func (r *pgTravelRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM travels WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TravelRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TravelRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// encodeRoute renders the route as a JSON array of [lon, lat] pairs.
func encodeRoute(route orb.LineString) ([]byte, error) {
	if route == nil {
		route = orb.LineString{}
	}
	return json.Marshal(route)
}

func scanTravel(s scanner) (domain.Travel, error) {
	var (
		t       domain.Travel
		id      pgtype.UUID
		tripID  pgtype.UUID
		origin  pgtype.UUID
		dest    pgtype.UUID
		rawPath []byte
	)

	err := s.Scan(&id, &tripID, &origin, &dest, &t.TransportMode,
		&t.Distance, &t.Duration, &t.CarbonEmission, &rawPath, &t.CreatedAt)
	if err != nil {
		return domain.Travel{}, mapReadError(err)
	}

	t.ID = fromPgUUID(id)
	t.TripID = fromPgUUID(tripID)
	t.OriginStepID = fromPgUUID(origin)
	t.DestinationStepID = fromPgUUID(dest)
	if len(rawPath) > 0 {
		if err := json.Unmarshal(rawPath, &t.Route); err != nil {
			return domain.Travel{}, fmt.Errorf("decode route: %w", err)
		}
	}
	return t, nil
}
