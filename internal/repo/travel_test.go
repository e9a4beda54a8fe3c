package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/atob/internal/domain"
	"github.com/pkordes/atob/internal/repo"
)

func travelFixture(trip domain.Trip, from, to domain.Step) domain.Travel {
	co2 := 1200
	return domain.Travel{
		TripID:            trip.ID,
		OriginStepID:      from.ID,
		DestinationStepID: to.ID,
		TransportMode:     "train",
		Distance:          392000,
		Duration:          7200,
		CarbonEmission:    &co2,
		Route:             orb.LineString{{from.Longitude, from.Latitude}, {to.Longitude, to.Latitude}},
	}
}

func setupTravelTrip(t *testing.T) (repo.Repos, domain.Trip, []domain.Step) {
	t.Helper()
	rs := newTestRepos(t)
	trip := mustCreateTrip(t, rs)
	return rs, trip, mustCreateSteps(t, rs.Steps, trip.ID, 3)
}

func TestTravelRepo_CreateAndGet(t *testing.T) {
	rs, trip, steps := setupTravelTrip(t)
	ctx := context.Background()

	created, err := rs.Travels.Create(ctx, travelFixture(trip, steps[0], steps[1]))
	require.NoError(t, err)

	got, err := rs.Travels.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "train", got.TransportMode)
	assert.Equal(t, steps[0].ID, got.OriginStepID)
	assert.Equal(t, steps[1].ID, got.DestinationStepID)
	require.NotNil(t, got.CarbonEmission)
	assert.Equal(t, 1200, *got.CarbonEmission)
	assert.Len(t, got.Route, 2, "route round-trips through jsonb")
	assert.InDelta(t, steps[1].Latitude, got.Route[1].Lat(), 1e-9)
}

func TestTravelRepo_Create_SecondTravelFromOriginConflicts(t *testing.T) {
	rs, trip, steps := setupTravelTrip(t)
	ctx := context.Background()

	_, err := rs.Travels.Create(ctx, travelFixture(trip, steps[0], steps[1]))
	require.NoError(t, err)

	_, err = rs.Travels.Create(ctx, travelFixture(trip, steps[0], steps[2]))

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestTravelRepo_ListByTrip_OrderedByOrigin(t *testing.T) {
	rs, trip, steps := setupTravelTrip(t)
	ctx := context.Background()

	_, err := rs.Travels.Create(ctx, travelFixture(trip, steps[1], steps[2]))
	require.NoError(t, err)
	_, err = rs.Travels.Create(ctx, travelFixture(trip, steps[0], steps[1]))
	require.NoError(t, err)

	travels, err := rs.Travels.ListByTrip(ctx, trip.ID)

	require.NoError(t, err)
	require.Len(t, travels, 2)
	assert.Equal(t, steps[0].ID, travels[0].OriginStepID)
	assert.Equal(t, steps[1].ID, travels[1].OriginStepID)
}

func TestTravelRepo_DeleteTouching(t *testing.T) {
	rs, trip, steps := setupTravelTrip(t)
	ctx := context.Background()

	_, err := rs.Travels.Create(ctx, travelFixture(trip, steps[0], steps[1]))
	require.NoError(t, err)
	_, err = rs.Travels.Create(ctx, travelFixture(trip, steps[1], steps[2]))
	require.NoError(t, err)

	// Both travels touch step 1: one leaves it, one arrives at it.
	n, err := rs.Travels.DeleteTouching(ctx, steps[1].ID, steps[1].ID)

	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestTravelRepo_DeleteIDs(t *testing.T) {
	rs, trip, steps := setupTravelTrip(t)
	ctx := context.Background()

	tr, err := rs.Travels.Create(ctx, travelFixture(trip, steps[0], steps[1]))
	require.NoError(t, err)

	require.NoError(t, rs.Travels.DeleteIDs(ctx, []uuid.UUID{tr.ID}))
	require.NoError(t, rs.Travels.DeleteIDs(ctx, nil))

	_, err = rs.Travels.GetByID(ctx, tr.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTravelRepo_DeletedWithStep(t *testing.T) {
	rs, trip, steps := setupTravelTrip(t)
	ctx := context.Background()

	tr, err := rs.Travels.Create(ctx, travelFixture(trip, steps[0], steps[1]))
	require.NoError(t, err)
	require.NoError(t, rs.Steps.Delete(ctx, steps[1].ID))

	assert.ErrorIs(t, rs.Travels.Delete(ctx, tr.ID), domain.ErrNotFound)
}
