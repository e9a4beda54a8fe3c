package repo_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/atob/internal/domain"
	"github.com/pkordes/atob/internal/repo"
	"github.com/pkordes/atob/testutil"
)

// newTestRepos binds every repository to a fresh rolled-back transaction.
func newTestRepos(t *testing.T) repo.Repos {
	t.Helper()
	return repo.NewRepos(testutil.BeginTx(t))
}

func mustCreateUser(t *testing.T, r repo.UserRepo) domain.User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	u, err := r.Create(context.Background(), domain.User{
		Username:     "traveller-" + suffix,
		Email:        fmt.Sprintf("traveller-%s@example.com", suffix),
		PasswordHash: "$2a$10$hash",
		Roles:        []domain.Role{domain.RoleUser},
	})
	require.NoError(t, err, "create user")
	return u
}

func tripFixture(userID uuid.UUID) domain.Trip {
	return domain.Trip{
		UserID:      userID,
		Name:        "Tour de France",
		Description: "Paris to Marseille by train",
		StartDate:   time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC),
	}
}

func mustCreateTrip(t *testing.T, rs repo.Repos) domain.Trip {
	t.Helper()
	user := mustCreateUser(t, rs.Users)
	trip, err := rs.Trips.Create(context.Background(), tripFixture(user.ID))
	require.NoError(t, err, "create trip")
	return trip
}

// mustCreateSteps appends n steps with orders 1..n to the trip.
func mustCreateSteps(t *testing.T, r repo.StepRepo, tripID uuid.UUID, n int) []domain.Step {
	t.Helper()
	steps := make([]domain.Step, n)
	for i := range n {
		s, err := r.Create(context.Background(), domain.Step{
			ID:        uuid.New(),
			TripID:    tripID,
			Order:     i + 1,
			Name:      fmt.Sprintf("Step %d", i+1),
			Latitude:  48.85 - float64(i),
			Longitude: 2.35 + float64(i)/2,
		})
		require.NoError(t, err, "create step %d", i+1)
		steps[i] = s
	}
	return steps
}
