package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/atob/internal/domain"
)

func TestTestimonialRepo_Lifecycle(t *testing.T) {
	rs := newTestRepos(t)
	ctx := context.Background()
	user := mustCreateUser(t, rs.Users)

	created, err := rs.Testimonials.Create(ctx, domain.Testimonial{
		UserID:   user.ID,
		Feedback: "Planning our honeymoon was a breeze.",
		Rate:     5,
		Date:     time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, user.Username, created.Username)
	assert.Equal(t, 5, created.Rate)

	got, err := rs.Testimonials.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Feedback, got.Feedback)

	list, total, err := rs.Testimonials.List(ctx, domain.NewPaginationParams(nil, nil))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, int64(1))
	assert.NotEmpty(t, list)

	require.NoError(t, rs.Testimonials.Delete(ctx, created.ID))
	_, err = rs.Testimonials.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
