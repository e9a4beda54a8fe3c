// Package service contains the business logic of the API.
// Services validate inputs, enforce ownership and business rules, and
// orchestrate repo calls. No SQL lives here: services depend on repo
// interfaces and run multi-step writes through a repo.UnitOfWork.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/atob/internal/domain"
)

// Clock returns the current time. Tests replace it to pin "today".
type Clock func() time.Time

func clockOrNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// actorFrom returns the authenticated caller or domain.ErrUnauthorized.
func actorFrom(ctx context.Context) (domain.Actor, error) {
	a, ok := domain.ActorFromContext(ctx)
	if !ok || a.UserID == uuid.Nil {
		return domain.Actor{}, fmt.Errorf("%w: authentication required", domain.ErrUnauthorized)
	}
	return a, nil
}

// authorize returns domain.ErrForbidden unless the caller owns the resource
// or is an administrator.
func authorize(ctx context.Context, ownerID uuid.UUID) (domain.Actor, error) {
	a, err := actorFrom(ctx)
	if err != nil {
		return domain.Actor{}, err
	}
	if !a.CanAccess(ownerID) {
		return domain.Actor{}, domain.ErrForbidden
	}
	return a, nil
}

// requireAdmin returns domain.ErrForbidden for non-administrators.
func requireAdmin(ctx context.Context) error {
	a, err := actorFrom(ctx)
	if err != nil {
		return err
	}
	if !a.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

// dateOnly truncates t to midnight UTC of its UTC calendar day.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
