package domain

import (
	"context"
	"slices"

	"github.com/google/uuid"
)

// Actor is the authenticated caller of a request.
type Actor struct {
	UserID   uuid.UUID
	Username string
	Email    string
	Roles    []Role
}

// IsAdmin reports whether the actor holds the Admin role.
func (a Actor) IsAdmin() bool {
	return slices.Contains(a.Roles, RoleAdmin)
}

// CanAccess reports whether the actor may read or modify a resource owned by
// ownerID.
func (a Actor) CanAccess(ownerID uuid.UUID) bool {
	return a.UserID == ownerID || a.IsAdmin()
}

type actorKey struct{}

// WithActor returns a copy of ctx carrying a.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext returns the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
