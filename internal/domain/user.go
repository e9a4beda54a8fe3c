package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Role is an authorization role carried in access tokens.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// User is a registered account.
// SecurityStamp changes whenever credentials change; purpose tokens issued
// against an older stamp stop verifying.
type User struct {
	ID             uuid.UUID
	Username       string
	Email          string
	PasswordHash   string
	EmailConfirmed bool
	Roles          []Role
	SecurityStamp  uuid.UUID
	FailedLogins   int
	LockoutEnd     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasRole reports whether the user holds role r.
func (u User) HasRole(r Role) bool {
	return slices.Contains(u.Roles, r)
}

// LockedOut reports whether the lockout window is still open at now.
func (u User) LockedOut(now time.Time) bool {
	return u.LockoutEnd != nil && now.Before(*u.LockoutEnd)
}

// Account limits.
const (
	UsernameMin       = 3
	UsernameMax       = 50
	PasswordMin       = 8
	PasswordUniqueMin = 4
	MaxFailedLogins   = 5
	LockoutDuration   = 60 * time.Minute
)

// ContactRequest is a message from a visitor to the support mailbox.
type ContactRequest struct {
	Name        string
	Email       string
	Subject     string
	Body        string
	CopyToOwner bool
}
