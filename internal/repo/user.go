package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/atob/internal/domain"
)

// UserRepo defines the persistence operations for user accounts.
// Username and email lookups are case-insensitive.
type UserRepo interface {
	// Create inserts a new user. Returns domain.ErrConflict when the username
	// or email is already taken.
	Create(ctx context.Context, user domain.User) (domain.User, error)

	// GetByID returns domain.ErrNotFound if no user has that ID.
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)

	// GetByEmail returns domain.ErrNotFound if no user has that email.
	GetByEmail(ctx context.Context, email string) (domain.User, error)

	// GetByLogin resolves either an email or a username. An email match
	// wins over a username match.
	GetByLogin(ctx context.Context, login string) (domain.User, error)

	// Update overwrites every mutable column of the user.
	Update(ctx context.Context, user domain.User) (domain.User, error)

	// RecordFailedLogin counts one wrong password in a single statement.
	// The failure that reaches maxFailures restarts the counter and locks the
	// account until lockUntil. No other column is written.
	RecordFailedLogin(ctx context.Context, id uuid.UUID, maxFailures int, lockUntil time.Time) (domain.User, error)

	// ClearFailedLogins zeroes the counter and lifts any lockout.
	ClearFailedLogins(ctx context.Context, id uuid.UUID) (domain.User, error)

	// Count returns the number of registered users.
	Count(ctx context.Context) (int64, error)
}

type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

const userColumns = `id, username, email, password_hash, email_confirmed, roles,
	security_stamp, failed_logins, lockout_end, created_at, updated_at`

func (r *pgUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	q := `
		INSERT INTO users (username, email, password_hash, email_confirmed, roles, security_stamp)
		VALUES (@username, @email, @password_hash, @email_confirmed, @roles, @security_stamp)
		RETURNING ` + userColumns

	stamp := user.SecurityStamp
	if stamp == uuid.Nil {
		stamp = uuid.New()
	}
	args := pgx.NamedArgs{
		"username":        user.Username,
		"email":           user.Email,
		"password_hash":   user.PasswordHash,
		"email_confirmed": user.EmailConfirmed,
		"roles":           rolesToText(user.Roles),
		"security_stamp":  stamp,
	}

	result, err := scanUser(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.Create: %w", mapWriteError(err))
	}
	return result, nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = @id`

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower(@email)`

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"email": email}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByEmail: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) GetByLogin(ctx context.Context, login string) (domain.User, error) {
	q := `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(email) = lower(@login) OR lower(username) = lower(@login)
		ORDER BY (lower(email) = lower(@login)) DESC
		LIMIT 1`

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"login": login}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByLogin: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) Update(ctx context.Context, user domain.User) (domain.User, error) {
	q := `
		UPDATE users
		SET username        = @username,
		    email           = @email,
		    password_hash   = @password_hash,
		    email_confirmed = @email_confirmed,
		    roles           = @roles,
		    security_stamp  = @security_stamp,
		    failed_logins   = @failed_logins,
		    lockout_end     = @lockout_end,
		    updated_at      = now()
		WHERE id = @id
		RETURNING ` + userColumns

	args := pgx.NamedArgs{
		"id":              user.ID,
		"username":        user.Username,
		"email":           user.Email,
		"password_hash":   user.PasswordHash,
		"email_confirmed": user.EmailConfirmed,
		"roles":           rolesToText(user.Roles),
		"security_stamp":  user.SecurityStamp,
		"failed_logins":   user.FailedLogins,
		"lockout_end":     user.LockoutEnd,
	}

	result, err := scanUser(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.Update: %w", mapWriteError(err))
	}
	return result, nil
}

func (r *pgUserRepo) RecordFailedLogin(ctx context.Context, id uuid.UUID, maxFailures int, lockUntil time.Time) (domain.User, error) {
	q := `
		UPDATE users
		SET failed_logins = CASE WHEN failed_logins + 1 >= @max THEN 0 ELSE failed_logins + 1 END,
		    lockout_end   = CASE WHEN failed_logins + 1 >= @max THEN @lock_until::timestamptz ELSE lockout_end END,
		    updated_at    = now()
		WHERE id = @id
		RETURNING ` + userColumns

	args := pgx.NamedArgs{"id": id, "max": maxFailures, "lock_until": lockUntil}

	result, err := scanUser(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.RecordFailedLogin: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) ClearFailedLogins(ctx context.Context, id uuid.UUID) (domain.User, error) {
	q := `
		UPDATE users
		SET failed_logins = 0,
		    lockout_end   = NULL,
		    updated_at    = now()
		WHERE id = @id
		RETURNING ` + userColumns

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.ClearFailedLogins: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) Count(ctx context.Context) (int64, error) {
	n, err := count(ctx, r.db, `SELECT count(*) FROM users`, nil)
	if err != nil {
		return 0, fmt.Errorf("repo.UserRepo.Count: %w", err)
	}
	return n, nil
}

func scanUser(s scanner) (domain.User, error) {
	var (
		u     domain.User
		id    pgtype.UUID
		stamp pgtype.UUID
		roles []string
	)

	err := s.Scan(&id, &u.Username, &u.Email, &u.PasswordHash, &u.EmailConfirmed, &roles,
		&stamp, &u.FailedLogins, &u.LockoutEnd, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, mapReadError(err)
	}

	u.ID = fromPgUUID(id)
	u.SecurityStamp = fromPgUUID(stamp)
	u.Roles = make([]domain.Role, len(roles))
	for i, role := range roles {
		u.Roles[i] = domain.Role(role)
	}
	return u, nil
}

func rolesToText(roles []domain.Role) []string {
	out := make([]string, len(roles))
	for i, role := range roles {
		out[i] = string(role)
	}
	return out
}
