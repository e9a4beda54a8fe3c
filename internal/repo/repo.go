// Package repo contains all database access logic for the A-to-B API.
// Each resource has its own file with an interface and a Postgres
// implementation. No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/atob/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
// Integration tests pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Postgres error codes the repos translate into domain sentinels.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// conflictMessages names the rule behind each unique constraint.
var conflictMessages = map[string]string{
	"users_username_key":      "username is already taken",
	"users_email_key":         "email is already registered",
	"trips_user_name_key":     "a trip with this name already exists",
	"steps_trip_order_key":    "step order is already in use",
	"travels_origin_key":      "a travel already leaves the origin step",
	"travels_destination_key": "a travel already arrives at the destination step",
}

// mapWriteError translates constraint violations into domain errors.
// Any other error is returned unchanged.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		msg, ok := conflictMessages[pgErr.ConstraintName]
		if !ok {
			msg = "resource already exists"
		}
		return fmt.Errorf("%w: %s", domain.ErrConflict, msg)
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: referenced resource does not exist", domain.ErrNotFound)
	case pgCheckViolation:
		return fmt.Errorf("%w: %s", domain.ErrValidation, pgErr.ConstraintName)
	}
	return err
}

// mapReadError turns pgx.ErrNoRows into domain.ErrNotFound.
func mapReadError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func fromPgUUID(id pgtype.UUID) uuid.UUID {
	return uuid.UUID(id.Bytes)
}

// count runs a SELECT count(*) query.
func count(ctx context.Context, db db, q string, args pgx.NamedArgs) (int64, error) {
	var row pgx.Row
	if args == nil {
		row = db.QueryRow(ctx, q)
	} else {
		row = db.QueryRow(ctx, q, args)
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// execBatch sends one statement per argument set and requires each to touch
// exactly one row.
func execBatch(ctx context.Context, db db, q string, argSets []pgx.NamedArgs) error {
	if len(argSets) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, args := range argSets {
		batch.Queue(q, args)
	}
	results := db.SendBatch(ctx, batch)
	defer results.Close()

	for range argSets {
		tag, err := results.Exec()
		if err != nil {
			return mapWriteError(err)
		}
		if tag.RowsAffected() != 1 {
			return domain.ErrNotFound
		}
	}
	return results.Close()
}
