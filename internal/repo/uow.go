package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Repos groups every repository bound to the same connection or transaction.
type Repos struct {
	Users        UserRepo
	Trips        TripRepo
	Steps        StepRepo
	Travels      TravelRepo
	Testimonials TestimonialRepo
}

// NewRepos binds all repositories to db.
func NewRepos(db db) Repos {
	return Repos{
		Users:        NewUserRepo(db),
		Trips:        NewTripRepo(db),
		Steps:        NewStepRepo(db),
		Travels:      NewTravelRepo(db),
		Testimonials: NewTestimonialRepo(db),
	}
}

// UnitOfWork runs a function against repositories that share one transaction.
type UnitOfWork interface {
	// Do commits when fn returns nil and rolls back otherwise. The error
	// returned by fn is passed through unchanged.
	Do(ctx context.Context, fn func(r Repos) error) error
}

// Beginner starts a transaction. *pgxpool.Pool satisfies it, and so does
// pgx.Tx (as a savepoint), which lets tests nest a unit of work inside a
// rolled-back test transaction.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type pgUnitOfWork struct {
	conn Beginner
}

// NewUnitOfWork constructs a UnitOfWork that opens transactions on conn.
func NewUnitOfWork(conn Beginner) UnitOfWork {
	return &pgUnitOfWork{conn: conn}
}

func (u *pgUnitOfWork) Do(ctx context.Context, fn func(r Repos) error) error {
	tx, err := u.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.UnitOfWork.Do: begin: %w", err)
	}
	// Rollback after a successful commit is a no-op.
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.UnitOfWork.Do: commit: %w", mapWriteError(err))
	}
	return nil
}
