// Package seed fills an empty database with an administrator, demo
// accounts and a couple of demo trips. It backs `atobctl seed`.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/pkordes/atob/internal/domain"
	"github.com/pkordes/atob/internal/itinerary"
	"github.com/pkordes/atob/internal/repo"
	"github.com/pkordes/atob/internal/validate"
)

// truncateSQL empties every application table. users cascades to the rest.
const truncateSQL = `TRUNCATE users, trips, steps, travels, testimonials RESTART IDENTITY CASCADE`

// Hasher hashes the seeded passwords.
type Hasher interface {
	Hash(password string) (string, error)
}

// Execer runs the reset statement. *pgxpool.Pool satisfies it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Options configure a run.
type Options struct {
	AdminUsername string
	AdminEmail    string
	AdminPassword string
	// DemoPassword is shared by every demo account.
	DemoPassword string
	// Force empties the tables first instead of skipping a populated database.
	Force bool
}

// Result counts what a run created.
type Result struct {
	Skipped      bool
	Users        int
	Trips        int
	Steps        int
	Travels      int
	Testimonials int
}

// Seeder writes the seed data through the repositories.
type Seeder struct {
	uow    repo.UnitOfWork
	reset  Execer
	hasher Hasher
	now    func() time.Time
	log    *zap.Logger
}

// New constructs a Seeder. A nil clock means time.Now.
func New(uow repo.UnitOfWork, reset Execer, hasher Hasher, now func() time.Time, log *zap.Logger) *Seeder {
	if now == nil {
		now = time.Now
	}
	return &Seeder{uow: uow, reset: reset, hasher: hasher, now: now, log: log}
}

// Run seeds the database. Without Force a database that already has users
// is left untouched and the result is marked Skipped.
func (s *Seeder) Run(ctx context.Context, opts Options) (Result, error) {
	if err := checkOptions(opts); err != nil {
		return Result{}, err
	}
	if opts.Force {
		if _, err := s.reset.Exec(ctx, truncateSQL); err != nil {
			return Result{}, fmt.Errorf("seed.Run: reset: %w", err)
		}
		s.log.Warn("seed: all tables emptied")
	}

	var res Result
	err := s.uow.Do(ctx, func(r repo.Repos) error {
		n, err := r.Users.Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			res.Skipped = true
			return nil
		}
		return s.populate(ctx, r, opts, &res)
	})
	if err != nil {
		return Result{}, fmt.Errorf("seed.Run: %w", err)
	}
	if res.Skipped {
		s.log.Info("seed: database already has users, nothing to do")
		return res, nil
	}
	s.log.Info("seed: done",
		zap.Int("users", res.Users),
		zap.Int("trips", res.Trips),
		zap.Int("steps", res.Steps),
		zap.Int("travels", res.Travels),
		zap.Int("testimonials", res.Testimonials),
	)
	return res, nil
}

func checkOptions(opts Options) error {
	var v domain.ValidationError
	if !validate.ValidUsername(opts.AdminUsername) || len(opts.AdminUsername) < domain.UsernameMin {
		v.Add("admin_username", domain.CodeInvalidFormat, "admin username is invalid")
	}
	if !validate.Email(opts.AdminEmail) {
		v.Add("admin_email", domain.CodeInvalidFormat, "admin email must be a valid email address")
	}
	if err := validate.Password("admin_password", opts.AdminPassword); err != nil {
		v.Add("admin_password", domain.CodeWeakPassword, "admin password does not meet the password policy")
	}
	if err := validate.Password("demo_password", opts.DemoPassword); err != nil {
		v.Add("demo_password", domain.CodeWeakPassword, "demo password does not meet the password policy")
	}
	return v.Err()
}

type demoUser struct {
	username, email string
}

var demoUsers = []demoUser{
	{"marie.curie", "marie@demo.atob.local"},
	{"paul.martin", "paul@demo.atob.local"},
	{"rosa.bell", "rosa@demo.atob.local"},
}

type demoStep struct {
	name     string
	lat, lon float64
	// nights spent at the step.
	nights int
}

type demoLeg struct {
	mode     string
	duration time.Duration
	// grams of CO2 per kilometer.
	gramsPerKm float64
}

type demoTrip struct {
	name, description string
	// startsIn is the number of days from today to the first day.
	startsIn int
	steps    []demoStep
	legs     []demoLeg
}

var demoTrips = []demoTrip{
	{
		name:        "Alps by rail",
		description: "Lyon to Zermatt with a lake stop on the way.",
		startsIn:    30,
		steps: []demoStep{
			{"Lyon", 45.7640, 4.8357, 2},
			{"Annecy", 45.8992, 6.1294, 2},
			{"Geneva", 46.2044, 6.1432, 1},
			{"Zermatt", 46.0207, 7.7491, 3},
		},
		legs: []demoLeg{
			{"train", 2 * time.Hour, 14},
			{"bus", 1 * time.Hour, 27},
			{"train", 4 * time.Hour, 14},
		},
	},
	{
		name:        "Atlantic coast",
		description: "A slow drive down the French west coast.",
		startsIn:    60,
		steps: []demoStep{
			{"Nantes", 47.2184, -1.5536, 1},
			{"La Rochelle", 46.1603, -1.1511, 2},
			{"Bordeaux", 44.8378, -0.5792, 2},
			{"Biarritz", 43.4832, -1.5586, 3},
		},
		legs: []demoLeg{
			{"car", 2 * time.Hour, 120},
			{"car", 2*time.Hour + 30*time.Minute, 120},
			{"car", 2 * time.Hour, 120},
		},
	},
}

var demoFeedback = []struct {
	feedback string
	rate     int
}{
	{"Planning the whole rail loop took an evening, not a week.", 5},
	{"Reordering stops by dragging them around is exactly what I needed.", 4},
	{"Good overview of distances. I would love offline maps.", 4},
}

func (s *Seeder) populate(ctx context.Context, r repo.Repos, opts Options, res *Result) error {
	admin, err := s.createUser(ctx, r, opts.AdminUsername, opts.AdminEmail, opts.AdminPassword,
		domain.RoleAdmin, domain.RoleUser)
	if err != nil {
		return err
	}
	res.Users++

	users := make([]domain.User, 0, len(demoUsers))
	for _, du := range demoUsers {
		u, err := s.createUser(ctx, r, du.username, du.email, opts.DemoPassword, domain.RoleUser)
		if err != nil {
			return err
		}
		users = append(users, u)
		res.Users++
	}
	s.log.Debug("seed: users created", zap.String("admin_id", admin.ID.String()))

	today := dateOnly(s.now())
	for i, dt := range demoTrips {
		if err := s.createTrip(ctx, r, users[i%len(users)], dt, today, res); err != nil {
			return err
		}
	}

	for i, fb := range demoFeedback {
		_, err := r.Testimonials.Create(ctx, domain.Testimonial{
			UserID:   users[i%len(users)].ID,
			Feedback: fb.feedback,
			Rate:     fb.rate,
			Date:     today.AddDate(0, 0, -i),
		})
		if err != nil {
			return err
		}
		res.Testimonials++
	}
	return nil
}

func (s *Seeder) createUser(ctx context.Context, r repo.Repos, username, email, password string, roles ...domain.Role) (domain.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return domain.User{}, err
	}
	u, err := r.Users.Create(ctx, domain.User{
		Username:       username,
		Email:          email,
		PasswordHash:   hash,
		EmailConfirmed: true,
		Roles:          roles,
	})
	if errors.Is(err, domain.ErrConflict) {
		return domain.User{}, fmt.Errorf("user %q: %w", username, err)
	}
	return u, err
}

// createTrip stores a trip, its steps in order and a travel between each
// pair of consecutive steps. Step dates follow the nights spent at each.
func (s *Seeder) createTrip(ctx context.Context, r repo.Repos, owner domain.User, dt demoTrip, today time.Time, res *Result) error {
	start := today.AddDate(0, 0, dt.startsIn)
	nights := 0
	for _, st := range dt.steps {
		nights += st.nights
	}
	trip, err := r.Trips.Create(ctx, domain.Trip{
		UserID:      owner.ID,
		Name:        dt.name,
		Description: dt.description,
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, nights),
	})
	if err != nil {
		return err
	}
	res.Trips++

	steps := make([]domain.Step, 0, len(dt.steps))
	arrive := start.Add(12 * time.Hour)
	for i, ds := range dt.steps {
		at, leave := arrive, arrive.AddDate(0, 0, ds.nights)
		st, err := r.Steps.Create(ctx, domain.Step{
			TripID:    trip.ID,
			Order:     i + 1,
			Name:      ds.name,
			Latitude:  ds.lat,
			Longitude: ds.lon,
			StartAt:   &at,
			EndAt:     &leave,
		})
		if err != nil {
			return err
		}
		steps = append(steps, st)
		res.Steps++
		arrive = leave.Add(4 * time.Hour)
	}

	for i, leg := range dt.legs {
		origin, dest := steps[i], steps[i+1]
		route := orb.LineString{itinerary.PointOf(origin), itinerary.PointOf(dest)}
		distance := itinerary.RouteLength(route)
		carbon := int(distance / 1000 * leg.gramsPerKm)
		_, err := r.Travels.Create(ctx, domain.Travel{
			TripID:            trip.ID,
			OriginStepID:      origin.ID,
			DestinationStepID: dest.ID,
			TransportMode:     leg.mode,
			Distance:          distance,
			Duration:          leg.duration.Seconds(),
			CarbonEmission:    &carbon,
			Route:             route,
		})
		if err != nil {
			return err
		}
		res.Travels++
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
