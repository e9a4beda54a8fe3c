package service_test

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/atob/internal/domain"
	"github.com/pkordes/atob/internal/repo"
)

// store is an in-memory stand-in for the database. Its repos share the same
// maps, and fakeUoW restores a snapshot when the unit of work fails, the way
// a rolled-back transaction would.
type store struct {
	users        map[uuid.UUID]domain.User
	trips        map[uuid.UUID]domain.Trip
	steps        map[uuid.UUID]domain.Step
	travels      map[uuid.UUID]domain.Travel
	testimonials map[uuid.UUID]domain.Testimonial
	locked       []uuid.UUID
}

func newStore() *store {
	return &store{
		users:        map[uuid.UUID]domain.User{},
		trips:        map[uuid.UUID]domain.Trip{},
		steps:        map[uuid.UUID]domain.Step{},
		travels:      map[uuid.UUID]domain.Travel{},
		testimonials: map[uuid.UUID]domain.Testimonial{},
	}
}

func (s *store) repos() repo.Repos {
	return repo.Repos{
		Users:        memUsers{s},
		Trips:        memTrips{s},
		Steps:        memSteps{s},
		Travels:      memTravels{s},
		Testimonials: memTestimonials{s},
	}
}

func (s *store) snapshot() *store {
	return &store{
		users:        maps.Clone(s.users),
		trips:        maps.Clone(s.trips),
		steps:        maps.Clone(s.steps),
		travels:      maps.Clone(s.travels),
		testimonials: maps.Clone(s.testimonials),
	}
}

func (s *store) restore(snap *store) {
	s.users, s.trips, s.steps = snap.users, snap.trips, snap.steps
	s.travels, s.testimonials = snap.travels, snap.testimonials
}

// orderedSteps returns a trip's steps sorted by order.
func (s *store) orderedSteps(tripID uuid.UUID) []domain.Step {
	var out []domain.Step
	for _, st := range s.steps {
		if st.TripID == tripID {
			out = append(out, st)
		}
	}
	slices.SortFunc(out, func(a, b domain.Step) int { return a.Order - b.Order })
	return out
}

type fakeUoW struct {
	s     *store
	calls int
}

var _ repo.UnitOfWork = (*fakeUoW)(nil)

func (u *fakeUoW) Do(_ context.Context, fn func(r repo.Repos) error) error {
	u.calls++
	snap := u.s.snapshot()
	if err := fn(u.s.repos()); err != nil {
		u.s.restore(snap)
		return err
	}
	return nil
}

// ---- users -----------------------------------------------------------------

type memUsers struct{ s *store }

func (m memUsers) Create(_ context.Context, u domain.User) (domain.User, error) {
	for _, other := range m.s.users {
		if strings.EqualFold(other.Email, u.Email) || strings.EqualFold(other.Username, u.Username) {
			return domain.User{}, domain.ErrConflict
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	m.s.users[u.ID] = u
	return u, nil
}

func (m memUsers) GetByID(_ context.Context, id uuid.UUID) (domain.User, error) {
	u, ok := m.s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (m memUsers) GetByEmail(_ context.Context, email string) (domain.User, error) {
	for _, u := range m.s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (m memUsers) GetByLogin(ctx context.Context, login string) (domain.User, error) {
	if u, err := m.GetByEmail(ctx, login); err == nil {
		return u, nil
	}
	for _, u := range m.s.users {
		if strings.EqualFold(u.Username, login) {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (m memUsers) Update(_ context.Context, u domain.User) (domain.User, error) {
	if _, ok := m.s.users[u.ID]; !ok {
		return domain.User{}, domain.ErrNotFound
	}
	for id, other := range m.s.users {
		if id != u.ID && (strings.EqualFold(other.Email, u.Email) || strings.EqualFold(other.Username, u.Username)) {
			return domain.User{}, domain.ErrConflict
		}
	}
	m.s.users[u.ID] = u
	return u, nil
}

func (m memUsers) RecordFailedLogin(_ context.Context, id uuid.UUID, maxFailures int, lockUntil time.Time) (domain.User, error) {
	u, ok := m.s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	u.FailedLogins++
	if u.FailedLogins >= maxFailures {
		u.FailedLogins = 0
		u.LockoutEnd = &lockUntil
	}
	m.s.users[id] = u
	return u, nil
}

func (m memUsers) ClearFailedLogins(_ context.Context, id uuid.UUID) (domain.User, error) {
	u, ok := m.s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	u.FailedLogins = 0
	u.LockoutEnd = nil
	m.s.users[id] = u
	return u, nil
}

func (m memUsers) Count(context.Context) (int64, error) { return int64(len(m.s.users)), nil }

// ---- trips -----------------------------------------------------------------

type memTrips struct{ s *store }

func (m memTrips) Create(_ context.Context, t domain.Trip) (domain.Trip, error) {
	for _, other := range m.s.trips {
		if other.UserID == t.UserID && strings.EqualFold(other.Name, t.Name) {
			return domain.Trip{}, domain.ErrConflict
		}
	}
	t.ID = uuid.New()
	m.s.trips[t.ID] = t
	return t, nil
}

func (m memTrips) GetByID(_ context.Context, id uuid.UUID) (domain.Trip, error) {
	t, ok := m.s.trips[id]
	if !ok {
		return domain.Trip{}, domain.ErrNotFound
	}
	return t, nil
}

func (m memTrips) LockByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	t, err := m.GetByID(ctx, id)
	if err == nil {
		m.s.locked = append(m.s.locked, id)
	}
	return t, err
}

func (m memTrips) ListByUser(_ context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	var all []domain.Trip
	for _, t := range m.s.trips {
		if t.UserID == userID {
			all = append(all, t)
		}
	}
	return page(all, p), int64(len(all)), nil
}

func (m memTrips) ListAll(_ context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	all := slices.Collect(maps.Values(m.s.trips))
	return page(all, p), int64(len(all)), nil
}

func page(all []domain.Trip, p domain.PaginationParams) []domain.Trip {
	slices.SortFunc(all, func(a, b domain.Trip) int { return strings.Compare(a.Name, b.Name) })
	lo := min(p.Offset(), len(all))
	hi := min(lo+p.Limit, len(all))
	return all[lo:hi]
}

func (m memTrips) Update(_ context.Context, t domain.Trip) (domain.Trip, error) {
	if _, ok := m.s.trips[t.ID]; !ok {
		return domain.Trip{}, domain.ErrNotFound
	}
	for id, other := range m.s.trips {
		if id != t.ID && other.UserID == t.UserID && strings.EqualFold(other.Name, t.Name) {
			return domain.Trip{}, domain.ErrConflict
		}
	}
	m.s.trips[t.ID] = t
	return t, nil
}

func (m memTrips) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.s.trips[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.s.trips, id)
	maps.DeleteFunc(m.s.steps, func(_ uuid.UUID, st domain.Step) bool { return st.TripID == id })
	maps.DeleteFunc(m.s.travels, func(_ uuid.UUID, tr domain.Travel) bool { return tr.TripID == id })
	return nil
}

// ---- steps -----------------------------------------------------------------

type memSteps struct{ s *store }

func (m memSteps) Create(_ context.Context, st domain.Step) (domain.Step, error) {
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	m.s.steps[st.ID] = st
	return st, nil
}

func (m memSteps) GetByID(_ context.Context, id uuid.UUID) (domain.Step, error) {
	st, ok := m.s.steps[id]
	if !ok {
		return domain.Step{}, domain.ErrNotFound
	}
	return st, nil
}

func (m memSteps) ListByTrip(_ context.Context, tripID uuid.UUID) ([]domain.Step, error) {
	return m.s.orderedSteps(tripID), nil
}

func (m memSteps) Update(_ context.Context, st domain.Step) (domain.Step, error) {
	cur, ok := m.s.steps[st.ID]
	if !ok {
		return domain.Step{}, domain.ErrNotFound
	}
	st.Order = cur.Order
	m.s.steps[st.ID] = st
	return st, nil
}

func (m memSteps) SetOrders(_ context.Context, orders map[uuid.UUID]int) error {
	for id, order := range orders {
		st, ok := m.s.steps[id]
		if !ok {
			return domain.ErrNotFound
		}
		st.Order = order
		m.s.steps[id] = st
	}
	return nil
}

func (m memSteps) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.s.steps[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.s.steps, id)
	maps.DeleteFunc(m.s.travels, func(_ uuid.UUID, tr domain.Travel) bool {
		return tr.OriginStepID == id || tr.DestinationStepID == id
	})
	return nil
}

// ---- travels ---------------------------------------------------------------

type memTravels struct{ s *store }

func (m memTravels) Create(_ context.Context, tr domain.Travel) (domain.Travel, error) {
	for _, other := range m.s.travels {
		if other.OriginStepID == tr.OriginStepID || other.DestinationStepID == tr.DestinationStepID {
			return domain.Travel{}, domain.ErrConflict
		}
	}
	tr.ID = uuid.New()
	m.s.travels[tr.ID] = tr
	return tr, nil
}

func (m memTravels) GetByID(_ context.Context, id uuid.UUID) (domain.Travel, error) {
	tr, ok := m.s.travels[id]
	if !ok {
		return domain.Travel{}, domain.ErrNotFound
	}
	return tr, nil
}

func (m memTravels) ListByTrip(_ context.Context, tripID uuid.UUID) ([]domain.Travel, error) {
	var out []domain.Travel
	for _, tr := range m.s.travels {
		if tr.TripID == tripID {
			out = append(out, tr)
		}
	}
	slices.SortFunc(out, func(a, b domain.Travel) int {
		return m.s.steps[a.OriginStepID].Order - m.s.steps[b.OriginStepID].Order
	})
	return out, nil
}

func (m memTravels) DeleteTouching(_ context.Context, originID, destinationID uuid.UUID) (int64, error) {
	before := len(m.s.travels)
	maps.DeleteFunc(m.s.travels, func(_ uuid.UUID, tr domain.Travel) bool {
		return tr.OriginStepID == originID || tr.DestinationStepID == destinationID
	})
	return int64(before - len(m.s.travels)), nil
}

func (m memTravels) DeleteIDs(_ context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		if _, ok := m.s.travels[id]; !ok {
			return domain.ErrNotFound
		}
		delete(m.s.travels, id)
	}
	return nil
}

func (m memTravels) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.s.travels[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.s.travels, id)
	return nil
}

// ---- testimonials ----------------------------------------------------------

type memTestimonials struct{ s *store }

func (m memTestimonials) Create(_ context.Context, t domain.Testimonial) (domain.Testimonial, error) {
	t.ID = uuid.New()
	t.Username = m.s.users[t.UserID].Username
	m.s.testimonials[t.ID] = t
	return t, nil
}

func (m memTestimonials) GetByID(_ context.Context, id uuid.UUID) (domain.Testimonial, error) {
	t, ok := m.s.testimonials[id]
	if !ok {
		return domain.Testimonial{}, domain.ErrNotFound
	}
	return t, nil
}

func (m memTestimonials) List(_ context.Context, p domain.PaginationParams) ([]domain.Testimonial, int64, error) {
	all := slices.Collect(maps.Values(m.s.testimonials))
	slices.SortFunc(all, func(a, b domain.Testimonial) int { return b.Date.Compare(a.Date) })
	lo := min(p.Offset(), len(all))
	hi := min(lo+p.Limit, len(all))
	return all[lo:hi], int64(len(all)), nil
}

func (m memTestimonials) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.s.testimonials[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.s.testimonials, id)
	return nil
}

var (
	_ repo.UserRepo        = memUsers{}
	_ repo.TripRepo        = memTrips{}
	_ repo.StepRepo        = memSteps{}
	_ repo.TravelRepo      = memTravels{}
	_ repo.TestimonialRepo = memTestimonials{}
)

// ---- fixtures --------------------------------------------------------------

// fixedNow is "today" for every service test.
var fixedNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func asUser(id uuid.UUID) context.Context {
	return domain.WithActor(context.Background(), domain.Actor{UserID: id, Roles: []domain.Role{domain.RoleUser}})
}

func asAdmin() context.Context {
	return domain.WithActor(context.Background(), domain.Actor{UserID: uuid.New(), Roles: []domain.Role{domain.RoleUser, domain.RoleAdmin}})
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// seedTrip stores a trip owned by owner and returns it.
func seedTrip(s *store, owner uuid.UUID, name string) domain.Trip {
	t := domain.Trip{
		ID:        uuid.New(),
		UserID:    owner,
		Name:      name,
		StartDate: date(2026, 6, 1),
		EndDate:   date(2026, 6, 15),
	}
	s.trips[t.ID] = t
	return t
}

// seedSteps appends n steps to trip and returns them in order.
func seedSteps(s *store, tripID uuid.UUID, names ...string) []domain.Step {
	base := len(s.orderedSteps(tripID))
	out := make([]domain.Step, len(names))
	for i, name := range names {
		st := domain.Step{
			ID:        uuid.New(),
			TripID:    tripID,
			Order:     base + i + 1,
			Name:      name,
			Latitude:  45 + float64(i),
			Longitude: 2 + float64(i),
		}
		s.steps[st.ID] = st
		out[i] = st
	}
	return out
}

// seedTravel links two steps directly in the store.
func seedTravel(s *store, from, to domain.Step) domain.Travel {
	tr := domain.Travel{ID: uuid.New(), TripID: from.TripID, OriginStepID: from.ID, DestinationStepID: to.ID, TransportMode: "car"}
	s.travels[tr.ID] = tr
	return tr
}

// names returns the step names of a trip in order.
func names(s *store, tripID uuid.UUID) []string {
	var out []string
	for _, st := range s.orderedSteps(tripID) {
		out = append(out, st.Name)
	}
	return out
}

// orders returns the step orders of a trip in order.
func orders(s *store, tripID uuid.UUID) []int {
	var out []int
	for _, st := range s.orderedSteps(tripID) {
		out = append(out, st.Order)
	}
	return out
}
