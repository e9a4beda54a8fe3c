package itinerary_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/pkordes/atob/internal/domain"
	"github.com/pkordes/atob/internal/itinerary"
)

// applyOrders replays a plan against the old orders and returns the order of
// every step in the next sequence, the way the repositories would persist it.
func applyOrders(old itinerary.Sequence, plan itinerary.Plan) map[uuid.UUID]int {
	orders := map[uuid.UUID]int{}
	for _, id := range plan.Next {
		switch {
		case plan.Renumber[id] != 0:
			orders[id] = plan.Renumber[id]
		case old.Order(id) != 0:
			orders[id] = old.Order(id)
		default:
			orders[id] = plan.Next.Order(id)
		}
	}
	return orders
}

func contiguous(orders map[uuid.UUID]int) bool {
	seen := make([]bool, len(orders)+1)
	for _, o := range orders {
		if o < 1 || o > len(orders) || seen[o] {
			return false
		}
		seen[o] = true
	}
	return true
}

func TestSequenceOperations(t *testing.T) {
	Convey("Given a trip with steps a, b, c, d linked a->b->c->d", t, func() {
		a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
		seq := itinerary.Sequence{a, b, c, d}
		ab, bc, cd := uuid.New(), uuid.New(), uuid.New()
		edges := []itinerary.Edge{
			{ID: ab, Origin: a, Destination: b},
			{ID: bc, Origin: b, Destination: c},
			{ID: cd, Origin: c, Destination: d},
		}

		Convey("Moving d before b", func() {
			next, err := itinerary.Move(seq, d, itinerary.Before(b))
			So(err, ShouldBeNil)
			plan := itinerary.Diff(seq, next, edges)

			Convey("places d second and shifts b and c down", func() {
				So(next, ShouldResemble, itinerary.Sequence{a, d, b, c})
				So(plan.Renumber, ShouldResemble, map[uuid.UUID]int{d: 2, b: 3, c: 4})
			})
			Convey("severs the travels that no longer join neighbours", func() {
				So(plan.Severed, ShouldResemble, []uuid.UUID{ab, cd})
			})
			Convey("keeps orders contiguous", func() {
				So(contiguous(applyOrders(seq, plan)), ShouldBeTrue)
			})
		})

		Convey("Moving a to the end keeps b->c and c->d", func() {
			next, err := itinerary.Move(seq, a, itinerary.End())
			So(err, ShouldBeNil)
			plan := itinerary.Diff(seq, next, edges)
			So(next, ShouldResemble, itinerary.Sequence{b, c, d, a})
			So(plan.Severed, ShouldResemble, []uuid.UUID{ab})
			So(plan.Renumber, ShouldResemble, map[uuid.UUID]int{b: 1, c: 2, d: 3, a: 4})
		})

		Convey("Moving a step to where it already is changes nothing", func() {
			for _, pos := range []itinerary.Position{itinerary.After(a), itinerary.Before(c)} {
				next, err := itinerary.Move(seq, b, pos)
				So(err, ShouldBeNil)
				So(next, ShouldResemble, seq)
				So(itinerary.Diff(seq, next, edges).Empty(), ShouldBeTrue)
			}
			next, err := itinerary.Move(seq, d, itinerary.End())
			So(err, ShouldBeNil)
			So(itinerary.Diff(seq, next, edges).Empty(), ShouldBeTrue)
		})

		Convey("Moving a step relative to itself is rejected", func() {
			_, err := itinerary.Move(seq, b, itinerary.After(b))
			So(err, ShouldEqual, itinerary.ErrSameStep)
		})

		Convey("Moving an unknown step or relative to an unknown target is rejected", func() {
			_, err := itinerary.Move(seq, uuid.New(), itinerary.End())
			So(err, ShouldEqual, itinerary.ErrUnknownStep)
			_, err = itinerary.Move(seq, a, itinerary.Before(uuid.New()))
			So(err, ShouldEqual, itinerary.ErrUnknownTarget)
		})

		Convey("Inserting x before c", func() {
			x := uuid.New()
			next, err := itinerary.Insert(seq, x, itinerary.Before(c))
			So(err, ShouldBeNil)
			plan := itinerary.Diff(seq, next, edges)

			So(next, ShouldResemble, itinerary.Sequence{a, b, x, c, d})
			So(plan.Renumber, ShouldResemble, map[uuid.UUID]int{c: 4, d: 5})
			So(plan.Severed, ShouldResemble, []uuid.UUID{bc})
			So(next.Order(x), ShouldEqual, 3)
			So(contiguous(applyOrders(seq, plan)), ShouldBeTrue)
		})

		Convey("Inserting x after d appends without touching anything", func() {
			x := uuid.New()
			next, err := itinerary.Insert(seq, x, itinerary.After(d))
			So(err, ShouldBeNil)
			So(next, ShouldResemble, itinerary.Sequence{a, b, c, d, x})
			So(itinerary.Diff(seq, next, edges).Empty(), ShouldBeTrue)
		})

		Convey("Inserting a step that is already present is rejected", func() {
			_, err := itinerary.Insert(seq, c, itinerary.End())
			So(err, ShouldEqual, itinerary.ErrDuplicateStep)
		})

		Convey("Removing b", func() {
			next, err := itinerary.Remove(seq, b)
			So(err, ShouldBeNil)
			plan := itinerary.Diff(seq, next, edges)

			So(next, ShouldResemble, itinerary.Sequence{a, c, d})
			So(plan.Renumber, ShouldResemble, map[uuid.UUID]int{c: 2, d: 3})
			So(plan.Severed, ShouldResemble, []uuid.UUID{ab, bc})
		})

		Convey("The original sequence is never modified", func() {
			_, _ = itinerary.Move(seq, a, itinerary.End())
			_, _ = itinerary.Insert(seq, uuid.New(), itinerary.Before(b))
			_, _ = itinerary.Remove(seq, c)
			So(seq, ShouldResemble, itinerary.Sequence{a, b, c, d})
		})

		Convey("Adjacent follows the sequence direction", func() {
			So(itinerary.Adjacent(seq, a, b), ShouldBeTrue)
			So(itinerary.Adjacent(seq, b, a), ShouldBeFalse)
			So(itinerary.Adjacent(seq, d, a), ShouldBeFalse)
		})
	})

	Convey("Given an empty trip", t, func() {
		x := uuid.New()
		next, err := itinerary.Insert(nil, x, itinerary.End())
		So(err, ShouldBeNil)
		So(next, ShouldResemble, itinerary.Sequence{x})
		So(next.Order(x), ShouldEqual, 1)

		_, err = itinerary.Insert(nil, x, itinerary.Before(uuid.New()))
		So(err, ShouldEqual, itinerary.ErrUnknownTarget)
	})
}

func TestFromSteps(t *testing.T) {
	Convey("FromSteps sorts by order", t, func() {
		a, b, c := uuid.New(), uuid.New(), uuid.New()
		seq := itinerary.FromSteps([]domain.Step{{ID: c, Order: 3}, {ID: a, Order: 1}, {ID: b, Order: 2}})
		So(seq, ShouldResemble, itinerary.Sequence{a, b, c})
		last, ok := seq.Last()
		So(ok, ShouldBeTrue)
		So(last, ShouldEqual, c)
	})
}

func TestRouteGeometry(t *testing.T) {
	paris := domain.Step{Latitude: 48.8566, Longitude: 2.3522}
	lyon := domain.Step{Latitude: 45.7640, Longitude: 4.8357}

	Convey("Distances between Paris and Lyon", t, func() {
		straight := itinerary.StraightDistance(paris, lyon)
		So(straight, ShouldAlmostEqual, 392_000, 5_000)

		Convey("a two-point route is as long as the straight line", func() {
			route := orb.LineString{itinerary.PointOf(paris), itinerary.PointOf(lyon)}
			So(itinerary.RouteLength(route), ShouldAlmostEqual, straight, 1)
		})

		Convey("a detour through Dijon is longer", func() {
			route := orb.LineString{itinerary.PointOf(paris), {5.0415, 47.3220}, itinerary.PointOf(lyon)}
			So(itinerary.EstimateDistance(paris, lyon, route), ShouldBeGreaterThan, straight)
		})

		Convey("no route falls back to the straight line", func() {
			So(itinerary.EstimateDistance(paris, lyon, nil), ShouldEqual, straight)
		})
	})

	Convey("Route validation", t, func() {
		So(itinerary.ValidateRoute(nil), ShouldBeNil)
		So(itinerary.ValidateRoute(orb.LineString{{2, 48}}), ShouldEqual, itinerary.ErrRouteTooShort)
		So(itinerary.ValidateRoute(orb.LineString{{2, 48}, {200, 45}}), ShouldNotBeNil)
		So(itinerary.ValidateRoute(orb.LineString{{2, 48}, {4, 45}}), ShouldBeNil)
	})

	Convey("Bounds covers every step", t, func() {
		_, ok := itinerary.Bounds(nil)
		So(ok, ShouldBeFalse)

		b, ok := itinerary.Bounds([]domain.Step{paris, lyon})
		So(ok, ShouldBeTrue)
		So(b.Min, ShouldResemble, orb.Point{2.3522, 45.7640})
		So(b.Max, ShouldResemble, orb.Point{4.8357, 48.8566})
	})
}
