package itinerary

import (
	"github.com/google/uuid"

	"github.com/pkordes/atob/internal/domain"
)

// Edge is a travel between two steps, reduced to what ordering cares about.
type Edge struct {
	ID          uuid.UUID
	Origin      uuid.UUID
	Destination uuid.UUID
}

// EdgesOf reduces travels to edges.
func EdgesOf(travels []domain.Travel) []Edge {
	edges := make([]Edge, len(travels))
	for i, t := range travels {
		edges[i] = Edge{ID: t.ID, Origin: t.OriginStepID, Destination: t.DestinationStepID}
	}
	return edges
}

// Plan is the set of writes that turns the old sequence into the next one.
type Plan struct {
	// Next is the resulting sequence.
	Next Sequence
	// Renumber maps steps present in both sequences to their new order.
	// Steps whose order is unchanged are omitted.
	Renumber map[uuid.UUID]int
	// Severed lists the IDs of edges whose origin is no longer immediately
	// followed by their destination.
	Severed []uuid.UUID
}

// Empty reports whether applying the plan would change nothing.
func (p Plan) Empty() bool {
	return len(p.Renumber) == 0 && len(p.Severed) == 0
}

// Diff compares old and next and returns the plan that applies next.
// Edges still joining adjacent steps in the same direction survive, so a
// reorder that keeps a pair together keeps its travel.
func Diff(old, next Sequence, edges []Edge) Plan {
	before := make(map[uuid.UUID]int, len(old))
	for i, id := range old {
		before[id] = i + 1
	}

	plan := Plan{Next: next, Renumber: map[uuid.UUID]int{}}
	for i, id := range next {
		if prev, ok := before[id]; ok && prev != i+1 {
			plan.Renumber[id] = i + 1
		}
	}

	after := make(map[uuid.UUID]int, len(next))
	for i, id := range next {
		after[id] = i
	}
	for _, e := range edges {
		oi, okO := after[e.Origin]
		di, okD := after[e.Destination]
		if !okO || !okD || di != oi+1 {
			plan.Severed = append(plan.Severed, e.ID)
		}
	}
	return plan
}

// Adjacent reports whether destination immediately follows origin in seq.
func Adjacent(seq Sequence, origin, destination uuid.UUID) bool {
	oi := seq.Index(origin)
	return oi >= 0 && oi+1 < len(seq) && seq[oi+1] == destination
}
