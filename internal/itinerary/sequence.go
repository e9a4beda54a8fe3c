// Package itinerary computes step ordering for a trip: where a step lands
// when it is inserted, moved or removed, which step orders change as a
// result, and which travel edges stop connecting adjacent steps.
//
// Everything here is pure. Callers load the current sequence and edges inside
// a transaction, ask for a Plan, and apply it with the repositories.
package itinerary

import (
	"errors"
	"slices"

	"github.com/google/uuid"

	"github.com/pkordes/atob/internal/domain"
)

var (
	// ErrUnknownStep means the step being moved or removed is not in the sequence.
	ErrUnknownStep = errors.New("itinerary: step not in sequence")
	// ErrUnknownTarget means the reference step of a Before/After position is
	// not in the sequence.
	ErrUnknownTarget = errors.New("itinerary: target step not in sequence")
	// ErrSameStep means a step was positioned relative to itself.
	ErrSameStep = errors.New("itinerary: step and target are the same")
	// ErrDuplicateStep means an inserted step is already in the sequence.
	ErrDuplicateStep = errors.New("itinerary: step already in sequence")
)

// Sequence is the ordered list of step IDs of one trip. Index 0 holds the
// step with Order 1.
type Sequence []uuid.UUID

// FromSteps builds the sequence of steps sorted by their current Order.
func FromSteps(steps []domain.Step) Sequence {
	sorted := slices.Clone(steps)
	slices.SortStableFunc(sorted, func(a, b domain.Step) int { return a.Order - b.Order })
	seq := make(Sequence, len(sorted))
	for i, s := range sorted {
		seq[i] = s.ID
	}
	return seq
}

// Index returns the zero-based index of id, or -1.
func (s Sequence) Index(id uuid.UUID) int {
	return slices.Index(s, id)
}

// Order returns the 1-based order of id, or 0 when absent.
func (s Sequence) Order(id uuid.UUID) int {
	return s.Index(id) + 1
}

// Last returns the final step ID and false for an empty sequence.
func (s Sequence) Last() (uuid.UUID, bool) {
	if len(s) == 0 {
		return uuid.Nil, false
	}
	return s[len(s)-1], true
}

type placement int

const (
	atEnd placement = iota
	beforeTarget
	afterTarget
)

// Position says where a step goes relative to the rest of the sequence.
type Position struct {
	placement placement
	target    uuid.UUID
}

// End places a step after every other step.
func End() Position { return Position{placement: atEnd} }

// Before places a step immediately before target.
func Before(target uuid.UUID) Position { return Position{placement: beforeTarget, target: target} }

// After places a step immediately after target.
func After(target uuid.UUID) Position { return Position{placement: afterTarget, target: target} }

// Target returns the reference step of a Before/After position.
func (p Position) Target() (uuid.UUID, bool) {
	return p.target, p.placement != atEnd
}

// Insert returns a new sequence with id placed at pos. seq is not modified.
func Insert(seq Sequence, id uuid.UUID, pos Position) (Sequence, error) {
	if seq.Index(id) >= 0 {
		return nil, ErrDuplicateStep
	}
	return place(slices.Clone(seq), id, pos)
}

// Move returns a new sequence with id relocated to pos. Moving a step to the
// place it already occupies yields an equal sequence.
func Move(seq Sequence, id uuid.UUID, pos Position) (Sequence, error) {
	i := seq.Index(id)
	if i < 0 {
		return nil, ErrUnknownStep
	}
	if target, ok := pos.Target(); ok && target == id {
		return nil, ErrSameStep
	}
	rest := slices.Delete(slices.Clone(seq), i, i+1)
	return place(rest, id, pos)
}

// Remove returns a new sequence without id.
func Remove(seq Sequence, id uuid.UUID) (Sequence, error) {
	i := seq.Index(id)
	if i < 0 {
		return nil, ErrUnknownStep
	}
	return slices.Delete(slices.Clone(seq), i, i+1), nil
}

// place inserts id into seq (which it owns) at pos.
func place(seq Sequence, id uuid.UUID, pos Position) (Sequence, error) {
	if pos.placement == atEnd {
		return append(seq, id), nil
	}
	if pos.target == id {
		return nil, ErrSameStep
	}
	i := seq.Index(pos.target)
	if i < 0 {
		return nil, ErrUnknownTarget
	}
	if pos.placement == afterTarget {
		i++
	}
	return slices.Insert(seq, i, id), nil
}
