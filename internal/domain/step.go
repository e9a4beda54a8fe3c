package domain

import (
	"time"

	"github.com/google/uuid"
)

// Step is a geographic waypoint within a trip.
// Order is the 1-based position of the step in its trip; the orders of a
// trip's steps are always exactly 1..n.
type Step struct {
	ID          uuid.UUID
	TripID      uuid.UUID
	Order       int
	Name        string
	Description string
	Latitude    float64
	Longitude   float64
	StartAt     *time.Time
	EndAt       *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StepPatch carries a partial update. Nil fields are left unchanged.
// ClearDates removes both StartAt and EndAt before the patch is applied.
type StepPatch struct {
	Name        *string
	Description *string
	Latitude    *float64
	Longitude   *float64
	StartAt     *time.Time
	EndAt       *time.Time
	ClearDates  bool
}

// Apply returns a copy of s with the patch applied.
func (p StepPatch) Apply(s Step) Step {
	if p.ClearDates {
		s.StartAt, s.EndAt = nil, nil
	}
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Latitude != nil {
		s.Latitude = *p.Latitude
	}
	if p.Longitude != nil {
		s.Longitude = *p.Longitude
	}
	if p.StartAt != nil {
		s.StartAt = p.StartAt
	}
	if p.EndAt != nil {
		s.EndAt = p.EndAt
	}
	return s
}

// Step field limits.
const (
	StepNameMin        = 3
	StepNameMax        = 50
	StepDescriptionMax = 500
)
