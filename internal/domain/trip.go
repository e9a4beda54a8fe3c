// Package domain contains the core data types for the A-to-B travel planner.
// It depends only on value-type packages (uuid, orb geometry) and is imported
// by every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Trip is a user-owned travel plan. It is the top-level aggregate: steps and
// the travels between them belong to a trip and are deleted with it.
type Trip struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Description string
	StartDate   time.Time // date only, UTC midnight
	EndDate     time.Time // date only, never before StartDate
	// BackgroundPicturePath is a client-managed path or URL, empty when unset.
	BackgroundPicturePath string
	CreatedAt             time.Time
	UpdatedAt             time.Time

	// Steps is only populated by reads that load the full itinerary.
	Steps []Step
	// Travels is only populated alongside Steps.
	Travels []Travel
}

// Trip field limits.
const (
	TripNameMin        = 3
	TripNameMax        = 50
	TripDescriptionMax = 500
	PicturePathMax     = 2048
)
