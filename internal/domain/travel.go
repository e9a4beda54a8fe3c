package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// Travel is the directed edge between two consecutive steps of the same trip.
// Distance is in meters, Duration in seconds, CarbonEmission in grams.
// Route points are (longitude, latitude) pairs.
type Travel struct {
	ID                uuid.UUID
	TripID            uuid.UUID
	OriginStepID      uuid.UUID
	DestinationStepID uuid.UUID
	TransportMode     string
	Distance          float64
	Duration          float64
	CarbonEmission    *int
	Route             orb.LineString
	CreatedAt         time.Time
}

// TravelDraft is the input for connecting two steps.
// A nil Distance asks the service to derive it from the route or the step
// coordinates.
type TravelDraft struct {
	OriginStepID      uuid.UUID
	DestinationStepID uuid.UUID
	TransportMode     string
	Distance          *float64
	Duration          float64
	CarbonEmission    *int
	Route             orb.LineString
}

// TransportModeMax is the maximum length of a transport mode label.
const TransportModeMax = 50
