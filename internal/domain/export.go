package domain

import "time"

// ExportRow is a single row in an itinerary export.
// It is a flat, denormalized view: one row per step in order, with the trip
// fields repeated and the travel leaving the step (if any) folded in.
// A trip with no steps yields one row with zero values for the step fields.
type ExportRow struct {
	// Trip fields, repeated for every step.
	TripID        string
	TripName      string
	TripStartDate string // "2006-01-02"
	TripEndDate   string // "2006-01-02"

	// Step fields. StepOrder is 0 when the trip has no steps.
	StepOrder   int
	StepName    string
	Latitude    float64
	Longitude   float64
	StepStartAt *time.Time
	StepEndAt   *time.Time
	StepNotes   string

	// Outgoing travel fields, empty when the step is last or unconnected.
	TransportMode  string
	DistanceMeters *float64
	DurationSecs   *float64
	CarbonEmission *int
}
