package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pkordes/atob/internal/domain"
)

// ExportService flattens a trip into one row per step.
type ExportService struct {
	trips *TripService
}

// NewExportService constructs an ExportService on top of the trip service,
// which performs loading and access checks.
func NewExportService(trips *TripService) *ExportService {
	return &ExportService{trips: trips}
}

// Export returns one ExportRow per step, in order, carrying the travel that
// leaves the step when there is one. A trip with no steps contributes one
// row with empty step fields.
func (s *ExportService) Export(ctx context.Context, tripID uuid.UUID) ([]domain.ExportRow, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	base := domain.ExportRow{
		TripID:        trip.ID.String(),
		TripName:      trip.Name,
		TripStartDate: trip.StartDate.Format("2006-01-02"),
		TripEndDate:   trip.EndDate.Format("2006-01-02"),
	}
	if len(trip.Steps) == 0 {
		return []domain.ExportRow{base}, nil
	}

	leaving := make(map[uuid.UUID]domain.Travel, len(trip.Travels))
	for _, tr := range trip.Travels {
		leaving[tr.OriginStepID] = tr
	}

	rows := make([]domain.ExportRow, 0, len(trip.Steps))
	for _, st := range trip.Steps {
		row := base
		row.StepOrder = st.Order
		row.StepName = st.Name
		row.Latitude = st.Latitude
		row.Longitude = st.Longitude
		row.StepStartAt = st.StartAt
		row.StepEndAt = st.EndAt
		row.StepNotes = st.Description
		if tr, ok := leaving[st.ID]; ok {
			distance, duration := tr.Distance, tr.Duration
			row.TransportMode = tr.TransportMode
			row.DistanceMeters = &distance
			row.DurationSecs = &duration
			row.CarbonEmission = tr.CarbonEmission
		}
		rows = append(rows, row)
	}
	return rows, nil
}
