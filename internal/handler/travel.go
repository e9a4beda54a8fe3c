package handler

import (
	"net/http"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/paulmach/orb"

	"github.com/pkordes/atob/internal/domain"
)

// TravelRequest is the body of POST /travels. Distance is derived from the
// route, or from the step coordinates, when omitted. Route points are
// [longitude, latitude] pairs.
type TravelRequest struct {
	OriginStepID      openapi_types.UUID `json:"origin_step_id" validate:"required"`
	DestinationStepID openapi_types.UUID `json:"destination_step_id" validate:"required"`
	TransportMode     string             `json:"transport_mode" validate:"notblank,max=50"`
	Distance          *float64           `json:"distance" validate:"omitempty,gte=0"`
	Duration          float64            `json:"duration" validate:"gte=0"`
	CarbonEmission    *int               `json:"carbon_emission" validate:"omitempty,gte=0"`
	Route             orb.LineString     `json:"route"`
}

// TravelResponse is the JSON view of a travel. Distance is in meters,
// duration in seconds, carbon emission in grams.
type TravelResponse struct {
	ID                openapi_types.UUID `json:"id"`
	TripID            openapi_types.UUID `json:"trip_id"`
	OriginStepID      openapi_types.UUID `json:"origin_step_id"`
	DestinationStepID openapi_types.UUID `json:"destination_step_id"`
	TransportMode     string             `json:"transport_mode"`
	Distance          float64            `json:"distance"`
	Duration          float64            `json:"duration"`
	CarbonEmission    *int               `json:"carbon_emission,omitempty"`
	Route             orb.LineString     `json:"route,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
}

// CreateTravel handles POST /travels. An existing travel leaving the origin
// or reaching the destination is replaced.
func (s *Server) CreateTravel(w http.ResponseWriter, r *http.Request) {
	var body TravelRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.travels.AddBetween(r.Context(), domain.TravelDraft{
		OriginStepID:      body.OriginStepID,
		DestinationStepID: body.DestinationStepID,
		TransportMode:     body.TransportMode,
		Distance:          body.Distance,
		Duration:          body.Duration,
		CarbonEmission:    body.CarbonEmission,
		Route:             body.Route,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, travelToResponse(created))
}

// ListTravels handles GET /trips/{tripId}/travels.
func (s *Server) ListTravels(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	travels, err := s.travels.ListByTrip(r.Context(), tripID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(travels, travelToResponse))
}

// GetTravel handles GET /travels/{travelId}.
func (s *Server) GetTravel(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "travelId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	travel, err := s.travels.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, travelToResponse(travel))
}

// DeleteTravel handles DELETE /travels/{travelId}.
func (s *Server) DeleteTravel(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "travelId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.travels.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func travelToResponse(t domain.Travel) TravelResponse {
	return TravelResponse{
		ID:                t.ID,
		TripID:            t.TripID,
		OriginStepID:      t.OriginStepID,
		DestinationStepID: t.DestinationStepID,
		TransportMode:     t.TransportMode,
		Distance:          t.Distance,
		Duration:          t.Duration,
		CarbonEmission:    t.CarbonEmission,
		Route:             t.Route,
		CreatedAt:         t.CreatedAt,
	}
}
