package handler

import (
	"net/http"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/atob/internal/domain"
)

// TripRequest is the body of POST /trips and PUT /trips/{tripId}.
type TripRequest struct {
	Name                  string             `json:"name" validate:"notblank,max=50"`
	Description           *string            `json:"description" validate:"omitempty,max=500"`
	StartDate             openapi_types.Date `json:"start_date" validate:"required"`
	EndDate               openapi_types.Date `json:"end_date" validate:"required"`
	BackgroundPicturePath *string            `json:"background_picture_path" validate:"omitempty,max=2048"`
}

// TripResponse is the JSON view of a trip. Steps and travels are present
// only on single-trip reads.
type TripResponse struct {
	ID                    openapi_types.UUID `json:"id"`
	UserID                openapi_types.UUID `json:"user_id"`
	Name                  string             `json:"name"`
	Description           *string            `json:"description,omitempty"`
	StartDate             openapi_types.Date `json:"start_date"`
	EndDate               openapi_types.Date `json:"end_date"`
	BackgroundPicturePath *string            `json:"background_picture_path,omitempty"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
	Steps                 []StepResponse     `json:"steps,omitempty"`
	Travels               []TravelResponse   `json:"travels,omitempty"`
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var body TripRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.trips.Create(r.Context(), requestToTrip(body))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(created))
}

// ListTrips handles GET /trips, the caller's own trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	p, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	trips, total, err := s.trips.ListMine(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(trips, total, p, tripToResponse))
}

// ListAllTrips handles GET /admin/trips.
func (s *Server) ListAllTrips(w http.ResponseWriter, r *http.Request) {
	p, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	trips, total, err := s.trips.ListAll(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(trips, total, p, tripToResponse))
}

// ListUserTrips handles GET /admin/users/{userId}/trips.
func (s *Server) ListUserTrips(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	trips, total, err := s.trips.ListByUser(r.Context(), userID, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(trips, total, p, tripToResponse))
}

// GetTrip handles GET /trips/{tripId}. The response embeds the ordered
// steps and the travels between them.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "tripId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	trip, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := tripToResponse(trip)
	resp.Steps = newList(trip.Steps, stepToResponse).Data
	resp.Travels = newList(trip.Travels, travelToResponse).Data
	writeJSON(w, http.StatusOK, resp)
}

// UpdateTrip handles PUT /trips/{tripId}.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "tripId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body TripRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	trip := requestToTrip(body)
	trip.ID = id
	updated, err := s.trips.Update(r.Context(), trip)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(updated))
}

// DeleteTrip handles DELETE /trips/{tripId}. Steps and travels go with it.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "tripId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.trips.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- mapping helpers --------------------------------------------------------

func requestToTrip(body TripRequest) domain.Trip {
	return domain.Trip{
		Name:                  body.Name,
		Description:           derefString(body.Description),
		StartDate:             body.StartDate.Time,
		EndDate:               body.EndDate.Time,
		BackgroundPicturePath: derefString(body.BackgroundPicturePath),
	}
}

func tripToResponse(t domain.Trip) TripResponse {
	return TripResponse{
		ID:                    t.ID,
		UserID:                t.UserID,
		Name:                  t.Name,
		Description:           optionalString(t.Description),
		StartDate:             openapi_types.Date{Time: t.StartDate},
		EndDate:               openapi_types.Date{Time: t.EndDate},
		BackgroundPicturePath: optionalString(t.BackgroundPicturePath),
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// optionalString maps "" to nil so empty fields are omitted.
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
