package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/atob/internal/domain"
)

// StepRequest is the body of the step insertion endpoints.
type StepRequest struct {
	Name        string     `json:"name" validate:"notblank,max=50"`
	Description *string    `json:"description" validate:"omitempty,max=500"`
	Latitude    *float64   `json:"latitude" validate:"required,latitude"`
	Longitude   *float64   `json:"longitude" validate:"required,longitude"`
	StartAt     *time.Time `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
}

// StepPatchRequest is the body of PATCH /steps/{stepId}. Absent fields are
// left unchanged; clear_dates removes both dates first.
type StepPatchRequest struct {
	Name        *string    `json:"name" validate:"omitempty,max=50"`
	Description *string    `json:"description" validate:"omitempty,max=500"`
	Latitude    *float64   `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64   `json:"longitude" validate:"omitempty,longitude"`
	StartAt     *time.Time `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
	ClearDates  bool       `json:"clear_dates"`
}

// StepResponse is the JSON view of a step.
type StepResponse struct {
	ID          openapi_types.UUID `json:"id"`
	TripID      openapi_types.UUID `json:"trip_id"`
	Order       int                `json:"order"`
	Name        string             `json:"name"`
	Description *string            `json:"description,omitempty"`
	Latitude    float64            `json:"latitude"`
	Longitude   float64            `json:"longitude"`
	StartAt     *time.Time         `json:"start_at,omitempty"`
	EndAt       *time.Time         `json:"end_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// ListSteps handles GET /trips/{tripId}/steps. Steps come back in order.
func (s *Server) ListSteps(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	steps, err := s.steps.ListByTrip(r.Context(), tripID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(steps, stepToResponse))
}

// AddStep handles POST /trips/{tripId}/steps, appending the step.
func (s *Server) AddStep(w http.ResponseWriter, r *http.Request) {
	s.addStep(w, r, func(tripID uuid.UUID, step domain.Step) (domain.Step, error) {
		return s.steps.AddLast(r.Context(), tripID, step)
	})
}

// AddStepBefore handles POST /trips/{tripId}/steps/{stepId}/before.
func (s *Server) AddStepBefore(w http.ResponseWriter, r *http.Request) {
	targetID, err := pathUUID(r, "stepId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.addStep(w, r, func(tripID uuid.UUID, step domain.Step) (domain.Step, error) {
		return s.steps.AddBefore(r.Context(), tripID, targetID, step)
	})
}

// AddStepAfter handles POST /trips/{tripId}/steps/{stepId}/after.
func (s *Server) AddStepAfter(w http.ResponseWriter, r *http.Request) {
	targetID, err := pathUUID(r, "stepId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.addStep(w, r, func(tripID uuid.UUID, step domain.Step) (domain.Step, error) {
		return s.steps.AddAfter(r.Context(), tripID, targetID, step)
	})
}

func (s *Server) addStep(w http.ResponseWriter, r *http.Request, add func(uuid.UUID, domain.Step) (domain.Step, error)) {
	tripID, err := pathUUID(r, "tripId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body StepRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := add(tripID, domain.Step{
		Name:        body.Name,
		Description: derefString(body.Description),
		Latitude:    *body.Latitude,
		Longitude:   *body.Longitude,
		StartAt:     body.StartAt,
		EndAt:       body.EndAt,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, stepToResponse(created))
}

// GetStep handles GET /steps/{stepId}.
func (s *Server) GetStep(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "stepId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	step, err := s.steps.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stepToResponse(step))
}

// UpdateStep handles PATCH /steps/{stepId}. Order is changed only through
// the move endpoints.
func (s *Server) UpdateStep(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "stepId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body StepPatchRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.steps.Update(r.Context(), id, domain.StepPatch{
		Name:        body.Name,
		Description: body.Description,
		Latitude:    body.Latitude,
		Longitude:   body.Longitude,
		StartAt:     body.StartAt,
		EndAt:       body.EndAt,
		ClearDates:  body.ClearDates,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stepToResponse(updated))
}

// DeleteStep handles DELETE /steps/{stepId}. The travels touching the step
// are removed and the remaining steps close the gap.
func (s *Server) DeleteStep(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "stepId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.steps.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveStepToEnd handles PATCH /steps/{stepId}/move-end.
func (s *Server) MoveStepToEnd(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "stepId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeMoved(w, r)(s.steps.MoveToEnd(r.Context(), id))
}

// MoveStepBefore handles PATCH /steps/{stepId}/move-before/{targetStepId}.
func (s *Server) MoveStepBefore(w http.ResponseWriter, r *http.Request) {
	ids, err := pathUUIDs(r, "stepId", "targetStepId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeMoved(w, r)(s.steps.MoveBefore(r.Context(), ids[0], ids[1]))
}

// MoveStepAfter handles PATCH /steps/{stepId}/move-after/{targetStepId}.
func (s *Server) MoveStepAfter(w http.ResponseWriter, r *http.Request) {
	ids, err := pathUUIDs(r, "stepId", "targetStepId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeMoved(w, r)(s.steps.MoveAfter(r.Context(), ids[0], ids[1]))
}

func (s *Server) writeMoved(w http.ResponseWriter, r *http.Request) func(domain.Step, error) {
	return func(step domain.Step, err error) {
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, stepToResponse(step))
	}
}

func stepToResponse(st domain.Step) StepResponse {
	return StepResponse{
		ID:          st.ID,
		TripID:      st.TripID,
		Order:       st.Order,
		Name:        st.Name,
		Description: optionalString(st.Description),
		Latitude:    st.Latitude,
		Longitude:   st.Longitude,
		StartAt:     st.StartAt,
		EndAt:       st.EndAt,
		CreatedAt:   st.CreatedAt,
		UpdatedAt:   st.UpdatedAt,
	}
}
