package handler

import (
	"net/http"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/atob/internal/domain"
)

// TestimonialRequest is the body of POST /testimonials. Date defaults to
// today.
type TestimonialRequest struct {
	Feedback string              `json:"feedback" validate:"notblank,min=10,max=500"`
	Rate     int                 `json:"rate" validate:"min=1,max=5"`
	Date     *openapi_types.Date `json:"date"`
}

// TestimonialResponse is the public view of a testimonial.
type TestimonialResponse struct {
	ID        openapi_types.UUID `json:"id"`
	UserID    openapi_types.UUID `json:"user_id"`
	Username  string             `json:"username"`
	Feedback  string             `json:"feedback"`
	Rate      int                `json:"rate"`
	Date      openapi_types.Date `json:"date"`
	CreatedAt time.Time          `json:"created_at"`
}

// ListTestimonials handles GET /testimonials, newest first.
func (s *Server) ListTestimonials(w http.ResponseWriter, r *http.Request) {
	p, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, total, err := s.testimonials.List(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(items, total, p, testimonialToResponse))
}

// GetTestimonial handles GET /testimonials/{testimonialId}.
func (s *Server) GetTestimonial(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "testimonialId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.testimonials.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, testimonialToResponse(t))
}

// CreateTestimonial handles POST /testimonials.
func (s *Server) CreateTestimonial(w http.ResponseWriter, r *http.Request) {
	var body TestimonialRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	t := domain.Testimonial{Feedback: body.Feedback, Rate: body.Rate}
	if body.Date != nil {
		t.Date = body.Date.Time
	}
	created, err := s.testimonials.Create(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, testimonialToResponse(created))
}

// DeleteTestimonial handles DELETE /testimonials/{testimonialId}.
func (s *Server) DeleteTestimonial(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "testimonialId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.testimonials.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func testimonialToResponse(t domain.Testimonial) TestimonialResponse {
	return TestimonialResponse{
		ID:        t.ID,
		UserID:    t.UserID,
		Username:  t.Username,
		Feedback:  t.Feedback,
		Rate:      t.Rate,
		Date:      openapi_types.Date{Time: t.Date},
		CreatedAt: t.CreatedAt,
	}
}
