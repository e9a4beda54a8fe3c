package handler

import (
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/atob/internal/domain"
)

// UpdateUsernameRequest is the body of PATCH /users/me/username.
type UpdateUsernameRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
}

// UpdateEmailRequest is the body of PATCH /users/me/email.
type UpdateEmailRequest struct {
	Email openapi_types.Email `json:"email" validate:"required"`
}

// ContactRequest is the body of POST /contact.
type ContactRequest struct {
	Name        string              `json:"name" validate:"notblank,max=100"`
	Email       openapi_types.Email `json:"email" validate:"required"`
	Subject     string              `json:"subject" validate:"notblank,max=200"`
	Body        string              `json:"body" validate:"notblank,max=5000"`
	CopyToOwner bool                `json:"copy_to_owner"`
}

// GetMe handles GET /users/me.
func (s *Server) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.Me(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userToResponse(user))
}

// UpdateUsername handles PATCH /users/me/username.
func (s *Server) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	var body UpdateUsernameRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := s.users.UpdateUsername(r.Context(), body.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userToResponse(user))
}

// UpdateEmail handles PATCH /users/me/email. The new address must be
// confirmed again before the next login.
func (s *Server) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	var body UpdateEmailRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := s.users.UpdateEmail(r.Context(), string(body.Email))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userToResponse(user))
}

// Contact handles POST /contact.
func (s *Server) Contact(w http.ResponseWriter, r *http.Request) {
	var body ContactRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	err := s.users.Contact(r.Context(), domain.ContactRequest{
		Name:        body.Name,
		Email:       string(body.Email),
		Subject:     body.Subject,
		Body:        body.Body,
		CopyToOwner: body.CopyToOwner,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, MessageResponse{Message: "message sent"})
}
