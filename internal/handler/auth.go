package handler

import (
	"net/http"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/atob/internal/domain"
	"github.com/pkordes/atob/internal/service"
)

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username        string              `json:"username" validate:"required,min=3,max=50,username"`
	Email           openapi_types.Email `json:"email" validate:"required"`
	Password        string              `json:"password" validate:"required,password"`
	ConfirmPassword string              `json:"confirm_password" validate:"required,eqfield=Password"`
}

// ConfirmEmailRequest is the body of POST /auth/confirm-email.
type ConfirmEmailRequest struct {
	Email openapi_types.Email `json:"email" validate:"required"`
	Token string              `json:"token" validate:"required"`
}

// LoginRequest is the body of POST /auth/login. Login is an email or a
// username.
type LoginRequest struct {
	Login    string `json:"login" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest is the body of POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email openapi_types.Email `json:"email" validate:"required"`
}

// ResetPasswordRequest is the body of POST /auth/reset-password.
type ResetPasswordRequest struct {
	Email                openapi_types.Email `json:"email" validate:"required"`
	Token                string              `json:"token" validate:"required"`
	Password             string              `json:"password" validate:"required,password"`
	PasswordConfirmation string              `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// MessageResponse acknowledges requests with nothing else to return.
type MessageResponse struct {
	Message string `json:"message"`
}

// Register handles POST /auth/register.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var body RegisterRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := s.auth.Register(r.Context(), service.RegisterInput{
		Username:        body.Username,
		Email:           string(body.Email),
		Password:        body.Password,
		ConfirmPassword: body.ConfirmPassword,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, userToResponse(user))
}

// ConfirmEmail handles POST /auth/confirm-email.
func (s *Server) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	var body ConfirmEmailRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.auth.ConfirmEmail(r.Context(), string(body.Email), body.Token); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "email confirmed"})
}

// Login handles POST /auth/login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var body LoginRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	tok, err := s.auth.Login(r.Context(), body.Login, body.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken: tok.Token,
		TokenType:   "Bearer",
		ExpiresAt:   tok.ExpiresAt,
		User:        userToResponse(tok.User),
	})
}

// ForgotPassword handles POST /auth/forgot-password. The response is the
// same whether or not the address belongs to an account.
func (s *Server) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body ForgotPasswordRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.auth.ForgotPassword(r.Context(), string(body.Email)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, MessageResponse{Message: "if the address is registered, a reset link has been sent"})
}

// ResetPassword handles POST /auth/reset-password.
func (s *Server) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var body ResetPasswordRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	err := s.auth.ResetPassword(r.Context(), service.ResetPasswordInput{
		Email:                string(body.Email),
		Token:                body.Token,
		Password:             body.Password,
		PasswordConfirmation: body.PasswordConfirmation,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "password updated"})
}

// UserResponse is the public view of an account. The password hash and
// security stamp never leave the service layer.
type UserResponse struct {
	ID             openapi_types.UUID  `json:"id"`
	Username       string              `json:"username"`
	Email          openapi_types.Email `json:"email"`
	EmailConfirmed bool                `json:"email_confirmed"`
	Roles          []string            `json:"roles"`
	CreatedAt      time.Time           `json:"created_at"`
}

func userToResponse(u domain.User) UserResponse {
	roles := make([]string, len(u.Roles))
	for i, role := range u.Roles {
		roles[i] = string(role)
	}
	return UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          openapi_types.Email(u.Email),
		EmailConfirmed: u.EmailConfirmed,
		Roles:          roles,
		CreatedAt:      u.CreatedAt,
	}
}
