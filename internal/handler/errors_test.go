package handler_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/atob/internal/domain"
	"github.com/pkordes/atob/internal/handler"
)

// Every sentinel maps to one status and code. GET /users/me is used as the
// carrier because it has no input of its own.
func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"not found", fmt.Errorf("service.X.Y: %w", domain.ErrNotFound), http.StatusNotFound, "not_found", "resource not found"},
		{"conflict keeps reason", fmt.Errorf("service.X.Y: %w: username is already taken", domain.ErrConflict), http.StatusConflict, "conflict", "username is already taken"},
		{"bare validation", fmt.Errorf("%w: trips_dates_check", domain.ErrValidation), http.StatusUnprocessableEntity, "validation_error", "trips_dates_check"},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "invalid credentials or token"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "forbidden", "you do not have access to this resource"},
		{"email not confirmed", domain.ErrEmailNotConfirmed, http.StatusForbidden, "email_not_confirmed", "email address is not confirmed"},
		{"locked out", domain.ErrLockedOut, http.StatusLocked, "locked_out", "account is temporarily locked, try again later"},
		{"internal", errors.New("connection refused to 10.0.0.3"), http.StatusInternalServerError, "internal_error", "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &mockUserServicer{
				me: func(context.Context) (domain.User, error) { return domain.User{}, tt.err },
			}
			h := newHTTPHandler(handler.Services{Users: users})

			rec := do(t, h, http.MethodGet, "/api/v1/users/me", userToken(uuid.New()), nil)

			require.Equal(t, tt.wantStatus, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantMsg, body.Message)
		})
	}
}

func TestErrorMapping_ValidationDetails(t *testing.T) {
	users := &mockUserServicer{
		me: func(context.Context) (domain.User, error) {
			var v domain.ValidationError
			v.Add("name", domain.CodeTooShort, "name must be at least 3 characters")
			v.Add("end_date", domain.CodeBeforeStart, "end_date cannot be before start_date")
			return domain.User{}, fmt.Errorf("service.X.Y: %w", v.Err())
		},
	}
	h := newHTTPHandler(handler.Services{Users: users})

	rec := do(t, h, http.MethodGet, "/api/v1/users/me", userToken(uuid.New()), nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "validation_error", body.Code)
	assert.Equal(t, "name must be at least 3 characters (and more)", body.Message)
	require.Len(t, body.Details, 2)
	assert.Equal(t, domain.FieldIssue{Field: "end_date", Code: domain.CodeBeforeStart, Message: "end_date cannot be before start_date"}, body.Details[1])
}

func TestAuthenticatedRoutes_RequireBearer(t *testing.T) {
	h := newHTTPHandler(handler.Services{})

	for _, auth := range []string{"", "Bearer nonsense", "Basic dXNlcjpwYXNz"} {
		rec := do(t, h, http.MethodGet, "/api/v1/trips", auth, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "auth=%q", auth)
		assert.Equal(t, "unauthorized", decodeError(t, rec).Code)
	}
}

func TestAdminRoutes_RequireAdminRole(t *testing.T) {
	h := newHTTPHandler(handler.Services{})

	rec := do(t, h, http.MethodGet, "/api/v1/admin/trips", userToken(uuid.New()), nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decodeError(t, rec).Code)
}

func TestMalformedBodies(t *testing.T) {
	h := newHTTPHandler(handler.Services{})
	tests := []struct {
		name      string
		body      string
		wantField string
		wantCode  string
	}{
		{"empty", "", "body", domain.CodeRequired},
		{"syntax", `{"name":`, "body", domain.CodeMalformedRequest},
		{"unknown field", `{"name":"Alps","start_date":"2026-06-01","end_date":"2026-06-02","colour":"red"}`, "body", domain.CodeMalformedRequest},
		{"wrong type", `{"name":42}`, "name", domain.CodeInvalidFormat},
		{"two objects", `{"name":"Alps","start_date":"2026-06-01","end_date":"2026-06-02"}{}`, "body", domain.CodeMalformedRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/trips", userToken(uuid.New()), tt.body)

			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			body := decodeError(t, rec)
			require.NotEmpty(t, body.Details)
			assert.Equal(t, tt.wantField, body.Details[0].Field)
			assert.Equal(t, tt.wantCode, body.Details[0].Code)
		})
	}
}

func TestInvalidPathArgument(t *testing.T) {
	h := newHTTPHandler(handler.Services{})

	rec := do(t, h, http.MethodGet, "/api/v1/trips/not-a-uuid", userToken(uuid.New()), nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "tripId", body.Details[0].Field)
	assert.Equal(t, domain.CodeInvalidPathArgument, body.Details[0].Code)
}
