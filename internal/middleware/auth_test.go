package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/atob/internal/domain"
	"github.com/pkordes/atob/internal/middleware"
)

type stubParser struct {
	actor domain.Actor
	err   error
	got   string
}

func (s *stubParser) ParseAccess(raw string) (domain.Actor, error) {
	s.got = raw
	return s.actor, s.err
}

// actorEcho writes 200 and records the actor found in the context.
func actorEcho(seen *domain.Actor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a, ok := domain.ActorFromContext(r.Context())
		if ok {
			*seen = a
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticator(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name       string
		header     string
		parserErr  error
		wantStatus int
		wantToken  string
	}{
		{name: "valid token", header: "Bearer abc.def.ghi", wantStatus: http.StatusOK, wantToken: "abc.def.ghi"},
		{name: "scheme is case-insensitive", header: "bearer tok", wantStatus: http.StatusOK, wantToken: "tok"},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", wantStatus: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "rejected token", header: "Bearer bad", parserErr: errors.New("expired"), wantStatus: http.StatusUnauthorized, wantToken: "bad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &stubParser{actor: domain.Actor{UserID: userID}, err: tt.parserErr}
			var seen domain.Actor
			h := middleware.NewAuthenticator(parser)(actorEcho(&seen))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/trips", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantToken, parser.got)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, userID, seen.UserID)
			} else {
				assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
				assert.JSONEq(t, `{"error":{"code":"unauthorized","message":"`+messageFor(tt.parserErr)+`"}}`, rec.Body.String())
			}
		})
	}
}

func messageFor(parserErr error) string {
	if parserErr != nil {
		return "invalid or expired token"
	}
	return "missing bearer token"
}

func TestRequireRole(t *testing.T) {
	var seen domain.Actor
	h := middleware.RequireRole(domain.RoleAdmin)(actorEcho(&seen))

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/trips", nil)
		req = req.WithContext(domain.WithActor(req.Context(), domain.Actor{Roles: []domain.Role{domain.RoleUser, domain.RoleAdmin}}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("user is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/trips", nil)
		req = req.WithContext(domain.WithActor(req.Context(), domain.Actor{Roles: []domain.Role{domain.RoleUser}}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/trips", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
