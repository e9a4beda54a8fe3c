package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/atob/internal/domain"
	"github.com/pkordes/atob/internal/handler"
	"github.com/pkordes/atob/internal/middleware"
)

// fakeTokens accepts "user:<uuid>" and "admin:<uuid>" bearer tokens.
type fakeTokens struct{}

func (fakeTokens) ParseAccess(raw string) (domain.Actor, error) {
	kind, rawID, ok := strings.Cut(raw, ":")
	id, err := uuid.Parse(rawID)
	if !ok || err != nil {
		return domain.Actor{}, errors.New("bad token")
	}
	a := domain.Actor{UserID: id, Roles: []domain.Role{domain.RoleUser}}
	switch kind {
	case "user":
	case "admin":
		a.Roles = append(a.Roles, domain.RoleAdmin)
	default:
		return domain.Actor{}, errors.New("bad token")
	}
	return a, nil
}

var _ middleware.TokenParser = fakeTokens{}

// newHTTPHandler wires a Server with the given services into the router,
// exactly as main.go does minus the outer middleware.
func newHTTPHandler(svc handler.Services) http.Handler {
	return handler.NewServer(svc).Routes(middleware.NewAuthenticator(fakeTokens{}))
}

func userToken(id uuid.UUID) string  { return "Bearer user:" + id.String() }
func adminToken(id uuid.UUID) string { return "Bearer admin:" + id.String() }

// do sends a request through h. body may be nil, a string (sent verbatim)
// or any value (JSON encoded). auth may be empty.
func do(t *testing.T, h http.Handler, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	return decode[handler.ErrorResponse](t, rec).Error
}

// actorOf returns the caller a service mock was invoked with.
func actorOf(t *testing.T, ctx context.Context) domain.Actor {
	t.Helper()
	a, ok := domain.ActorFromContext(ctx)
	require.True(t, ok, "no actor in context")
	return a
}
