package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/pkordes/atob/internal/domain"
	"github.com/pkordes/atob/internal/logging"
)

// ErrorResponse is the envelope of every error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail is the body of ErrorResponse. Details lists field issues for
// validation failures.
type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details []domain.FieldIssue `json:"details,omitempty"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorBody(w http.ResponseWriter, status int, code, message string, details []domain.FieldIssue) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message, Details: details}})
}

// writeError maps a service error onto its HTTP status. Anything not
// recognised is logged and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr     *domain.ValidationError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verr):
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", issueSummary(verr), verr.Issues)
	case errors.As(err, &tooLarge):
		writeErrorBody(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", nil)
	case errors.Is(err, domain.ErrValidation):
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err, domain.ErrValidation), nil)
	case errors.Is(err, domain.ErrNotFound):
		writeErrorBody(w, http.StatusNotFound, "not_found", "resource not found", nil)
	case errors.Is(err, domain.ErrConflict):
		writeErrorBody(w, http.StatusConflict, "conflict", unwrapMessage(err, domain.ErrConflict), nil)
	case errors.Is(err, domain.ErrLockedOut):
		writeErrorBody(w, http.StatusLocked, "locked_out", "account is temporarily locked, try again later", nil)
	case errors.Is(err, domain.ErrEmailNotConfirmed):
		writeErrorBody(w, http.StatusForbidden, "email_not_confirmed", "email address is not confirmed", nil)
	case errors.Is(err, domain.ErrUnauthorized):
		writeErrorBody(w, http.StatusUnauthorized, "unauthorized", "invalid credentials or token", nil)
	case errors.Is(err, domain.ErrForbidden):
		writeErrorBody(w, http.StatusForbidden, "forbidden", "you do not have access to this resource", nil)
	default:
		logging.FromContext(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeErrorBody(w, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}

// issueSummary is the top-level message of a validation failure: the first
// issue, with a count of the rest.
func issueSummary(verr *domain.ValidationError) string {
	switch len(verr.Issues) {
	case 0:
		return domain.ErrValidation.Error()
	case 1:
		return verr.Issues[0].Message
	default:
		return verr.Issues[0].Message + " (and more)"
	}
}

// unwrapMessage extracts the human-readable part following a sentinel.
// e.g. "service.TripService.Create: conflict: a trip with this name already exists"
// -> "a trip with this name already exists"
func unwrapMessage(err, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.LastIndex(msg, prefix); i >= 0 && len(msg) > i+len(prefix) {
		return msg[i+len(prefix):]
	}
	return sentinel.Error()
}
