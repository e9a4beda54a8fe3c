package domain

import (
	"errors"
	"strings"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. name too short, end date before start date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when a write would break a uniqueness rule
// (username, email, trip name per owner). Handlers map it to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrUnauthorized means the caller is not authenticated or presented a bad
// credential or token. Handlers map it to HTTP 401.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden means the caller is authenticated but does not own the
// resource and is not an administrator. Handlers map it to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrLockedOut is returned by login while the account lockout window is open.
var ErrLockedOut = errors.New("account locked out")

// ErrEmailNotConfirmed is returned by login for accounts that never confirmed
// their email address.
var ErrEmailNotConfirmed = errors.New("email not confirmed")

// Validation issue codes shared across services and request validation.
const (
	CodeRequired            = "required"
	CodeTooShort            = "too_short"
	CodeTooLong             = "too_long"
	CodeOutOfRange          = "out_of_range"
	CodeInvalidFormat       = "invalid_format"
	CodeInPast              = "in_past"
	CodeInFuture            = "in_future"
	CodeBeforeStart         = "before_start"
	CodeMismatch            = "mismatch"
	CodeWeakPassword        = "weak_password"
	CodeStepsNotInSameTrip  = "steps_not_in_same_trip"
	CodeSameStep            = "same_step"
	CodeStepsNotSequential  = "steps_not_sequential"
	CodeInvalidRoute        = "invalid_route"
	CodeInvalidToken        = "invalid_token"
	CodeUnsupportedFormat   = "unsupported_format"
	CodeMalformedRequest    = "malformed_request"
	CodeInvalidPathArgument = "invalid_path_argument"
)

// FieldIssue describes one rejected input field.
type FieldIssue struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError collects field issues. It unwraps to ErrValidation so
// callers can keep using errors.Is.
type ValidationError struct {
	Issues []FieldIssue
}

// Invalid returns a ValidationError holding a single issue.
func Invalid(field, code, message string) error {
	return &ValidationError{Issues: []FieldIssue{{Field: field, Code: code, Message: message}}}
}

// Add records an issue.
func (e *ValidationError) Add(field, code, message string) {
	e.Issues = append(e.Issues, FieldIssue{Field: field, Code: code, Message: message})
}

// Err returns e when at least one issue was recorded, otherwise nil.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Issues) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		msgs = append(msgs, is.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Issue codes specific to travel endpoints.
const (
	CodeOriginDestinationNotInSameTrip = "origin_and_destination_not_in_same_trip"
	CodeOriginDestinationSame          = "origin_and_destination_same"
)
