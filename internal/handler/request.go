package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/atob/internal/domain"
	"github.com/pkordes/atob/internal/validate"
)

// decodeBody reads a JSON body into dst and validates its struct tags.
// Unknown fields, trailing data and type mismatches are validation errors.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return domain.Invalid("body", domain.CodeMalformedRequest, "request body must contain a single JSON object")
	}
	return validate.Struct(dst)
}

func decodeError(err error) error {
	var (
		tooLarge  *http.MaxBytesError
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)
	switch {
	case errors.As(err, &tooLarge):
		return err
	case errors.Is(err, io.EOF):
		return domain.Invalid("body", domain.CodeRequired, "request body is required")
	case errors.Is(err, openapi_types.ErrValidationEmail):
		return domain.Invalid("email", domain.CodeInvalidFormat, "email must be a valid email address")
	case errors.As(err, &typeErr):
		return domain.Invalid(typeErr.Field, domain.CodeInvalidFormat, fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type))
	case errors.As(err, &syntaxErr):
		return domain.Invalid("body", domain.CodeMalformedRequest, fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset))
	default:
		return domain.Invalid("body", domain.CodeMalformedRequest, err.Error())
	}
}

// pathUUID binds a UUID path parameter the way generated oapi-codegen
// wrappers do.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		return uuid.Nil, domain.Invalid(name, domain.CodeInvalidPathArgument, name+" must be a UUID")
	}
	return id, nil
}

// pathUUIDs binds several UUID path parameters, stopping at the first bad one.
func pathUUIDs(r *http.Request, names ...string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(names))
	for i, name := range names {
		id, err := pathUUID(r, name)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// pagination binds the optional ?page= and ?limit= query parameters.
// Defaults: page=1, limit=20, max=100.
func pagination(r *http.Request) (domain.PaginationParams, error) {
	var page, limit *int
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "page", q, &page); err != nil {
		return domain.PaginationParams{}, domain.Invalid("page", domain.CodeInvalidFormat, "page must be an integer")
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &limit); err != nil {
		return domain.PaginationParams{}, domain.Invalid("limit", domain.CodeInvalidFormat, "limit must be an integer")
	}
	return domain.NewPaginationParams(page, limit), nil
}

// Pagination is the metadata block of paged responses.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Page is a paged list response.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

func newPage[S, T any](items []S, total int64, p domain.PaginationParams, conv func(S) T) Page[T] {
	data := make([]T, len(items))
	for i, it := range items {
		data[i] = conv(it)
	}
	return Page[T]{
		Data: data,
		Pagination: Pagination{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      total,
			TotalPages: p.TotalPages(total),
		},
	}
}

// List is an unpaged list response.
type List[T any] struct {
	Data []T `json:"data"`
}

func newList[S, T any](items []S, conv func(S) T) List[T] {
	data := make([]T, len(items))
	for i, it := range items {
		data[i] = conv(it)
	}
	return List[T]{Data: data}
}
