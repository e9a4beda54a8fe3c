// Package middleware provides the HTTP middleware of the API: CORS, body
// limits, request logging and bearer-token authentication.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// preflightMaxAge is how long, in seconds, a browser may cache a preflight.
const preflightMaxAge = 600

// NewCORSHandler lets the front ends listed in CORS_ORIGINS call the API
// from a browser. Origins are compared verbatim (scheme and host, no
// trailing slash); any other origin gets no CORS headers and the browser
// blocks the response.
//
// Bearer tokens travel in the Authorization header rather than cookies, so
// credentials stay disabled. Content-Disposition is exposed for the CSV
// itinerary export.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         preflightMaxAge,
	})
	return c.Handler
}
