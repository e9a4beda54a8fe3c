// Package apidocs embeds the OpenAPI description of the A-to-B API.
// The HTTP server serves it raw at /openapi.yaml.
package apidocs

import _ "embed"

// OpenAPI contains the raw bytes of openapi.yaml, embedded at compile time.
//
//go:embed openapi.yaml
var OpenAPI []byte
