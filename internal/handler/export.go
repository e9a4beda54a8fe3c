package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/atob/internal/domain"
)

// Export formats accepted by ?format=.
const (
	exportFormatJSON = "json"
	exportFormatCSV  = "csv"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"trip_id", "trip_name", "trip_start_date", "trip_end_date",
	"step_order", "step_name", "latitude", "longitude", "step_start_at", "step_end_at",
	"step_notes", "transport_mode", "distance_m", "duration_s", "carbon_emission_g",
}

// ExportRow is the JSON view of one exported step.
type ExportRow struct {
	TripID         openapi_types.UUID `json:"trip_id"`
	TripName       string             `json:"trip_name"`
	TripStartDate  openapi_types.Date `json:"trip_start_date"`
	TripEndDate    openapi_types.Date `json:"trip_end_date"`
	StepOrder      *int               `json:"step_order,omitempty"`
	StepName       *string            `json:"step_name,omitempty"`
	Latitude       *float64           `json:"latitude,omitempty"`
	Longitude      *float64           `json:"longitude,omitempty"`
	StepStartAt    *time.Time         `json:"step_start_at,omitempty"`
	StepEndAt      *time.Time         `json:"step_end_at,omitempty"`
	StepNotes      *string            `json:"step_notes,omitempty"`
	TransportMode  *string            `json:"transport_mode,omitempty"`
	DistanceMeters *float64           `json:"distance_m,omitempty"`
	DurationSecs   *float64           `json:"duration_s,omitempty"`
	CarbonEmission *int               `json:"carbon_emission_g,omitempty"`
}

// ExportTrip handles GET /trips/{tripId}/export.
// It returns one row per step, in order. Use ?format=csv to receive CSV;
// default is JSON.
func (s *Server) ExportTrip(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		writeError(w, r, domain.Invalid("format", domain.CodeInvalidFormat, "format must be a string"))
		return
	}
	wantCSV := false
	if format != nil {
		switch *format {
		case exportFormatCSV:
			wantCSV = true
		case exportFormatJSON:
		default:
			writeError(w, r, domain.Invalid("format", domain.CodeUnsupportedFormat, "format must be one of: json, csv"))
			return
		}
	}

	rows, err := s.export.Export(r.Context(), tripID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if wantCSV {
		writeCSV(w, r, rows)
		return
	}
	writeJSON(w, http.StatusOK, newList(rows, domainRowToResponse))
}

// writeCSV encodes rows as CSV, buffered so a write error can still become
// a 500.
func writeCSV(w http.ResponseWriter, r *http.Request, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write(csvHeaders)
	for _, row := range rows {
		_ = cw.Write(domainRowToCSVRecord(row))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		writeError(w, r, fmt.Errorf("handler.ExportTrip: csv: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="itinerary.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// domainRowToResponse maps a domain.ExportRow to its JSON view. Step fields
// are omitted on the single row of a trip with no steps.
func domainRowToResponse(r domain.ExportRow) ExportRow {
	tripID, _ := uuid.Parse(r.TripID)
	row := ExportRow{
		TripID:         tripID,
		TripName:       r.TripName,
		TripStartDate:  mustParseDate(r.TripStartDate),
		TripEndDate:    mustParseDate(r.TripEndDate),
		StepStartAt:    r.StepStartAt,
		StepEndAt:      r.StepEndAt,
		StepNotes:      optionalString(r.StepNotes),
		TransportMode:  optionalString(r.TransportMode),
		DistanceMeters: r.DistanceMeters,
		DurationSecs:   r.DurationSecs,
		CarbonEmission: r.CarbonEmission,
	}
	if r.StepOrder > 0 {
		order, lat, lon := r.StepOrder, r.Latitude, r.Longitude
		row.StepOrder = &order
		row.StepName = &r.StepName
		row.Latitude = &lat
		row.Longitude = &lon
	}
	return row
}

// domainRowToCSVRecord encodes a domain.ExportRow as a flat string slice.
// Nil values are encoded as empty strings.
func domainRowToCSVRecord(r domain.ExportRow) []string {
	var order, lat, lon string
	if r.StepOrder > 0 {
		order = strconv.Itoa(r.StepOrder)
		lat = strconv.FormatFloat(r.Latitude, 'f', -1, 64)
		lon = strconv.FormatFloat(r.Longitude, 'f', -1, 64)
	}
	return []string{
		r.TripID,
		r.TripName,
		r.TripStartDate,
		r.TripEndDate,
		order,
		r.StepName,
		lat,
		lon,
		formatOptionalTime(r.StepStartAt),
		formatOptionalTime(r.StepEndAt),
		r.StepNotes,
		r.TransportMode,
		formatOptionalFloat(r.DistanceMeters),
		formatOptionalFloat(r.DurationSecs),
		formatOptionalInt(r.CarbonEmission),
	}
}

// mustParseDate parses an "2006-01-02" string into an openapi_types.Date.
// Panics on malformed input; callers are expected to pass service-generated dates.
func mustParseDate(s string) openapi_types.Date {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic("handler: malformed date from service: " + s)
	}
	return openapi_types.Date{Time: t}
}

// formatOptionalTime returns the RFC3339 representation of t, or "" if t is nil.
func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatOptionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatOptionalInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
