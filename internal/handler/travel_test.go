package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/atob/internal/domain"
	"github.com/pkordes/atob/internal/handler"
)

// mockTravelServicer is a test double for handler.TravelServicer.
type mockTravelServicer struct {
	addBetween func(ctx context.Context, draft domain.TravelDraft) (domain.Travel, error)
	getByID    func(ctx context.Context, id uuid.UUID) (domain.Travel, error)
	listByTrip func(ctx context.Context, tripID uuid.UUID) ([]domain.Travel, error)
	delete     func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTravelServicer) AddBetween(ctx context.Context, d domain.TravelDraft) (domain.Travel, error) {
	return m.addBetween(ctx, d)
}
func (m *mockTravelServicer) GetByID(ctx context.Context, id uuid.UUID) (domain.Travel, error) {
	return m.getByID(ctx, id)
}
func (m *mockTravelServicer) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Travel, error) {
	return m.listByTrip(ctx, tripID)
}
func (m *mockTravelServicer) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

// compile-time check: mockTravelServicer must satisfy handler.TravelServicer.
var _ handler.TravelServicer = (*mockTravelServicer)(nil)

func TestCreateTravel_201(t *testing.T) {
	origin, dest := uuid.New(), uuid.New()
	carbon := 900
	svc := &mockTravelServicer{
		addBetween: func(_ context.Context, d domain.TravelDraft) (domain.Travel, error) {
			assert.Equal(t, origin, d.OriginStepID)
			assert.Equal(t, dest, d.DestinationStepID)
			assert.Equal(t, "Train", d.TransportMode)
			assert.Nil(t, d.Distance, "distance is derived when omitted")
			assert.Equal(t, 7200.0, d.Duration)
			assert.Equal(t, orb.LineString{{4.83, 45.76}, {6.12, 45.9}}, d.Route)
			return domain.Travel{
				ID: uuid.New(), OriginStepID: origin, DestinationStepID: dest, TransportMode: "train",
				Distance: 110500, Duration: 7200, CarbonEmission: &carbon, Route: d.Route,
			}, nil
		},
	}

	rec := do(t, newHTTPHandler(handler.Services{Travels: svc}), http.MethodPost, "/api/v1/travels", userToken(uuid.New()), map[string]any{
		"origin_step_id":      origin,
		"destination_step_id": dest,
		"transport_mode":      "Train",
		"duration":            7200,
		"route":               [][2]float64{{4.83, 45.76}, {6.12, 45.9}},
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[handler.TravelResponse](t, rec)
	assert.Equal(t, 110500.0, resp.Distance)
	assert.Equal(t, &carbon, resp.CarbonEmission)
	assert.Len(t, resp.Route, 2)
}

func TestCreateTravel_422(t *testing.T) {
	tests := []struct {
		name      string
		body      map[string]any
		wantField string
		wantCode  string
	}{
		{"missing origin", map[string]any{"destination_step_id": uuid.New(), "transport_mode": "car"}, "origin_step_id", domain.CodeRequired},
		{"negative distance", map[string]any{"origin_step_id": uuid.New(), "destination_step_id": uuid.New(), "transport_mode": "car", "distance": -1}, "distance", domain.CodeOutOfRange},
		{"negative duration", map[string]any{"origin_step_id": uuid.New(), "destination_step_id": uuid.New(), "transport_mode": "car", "duration": -5}, "duration", domain.CodeOutOfRange},
		{"no mode", map[string]any{"origin_step_id": uuid.New(), "destination_step_id": uuid.New()}, "transport_mode", domain.CodeRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newHTTPHandler(handler.Services{Travels: &mockTravelServicer{}}), http.MethodPost, "/api/v1/travels", userToken(uuid.New()), tt.body)

			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.wantField, body.Details[0].Field)
			assert.Equal(t, tt.wantCode, body.Details[0].Code)
		})
	}
}

func TestCreateTravel_422_NotSequential(t *testing.T) {
	svc := &mockTravelServicer{
		addBetween: func(context.Context, domain.TravelDraft) (domain.Travel, error) {
			return domain.Travel{}, fmt.Errorf("service.TravelService.AddBetween: %w",
				domain.Invalid("destination_step_id", domain.CodeStepsNotSequential, "destination must directly follow origin"))
		},
	}

	rec := do(t, newHTTPHandler(handler.Services{Travels: svc}), http.MethodPost, "/api/v1/travels", userToken(uuid.New()), map[string]any{
		"origin_step_id": uuid.New(), "destination_step_id": uuid.New(), "transport_mode": "car",
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, domain.CodeStepsNotSequential, decodeError(t, rec).Details[0].Code)
}

func TestListTravels_200(t *testing.T) {
	tripID := uuid.New()
	svc := &mockTravelServicer{
		listByTrip: func(_ context.Context, got uuid.UUID) ([]domain.Travel, error) {
			assert.Equal(t, tripID, got)
			return []domain.Travel{}, nil
		},
	}

	rec := do(t, newHTTPHandler(handler.Services{Travels: svc}), http.MethodGet, "/api/v1/trips/"+tripID.String()+"/travels", userToken(uuid.New()), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestGetAndDeleteTravel(t *testing.T) {
	id := uuid.New()
	svc := &mockTravelServicer{
		getByID: func(context.Context, uuid.UUID) (domain.Travel, error) {
			return domain.Travel{ID: id, TransportMode: "bike"}, nil
		},
		delete: func(context.Context, uuid.UUID) error { return domain.ErrForbidden },
	}
	h := newHTTPHandler(handler.Services{Travels: svc})

	rec := do(t, h, http.MethodGet, "/api/v1/travels/"+id.String(), userToken(uuid.New()), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[handler.TravelResponse](t, rec)
	assert.Equal(t, "bike", resp.TransportMode)
	assert.Nil(t, resp.Route)

	rec = do(t, h, http.MethodDelete, "/api/v1/travels/"+id.String(), userToken(uuid.New()), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
