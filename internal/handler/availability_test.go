package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfleet/material-availability/internal/availability"
	"github.com/adfleet/material-availability/internal/booking"
	"github.com/adfleet/material-availability/internal/ledger"
	"github.com/adfleet/material-availability/internal/model"
	"github.com/adfleet/material-availability/internal/repository"
)

type fakeCatalog struct {
	plans     map[string]*model.Plan
	materials map[string]*model.Material
}

func (f *fakeCatalog) PlanByID(_ context.Context, id string) (*model.Plan, error) {
	p, ok := f.plans[id]
	if !ok {
		return nil, repository.ErrPlanNotFound
	}
	return p, nil
}

func (f *fakeCatalog) MaterialByID(_ context.Context, id string) (*model.Material, error) {
	m, ok := f.materials[id]
	if !ok {
		return nil, repository.ErrMaterialNotFound
	}
	return m, nil
}

func (f *fakeCatalog) MaterialsMatching(_ context.Context, p *model.Plan) ([]*model.Material, error) {
	var out []*model.Material
	for _, m := range f.materials {
		if m.Matches(p) {
			out = append(out, m)
		}
	}
	return out, nil
}

type nopStore struct{}

func (nopStore) Create(context.Context, *model.Assignment) error { return nil }
func (nopStore) UpdateStatus(context.Context, string, model.AssignmentStatus) (*model.Assignment, error) {
	return nil, nil
}

func testFixture() (*fakeCatalog, *ledger.SlotLedger) {
	cat := &fakeCatalog{
		plans: map[string]*model.Plan{
			"PLN-1": {
				ID: "PLN-1", Name: "spring push",
				MaterialType: "LCD", VehicleType: "BUS", Category: "URBAN",
				DurationDays: 9, NumberOfDevices: 1,
			},
		},
		materials: map[string]*model.Material{
			"MAT-1": {
				ID: "MAT-1", MaterialType: "LCD", VehicleType: "BUS",
				Category: "URBAN", TotalSlots: 2, Status: model.MaterialAvailable,
			},
		},
	}
	l := ledger.New()
	l.Register("MAT-1", 2)
	return cat, l
}

func planAvailabilityRequest(t *testing.T, h *AvailabilityHandler, planID, start string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/plans/"+planID+"/availability?start="+start, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/plans/:id/availability")
	c.SetParamNames("id")
	c.SetParamValues(planID)
	require.NoError(t, h.GetPlanAvailability(c))
	return rec
}

func TestGetPlanAvailabilityReturnsVerdict(t *testing.T) {
	cat, l := testFixture()
	h := NewAvailabilityHandler(availability.NewAggregator(cat, l))

	rec := planAvailabilityRequest(t, h, "PLN-1", "2026-03-01")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "PLN-1", body["plan_id"])
	assert.Equal(t, "2026-03-01", body["start_date"])
	assert.Equal(t, "2026-03-10", body["end_date"])
	assert.Equal(t, true, body["can_create"])
	assert.Equal(t, float64(2), body["total_available_slots"])
	mats, ok := body["material_availabilities"].([]interface{})
	require.True(t, ok)
	require.Len(t, mats, 1)
}

func TestGetPlanAvailabilityRejectsMalformedDate(t *testing.T) {
	cat, l := testFixture()
	h := NewAvailabilityHandler(availability.NewAggregator(cat, l))

	rec := planAvailabilityRequest(t, h, "PLN-1", "03/01/2026")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetPlanAvailabilityUnknownPlan(t *testing.T) {
	cat, l := testFixture()
	h := NewAvailabilityHandler(availability.NewAggregator(cat, l))

	rec := planAvailabilityRequest(t, h, "PLN-404", "2026-03-01")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPlanAvailabilityNoCompatibleMaterials(t *testing.T) {
	cat, l := testFixture()
	cat.plans["PLN-2"] = &model.Plan{
		ID: "PLN-2", MaterialType: "LED", VehicleType: "TRAM", Category: "SUBURBAN",
		DurationDays: 5, NumberOfDevices: 1,
	}
	h := NewAvailabilityHandler(availability.NewAggregator(cat, l))

	rec := planAvailabilityRequest(t, h, "PLN-2", "2026-03-01")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetMaterialsAvailabilityDeduplicates(t *testing.T) {
	cat, l := testFixture()
	h := NewAvailabilityHandler(availability.NewAggregator(cat, l))

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/materials/availability",
		strings.NewReader(`{"material_ids": ["MAT-1", "MAT-1"]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.GetMaterialsAvailability(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Materials []snapshotPayload `json:"materials"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Materials, 1)
	assert.Equal(t, "MAT-1", body.Materials[0].MaterialID)
}

func TestGetMaterialsAvailabilityEmptyBody(t *testing.T) {
	cat, l := testFixture()
	h := NewAvailabilityHandler(availability.NewAggregator(cat, l))

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/materials/availability",
		strings.NewReader(`{"material_ids": []}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.GetMaterialsAvailability(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func reserveRequest(t *testing.T, h *ReservationHandler, planID, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/plans/"+planID+"/reserve", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/plans/:id/reserve")
	c.SetParamNames("id")
	c.SetParamValues(planID)
	require.NoError(t, h.Reserve(c))
	return rec
}

func TestReserveCommits(t *testing.T) {
	cat, l := testFixture()
	agg := availability.NewAggregator(cat, l)
	coord := booking.NewCoordinator(agg, cat, l, nopStore{}, nil)
	h := NewReservationHandler(coord)

	rec := reserveRequest(t, h, "PLN-1", `{"start_date": "2026-03-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "MAT-1", body["material_id"])
	assert.NotEmpty(t, body["assignment_id"])
}

func TestReserveConflictWhenFull(t *testing.T) {
	cat, l := testFixture()
	w, err := model.NewInterval(
		time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 20, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	require.NoError(t, l.Insert("MAT-1", ledger.Entry{AssignmentID: "a1", Window: w, Slots: 2}))

	agg := availability.NewAggregator(cat, l)
	coord := booking.NewCoordinator(agg, cat, l, nopStore{}, nil)
	h := NewReservationHandler(coord)

	rec := reserveRequest(t, h, "PLN-1", `{"start_date": "2026-03-05"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "2026-03-21", body["next_available_date"])
}

func TestReserveRejectsMalformedDate(t *testing.T) {
	cat, l := testFixture()
	coord := booking.NewCoordinator(availability.NewAggregator(cat, l), cat, l, nopStore{}, nil)
	h := NewReservationHandler(coord)

	rec := reserveRequest(t, h, "PLN-1", `{"start_date": "soon"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
