package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/adfleet/material-availability/internal/catalog"
	"github.com/adfleet/material-availability/internal/model"
	"github.com/adfleet/material-availability/internal/repository"
)

// PlanHandler exposes the plan catalog.  Plans are immutable campaign
// templates, so there is create/read but no update or delete.
type PlanHandler struct {
	Catalog *catalog.Service
}

// NewPlanHandler constructs a PlanHandler.  The catalog must be non-nil.
func NewPlanHandler(cat *catalog.Service) *PlanHandler {
	if cat == nil {
		panic("nil catalog passed to NewPlanHandler")
	}
	return &PlanHandler{Catalog: cat}
}

// planPayload renders a plan for JSON responses.
func planPayload(p *model.Plan) echo.Map {
	return echo.Map{
		"id":                p.ID,
		"name":              p.Name,
		"material_type":     p.MaterialType,
		"vehicle_type":      p.VehicleType,
		"category":          p.Category,
		"duration_days":     p.DurationDays,
		"number_of_devices": p.NumberOfDevices,
	}
}

// Create handles POST /v1/plans.  duration_days may be zero (a one-day
// campaign occupies only its start day); number_of_devices defaults
// to 1 when omitted.
func (h *PlanHandler) Create(c echo.Context) error {
	var body struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		MaterialType    string `json:"material_type"`
		VehicleType     string `json:"vehicle_type"`
		Category        string `json:"category"`
		DurationDays    int    `json:"duration_days"`
		NumberOfDevices uint32 `json:"number_of_devices"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	id, ok := requireID(body.ID)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id is required"})
	}
	if body.MaterialType == "" || body.VehicleType == "" || body.Category == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "material_type, vehicle_type and category are required"})
	}
	if body.DurationDays < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "duration_days must not be negative"})
	}
	if body.NumberOfDevices == 0 {
		body.NumberOfDevices = 1
	}

	p := &model.Plan{
		ID:              id,
		Name:            body.Name,
		MaterialType:    body.MaterialType,
		VehicleType:     body.VehicleType,
		Category:        body.Category,
		DurationDays:    body.DurationDays,
		NumberOfDevices: body.NumberOfDevices,
	}
	if err := h.Catalog.CreatePlan(c.Request().Context(), p); err != nil {
		if errors.Is(err, repository.ErrDuplicateID) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "plan id already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, planPayload(p))
}

// List handles GET /v1/plans.
func (h *PlanHandler) List(c echo.Context) error {
	ps, err := h.Catalog.ListPlans(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(ps))
	for _, p := range ps {
		out = append(out, planPayload(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"plans": out})
}

// Get handles GET /v1/plans/:id.
func (h *PlanHandler) Get(c echo.Context) error {
	id, ok := requireID(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plan id"})
	}
	p, err := h.Catalog.PlanByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrPlanNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "plan not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, planPayload(p))
}
