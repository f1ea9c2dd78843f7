package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/adfleet/material-availability/internal/availability"
	"github.com/adfleet/material-availability/internal/model"
	"github.com/adfleet/material-availability/internal/repository"
)

// AvailabilityHandler serves the lock-free read path: plan-level
// availability for the campaign-creation wizard and batched material
// snapshots for the dashboards.  Both endpoints are advisory: they
// take no locks and may return stale views, which is why the console
// can poll them every few seconds without contending with bookings.
type AvailabilityHandler struct {
	Aggregator *availability.Aggregator
}

// NewAvailabilityHandler constructs an AvailabilityHandler.  The
// aggregator must be non-nil.
func NewAvailabilityHandler(agg *availability.Aggregator) *AvailabilityHandler {
	if agg == nil {
		panic("nil aggregator passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{Aggregator: agg}
}

// snapshotPayload is the wire form of one material snapshot; dates are
// rendered as YYYY-MM-DD rather than timestamps.
type snapshotPayload struct {
	MaterialID        string  `json:"material_id"`
	TotalSlots        uint32  `json:"total_slots"`
	OccupiedSlots     uint32  `json:"occupied_slots"`
	AvailableSlots    uint32  `json:"available_slots"`
	Status            string  `json:"status"`
	CanAcceptAd       bool    `json:"can_accept_ad"`
	NextAvailableDate *string `json:"next_available_date,omitempty"`
}

func toSnapshotPayload(s model.AvailabilitySnapshot) snapshotPayload {
	return snapshotPayload{
		MaterialID:        s.MaterialID,
		TotalSlots:        s.TotalSlots,
		OccupiedSlots:     s.OccupiedSlots,
		AvailableSlots:    s.AvailableSlots,
		Status:            string(s.Status),
		CanAcceptAd:       s.CanAcceptAd,
		NextAvailableDate: formatDay(s.NextAvailableDate),
	}
}

// GetPlanAvailability handles GET /v1/plans/:id/availability?start=YYYY-MM-DD.
// It evaluates every material compatible with the plan against the
// window derived from the start date and returns the plan-level
// verdict.  A plan with zero compatible materials is a 409, distinct
// from a 200 with can_create=false when materials exist but are full.
func (h *AvailabilityHandler) GetPlanAvailability(c echo.Context) error {
	planID, ok := requireID(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plan id"})
	}
	start, err := parseDay(c.QueryParam("start"))
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}
	out, err := h.Aggregator.ForPlan(c.Request().Context(), planID, start)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPlanNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "plan not found"})
		case errors.Is(err, availability.ErrNoCompatibleMaterials):
			return c.JSON(http.StatusConflict, echo.Map{"error": "no compatible materials for plan"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	materials := make([]snapshotPayload, 0, len(out.Materials))
	for _, s := range out.Materials {
		materials = append(materials, toSnapshotPayload(s))
	}
	resp := echo.Map{
		"plan_id":                   out.PlanID,
		"start_date":                out.Window.Start.Format(model.DateLayout),
		"end_date":                  out.Window.End.Format(model.DateLayout),
		"can_create":                out.CanCreate,
		"total_available_slots":     out.TotalAvailableSlots,
		"available_materials_count": out.AvailableMaterialsCount,
		"material_availabilities":   materials,
	}
	if d := formatDay(out.NextAvailableDate); d != nil {
		resp["next_available_date"] = *d
	}
	return c.JSON(http.StatusOK, resp)
}

// GetMaterialsAvailability handles POST /v1/materials/availability.
// The request body carries a "material_ids" array; each material is
// evaluated against today as the implicit desired date.  Dashboards
// poll this endpoint; it rides POST for the body, so only the rate
// limiter guards it.
func (h *AvailabilityHandler) GetMaterialsAvailability(c echo.Context) error {
	var body struct {
		MaterialIDs []string `json:"material_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.MaterialIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "material_ids is required"})
	}
	// deduplicate while preserving request order
	unique := make([]string, 0, len(body.MaterialIDs))
	seen := make(map[string]struct{})
	for _, id := range body.MaterialIDs {
		id, ok := requireID(id)
		if !ok {
			continue
		}
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no valid material IDs provided"})
	}

	snaps, err := h.Aggregator.ForMaterials(c.Request().Context(), unique, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrMaterialNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "material not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]snapshotPayload, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, toSnapshotPayload(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"materials": out})
}
