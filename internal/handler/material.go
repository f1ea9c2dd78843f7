package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/adfleet/material-availability/internal/catalog"
	"github.com/adfleet/material-availability/internal/ledger"
	"github.com/adfleet/material-availability/internal/model"
	"github.com/adfleet/material-availability/internal/repository"
)

// MaterialHandler exposes the material catalog to the admin console:
// registration, listing, the maintenance status feed and explicit
// capacity reconfiguration.  Every write also lands in the slot ledger
// so the availability path sees it immediately.
type MaterialHandler struct {
	Catalog     *catalog.Service
	Ledger      *ledger.SlotLedger
	Assignments *repository.AssignmentRepo
}

// NewMaterialHandler constructs a MaterialHandler.  All dependencies
// must be non-nil.
func NewMaterialHandler(cat *catalog.Service, l *ledger.SlotLedger, assignments *repository.AssignmentRepo) *MaterialHandler {
	if cat == nil || l == nil || assignments == nil {
		panic("nil dependency passed to NewMaterialHandler")
	}
	return &MaterialHandler{Catalog: cat, Ledger: l, Assignments: assignments}
}

// materialPayload renders a material for JSON responses.
func materialPayload(m *model.Material) echo.Map {
	return echo.Map{
		"id":            m.ID,
		"material_type": m.MaterialType,
		"vehicle_type":  m.VehicleType,
		"category":      m.Category,
		"total_slots":   m.TotalSlots,
		"status":        string(m.Status),
	}
}

// Create handles POST /v1/materials.  The console supplies the
// external id; total_slots must be at least 1.  Status defaults to
// AVAILABLE when omitted.
func (h *MaterialHandler) Create(c echo.Context) error {
	var body struct {
		ID           string `json:"id"`
		MaterialType string `json:"material_type"`
		VehicleType  string `json:"vehicle_type"`
		Category     string `json:"category"`
		TotalSlots   uint32 `json:"total_slots"`
		Status       string `json:"status"`
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
	if body.TotalSlots == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_slots must be at least 1"})
	}
	status := model.MaterialAvailable
	if body.Status != "" {
		status = model.MaterialStatus(body.Status)
		if !status.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
	}

	m := &model.Material{
		ID:           id,
		MaterialType: body.MaterialType,
		VehicleType:  body.VehicleType,
		Category:     body.Category,
		TotalSlots:   body.TotalSlots,
		Status:       status,
	}
	if err := h.Catalog.CreateMaterial(c.Request().Context(), m); err != nil {
		if errors.Is(err, repository.ErrDuplicateID) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "material id already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	h.Ledger.Register(m.ID, m.TotalSlots)
	return c.JSON(http.StatusCreated, materialPayload(m))
}

// List handles GET /v1/materials.
func (h *MaterialHandler) List(c echo.Context) error {
	ms, err := h.Catalog.ListMaterials(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(ms))
	for _, m := range ms {
		out = append(out, materialPayload(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"materials": out})
}

// Get handles GET /v1/materials/:id.
func (h *MaterialHandler) Get(c echo.Context) error {
	id, ok := requireID(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid material id"})
	}
	m, err := h.Catalog.MaterialByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrMaterialNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "material not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, materialPayload(m))
}

// UpdateStatus handles PATCH /v1/materials/:id/status: the
// administrative maintenance feed.  Flipping to MAINTENANCE stops new
// bookings on the next evaluation; existing assignments are untouched.
func (h *MaterialHandler) UpdateStatus(c echo.Context) error {
	id, ok := requireID(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid material id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status := model.MaterialStatus(body.Status)
	if !status.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be AVAILABLE or MAINTENANCE"})
	}
	if err := h.Catalog.SetMaterialStatus(c.Request().Context(), id, status); err != nil {
		if errors.Is(err, repository.ErrMaterialNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "material not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": string(status)})
}

// ReconfigureSlots handles PATCH /v1/materials/:id/slots: the
// explicit capacity reconfiguration path.  The ledger picks up the new
// capacity for all future bookings; shrinking below current occupancy
// does not evict running campaigns.
func (h *MaterialHandler) ReconfigureSlots(c echo.Context) error {
	id, ok := requireID(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid material id"})
	}
	var body struct {
		TotalSlots uint32 `json:"total_slots"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.TotalSlots == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_slots must be at least 1"})
	}
	if err := h.Catalog.ReconfigureSlots(c.Request().Context(), id, body.TotalSlots); err != nil {
		if errors.Is(err, repository.ErrMaterialNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "material not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	h.Ledger.Register(id, body.TotalSlots)
	return c.JSON(http.StatusOK, echo.Map{"id": id, "total_slots": body.TotalSlots})
}

// ListAssignments handles GET /v1/materials/:id/assignments.  The full
// lifecycle history is returned, terminal states included: the table
// is an audit trail, not just the active bookings.
func (h *MaterialHandler) ListAssignments(c echo.Context) error {
	id, ok := requireID(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid material id"})
	}
	if _, err := h.Catalog.MaterialByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrMaterialNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "material not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	as, err := h.Assignments.ListByMaterial(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(as))
	for _, a := range as {
		out = append(out, assignmentPayload(a))
	}
	return c.JSON(http.StatusOK, echo.Map{"assignments": out})
}
