package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/adfleet/material-availability/internal/ledger"
	"github.com/adfleet/material-availability/internal/model"
	"github.com/adfleet/material-availability/internal/repository"
)

// AssignmentHandler serves the assignment lifecycle feed: operator
// review decisions (approve/reject) and campaign start/end
// transitions.  Transitions into a non-consuming status retire the
// ledger entry so the freed slots become bookable immediately.
type AssignmentHandler struct {
	Assignments *repository.AssignmentRepo
	Ledger      *ledger.SlotLedger
}

// NewAssignmentHandler constructs an AssignmentHandler.  All
// dependencies must be non-nil.
func NewAssignmentHandler(assignments *repository.AssignmentRepo, l *ledger.SlotLedger) *AssignmentHandler {
	if assignments == nil || l == nil {
		panic("nil dependency passed to NewAssignmentHandler")
	}
	return &AssignmentHandler{Assignments: assignments, Ledger: l}
}

// assignmentPayload renders an assignment for JSON responses.
func assignmentPayload(a *model.Assignment) echo.Map {
	return echo.Map{
		"id":                a.ID,
		"material_id":       a.MaterialID,
		"plan_id":           a.PlanID,
		"start_date":        a.Window.Start.Format(model.DateLayout),
		"end_date":          a.Window.End.Format(model.DateLayout),
		"number_of_devices": a.NumberOfDevices,
		"status":            string(a.Status),
	}
}

// Get handles GET /v1/assignments/:id.
func (h *AssignmentHandler) Get(c echo.Context) error {
	id, ok := requireID(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid assignment id"})
	}
	a, err := h.Assignments.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrAssignmentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "assignment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, assignmentPayload(a))
}

// UpdateStatus handles PATCH /v1/assignments/:id/status.  The state
// machine (PENDING -> APPROVED/REJECTED -> RUNNING -> ENDED) is
// enforced in the repository inside a transaction; an illegal move is
// a 409.  Rows are never deleted: a rejected or ended assignment
// stays on record and only its ledger entry is retired.
func (h *AssignmentHandler) UpdateStatus(c echo.Context) error {
	id, ok := requireID(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid assignment id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	next := model.AssignmentStatus(body.Status)
	if !next.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	a, err := h.Assignments.UpdateStatus(c.Request().Context(), id, next)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAssignmentNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "assignment not found"})
		case errors.Is(err, repository.ErrInvalidTransition):
			return c.JSON(http.StatusConflict, echo.Map{"error": "invalid status transition"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !next.ConsumesCapacity() {
		// Rejection or early termination frees the slots right away.
		h.Ledger.Retire(a.ID)
	}
	return c.JSON(http.StatusOK, assignmentPayload(a))
}
