package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/adfleet/material-availability/internal/availability"
	"github.com/adfleet/material-availability/internal/booking"
	"github.com/adfleet/material-availability/internal/repository"
)

// ReservationHandler drives the write path: it asks the booking
// coordinator to select a material and commit an assignment.  The
// external "create ad" collaborator persists the campaign record
// referencing the returned material id afterwards.
type ReservationHandler struct {
	Coordinator *booking.Coordinator
}

// NewReservationHandler constructs a ReservationHandler.  The
// coordinator must be non-nil.
func NewReservationHandler(coord *booking.Coordinator) *ReservationHandler {
	if coord == nil {
		panic("nil coordinator passed to NewReservationHandler")
	}
	return &ReservationHandler{Coordinator: coord}
}

// Reserve handles POST /v1/plans/:id/reserve.  The body carries a
// "start_date"; the coordinator picks the best compatible material and
// books it, retrying next-best candidates when a concurrent booking
// wins the race.  Domain rejections come back as 409 with a failure
// reason (and the earliest next-available date when one is known);
// only infrastructure failures produce a 500.
func (h *ReservationHandler) Reserve(c echo.Context) error {
	planID, ok := requireID(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plan id"})
	}
	var body struct {
		StartDate string `json:"start_date"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, err := parseDay(body.StartDate)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}

	result, err := h.Coordinator.Reserve(c.Request().Context(), planID, start)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPlanNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "plan not found"})
		case errors.Is(err, availability.ErrNoCompatibleMaterials):
			return c.JSON(http.StatusConflict, echo.Map{
				"success":        false,
				"failure_reason": "no compatible materials for plan",
			})
		case errors.Is(err, booking.ErrAllMaterialsFull):
			resp := echo.Map{
				"success":        false,
				"failure_reason": result.FailureReason,
			}
			if d := formatDay(result.NextAvailableDate); d != nil {
				resp["next_available_date"] = *d
			}
			return c.JSON(http.StatusConflict, resp)
		case errors.Is(err, booking.ErrCapacityExceeded):
			// Every candidate was taken between selection and commit;
			// the client may simply retry.
			return c.JSON(http.StatusConflict, echo.Map{
				"success":        false,
				"failure_reason": result.FailureReason,
				"retryable":      true,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reservation failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success":       true,
		"material_id":   result.MaterialID,
		"assignment_id": result.AssignmentID,
	})
}
