package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/adfleet/material-availability/internal/handler" // import the handlers that implement business logic
)

// RegisterRoutes registers routes that do not belong to any feature
// group.  Currently it exposes only a health check, which load
// balancers and monitoring systems use to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAvailability registers the availability read path and the
// reservation write path under /v1.  The read endpoints are advisory
// and lock-free; the console polls them every few seconds, so they
// take the Redis response cache and rate limit middleware.  The
// reserve endpoint is a write and must never be cached: it only gets
// the rate limiter.
func RegisterAvailability(e *echo.Echo, a *handler.AvailabilityHandler, r *handler.ReservationHandler, cache, ratelimit echo.MiddlewareFunc) {
	reads := e.Group("/v1", ratelimit, cache)
	// Plan-level availability for the campaign-creation wizard.
	reads.GET("/plans/:id/availability", a.GetPlanAvailability)

	writes := e.Group("/v1", ratelimit)
	// Batched material snapshots for dashboards.  POST because the id
	// list rides in the body; still a pure read.
	writes.POST("/materials/availability", a.GetMaterialsAvailability)
	// Select the best material and commit an assignment.
	writes.POST("/plans/:id/reserve", r.Reserve)
}

// RegisterCatalog registers the reference-data endpoints consumed by
// the admin console: material registration and the maintenance feed,
// plan templates, and assignment lifecycle transitions.
func RegisterCatalog(e *echo.Echo, m *handler.MaterialHandler, p *handler.PlanHandler, a *handler.AssignmentHandler) {
	g := e.Group("/v1")

	// Materials: registration, listing, maintenance feed, capacity
	// reconfiguration and the per-material booking history.
	g.POST("/materials", m.Create)
	g.GET("/materials", m.List)
	g.GET("/materials/:id", m.Get)
	g.PATCH("/materials/:id/status", m.UpdateStatus)
	g.PATCH("/materials/:id/slots", m.ReconfigureSlots)
	g.GET("/materials/:id/assignments", m.ListAssignments)

	// Plans: immutable templates, create/read only.
	g.POST("/plans", p.Create)
	g.GET("/plans", p.List)
	g.GET("/plans/:id", p.Get)

	// Assignment lifecycle: operator review decisions and campaign
	// start/end transitions.
	g.GET("/assignments/:id", a.Get)
	g.PATCH("/assignments/:id/status", a.UpdateStatus)
}
