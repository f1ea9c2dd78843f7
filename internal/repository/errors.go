// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrMaterialNotFound maps to a 404 at the boundary while
// ErrInvalidTransition signals a lifecycle move the assignment state
// machine does not permit and maps to a 409.
package repository

import "errors"

// ErrMaterialNotFound is returned when a material id matches no row.
var ErrMaterialNotFound = errors.New("material not found")

// ErrPlanNotFound is returned when a plan id matches no row.
var ErrPlanNotFound = errors.New("plan not found")

// ErrAssignmentNotFound is returned when an assignment id matches no row.
var ErrAssignmentNotFound = errors.New("assignment not found")

// ErrDuplicateID is returned when inserting a material or plan whose
// external id already exists. Handlers should translate this into an
// HTTP 409 response.
var ErrDuplicateID = errors.New("duplicate id")

// ErrInvalidTransition is returned when an assignment status update
// does not follow PENDING -> APPROVED/REJECTED -> RUNNING -> ENDED.
var ErrInvalidTransition = errors.New("invalid status transition")
