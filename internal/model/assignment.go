package model

import "time"

// AssignmentStatus is the lifecycle state of a booked campaign.
// Assignments are never deleted; they move through statuses and stay
// on record as an audit trail.
type AssignmentStatus string

const (
	// AssignmentPending is the state right after a booking commits,
	// awaiting operator review.  Pending assignments hold their slot.
	AssignmentPending AssignmentStatus = "PENDING"
	// AssignmentApproved means the campaign passed review and will run.
	AssignmentApproved AssignmentStatus = "APPROVED"
	// AssignmentRejected means review failed; the slot is freed.
	AssignmentRejected AssignmentStatus = "REJECTED"
	// AssignmentRunning means the campaign window has started.
	AssignmentRunning AssignmentStatus = "RUNNING"
	// AssignmentEnded means the campaign finished or was terminated
	// early; the slot is freed.
	AssignmentEnded AssignmentStatus = "ENDED"
)

// Valid reports whether the status is one of the known values.
func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentPending, AssignmentApproved, AssignmentRejected, AssignmentRunning, AssignmentEnded:
		return true
	}
	return false
}

// ConsumesCapacity reports whether an assignment in this status holds
// a slot on its material.  Rejected and ended assignments do not.
func (s AssignmentStatus) ConsumesCapacity() bool {
	switch s {
	case AssignmentPending, AssignmentApproved, AssignmentRunning:
		return true
	}
	return false
}

// assignmentTransitions lists the permitted lifecycle moves:
// PENDING -> APPROVED | REJECTED, APPROVED -> RUNNING | ENDED,
// RUNNING -> ENDED.  Everything else is invalid.
var assignmentTransitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentPending:  {AssignmentApproved, AssignmentRejected},
	AssignmentApproved: {AssignmentRunning, AssignmentEnded},
	AssignmentRunning:  {AssignmentEnded},
}

// CanTransitionTo reports whether moving from s to next is a legal
// lifecycle step.
func (s AssignmentStatus) CanTransitionTo(next AssignmentStatus) bool {
	for _, allowed := range assignmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Assignment is a concrete booking of one campaign onto one material
// for a date range.  While its status consumes capacity it occupies
// NumberOfDevices slots for every day of its window.
//
// Fields:
//  ID              – UUID assigned at commit time.
//  MaterialID      – material carrying the campaign.
//  PlanID          – plan the booking was derived from.
//  Window          – closed [start, end] day interval of the campaign.
//  NumberOfDevices – slots this booking occupies on the material.
//  Status          – lifecycle state (PENDING, APPROVED, ...).
//  CreatedAt       – timestamp when the row was created.
//  UpdatedAt       – timestamp of the last status change.
type Assignment struct {
	ID              string           // assignments.id
	MaterialID      string           // assignments.material_id
	PlanID          string           // assignments.plan_id
	Window          Interval         // assignments.start_date / assignments.end_date
	NumberOfDevices uint32           // assignments.number_of_devices
	Status          AssignmentStatus // assignments.status
	CreatedAt       time.Time        // assignments.created_at
	UpdatedAt       time.Time        // assignments.updated_at
}
