// Package queue defines message payloads exchanged over the message broker.
package queue

// AssignmentCommittedEvent is published when a booking commits an
// assignment onto a material. It contains enough information for
// downstream consumers to log, notify, or trigger analytics without
// querying the primary database.
type AssignmentCommittedEvent struct {
	AssignmentID    string `json:"assignment_id"`
	MaterialID      string `json:"material_id"`
	PlanID          string `json:"plan_id"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	NumberOfDevices uint32 `json:"number_of_devices"`
	Status          string `json:"status"`
	CommittedAt     string `json:"committed_at"`
}
