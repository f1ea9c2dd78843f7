package model

import "time"

// AvailabilityStatus classifies a material's bookability for one
// specific window.  It is derived, never stored.
type AvailabilityStatus string

const (
	// StatusAvailable means the material has free slots for the window.
	StatusAvailable AvailabilityStatus = "AVAILABLE"
	// StatusFull means every slot is occupied somewhere in the window.
	StatusFull AvailabilityStatus = "FULL"
	// StatusMaintenance means the material is administratively
	// withdrawn; it overrides AVAILABLE and FULL so operators can tell
	// "busy" from "broken" on the dashboard.
	StatusMaintenance AvailabilityStatus = "MAINTENANCE"
)

// AvailabilitySnapshot is the per-material result of evaluating one
// desired window.  Snapshots are computed on demand from the slot
// ledger and are advisory: the reservation coordinator re-evaluates
// under its lock before committing anything.
//
// Fields:
//  MaterialID        – material the snapshot describes.
//  TotalSlots        – the material's fixed capacity.
//  OccupiedSlots     – peak number of slots taken at any instant
//                      inside the desired window.
//  AvailableSlots    – TotalSlots − OccupiedSlots, floored at 0.
//  Status            – AVAILABLE, FULL or MAINTENANCE.
//  CanAcceptAd       – true when Status is AVAILABLE and enough slots
//                      remain for the requested device count.
//  NextAvailableDate – earliest day a window of the requested length
//                      fits, when CanAcceptAd is false; nil when no
//                      such day can be computed.
type AvailabilitySnapshot struct {
	MaterialID        string             `json:"material_id"`
	TotalSlots        uint32             `json:"total_slots"`
	OccupiedSlots     uint32             `json:"occupied_slots"`
	AvailableSlots    uint32             `json:"available_slots"`
	Status            AvailabilityStatus `json:"status"`
	CanAcceptAd       bool               `json:"can_accept_ad"`
	NextAvailableDate *time.Time         `json:"next_available_date,omitempty"`
}

// PlanAvailability is the plan-level aggregation over every compatible
// material, as returned to the availability-checker UI.
//
// Fields:
//  PlanID                  – plan that was evaluated.
//  Window                  – derived desired interval.
//  CanCreate               – true when at least one material can
//                            accept the booking.
//  TotalAvailableSlots     – sum of AvailableSlots over materials in
//                            AVAILABLE status.
//  AvailableMaterialsCount – number of materials with CanAcceptAd.
//  Materials               – per-material snapshots, ordered by
//                            material ID for stable responses.
//  NextAvailableDate       – minimum per-material next date; only
//                            populated when CanCreate is false, nil
//                            when no material could compute one.
type PlanAvailability struct {
	PlanID                  string                 `json:"plan_id"`
	Window                  Interval               `json:"-"`
	CanCreate               bool                   `json:"can_create"`
	TotalAvailableSlots     uint32                 `json:"total_available_slots"`
	AvailableMaterialsCount int                    `json:"available_materials_count"`
	Materials               []AvailabilitySnapshot `json:"material_availabilities"`
	NextAvailableDate       *time.Time             `json:"next_available_date,omitempty"`
}
