package model

import "time"

// MaterialStatus is the administrative state of a material.  It is set
// by operators through the status feed, independently of occupancy.
type MaterialStatus string

const (
	// MaterialAvailable means the material may accept new assignments,
	// capacity permitting.
	MaterialAvailable MaterialStatus = "AVAILABLE"
	// MaterialMaintenance means the material is withdrawn from booking
	// until an operator clears the flag.  Existing assignments are not
	// touched.
	MaterialMaintenance MaterialStatus = "MAINTENANCE"
)

// Valid reports whether the status is one of the known values.
func (s MaterialStatus) Valid() bool {
	return s == MaterialAvailable || s == MaterialMaintenance
}

// Material is a physical advertising surface: a set of screens or
// panels mounted on one vehicle.  Its TotalSlots is the number of
// devices on it and therefore the number of campaigns it can carry
// simultaneously.  Capacity is fixed at registration and only changes
// through explicit reconfiguration by an operator.
//
// Fields:
//  ID           – external identifier, e.g. "MAT-0042"; unique.
//  MaterialType – kind of surface (LCD, LED, BANNER, ...).
//  VehicleType  – vehicle class carrying it (BUS, TAXI, TRUCK, ...).
//  Category     – placement category used to match plans.
//  TotalSlots   – fixed device capacity; at least 1.
//  Status       – administrative state (AVAILABLE, MAINTENANCE).
//  CreatedAt    – timestamp when the row was created.
//  UpdatedAt    – timestamp of the last update.
type Material struct {
	ID           string         // materials.id
	MaterialType string         // materials.material_type
	VehicleType  string         // materials.vehicle_type
	Category     string         // materials.category
	TotalSlots   uint32         // materials.total_slots
	Status       MaterialStatus // materials.status
	CreatedAt    time.Time      // materials.created_at
	UpdatedAt    time.Time      // materials.updated_at
}

// Matches reports whether the material satisfies a plan's requirements.
// All three dimensions must match exactly; capacity and administrative
// status are judged later by the availability calculator.
func (m *Material) Matches(p *Plan) bool {
	return m.MaterialType == p.MaterialType &&
		m.VehicleType == p.VehicleType &&
		m.Category == p.Category
}
