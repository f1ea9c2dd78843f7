package model

import "time"

// Plan is a reusable campaign template.  It describes what kind of
// material a campaign needs and for how long, but not when: the start
// date is chosen per booking.  Plans are immutable once created; a
// pricing or duration change is a new plan.
//
// Fields:
//  ID              – external identifier, e.g. "PLAN-BUS-LCD-30".
//  Name            – human readable label shown in the console.
//  MaterialType    – required surface kind.
//  VehicleType     – required vehicle class.
//  Category        – required placement category.
//  DurationDays    – campaign length in days beyond the start day.
//  NumberOfDevices – slots one booking of this plan consumes; almost
//                    always 1, but multi-device plans exist.
//  CreatedAt       – timestamp when the row was created.
type Plan struct {
	ID              string    // plans.id
	Name            string    // plans.name
	MaterialType    string    // plans.material_type
	VehicleType     string    // plans.vehicle_type
	Category        string    // plans.category
	DurationDays    int       // plans.duration_days
	NumberOfDevices uint32    // plans.number_of_devices
	CreatedAt       time.Time // plans.created_at
}

// Window derives the closed campaign interval for a booking of this
// plan starting on the given day.
func (p *Plan) Window(start time.Time) Interval {
	return IntervalFrom(start, p.DurationDays)
}
