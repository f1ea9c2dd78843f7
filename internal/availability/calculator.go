// Package availability computes material and plan availability from
// the slot ledger.  Everything in this package is a pure read: no
// locks are taken beyond the ledger's own copy-on-read, so snapshots
// may be stale the instant they are produced.  That is acceptable:
// they feed dashboards and pre-flight checks, and the booking
// coordinator re-evaluates under its lock before committing.
package availability

import (
	"sort"
	"time"

	"github.com/adfleet/material-availability/internal/ledger"
	"github.com/adfleet/material-availability/internal/model"
)

// Evaluate computes a material's availability snapshot for one desired
// window.  entries are the material's capacity-consuming windows as
// read from the ledger; devices is the slot count the caller wants.
//
// OccupiedSlots is the peak simultaneous occupancy at any instant
// inside the window, found with a boundary sweep.  An administrative
// MAINTENANCE status overrides both FULL and AVAILABLE.
func Evaluate(m *model.Material, entries []ledger.Entry, window model.Interval, devices uint32) model.AvailabilitySnapshot {
	occupied := ledger.PeakOccupancy(entries, window)
	var free uint32
	if occupied < m.TotalSlots {
		free = m.TotalSlots - occupied
	}

	status := model.StatusAvailable
	if free == 0 {
		status = model.StatusFull
	}
	if m.Status == model.MaterialMaintenance {
		status = model.StatusMaintenance
	}

	snap := model.AvailabilitySnapshot{
		MaterialID:     m.ID,
		TotalSlots:     m.TotalSlots,
		OccupiedSlots:  occupied,
		AvailableSlots: free,
		Status:         status,
		CanAcceptAd:    status == model.StatusAvailable && free >= devices,
	}
	if !snap.CanAcceptAd && status != model.StatusMaintenance {
		// A maintenance block is administrative and has no computable
		// end, so a next date is only offered for capacity blocks.
		snap.NextAvailableDate = nextAvailableDate(m, entries, window, devices)
	}
	return snap
}

// nextAvailableDate finds the earliest day a window of the same length
// would fit: the smallest end+1day among windows overlapping the
// desired interval such that starting there leaves enough free slots
// for the whole duration.  Returns nil when no candidate qualifies,
// which the boundary surfaces as "unknown, try a later date".
func nextAvailableDate(m *model.Material, entries []ledger.Entry, window model.Interval, devices uint32) *time.Time {
	durationDays := int(window.End.Sub(window.Start).Hours() / 24)

	var candidates []time.Time
	seen := make(map[int64]struct{})
	for _, e := range entries {
		if !e.Window.Overlaps(window) {
			continue
		}
		d := e.Window.End.AddDate(0, 0, 1)
		if _, dup := seen[d.Unix()]; dup {
			continue
		}
		seen[d.Unix()] = struct{}{}
		candidates = append(candidates, d)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Before(candidates[j]) })

	for _, d := range candidates {
		shifted := model.IntervalFrom(d, durationDays)
		if occupied := ledger.PeakOccupancy(entries, shifted); occupied < m.TotalSlots && m.TotalSlots-occupied >= devices {
			next := d
			return &next
		}
	}
	return nil
}
