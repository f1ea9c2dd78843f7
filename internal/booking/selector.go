// Package booking turns a plan-level availability verdict into a
// committed assignment: it ranks the compatible materials, then books
// against them one at a time inside a per-material critical section.
package booking

import (
	"errors"
	"sort"

	"github.com/adfleet/material-availability/internal/model"
)

// ErrNoSuitableMaterial is returned when no compatible material can
// accept the booking at selection time.  Selection runs with no lock
// held, so a suitable result is only a candidate: the coordinator
// re-checks it at commit time.
var ErrNoSuitableMaterial = errors.New("no suitable material")

// Rank orders availability snapshots by booking preference:
//
//  1. only materials with CanAcceptAd qualify;
//  2. more free slots first, spreading bookings across the fleet
//     instead of packing one material;
//  3. ties break on the lexicographically lowest material ID, keeping
//     selection deterministic.
//
// The full ranked list is returned so a caller losing a commit race
// can fall through to the next-best candidate.
func Rank(snaps []model.AvailabilitySnapshot) []model.AvailabilitySnapshot {
	ranked := make([]model.AvailabilitySnapshot, 0, len(snaps))
	for _, s := range snaps {
		if s.CanAcceptAd {
			ranked = append(ranked, s)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].AvailableSlots != ranked[j].AvailableSlots {
			return ranked[i].AvailableSlots > ranked[j].AvailableSlots
		}
		return ranked[i].MaterialID < ranked[j].MaterialID
	})
	return ranked
}

// Select returns the single best candidate, or ErrNoSuitableMaterial
// when none qualifies.
func Select(snaps []model.AvailabilitySnapshot) (model.AvailabilitySnapshot, error) {
	ranked := Rank(snaps)
	if len(ranked) == 0 {
		return model.AvailabilitySnapshot{}, ErrNoSuitableMaterial
	}
	return ranked[0], nil
}
