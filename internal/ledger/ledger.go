// Package ledger holds the in-process slot ledger: per material, the
// set of capacity-consuming assignment windows and the material's
// fixed capacity.  The ledger is the authoritative occupancy state of
// one engine process; it is warmed from the assignment store at boot
// and written through on every commit and retirement.  A multi-instance
// deployment would have to move this state into a shared transactional
// store, because the per-material serialization in the booking package
// only covers one process.
package ledger

import (
	"errors"
	"sort"
	"sync"

	"github.com/adfleet/material-availability/internal/model"
)

// ErrCapacityExceeded is returned by Insert when the new window would
// push the material's peak occupancy above its total slots at some
// instant.  The reservation coordinator normally prevents this before
// calling Insert; the check here is a second line of defense.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// ErrUnknownMaterial is returned when a material was never registered
// with the ledger.
var ErrUnknownMaterial = errors.New("unknown material")

// Entry is one capacity-consuming window on a material.  Slots is the
// number of devices the assignment occupies (the plan's device count).
type Entry struct {
	AssignmentID string
	Window       model.Interval
	Slots        uint32
}

// SlotLedger maps materials to their occupied windows.  All methods
// are safe for concurrent use; reads never block each other.
type SlotLedger struct {
	mu           sync.RWMutex
	capacity     map[string]uint32  // material id -> total slots
	entries      map[string][]Entry // material id -> windows sorted by start
	byAssignment map[string]string  // assignment id -> material id
}

// New returns an empty ledger.
func New() *SlotLedger {
	return &SlotLedger{
		capacity:     make(map[string]uint32),
		entries:      make(map[string][]Entry),
		byAssignment: make(map[string]string),
	}
}

// Register declares a material and its capacity.  Registering an
// existing material updates its capacity and keeps its entries; this
// is how an operator reconfiguration lands in the ledger.
func (l *SlotLedger) Register(materialID string, totalSlots uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.capacity[materialID] = totalSlots
	if _, ok := l.entries[materialID]; !ok {
		l.entries[materialID] = nil
	}
}

// Replace swaps a material's entries wholesale.  Used when warming the
// ledger from the durable store at startup.
func (l *SlotLedger) Replace(materialID string, totalSlots uint32, entries []Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.capacity[materialID] = totalSlots
	for _, e := range l.entries[materialID] {
		delete(l.byAssignment, e.AssignmentID)
	}
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Window.Start.Before(sorted[j].Window.Start) })
	l.entries[materialID] = sorted
	for _, e := range sorted {
		l.byAssignment[e.AssignmentID] = materialID
	}
}

// Capacity returns the registered total slots for a material.
func (l *SlotLedger) Capacity(materialID string) (uint32, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	total, ok := l.capacity[materialID]
	if !ok {
		return 0, ErrUnknownMaterial
	}
	return total, nil
}

// IntervalsFor returns a copy of the material's capacity-consuming
// windows ordered by start day.  The copy is safe to iterate while
// other goroutines mutate the ledger; it is a point-in-time view and
// may be stale by the time the caller looks at it, which is fine for
// the advisory read path.
func (l *SlotLedger) IntervalsFor(materialID string) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if _, ok := l.capacity[materialID]; !ok {
		return nil, ErrUnknownMaterial
	}
	src := l.entries[materialID]
	out := make([]Entry, len(src))
	copy(out, src)
	return out, nil
}

// Insert appends a capacity-consuming window.  It fails with
// ErrCapacityExceeded when, post-insert, any instant inside the new
// window would exceed the material's total slots.
func (l *SlotLedger) Insert(materialID string, e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	total, ok := l.capacity[materialID]
	if !ok {
		return ErrUnknownMaterial
	}
	next := append(append([]Entry(nil), l.entries[materialID]...), e)
	if PeakOccupancy(next, e.Window) > total {
		return ErrCapacityExceeded
	}
	sort.Slice(next, func(i, j int) bool { return next[i].Window.Start.Before(next[j].Window.Start) })
	l.entries[materialID] = next
	l.byAssignment[e.AssignmentID] = materialID
	return nil
}

// Retire removes an assignment's window, freeing its slots
// immediately.  It reports whether the assignment was present; a
// retirement of an unknown or already-retired assignment is a no-op.
func (l *SlotLedger) Retire(assignmentID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	materialID, ok := l.byAssignment[assignmentID]
	if !ok {
		return false
	}
	delete(l.byAssignment, assignmentID)
	src := l.entries[materialID]
	out := src[:0]
	for _, e := range src {
		if e.AssignmentID != assignmentID {
			out = append(out, e)
		}
	}
	l.entries[materialID] = out
	return true
}

// PeakOccupancy computes the maximum number of slots simultaneously
// occupied at any instant inside the window.  Entries not overlapping
// the window contribute nothing.  The sweep walks window boundaries
// in order, adding each entry's slots on its first overlapping day and
// subtracting them the day after its last.
func PeakOccupancy(entries []Entry, window model.Interval) uint32 {
	type event struct {
		at    int64 // unix day the delta takes effect
		delta int64
	}
	var events []event
	for _, e := range entries {
		if !e.Window.Overlaps(window) {
			continue
		}
		start := e.Window.Start
		if start.Before(window.Start) {
			start = window.Start
		}
		end := e.Window.End
		if end.After(window.End) {
			end = window.End
		}
		events = append(events,
			event{at: start.Unix(), delta: int64(e.Slots)},
			event{at: end.AddDate(0, 0, 1).Unix(), delta: -int64(e.Slots)},
		)
	}
	if len(events) == 0 {
		return 0
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].at != events[j].at {
			return events[i].at < events[j].at
		}
		// Apply decrements first so an interval ending the instant
		// another begins does not double-count; closed-interval overlap
		// is already handled by the end+1day boundary above.
		return events[i].delta < events[j].delta
	})
	var cur, peak int64
	for _, ev := range events {
		cur += ev.delta
		if cur > peak {
			peak = cur
		}
	}
	return uint32(peak)
}
