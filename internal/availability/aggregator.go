package availability

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/adfleet/material-availability/internal/ledger"
	"github.com/adfleet/material-availability/internal/model"
)

// ErrNoCompatibleMaterials is returned when a plan's material type,
// vehicle type and category match nothing in the catalog.  It is
// distinct from "compatible materials exist but are all full", which
// is a successful aggregation with CanCreate == false.
var ErrNoCompatibleMaterials = errors.New("no compatible materials for plan")

// Catalog is the read-only reference data the aggregator consumes.
// It is implemented by the catalog package on top of the MySQL
// repositories.
type Catalog interface {
	PlanByID(ctx context.Context, id string) (*model.Plan, error)
	MaterialByID(ctx context.Context, id string) (*model.Material, error)
	MaterialsMatching(ctx context.Context, plan *model.Plan) ([]*model.Material, error)
}

// Aggregator fans the calculator out over every material compatible
// with a plan and combines the snapshots into a plan-level verdict.
type Aggregator struct {
	catalog Catalog
	ledger  *ledger.SlotLedger
}

// NewAggregator constructs an Aggregator.  Both dependencies must be
// non-nil.
func NewAggregator(catalog Catalog, l *ledger.SlotLedger) *Aggregator {
	if catalog == nil || l == nil {
		panic("nil dependency passed to NewAggregator")
	}
	return &Aggregator{catalog: catalog, ledger: l}
}

// ForPlan evaluates a plan against a desired start date.  The desired
// window is [start, start+durationDays].  The per-material snapshots
// come back ordered by material ID so repeated calls with no
// intervening writes produce identical payloads.
func (a *Aggregator) ForPlan(ctx context.Context, planID string, start time.Time) (*model.PlanAvailability, error) {
	plan, err := a.catalog.PlanByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	materials, err := a.catalog.MaterialsMatching(ctx, plan)
	if err != nil {
		return nil, err
	}
	if len(materials) == 0 {
		return nil, ErrNoCompatibleMaterials
	}
	sort.Slice(materials, func(i, j int) bool { return materials[i].ID < materials[j].ID })

	window := plan.Window(start)
	out := &model.PlanAvailability{
		PlanID:    plan.ID,
		Window:    window,
		Materials: make([]model.AvailabilitySnapshot, 0, len(materials)),
	}
	for _, m := range materials {
		entries, err := a.ledger.IntervalsFor(m.ID)
		if err != nil {
			return nil, err
		}
		snap := Evaluate(m, entries, window, plan.NumberOfDevices)
		out.Materials = append(out.Materials, snap)
		if snap.CanAcceptAd {
			out.CanCreate = true
			out.AvailableMaterialsCount++
		}
		if snap.Status == model.StatusAvailable {
			out.TotalAvailableSlots += snap.AvailableSlots
		}
	}
	if !out.CanCreate {
		out.NextAvailableDate = earliest(out.Materials)
	}
	return out, nil
}

// ForMaterials evaluates a batch of materials against a single day,
// the dashboard's implicit "today".  Unknown IDs surface the catalog's
// not-found error so the boundary can report which ID was bad.
func (a *Aggregator) ForMaterials(ctx context.Context, materialIDs []string, day time.Time) ([]model.AvailabilitySnapshot, error) {
	window := model.IntervalFrom(day, 0)
	out := make([]model.AvailabilitySnapshot, 0, len(materialIDs))
	for _, id := range materialIDs {
		m, err := a.catalog.MaterialByID(ctx, id)
		if err != nil {
			return nil, err
		}
		entries, err := a.ledger.IntervalsFor(m.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, Evaluate(m, entries, window, 1))
	}
	return out, nil
}

// earliest picks the minimum next-available date across snapshots,
// ignoring those that could not compute one.
func earliest(snaps []model.AvailabilitySnapshot) *time.Time {
	var min *time.Time
	for i := range snaps {
		d := snaps[i].NextAvailableDate
		if d == nil {
			continue
		}
		if min == nil || d.Before(*min) {
			min = d
		}
	}
	return min
}
