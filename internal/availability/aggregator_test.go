package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfleet/material-availability/internal/ledger"
	"github.com/adfleet/material-availability/internal/model"
	"github.com/adfleet/material-availability/internal/repository"
)

// fakeCatalog serves reference data from memory so the aggregator can
// be exercised without MySQL.
type fakeCatalog struct {
	plans     map[string]*model.Plan
	materials map[string]*model.Material
}

func (f *fakeCatalog) PlanByID(_ context.Context, id string) (*model.Plan, error) {
	p, ok := f.plans[id]
	if !ok {
		return nil, repository.ErrPlanNotFound
	}
	return p, nil
}

func (f *fakeCatalog) MaterialByID(_ context.Context, id string) (*model.Material, error) {
	m, ok := f.materials[id]
	if !ok {
		return nil, repository.ErrMaterialNotFound
	}
	return m, nil
}

func (f *fakeCatalog) MaterialsMatching(_ context.Context, p *model.Plan) ([]*model.Material, error) {
	var out []*model.Material
	for _, m := range f.materials {
		if m.Matches(p) {
			out = append(out, m)
		}
	}
	return out, nil
}

func plan(id string, durationDays int, devices uint32) *model.Plan {
	return &model.Plan{
		ID:              id,
		Name:            "spring push",
		MaterialType:    "LCD",
		VehicleType:     "BUS",
		Category:        "URBAN",
		DurationDays:    durationDays,
		NumberOfDevices: devices,
	}
}

func TestForPlanNoCompatibleMaterials(t *testing.T) {
	cat := &fakeCatalog{
		plans: map[string]*model.Plan{"PLN-1": plan("PLN-1", 7, 1)},
		materials: map[string]*model.Material{
			"MAT-1": {ID: "MAT-1", MaterialType: "LED", VehicleType: "TRAM", Category: "SUBURBAN", TotalSlots: 4, Status: model.MaterialAvailable},
		},
	}
	agg := NewAggregator(cat, ledger.New())

	_, err := agg.ForPlan(context.Background(), "PLN-1", day(2026, time.April, 1))
	assert.ErrorIs(t, err, ErrNoCompatibleMaterials)
}

func TestForPlanUnknownPlanSurfacesNotFound(t *testing.T) {
	agg := NewAggregator(&fakeCatalog{plans: map[string]*model.Plan{}}, ledger.New())

	_, err := agg.ForPlan(context.Background(), "PLN-404", day(2026, time.April, 1))
	assert.ErrorIs(t, err, repository.ErrPlanNotFound)
}

func TestForPlanAggregatesAcrossMaterials(t *testing.T) {
	cat := &fakeCatalog{
		plans: map[string]*model.Plan{"PLN-1": plan("PLN-1", 9, 1)},
		materials: map[string]*model.Material{
			"MAT-2": material("MAT-2", 3, model.MaterialAvailable),
			"MAT-1": material("MAT-1", 2, model.MaterialAvailable),
			"MAT-3": material("MAT-3", 5, model.MaterialMaintenance),
		},
	}
	l := ledger.New()
	l.Register("MAT-1", 2)
	l.Register("MAT-2", 3)
	l.Register("MAT-3", 5)
	require.NoError(t, l.Insert("MAT-1", ledger.Entry{
		AssignmentID: "a1",
		Window:       window(day(2026, time.April, 1), day(2026, time.April, 30)),
		Slots:        1,
	}))

	agg := NewAggregator(cat, l)
	pa, err := agg.ForPlan(context.Background(), "PLN-1", day(2026, time.April, 5))
	require.NoError(t, err)

	assert.True(t, pa.CanCreate)
	// MAT-1 has 1 of 2 free, MAT-2 all 3; the maintenance material
	// contributes nothing.
	assert.Equal(t, uint32(4), pa.TotalAvailableSlots)
	assert.Equal(t, 2, pa.AvailableMaterialsCount)
	require.Len(t, pa.Materials, 3)
	assert.Equal(t, "MAT-1", pa.Materials[0].MaterialID)
	assert.Equal(t, "MAT-2", pa.Materials[1].MaterialID)
	assert.Equal(t, "MAT-3", pa.Materials[2].MaterialID)
	assert.Nil(t, pa.NextAvailableDate)
}

func TestForPlanAllFullReportsEarliestNextDate(t *testing.T) {
	cat := &fakeCatalog{
		plans: map[string]*model.Plan{"PLN-1": plan("PLN-1", 4, 1)},
		materials: map[string]*model.Material{
			"MAT-1": material("MAT-1", 1, model.MaterialAvailable),
			"MAT-2": material("MAT-2", 1, model.MaterialAvailable),
		},
	}
	l := ledger.New()
	l.Register("MAT-1", 1)
	l.Register("MAT-2", 1)
	require.NoError(t, l.Insert("MAT-1", ledger.Entry{
		AssignmentID: "a1",
		Window:       window(day(2026, time.May, 1), day(2026, time.May, 20)),
		Slots:        1,
	}))
	require.NoError(t, l.Insert("MAT-2", ledger.Entry{
		AssignmentID: "a2",
		Window:       window(day(2026, time.May, 1), day(2026, time.May, 12)),
		Slots:        1,
	}))

	agg := NewAggregator(cat, l)
	pa, err := agg.ForPlan(context.Background(), "PLN-1", day(2026, time.May, 5))
	require.NoError(t, err)

	assert.False(t, pa.CanCreate)
	assert.Equal(t, 0, pa.AvailableMaterialsCount)
	require.NotNil(t, pa.NextAvailableDate)
	// MAT-2 frees first: May 12 + 1 day.
	assert.Equal(t, day(2026, time.May, 13), *pa.NextAvailableDate)
}

func TestForPlanIsIdempotent(t *testing.T) {
	cat := &fakeCatalog{
		plans: map[string]*model.Plan{"PLN-1": plan("PLN-1", 6, 2)},
		materials: map[string]*model.Material{
			"MAT-1": material("MAT-1", 4, model.MaterialAvailable),
			"MAT-2": material("MAT-2", 2, model.MaterialAvailable),
		},
	}
	l := ledger.New()
	l.Register("MAT-1", 4)
	l.Register("MAT-2", 2)
	require.NoError(t, l.Insert("MAT-1", ledger.Entry{
		AssignmentID: "a1",
		Window:       window(day(2026, time.June, 1), day(2026, time.June, 10)),
		Slots:        2,
	}))

	agg := NewAggregator(cat, l)
	first, err := agg.ForPlan(context.Background(), "PLN-1", day(2026, time.June, 3))
	require.NoError(t, err)
	second, err := agg.ForPlan(context.Background(), "PLN-1", day(2026, time.June, 3))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestForMaterialsSingleDaySnapshots(t *testing.T) {
	cat := &fakeCatalog{
		materials: map[string]*model.Material{
			"MAT-1": material("MAT-1", 2, model.MaterialAvailable),
			"MAT-2": material("MAT-2", 1, model.MaterialAvailable),
		},
	}
	l := ledger.New()
	l.Register("MAT-1", 2)
	l.Register("MAT-2", 1)
	require.NoError(t, l.Insert("MAT-2", ledger.Entry{
		AssignmentID: "a1",
		Window:       window(day(2026, time.July, 1), day(2026, time.July, 31)),
		Slots:        1,
	}))

	agg := NewAggregator(cat, l)
	snaps, err := agg.ForMaterials(context.Background(), []string{"MAT-1", "MAT-2"}, day(2026, time.July, 10))
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.True(t, snaps[0].CanAcceptAd)
	assert.Equal(t, model.StatusFull, snaps[1].Status)
	assert.False(t, snaps[1].CanAcceptAd)
}

func TestForMaterialsUnknownIDSurfacesNotFound(t *testing.T) {
	agg := NewAggregator(&fakeCatalog{materials: map[string]*model.Material{}}, ledger.New())

	_, err := agg.ForMaterials(context.Background(), []string{"MAT-404"}, day(2026, time.July, 10))
	assert.ErrorIs(t, err, repository.ErrMaterialNotFound)
}
