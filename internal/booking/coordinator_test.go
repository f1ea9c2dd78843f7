package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfleet/material-availability/internal/availability"
	"github.com/adfleet/material-availability/internal/ledger"
	"github.com/adfleet/material-availability/internal/model"
	"github.com/adfleet/material-availability/internal/repository"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func window(s, e time.Time) model.Interval {
	iv, err := model.NewInterval(s, e)
	if err != nil {
		panic(err)
	}
	return iv
}

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

// memStore records assignments in memory.  onCreate, when set, runs
// inside Create so tests can interleave a competing write at the worst
// possible moment.
type memStore struct {
	mu       sync.Mutex
	created  []*model.Assignment
	statuses map[string]model.AssignmentStatus
	onCreate func(a *model.Assignment)
}

func newMemStore() *memStore {
	return &memStore{statuses: make(map[string]model.AssignmentStatus)}
}

func (s *memStore) Create(_ context.Context, a *model.Assignment) error {
	s.mu.Lock()
	s.created = append(s.created, a)
	s.statuses[a.ID] = a.Status
	hook := s.onCreate
	s.mu.Unlock()
	if hook != nil {
		hook(a)
	}
	return nil
}

func (s *memStore) UpdateStatus(_ context.Context, id string, status model.AssignmentStatus) (*model.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.statuses[id]; !ok {
		return nil, repository.ErrAssignmentNotFound
	}
	s.statuses[id] = status
	for _, a := range s.created {
		if a.ID == id {
			updated := *a
			updated.Status = status
			return &updated, nil
		}
	}
	return nil, repository.ErrAssignmentNotFound
}

func (s *memStore) status(id string) model.AssignmentStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[id]
}

type countingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *countingNotifier) AssignmentCommitted(_ context.Context, a *model.Assignment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, a.ID)
}

func fixture(materials map[string]uint32, maintenance ...string) (*fakeCatalog, *ledger.SlotLedger) {
	down := make(map[string]bool, len(maintenance))
	for _, id := range maintenance {
		down[id] = true
	}
	cat := &fakeCatalog{
		plans: map[string]*model.Plan{
			"PLN-1": {
				ID:              "PLN-1",
				Name:            "metro takeover",
				MaterialType:    "LCD",
				VehicleType:     "BUS",
				Category:        "URBAN",
				DurationDays:    9,
				NumberOfDevices: 1,
			},
		},
		materials: make(map[string]*model.Material, len(materials)),
	}
	l := ledger.New()
	for id, slots := range materials {
		status := model.MaterialAvailable
		if down[id] {
			status = model.MaterialMaintenance
		}
		cat.materials[id] = &model.Material{
			ID:           id,
			MaterialType: "LCD",
			VehicleType:  "BUS",
			Category:     "URBAN",
			TotalSlots:   slots,
			Status:       status,
		}
		l.Register(id, slots)
	}
	return cat, l
}

func TestReserveCommitsBestCandidate(t *testing.T) {
	cat, l := fixture(map[string]uint32{"MAT-1": 2, "MAT-2": 5})
	store := newMemStore()
	notifier := &countingNotifier{}
	coord := NewCoordinator(availability.NewAggregator(cat, l), cat, l, store, notifier)

	res, err := coord.Reserve(context.Background(), "PLN-1", day(2026, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, res.State)
	// MAT-2 has the most free slots and wins the ranking.
	assert.Equal(t, "MAT-2", res.MaterialID)
	require.NotEmpty(t, res.AssignmentID)
	assert.Equal(t, model.AssignmentPending, store.status(res.AssignmentID))
	assert.Equal(t, []string{res.AssignmentID}, notifier.calls)

	entries, err := l.IntervalsFor("MAT-2")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, res.AssignmentID, entries[0].AssignmentID)
	assert.Equal(t, window(day(2026, time.March, 1), day(2026, time.March, 10)), entries[0].Window)
}

func TestReserveRejectsWhenAllMaterialsFull(t *testing.T) {
	cat, l := fixture(map[string]uint32{"MAT-1": 1})
	require.NoError(t, l.Insert("MAT-1", ledger.Entry{
		AssignmentID: "existing",
		Window:       window(day(2026, time.March, 1), day(2026, time.March, 20)),
		Slots:        1,
	}))
	store := newMemStore()
	coord := NewCoordinator(availability.NewAggregator(cat, l), cat, l, store, nil)

	res, err := coord.Reserve(context.Background(), "PLN-1", day(2026, time.March, 5))
	assert.ErrorIs(t, err, ErrAllMaterialsFull)
	require.NotNil(t, res)
	assert.Equal(t, StateRejected, res.State)
	assert.Contains(t, res.FailureReason, "full")
	require.NotNil(t, res.NextAvailableDate)
	assert.Equal(t, day(2026, time.March, 21), *res.NextAvailableDate)
	assert.Empty(t, store.created)
}

func TestReserveReportsMaintenanceDistinctly(t *testing.T) {
	cat, l := fixture(map[string]uint32{"MAT-1": 3}, "MAT-1")
	coord := NewCoordinator(availability.NewAggregator(cat, l), cat, l, newMemStore(), nil)

	res, err := coord.Reserve(context.Background(), "PLN-1", day(2026, time.March, 5))
	assert.ErrorIs(t, err, ErrAllMaterialsFull)
	require.NotNil(t, res)
	assert.Contains(t, res.FailureReason, "maintenance")
	assert.Nil(t, res.NextAvailableDate)
}

func TestReserveUnknownPlan(t *testing.T) {
	cat, l := fixture(map[string]uint32{"MAT-1": 1})
	coord := NewCoordinator(availability.NewAggregator(cat, l), cat, l, newMemStore(), nil)

	res, err := coord.Reserve(context.Background(), "PLN-404", day(2026, time.March, 5))
	assert.ErrorIs(t, err, repository.ErrPlanNotFound)
	assert.Nil(t, res)
}

func TestReserveFallsBackToNextCandidateAfterLostRace(t *testing.T) {
	cat, l := fixture(map[string]uint32{"MAT-1": 2, "MAT-2": 1})
	store := newMemStore()
	// The moment the first candidate's row is written, a competitor
	// grabs both of its slots, so the ledger insert must fail and the
	// coordinator must compensate and fall through to MAT-2.
	var once sync.Once
	store.onCreate = func(a *model.Assignment) {
		once.Do(func() {
			require.Equal(t, "MAT-1", a.MaterialID)
			require.NoError(t, l.Insert("MAT-1", ledger.Entry{
				AssignmentID: "rival",
				Window:       a.Window,
				Slots:        2,
			}))
		})
	}
	coord := NewCoordinator(availability.NewAggregator(cat, l), cat, l, store, nil)

	res, err := coord.Reserve(context.Background(), "PLN-1", day(2026, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, res.State)
	assert.Equal(t, "MAT-2", res.MaterialID)

	require.Len(t, store.created, 2)
	first, second := store.created[0], store.created[1]
	assert.Equal(t, "MAT-1", first.MaterialID)
	assert.Equal(t, model.AssignmentRejected, store.status(first.ID))
	assert.Equal(t, model.AssignmentPending, store.status(second.ID))
}

func TestReserveConcurrentSingleSlot(t *testing.T) {
	cat, l := fixture(map[string]uint32{"MAT-1": 1})
	store := newMemStore()
	coord := NewCoordinator(availability.NewAggregator(cat, l), cat, l, store, nil)

	var wg sync.WaitGroup
	results := make([]*Result, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = coord.Reserve(context.Background(), "PLN-1", day(2026, time.March, 1))
		}(i)
	}
	wg.Wait()

	var committed, rejected int
	for i := range results {
		if errs[i] == nil {
			committed++
			assert.Equal(t, StateCommitted, results[i].State)
			continue
		}
		rejected++
		// Depending on when the loser reads availability it either sees
		// the material already full or loses the commit race.
		assert.True(t,
			errors.Is(errs[i], ErrCapacityExceeded) || errors.Is(errs[i], ErrAllMaterialsFull),
			"unexpected error: %v", errs[i])
	}
	assert.Equal(t, 1, committed)
	assert.Equal(t, 1, rejected)

	entries, err := l.IntervalsFor("MAT-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReserveConcurrentLoadNeverOverbooks(t *testing.T) {
	const (
		slots   = 3
		callers = 10
	)
	cat, l := fixture(map[string]uint32{"MAT-1": slots})
	store := newMemStore()
	coord := NewCoordinator(availability.NewAggregator(cat, l), cat, l, store, nil)

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = coord.Reserve(context.Background(), "PLN-1", day(2026, time.March, 1))
		}(i)
	}
	wg.Wait()

	var committed int
	for _, err := range errs {
		if err == nil {
			committed++
		}
	}
	assert.Equal(t, slots, committed)

	entries, err := l.IntervalsFor("MAT-1")
	require.NoError(t, err)
	assert.Len(t, entries, slots)
	occupied := ledger.PeakOccupancy(entries, window(day(2026, time.March, 1), day(2026, time.March, 10)))
	assert.LessOrEqual(t, occupied, uint32(slots))
}
