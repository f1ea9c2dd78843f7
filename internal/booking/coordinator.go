package booking

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adfleet/material-availability/internal/availability"
	"github.com/adfleet/material-availability/internal/ledger"
	"github.com/adfleet/material-availability/internal/model"
)

// maxAttempts bounds how many ranked candidates one reservation tries
// after losing commit races before surfacing the failure to the
// caller.  There is no internal timer; timeouts are the caller's
// responsibility.
const maxAttempts = 3

// ErrAllMaterialsFull is returned when compatible materials exist but
// none can accept the desired window.  The Result carries the earliest
// next-available date when one could be computed.
var ErrAllMaterialsFull = errors.New("all materials full")

// ErrCapacityExceeded is returned when every attempted candidate was
// taken by a concurrent booking between selection and commit.  The
// condition is retryable from the caller's side.
var ErrCapacityExceeded = ledger.ErrCapacityExceeded

// State tracks a reservation request through its lifecycle.  Every
// request ends in StateCommitted or StateRejected; there is no
// cancellation once validation has begun.
type State string

const (
	StateRequested  State = "REQUESTED"
	StateValidating State = "VALIDATING"
	StateCommitted  State = "COMMITTED"
	StateRejected   State = "REJECTED"
)

// Result is the terminal outcome of one reservation request.
type Result struct {
	State             State
	AssignmentID      string
	MaterialID        string
	FailureReason     string
	NextAvailableDate *time.Time
}

// AssignmentStore is the durable backing the coordinator writes
// committed assignments to.  Implemented by repository.AssignmentRepo;
// UpdateStatus returns the updated record, which the coordinator
// discards since its compensation only needs the transition applied.
type AssignmentStore interface {
	Create(ctx context.Context, a *model.Assignment) error
	UpdateStatus(ctx context.Context, id string, status model.AssignmentStatus) (*model.Assignment, error)
}

// Notifier publishes a committed assignment to downstream consumers.
// Publishing is best effort: failures are logged and never fail the
// booking.
type Notifier interface {
	AssignmentCommitted(ctx context.Context, a *model.Assignment)
}

// Coordinator serializes bookings per material and enforces the
// capacity invariant at commit time.  Bookings against different
// materials proceed independently; availability reads never take
// these locks at all.
type Coordinator struct {
	aggregator *availability.Aggregator
	catalog    availability.Catalog
	ledger     *ledger.SlotLedger
	store      AssignmentStore
	notifier   Notifier // may be nil

	mu    sync.Mutex
	locks map[string]*sync.Mutex // material id -> booking lock
}

// NewCoordinator constructs a Coordinator.  notifier may be nil when
// eventing is disabled; everything else must be non-nil.
func NewCoordinator(agg *availability.Aggregator, catalog availability.Catalog, l *ledger.SlotLedger, store AssignmentStore, notifier Notifier) *Coordinator {
	if agg == nil || catalog == nil || l == nil || store == nil {
		panic("nil dependency passed to NewCoordinator")
	}
	return &Coordinator{
		aggregator: agg,
		catalog:    catalog,
		ledger:     l,
		store:      store,
		notifier:   notifier,
		locks:      make(map[string]*sync.Mutex),
	}
}

// materialLock returns the mutex serializing bookings for one
// material, creating it on first use.
func (c *Coordinator) materialLock(materialID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[materialID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[materialID] = l
	}
	return l
}

// Reserve books one assignment of the plan starting on the given day.
// It selects candidates from a lock-free availability read, then for
// each candidate in rank order enters the material's critical section,
// re-evaluates against the live ledger, and commits only if the
// material still accepts the window.  Losing the race moves on to the
// next candidate, at most maxAttempts times.
//
// Domain rejections return both a populated Result and a sentinel
// error (ErrAllMaterialsFull, ErrCapacityExceeded, or the aggregator's
// ErrNoCompatibleMaterials); infrastructure failures return only the
// error.
func (c *Coordinator) Reserve(ctx context.Context, planID string, start time.Time) (*Result, error) {
	plan, err := c.catalog.PlanByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	avail, err := c.aggregator.ForPlan(ctx, planID, start)
	if err != nil {
		return nil, err
	}
	ranked := Rank(avail.Materials)
	if len(ranked) == 0 {
		reason := "all compatible materials are full for the requested window"
		if allUnderMaintenance(avail.Materials) {
			reason = "all compatible materials are under maintenance"
		}
		return &Result{
			State:             StateRejected,
			FailureReason:     reason,
			NextAvailableDate: avail.NextAvailableDate,
		}, ErrAllMaterialsFull
	}

	window := plan.Window(start)
	attempts := len(ranked)
	if attempts > maxAttempts {
		attempts = maxAttempts
	}
	for i := 0; i < attempts; i++ {
		candidate := ranked[i].MaterialID
		a, err := c.commit(ctx, plan, candidate, window)
		if err == nil {
			if c.notifier != nil {
				// Outside the critical section; a publish failure must
				// not undo a committed booking.
				c.notifier.AssignmentCommitted(ctx, a)
			}
			return &Result{State: StateCommitted, AssignmentID: a.ID, MaterialID: a.MaterialID}, nil
		}
		if errors.Is(err, ErrCapacityExceeded) {
			log.Printf("booking: material %s lost race for %s, trying next candidate", candidate, window)
			continue
		}
		return nil, err
	}
	return &Result{
		State:         StateRejected,
		FailureReason: "concurrent bookings exhausted all candidates; retry",
	}, ErrCapacityExceeded
}

// allUnderMaintenance reports whether every snapshot is blocked
// administratively rather than by occupancy.
func allUnderMaintenance(snaps []model.AvailabilitySnapshot) bool {
	for _, s := range snaps {
		if s.Status != model.StatusMaintenance {
			return false
		}
	}
	return len(snaps) > 0
}

// commit runs the critical section for one candidate material: lock,
// re-evaluate, persist, mutate the ledger, unlock.  The snapshot that
// ranked this candidate is never trusted here: it was read without
// the lock and may be stale.
func (c *Coordinator) commit(ctx context.Context, plan *model.Plan, materialID string, window model.Interval) (*model.Assignment, error) {
	lock := c.materialLock(materialID)
	lock.Lock()
	defer lock.Unlock()

	material, err := c.catalog.MaterialByID(ctx, materialID)
	if err != nil {
		return nil, err
	}
	entries, err := c.ledger.IntervalsFor(materialID)
	if err != nil {
		return nil, err
	}
	snap := availability.Evaluate(material, entries, window, plan.NumberOfDevices)
	if !snap.CanAcceptAd {
		return nil, ErrCapacityExceeded
	}

	a := &model.Assignment{
		ID:              uuid.NewString(),
		MaterialID:      materialID,
		PlanID:          plan.ID,
		Window:          window,
		NumberOfDevices: plan.NumberOfDevices,
		Status:          model.AssignmentPending,
	}
	if err := c.store.Create(ctx, a); err != nil {
		return nil, err
	}
	if err := c.ledger.Insert(materialID, ledger.Entry{
		AssignmentID: a.ID,
		Window:       a.Window,
		Slots:        a.NumberOfDevices,
	}); err != nil {
		// The re-evaluation above makes this unreachable while the lock
		// is held; compensate the durable row if it ever happens.
		if _, uerr := c.store.UpdateStatus(ctx, a.ID, model.AssignmentRejected); uerr != nil {
			log.Printf("booking: failed to compensate assignment %s after ledger rejection: %v", a.ID, uerr)
		}
		return nil, err
	}
	return a, nil
}
