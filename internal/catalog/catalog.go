// Package catalog serves the engine's reference data: materials and
// plans.  Reads go through a short-lived in-process cache so that the
// dashboard polling loop never turns into a query-per-poll load on
// MySQL; writes pass straight through to the repositories and flush
// the cache.  The TTL is deliberately a few seconds: reference data
// changes rarely and the availability path tolerates staleness, the
// booking coordinator re-reads material state under its lock anyway.
package catalog

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/adfleet/material-availability/internal/model"
	"github.com/adfleet/material-availability/internal/repository"
)

// Service implements the availability package's Catalog interface on
// top of the MySQL repositories.
type Service struct {
	materials *repository.MaterialRepo
	plans     *repository.PlanRepo
	cache     *gocache.Cache
}

// New constructs a catalog Service.  ttl controls how long reads are
// served from memory before hitting MySQL again.
func New(materials *repository.MaterialRepo, plans *repository.PlanRepo, ttl time.Duration) *Service {
	if materials == nil || plans == nil {
		panic("nil repository passed to catalog.New")
	}
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Service{
		materials: materials,
		plans:     plans,
		cache:     gocache.New(ttl, 10*ttl),
	}
}

// PlanByID returns a plan, from cache when fresh.
func (s *Service) PlanByID(ctx context.Context, id string) (*model.Plan, error) {
	key := "plan:" + id
	if v, ok := s.cache.Get(key); ok {
		return v.(*model.Plan), nil
	}
	p, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, p)
	return p, nil
}

// MaterialByID returns a material, from cache when fresh.
func (s *Service) MaterialByID(ctx context.Context, id string) (*model.Material, error) {
	key := "material:" + id
	if v, ok := s.cache.Get(key); ok {
		return v.(*model.Material), nil
	}
	m, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, m)
	return m, nil
}

// MaterialsMatching returns the materials compatible with a plan,
// ordered by id.  The compatibility triple is the cache key, so every
// plan sharing the same requirements shares one cached result.
func (s *Service) MaterialsMatching(ctx context.Context, plan *model.Plan) ([]*model.Material, error) {
	key := "match:" + plan.MaterialType + "|" + plan.VehicleType + "|" + plan.Category
	if v, ok := s.cache.Get(key); ok {
		return v.([]*model.Material), nil
	}
	ms, err := s.materials.ListMatching(ctx, plan.MaterialType, plan.VehicleType, plan.Category)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, ms)
	return ms, nil
}

// ListMaterials returns all materials, uncached: it serves the admin
// listing, not the hot path.
func (s *Service) ListMaterials(ctx context.Context) ([]*model.Material, error) {
	return s.materials.List(ctx)
}

// ListPlans returns all plans, uncached.
func (s *Service) ListPlans(ctx context.Context) ([]*model.Plan, error) {
	return s.plans.List(ctx)
}

// CreateMaterial persists a new material and flushes the cache so
// matching queries see it immediately.
func (s *Service) CreateMaterial(ctx context.Context, m *model.Material) error {
	if err := s.materials.Create(ctx, m); err != nil {
		return err
	}
	s.cache.Flush()
	return nil
}

// CreatePlan persists a new plan.
func (s *Service) CreatePlan(ctx context.Context, p *model.Plan) error {
	if err := s.plans.Create(ctx, p); err != nil {
		return err
	}
	s.cache.Flush()
	return nil
}

// SetMaterialStatus applies the maintenance feed and flushes the
// cache; a material entering maintenance must stop accepting bookings
// on the next evaluation, not a TTL later.
func (s *Service) SetMaterialStatus(ctx context.Context, id string, status model.MaterialStatus) error {
	if err := s.materials.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.cache.Flush()
	return nil
}

// ReconfigureSlots applies an explicit capacity change.
func (s *Service) ReconfigureSlots(ctx context.Context, id string, totalSlots uint32) error {
	if err := s.materials.UpdateTotalSlots(ctx, id, totalSlots); err != nil {
		return err
	}
	s.cache.Flush()
	return nil
}
