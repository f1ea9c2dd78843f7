// This file defines repository methods for plans: the immutable
// campaign templates bookings are derived from.  Plans never change
// after creation, which is why there is no update method here.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/adfleet/material-availability/internal/model"
)

// PlanRepo encapsulates all database queries related to plans.
type PlanRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewPlanRepo constructs a PlanRepo with the provided DB handle.
func NewPlanRepo(db *sql.DB) *PlanRepo {
	return &PlanRepo{db: db}
}

// Create inserts a new plan.  Inserting an existing id returns
// ErrDuplicateID.  A follow-up SELECT populates the creation
// timestamp assigned by the database.
func (r *PlanRepo) Create(ctx context.Context, p *model.Plan) error {
	const qInsert = `INSERT INTO plans (id, name, material_type, vehicle_type, category, duration_days, number_of_devices)
	                 VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, qInsert, p.ID, p.Name, p.MaterialType, p.VehicleType, p.Category, p.DurationDays, p.NumberOfDevices)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateID
		}
		return err
	}
	const qSelect = `SELECT created_at FROM plans WHERE id = ?`
	return r.db.QueryRowContext(ctx, qSelect, p.ID).Scan(&p.CreatedAt)
}

// GetByID fetches a plan by its id.  It returns ErrPlanNotFound if no
// row is found.
func (r *PlanRepo) GetByID(ctx context.Context, id string) (*model.Plan, error) {
	const q = `SELECT id, name, material_type, vehicle_type, category, duration_days, number_of_devices, created_at
	           FROM plans WHERE id = ?`
	var p model.Plan
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.Name, &p.MaterialType, &p.VehicleType, &p.Category, &p.DurationDays, &p.NumberOfDevices, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns all plans ordered by id.
func (r *PlanRepo) List(ctx context.Context) ([]*model.Plan, error) {
	const q = `SELECT id, name, material_type, vehicle_type, category, duration_days, number_of_devices, created_at
	           FROM plans ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Plan
	for rows.Next() {
		p := new(model.Plan)
		if err := rows.Scan(&p.ID, &p.Name, &p.MaterialType, &p.VehicleType, &p.Category, &p.DurationDays, &p.NumberOfDevices, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
