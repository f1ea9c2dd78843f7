// This file defines repository methods for materials: the physical
// advertising surfaces the availability engine books campaigns onto.
// Materials are reference data: created and reconfigured by the admin
// console, read constantly by the availability path.
package repository

import (
	"context"      // context allows passing deadlines and cancellation signals to DB operations
	"database/sql" // sql provides generic database operations and drivers
	"errors"       // errors is used for sentinel comparisons
	"strings"      // strings detects duplicate-key driver errors

	"github.com/adfleet/material-availability/internal/model"
)

// MaterialRepo encapsulates all database queries related to materials.
// It depends on a sql.DB connection which should be configured elsewhere.
type MaterialRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewMaterialRepo constructs a MaterialRepo with the provided DB handle.
// This function allows dependency injection of the database in tests
// and at startup.
func NewMaterialRepo(db *sql.DB) *MaterialRepo {
	return &MaterialRepo{db: db}
}

// DB exposes the underlying handle so callers can open transactions
// spanning several repositories.
func (r *MaterialRepo) DB() *sql.DB { return r.db }

// Create inserts a new material.  The external id is chosen by the
// admin console; inserting an existing id returns ErrDuplicateID.
// After the insert a follow-up SELECT populates the timestamp fields
// so that callers receive a fully populated record.
func (r *MaterialRepo) Create(ctx context.Context, m *model.Material) error {
	const qInsert = `INSERT INTO materials (id, material_type, vehicle_type, category, total_slots, status)
	                 VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, qInsert, m.ID, m.MaterialType, m.VehicleType, m.Category, m.TotalSlots, string(m.Status))
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateID
		}
		return err
	}
	const qSelect = `SELECT created_at, updated_at FROM materials WHERE id = ?`
	return r.db.QueryRowContext(ctx, qSelect, m.ID).Scan(&m.CreatedAt, &m.UpdatedAt)
}

// GetByID fetches a material by its id.  It returns ErrMaterialNotFound
// if no row is found.
func (r *MaterialRepo) GetByID(ctx context.Context, id string) (*model.Material, error) {
	const q = `SELECT id, material_type, vehicle_type, category, total_slots, status, created_at, updated_at
	           FROM materials WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

// List returns all materials ordered by id.
func (r *MaterialRepo) List(ctx context.Context) ([]*model.Material, error) {
	const q = `SELECT id, material_type, vehicle_type, category, total_slots, status, created_at, updated_at
	           FROM materials ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

// ListMatching returns the materials compatible with a plan's
// requirements, ordered by id for stable aggregation output.
func (r *MaterialRepo) ListMatching(ctx context.Context, materialType, vehicleType, category string) ([]*model.Material, error) {
	const q = `SELECT id, material_type, vehicle_type, category, total_slots, status, created_at, updated_at
	           FROM materials
	           WHERE material_type = ? AND vehicle_type = ? AND category = ?
	           ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, materialType, vehicleType, category)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

// UpdateStatus flips the administrative status (the maintenance feed).
// It returns ErrMaterialNotFound when the id matches no row.
func (r *MaterialRepo) UpdateStatus(ctx context.Context, id string, status model.MaterialStatus) error {
	const q = `UPDATE materials SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, string(status), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// A no-op update still matches the row in MySQL only when the
		// value changed; re-check existence before reporting not found.
		if _, gerr := r.GetByID(ctx, id); gerr != nil {
			return gerr
		}
	}
	return nil
}

// UpdateTotalSlots performs an explicit capacity reconfiguration.
// Shrinking below current occupancy is the operator's responsibility;
// the ledger keeps enforcing the new capacity for future bookings.
func (r *MaterialRepo) UpdateTotalSlots(ctx context.Context, id string, totalSlots uint32) error {
	const q = `UPDATE materials SET total_slots = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, totalSlots, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, gerr := r.GetByID(ctx, id); gerr != nil {
			return gerr
		}
	}
	return nil
}

// scanOne scans a single material row and maps sql.ErrNoRows to the
// package sentinel.
func (r *MaterialRepo) scanOne(row *sql.Row) (*model.Material, error) {
	var m model.Material
	var status string
	if err := row.Scan(&m.ID, &m.MaterialType, &m.VehicleType, &m.Category, &m.TotalSlots, &status, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMaterialNotFound
		}
		return nil, err
	}
	m.Status = model.MaterialStatus(status)
	return &m, nil
}

// scanAll drains a result set of material rows.
func (r *MaterialRepo) scanAll(rows *sql.Rows) ([]*model.Material, error) {
	defer rows.Close()
	var out []*model.Material
	for rows.Next() {
		m := new(model.Material)
		var status string
		if err := rows.Scan(&m.ID, &m.MaterialType, &m.VehicleType, &m.Category, &m.TotalSlots, &status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		m.Status = model.MaterialStatus(status)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// isDuplicateKey detects MySQL error 1062 without importing the driver
// error types everywhere.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Error 1062")
}
