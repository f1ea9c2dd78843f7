// This file defines repository methods for assignments: committed
// bookings of campaigns onto materials.  Assignments are append-only;
// lifecycle changes go through UpdateStatusTx which enforces the
// state machine inside a transaction, and rows are never deleted so
// the table doubles as an audit trail.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/adfleet/material-availability/internal/model"
)

// AssignmentRepo provides CRUD operations for assignments.  All
// timestamp and date fields are stored in UTC; campaign windows are
// DATE columns because times of day never matter here.
type AssignmentRepo struct {
	db *sql.DB
}

// NewAssignmentRepo returns a new AssignmentRepo bound to the given database.
func NewAssignmentRepo(db *sql.DB) *AssignmentRepo { return &AssignmentRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions.
func (r *AssignmentRepo) DB() *sql.DB { return r.db }

// Create inserts a new assignment row.  The caller supplies the id
// (a UUID minted by the booking coordinator) and the initial status.
// A follow-up SELECT populates the timestamps assigned by the database.
func (r *AssignmentRepo) Create(ctx context.Context, a *model.Assignment) error {
	const qInsert = `INSERT INTO assignments (id, material_id, plan_id, start_date, end_date, number_of_devices, status)
	                 VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, qInsert,
		a.ID, a.MaterialID, a.PlanID,
		a.Window.Start.Format(model.DateLayout), a.Window.End.Format(model.DateLayout),
		a.NumberOfDevices, string(a.Status),
	)
	if err != nil {
		return err
	}
	const qSelect = `SELECT created_at, updated_at FROM assignments WHERE id = ?`
	return r.db.QueryRowContext(ctx, qSelect, a.ID).Scan(&a.CreatedAt, &a.UpdatedAt)
}

// GetByID fetches an assignment by its id.  It returns
// ErrAssignmentNotFound if no row is found.
func (r *AssignmentRepo) GetByID(ctx context.Context, id string) (*model.Assignment, error) {
	const q = `SELECT id, material_id, plan_id, start_date, end_date, number_of_devices, status, created_at, updated_at
	           FROM assignments WHERE id = ?`
	a, err := scanAssignment(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return a, nil
}

// ListByMaterial returns all assignments on a material ordered by start
// date, newest lifecycle state included: the console shows the full
// history, not just the capacity-consuming rows.
func (r *AssignmentRepo) ListByMaterial(ctx context.Context, materialID string) ([]*model.Assignment, error) {
	const q = `SELECT id, material_id, plan_id, start_date, end_date, number_of_devices, status, created_at, updated_at
	           FROM assignments WHERE material_id = ? ORDER BY start_date, id`
	rows, err := r.db.QueryContext(ctx, q, materialID)
	if err != nil {
		return nil, err
	}
	return drainAssignments(rows)
}

// ListCapacityConsuming returns every assignment whose status still
// holds a slot (PENDING, APPROVED, RUNNING).  Used to warm the slot
// ledger at startup.
func (r *AssignmentRepo) ListCapacityConsuming(ctx context.Context) ([]*model.Assignment, error) {
	const q = `SELECT id, material_id, plan_id, start_date, end_date, number_of_devices, status, created_at, updated_at
	           FROM assignments WHERE status IN ('PENDING', 'APPROVED', 'RUNNING') ORDER BY material_id, start_date`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	return drainAssignments(rows)
}

// UpdateStatus validates and applies a lifecycle transition inside a
// transaction.  The current row is locked with FOR UPDATE so two
// concurrent transitions on the same assignment serialize; an illegal
// move returns ErrInvalidTransition and the updated record is returned
// on success so callers can retire ledger entries for terminal states.
func (r *AssignmentRepo) UpdateStatus(ctx context.Context, id string, next model.AssignmentStatus) (*model.Assignment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const qLock = `SELECT id, material_id, plan_id, start_date, end_date, number_of_devices, status, created_at, updated_at
	               FROM assignments WHERE id = ? FOR UPDATE`
	a, err := scanAssignment(tx.QueryRowContext(ctx, qLock, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	if !a.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}
	const qUpdate = `UPDATE assignments SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	if _, err := tx.ExecContext(ctx, qUpdate, string(next), id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	a.Status = next
	return a, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanAssignment reads one assignment row and normalizes its window to
// UTC midnight regardless of the session timezone.  The connection is
// opened with parseTime=true so DATE columns scan into time.Time.
func scanAssignment(row rowScanner) (*model.Assignment, error) {
	var a model.Assignment
	var start, end time.Time
	var status string
	if err := row.Scan(&a.ID, &a.MaterialID, &a.PlanID, &start, &end, &a.NumberOfDevices, &status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	w, err := model.NewInterval(start, end)
	if err != nil {
		return nil, err
	}
	a.Window = w
	a.Status = model.AssignmentStatus(status)
	return &a, nil
}

// drainAssignments consumes a result set of assignment rows.
func drainAssignments(rows *sql.Rows) ([]*model.Assignment, error) {
	defer rows.Close()
	var out []*model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
