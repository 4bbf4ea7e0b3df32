package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type WorkOrder struct {
	ID             uuid.UUID
	Title          string
	Description    string
	Property       string
	Unit           string
	ResidentName   string
	Channel        string
	Priority       string
	Status         string
	Classification []byte // raw JSON written back by the classifier
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

type Assignment struct {
	ID            uuid.UUID
	WorkOrderID   uuid.UUID
	TechnicianID  uuid.UUID
	Status        string
	ScheduledDate time.Time
	TimeWindow    *string
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Technician struct {
	ID       uuid.UUID
	FullName string
	Phone    string
	Status   string
	Skills   []string
}

type OverrideRecord struct {
	ID                  uuid.UUID
	TechnicianID        uuid.UUID
	OverrideBy          string
	Reason              string
	Detail              *string
	DisplacedWorkOrders []uuid.UUID
	CreatedAt           time.Time
}

const workOrderColumns = `
	id, title, description, property, unit, resident_name, channel,
	priority, status, classification, created_at, updated_at, completed_at`

func scanWorkOrder(row pgx.Row) (WorkOrder, error) {
	var wo WorkOrder
	err := row.Scan(
		&wo.ID, &wo.Title, &wo.Description, &wo.Property, &wo.Unit,
		&wo.ResidentName, &wo.Channel, &wo.Priority, &wo.Status,
		&wo.Classification, &wo.CreatedAt, &wo.UpdatedAt, &wo.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return WorkOrder{}, ErrNotFound
	}
	if err != nil {
		return WorkOrder{}, err
	}
	return wo, nil
}

func (r *Repository) GetWorkOrder(ctx context.Context, id uuid.UUID) (WorkOrder, error) {
	return scanWorkOrder(r.pool.QueryRow(ctx,
		`SELECT `+workOrderColumns+` FROM work_orders WHERE id = $1`, id))
}

// ListWorkOrders returns work orders newest-first, optionally narrowed to
// one status.
func (r *Repository) ListWorkOrders(ctx context.Context, status *string) ([]WorkOrder, error) {
	query := `SELECT ` + workOrderColumns + ` FROM work_orders`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WorkOrder
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, wo)
	}
	return out, rows.Err()
}

func (r *Repository) GetActiveAssignment(ctx context.Context, workOrderID uuid.UUID) (Assignment, error) {
	var a Assignment
	err := r.pool.QueryRow(ctx, `
		SELECT id, work_order_id, technician_id, status, scheduled_date, time_window, notes, created_at, updated_at
		FROM work_order_assignments
		WHERE work_order_id = $1 AND status NOT IN ('completed', 'cancelled')
		ORDER BY created_at DESC
		LIMIT 1
	`, workOrderID).Scan(
		&a.ID, &a.WorkOrderID, &a.TechnicianID, &a.Status, &a.ScheduledDate,
		&a.TimeWindow, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, ErrNotFound
	}
	if err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func (r *Repository) ListAssignmentHistory(ctx context.Context, workOrderID uuid.UUID) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, work_order_id, technician_id, status, scheduled_date, time_window, notes, created_at, updated_at
		FROM work_order_assignments
		WHERE work_order_id = $1
		ORDER BY created_at DESC
	`, workOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(
			&a.ID, &a.WorkOrderID, &a.TechnicianID, &a.Status, &a.ScheduledDate,
			&a.TimeWindow, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Reject moves the assignment back to in_progress and tags the rejection in
// its notes. No procedure variant exists for this transition.
func (r *Repository) Reject(ctx context.Context, workOrderID uuid.UUID, reason string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `
		UPDATE work_order_assignments
		SET status = 'in_progress',
		    notes = trim(both E'\n' from notes || E'\n' || $2),
		    updated_at = now()
		WHERE work_order_id = $1 AND status = 'ready_for_review'
	`, workOrderID, fmt.Sprintf("[REJECTED] %s", reason))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `
		UPDATE work_orders
		SET status = 'in_progress', updated_at = now()
		WHERE id = $1 AND status = 'ready_for_review'
	`, workOrderID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// SaveClassification writes the classifier's opinion back onto the row.
func (r *Repository) SaveClassification(ctx context.Context, workOrderID uuid.UUID, classification any) error {
	payload, err := json.Marshal(classification)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE work_orders
		SET classification = $2, updated_at = now()
		WHERE id = $1
	`, workOrderID, payload)
	return err
}

func (r *Repository) GetTechnician(ctx context.Context, id uuid.UUID) (Technician, error) {
	var t Technician
	err := r.pool.QueryRow(ctx, `
		SELECT id, full_name, phone, status, skills
		FROM technicians
		WHERE id = $1
	`, id).Scan(&t.ID, &t.FullName, &t.Phone, &t.Status, &t.Skills)
	if errors.Is(err, pgx.ErrNoRows) {
		return Technician{}, ErrNotFound
	}
	if err != nil {
		return Technician{}, err
	}
	return t, nil
}

func (r *Repository) ListTechnicians(ctx context.Context) ([]Technician, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, full_name, phone, status, skills
		FROM technicians
		ORDER BY full_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Technician
	for rows.Next() {
		var t Technician
		if err := rows.Scan(&t.ID, &t.FullName, &t.Phone, &t.Status, &t.Skills); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) ListOverrideHistory(ctx context.Context, technicianID uuid.UUID) ([]OverrideRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, technician_id, override_by, reason, detail, displaced_work_orders, created_at
		FROM override_history
		WHERE technician_id = $1
		ORDER BY created_at DESC
	`, technicianID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OverrideRecord
	for rows.Next() {
		var rec OverrideRecord
		if err := rows.Scan(
			&rec.ID, &rec.TechnicianID, &rec.OverrideBy, &rec.Reason,
			&rec.Detail, &rec.DisplacedWorkOrders, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// WriteAuditLog appends one audit entry. Audit writes are best-effort at
// call sites; failures are logged by the caller, never propagated.
func (r *Repository) WriteAuditLog(ctx context.Context, actor, action, entityType string, entityID uuid.UUID, detail map[string]any) error {
	payload, err := json.Marshal(detail)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO audit_logs (id, actor, action, entity_type, entity_id, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New(), actor, action, entityType, entityID, payload)
	return err
}
