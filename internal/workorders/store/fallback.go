package store

import (
	"context"
	"fmt"

	"maintops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FallbackStore is the degraded-mode implementation: guarded direct row
// mutations with the same observable semantics as the procedures. Every
// mutation that matters for correctness carries a status-guard predicate,
// so a concurrently-advanced row turns the write into a silent no-op.
type FallbackStore struct {
	pool *pgxpool.Pool
}

func NewFallbackStore(pool *pgxpool.Pool) *FallbackStore {
	return &FallbackStore{pool: pool}
}

func (s *FallbackStore) Assign(ctx context.Context, p AssignParams) (Result, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Result{}, apperr.Unavailable("begin assign fallback", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Retire any still-active assignment before inserting the new one.
	if _, err := tx.Exec(ctx, `
		UPDATE work_order_assignments
		SET status = 'cancelled', updated_at = now()
		WHERE work_order_id = $1 AND status IN ('scheduled', 'in_progress')
	`, p.WorkOrderID); err != nil {
		return Result{}, apperr.Unavailable("retire active assignment", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO work_order_assignments (id, work_order_id, technician_id, status, scheduled_date, time_window, notes)
		VALUES ($1, $2, $3, 'scheduled', $4, $5, '')
	`, uuid.New(), p.WorkOrderID, p.TechnicianID, p.Date, p.TimeWindow); err != nil {
		return Result{}, apperr.Unavailable("insert assignment", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE work_orders
		SET status = 'assigned', updated_at = now()
		WHERE id = $1
	`, p.WorkOrderID); err != nil {
		return Result{}, apperr.Unavailable("update work order status", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, apperr.Unavailable("commit assign fallback", err)
	}
	return Result{Success: true, Message: "Technician assigned", Degraded: true}, nil
}

func (s *FallbackStore) MarkReadyForReview(ctx context.Context, p ReadyParams) (Result, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Result{}, apperr.Unavailable("begin ready fallback", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	note := "[READY FOR REVIEW]"
	if p.Notes != nil && *p.Notes != "" {
		note = fmt.Sprintf("[READY FOR REVIEW] %s", *p.Notes)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE work_order_assignments
		SET status = 'ready_for_review',
		    notes = trim(both E'\n' from notes || E'\n' || $3),
		    updated_at = now()
		WHERE work_order_id = $1 AND technician_id = $2 AND status = 'in_progress'
	`, p.WorkOrderID, p.TechnicianID, note)
	if err != nil {
		return Result{}, apperr.Unavailable("update assignment", err)
	}
	if tag.RowsAffected() == 0 {
		return Result{Success: false, Message: "Assignment is not in progress", Degraded: true}, nil
	}

	if _, err := tx.Exec(ctx, `
		UPDATE work_orders
		SET status = 'ready_for_review', updated_at = now()
		WHERE id = $1 AND status = 'in_progress'
	`, p.WorkOrderID); err != nil {
		return Result{}, apperr.Unavailable("update work order status", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, apperr.Unavailable("commit ready fallback", err)
	}
	return Result{Success: true, Message: "Marked ready for review", Degraded: true}, nil
}

// Complete applies the completion as a compare-and-swap on the current
// status. A row no longer at ready_for_review is left untouched and the
// call still reports success; callers re-read to discover the no-op.
func (s *FallbackStore) Complete(ctx context.Context, p CompleteParams) (Result, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Result{}, apperr.Unavailable("begin complete fallback", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	note := "[COMPLETED]"
	if p.Notes != nil && *p.Notes != "" {
		note = fmt.Sprintf("[COMPLETED] %s", *p.Notes)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE work_orders
		SET status = 'completed', completed_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'ready_for_review'
	`, p.WorkOrderID)
	if err != nil {
		return Result{}, apperr.Unavailable("complete work order", err)
	}

	if tag.RowsAffected() > 0 {
		if _, err := tx.Exec(ctx, `
			UPDATE work_order_assignments
			SET status = 'completed',
			    notes = trim(both E'\n' from notes || E'\n' || $2),
			    updated_at = now()
			WHERE work_order_id = $1 AND status = 'ready_for_review'
		`, p.WorkOrderID, note); err != nil {
			return Result{}, apperr.Unavailable("complete assignment", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, apperr.Unavailable("commit complete fallback", err)
	}
	return Result{Success: true, Message: "Work order completed", Degraded: true}, nil
}

func (s *FallbackStore) RecordOverride(ctx context.Context, p OverrideParams) (OverrideResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return OverrideResult{}, apperr.Unavailable("begin override fallback", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	rows, err := tx.Query(ctx, `
		SELECT work_order_id FROM work_order_assignments
		WHERE technician_id = $1
		  AND status IN ('scheduled', 'in_progress')
		  AND scheduled_date >= CURRENT_DATE
		FOR UPDATE
	`, p.TechnicianID)
	if err != nil {
		return OverrideResult{}, apperr.Unavailable("list displaceable assignments", err)
	}

	var displaced []uuid.UUID
	for rows.Next() {
		var workOrderID uuid.UUID
		if err := rows.Scan(&workOrderID); err != nil {
			rows.Close()
			return OverrideResult{}, apperr.Unavailable("scan displaceable assignment", err)
		}
		displaced = append(displaced, workOrderID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return OverrideResult{}, apperr.Unavailable("iterate displaceable assignments", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE work_order_assignments
		SET status = 'cancelled',
		    notes = trim(both E'\n' from notes || E'\n' || $2),
		    updated_at = now()
		WHERE technician_id = $1
		  AND status IN ('scheduled', 'in_progress')
		  AND scheduled_date >= CURRENT_DATE
	`, p.TechnicianID, fmt.Sprintf("[CANCELLED - OVERRIDE] %s", p.Reason)); err != nil {
		return OverrideResult{}, apperr.Unavailable("cancel displaced assignments", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE technicians SET status = 'busy', updated_at = now() WHERE id = $1
	`, p.TechnicianID); err != nil {
		return OverrideResult{}, apperr.Unavailable("flip technician status", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO override_history (id, technician_id, override_by, reason, detail, displaced_work_orders)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New(), p.TechnicianID, p.OverrideBy, p.Reason, p.Detail, displaced); err != nil {
		return OverrideResult{}, apperr.Unavailable("insert override record", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return OverrideResult{}, apperr.Unavailable("commit override fallback", err)
	}

	return OverrideResult{
		Result:         Result{Success: true, Message: fmt.Sprintf("Override recorded, %d assignments displaced", len(displaced)), Degraded: true},
		DisplacedCount: len(displaced),
	}, nil
}

var _ LifecycleStore = (*FallbackStore)(nil)
