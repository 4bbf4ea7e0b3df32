// Package repository wraps the morning-gate database procedures.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"maintops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PendingItem is one incomplete assignment the technician still has to
// explain before the gate clears.
type PendingItem struct {
	AssignmentID  uuid.UUID `json:"assignmentId"`
	WorkOrderID   uuid.UUID `json:"workOrderId"`
	Title         string    `json:"title"`
	Priority      string    `json:"priority"`
	Property      string    `json:"property"`
	Unit          string    `json:"unit"`
	ScheduledDate time.Time `json:"scheduledDate"`
	DaysOverdue   int       `json:"daysOverdue"`
}

// GateStatus is the per-technician gate state. AddressedCount is derived
// server-side as incomplete minus pending.
type GateStatus struct {
	GateCleared     bool          `json:"gateCleared"`
	IncompleteCount int           `json:"incompleteCount"`
	AddressedCount  int           `json:"addressedCount"`
	PendingItems    []PendingItem `json:"pendingItems"`
	Degraded        bool          `json:"degraded,omitempty"`
}

// SubmitParams carries one explanation submission.
type SubmitParams struct {
	AssignmentID uuid.UUID
	TechnicianID uuid.UUID
	Reason       string
	Detail       *string
	NewDate      *time.Time
}

// SubmitResult mirrors the (success, message, escalated) row from the
// submission procedure. Degraded marks results produced locally while the
// procedure was unreachable.
type SubmitResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Escalated bool   `json:"escalated"`
	Degraded  bool   `json:"degraded,omitempty"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CheckGate runs the gate query for one technician.
func (r *Repository) CheckGate(ctx context.Context, technicianID uuid.UUID) (GateStatus, error) {
	var (
		status GateStatus
		items  []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT gate_cleared, incomplete_count, addressed_count, pending_items
		FROM check_morning_gate($1)
	`, technicianID).Scan(&status.GateCleared, &status.IncompleteCount, &status.AddressedCount, &items)
	if err != nil {
		return GateStatus{}, rpcUnavailable("check_morning_gate", err)
	}

	if len(items) > 0 {
		if err := json.Unmarshal(items, &status.PendingItems); err != nil {
			return GateStatus{}, fmt.Errorf("decode pending items: %w", err)
		}
	}
	return status, nil
}

// SubmitExplanation records why an assignment stayed incomplete. NewDate is
// nil for escalated items.
func (r *Repository) SubmitExplanation(ctx context.Context, p SubmitParams) (SubmitResult, error) {
	var res SubmitResult
	err := r.pool.QueryRow(ctx, `
		SELECT success, message, escalated
		FROM submit_incomplete_explanation($1, $2, $3, $4, $5)
	`, p.AssignmentID, p.TechnicianID, p.Reason, p.Detail, p.NewDate).
		Scan(&res.Success, &res.Message, &res.Escalated)
	if err != nil {
		return SubmitResult{}, rpcUnavailable("submit_incomplete_explanation", err)
	}
	return res, nil
}

func rpcUnavailable(procedure string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperr.Unavailable(fmt.Sprintf("procedure %s unreachable", procedure), err)
}
