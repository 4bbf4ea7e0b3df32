// Package store holds the persistence strategy for work-order lifecycle
// transitions. The same interface has two implementations: an RPC store that
// calls named database procedures, and a fallback store that applies guarded
// direct mutations. A failover wrapper selects the fallback only when the
// primary reports unavailability, so a business rejection never silently
// switches paths.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Result is the outcome shape every lifecycle transition returns. Success
// false with a message is an authoritative business rejection, not a
// transport failure.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// Degraded marks outcomes produced by the direct-mutation path rather
	// than the authoritative procedure.
	Degraded bool `json:"degraded,omitempty"`
}

// OverrideResult extends Result with the number of assignments the override
// displaced, so the caller can prompt reassignment.
type OverrideResult struct {
	Result
	DisplacedCount int `json:"displacedCount"`
}

// AssignParams carries the inputs for an assignment transition.
type AssignParams struct {
	WorkOrderID  uuid.UUID
	TechnicianID uuid.UUID
	Date         time.Time
	TimeWindow   *string
	AssignedBy   string
}

// ReadyParams carries the inputs for the ready-for-review transition.
type ReadyParams struct {
	WorkOrderID  uuid.UUID
	TechnicianID uuid.UUID
	Notes        *string
}

// CompleteParams carries the inputs for the completion transition. The role
// guard happens in the service before any store call.
type CompleteParams struct {
	WorkOrderID  uuid.UUID
	ApprovedBy   uuid.UUID
	ApproverRole string
	Notes        *string
}

// OverrideParams carries the inputs for an emergency override.
type OverrideParams struct {
	TechnicianID uuid.UUID
	OverrideBy   string
	Reason       string
	Detail       *string
}

// LifecycleStore applies work-order lifecycle transitions. Implementations
// return an error only for transport or availability failures; business
// rejections come back as Result{Success: false}.
type LifecycleStore interface {
	Assign(ctx context.Context, p AssignParams) (Result, error)
	MarkReadyForReview(ctx context.Context, p ReadyParams) (Result, error)
	Complete(ctx context.Context, p CompleteParams) (Result, error)
	RecordOverride(ctx context.Context, p OverrideParams) (OverrideResult, error)
}
