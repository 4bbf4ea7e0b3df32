// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"maintops_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Work Order Lifecycle Events
// =============================================================================

// WorkOrderAssigned is published when a work order is assigned to a technician.
type WorkOrderAssigned struct {
	BaseEvent
	WorkOrderID  uuid.UUID `json:"workOrderId"`
	TechnicianID uuid.UUID `json:"technicianId"`
	AssignedBy   string    `json:"assignedBy"`
	Degraded     bool      `json:"degraded"`
}

func (e WorkOrderAssigned) EventName() string { return "workorders.assigned" }

// WorkOrderReadyForReview is published when a technician marks work done.
type WorkOrderReadyForReview struct {
	BaseEvent
	WorkOrderID  uuid.UUID `json:"workOrderId"`
	TechnicianID uuid.UUID `json:"technicianId"`
}

func (e WorkOrderReadyForReview) EventName() string { return "workorders.ready_for_review" }

// WorkOrderCompleted is published when a coordinator approves completion.
type WorkOrderCompleted struct {
	BaseEvent
	WorkOrderID uuid.UUID `json:"workOrderId"`
	ApprovedBy  string    `json:"approvedBy"`
}

func (e WorkOrderCompleted) EventName() string { return "workorders.completed" }

// WorkOrderRejected is published when review sends work back for rework.
type WorkOrderRejected struct {
	BaseEvent
	WorkOrderID uuid.UUID `json:"workOrderId"`
	RejectedBy  string    `json:"rejectedBy"`
	Reason      string    `json:"reason"`
}

func (e WorkOrderRejected) EventName() string { return "workorders.rejected" }

// OverrideRecorded is published when an emergency override displaces a
// technician's queue.
type OverrideRecorded struct {
	BaseEvent
	TechnicianID   uuid.UUID `json:"technicianId"`
	OverrideBy     string    `json:"overrideBy"`
	Reason         string    `json:"reason"`
	DisplacedCount int       `json:"displacedCount"`
}

func (e OverrideRecorded) EventName() string { return "workorders.override.recorded" }

// =============================================================================
// Duplicate Resolution Events
// =============================================================================

// DuplicateResolved is published when a candidate pair is merged or dismissed.
type DuplicateResolved struct {
	BaseEvent
	CandidateID uuid.UUID `json:"candidateId"`
	Resolution  string    `json:"resolution"` // "merged" or "dismissed"
	ResolvedBy  string    `json:"resolvedBy"`
	Degraded    bool      `json:"degraded"`
}

func (e DuplicateResolved) EventName() string { return "duplicates.resolved" }

// =============================================================================
// Morning Gate Events
// =============================================================================

// GateItemAddressed is published when a technician explains an incomplete item.
type GateItemAddressed struct {
	BaseEvent
	AssignmentID uuid.UUID `json:"assignmentId"`
	TechnicianID uuid.UUID `json:"technicianId"`
	Escalated    bool      `json:"escalated"`
}

func (e GateItemAddressed) EventName() string { return "morninggate.item.addressed" }

// GateEscalated is published when a high-priority incomplete item is routed
// to the coordinator queue.
type GateEscalated struct {
	BaseEvent
	AssignmentID uuid.UUID `json:"assignmentId"`
	TechnicianID uuid.UUID `json:"technicianId"`
	Reason       string    `json:"reason"`
	Detail       string    `json:"detail,omitempty"`
}

func (e GateEscalated) EventName() string { return "morninggate.escalated" }

// =============================================================================
// Message Events
// =============================================================================

// MessageSent is published when a message row is written for a work order,
// whether by a person or the auto-send pipeline.
type MessageSent struct {
	BaseEvent
	MessageID   uuid.UUID `json:"messageId"`
	WorkOrderID uuid.UUID `json:"workOrderId"`
	SenderType  string    `json:"senderType"`
}

func (e MessageSent) EventName() string { return "messages.sent" }
