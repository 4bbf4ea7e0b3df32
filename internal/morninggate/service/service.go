// Package service implements the morning gate: a per-technician block on new
// schedule visibility until every prior-day incomplete assignment has been
// explained. The gate fails open: an unset technician or an unreachable check
// procedure shows a pre-cleared gate rather than locking anyone out.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"maintops_backend/internal/events"
	"maintops_backend/internal/morninggate/repository"
	"maintops_backend/internal/notification"
	"maintops_backend/platform/apperr"
	"maintops_backend/platform/logger"

	"github.com/google/uuid"
)

// GateStore is the persistence surface behind the gate.
type GateStore interface {
	CheckGate(ctx context.Context, technicianID uuid.UUID) (repository.GateStatus, error)
	SubmitExplanation(ctx context.Context, p repository.SubmitParams) (repository.SubmitResult, error)
}

// SubmitInput is one explanation from a technician. NewDate is ignored for
// high-priority items, which always escalate.
type SubmitInput struct {
	TechnicianID uuid.UUID
	AssignmentID uuid.UUID
	Reason       string
	Detail       *string
	NewDate      *time.Time
}

type Service struct {
	store    GateStore
	eventBus events.Bus
	notifier notification.Notifier
	log      *logger.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*repository.GateStatus
}

func New(store GateStore, eventBus events.Bus, notifier notification.Notifier, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		eventBus: eventBus,
		notifier: notifier,
		log:      log,
		sessions: make(map[uuid.UUID]*repository.GateStatus),
	}
}

// CheckGate returns the technician's gate state, caching it as the session
// baseline for subsequent explanation submissions.
func (s *Service) CheckGate(ctx context.Context, technicianID uuid.UUID) (repository.GateStatus, error) {
	if technicianID == uuid.Nil {
		return repository.GateStatus{GateCleared: true}, nil
	}

	status, err := s.store.CheckGate(ctx, technicianID)
	if err != nil {
		if ctx.Err() != nil {
			return repository.GateStatus{}, err
		}
		s.log.Fallback("check_morning_gate", err)
		return repository.GateStatus{GateCleared: true, Degraded: true}, nil
	}

	s.mu.Lock()
	copied := status
	s.sessions[technicianID] = &copied
	s.mu.Unlock()
	return status, nil
}

// SubmitExplanation records why an assignment stayed incomplete. High-priority
// items escalate to the coordinator queue with no date change; everything else
// reschedules to the supplied date or the recommended one.
func (s *Service) SubmitExplanation(ctx context.Context, in SubmitInput) (repository.SubmitResult, error) {
	if !IsIncompleteReason(in.Reason) {
		return repository.SubmitResult{Success: false, Message: fmt.Sprintf("unknown reason %q", in.Reason)}, nil
	}

	item, found := s.pendingItem(in.TechnicianID, in.AssignmentID)
	escalate := found && IsHighPriority(item.Priority)

	newDate := in.NewDate
	if escalate {
		newDate = nil
	} else if newDate == nil && found {
		d := RecommendedDate(item.Priority, time.Now())
		newDate = &d
	}

	res, err := s.store.SubmitExplanation(ctx, repository.SubmitParams{
		AssignmentID: in.AssignmentID,
		TechnicianID: in.TechnicianID,
		Reason:       in.Reason,
		Detail:       in.Detail,
		NewDate:      newDate,
	})
	switch {
	case err == nil && res.Success:
		s.addressLocally(in.TechnicianID, in.AssignmentID)
		s.publishAddressed(ctx, in, res.Escalated)
		return res, nil
	case err == nil:
		return res, nil
	case apperr.IsUnavailable(err):
		s.log.Fallback("submit_incomplete_explanation", err)
		s.addressLocally(in.TechnicianID, in.AssignmentID)
		s.publishAddressed(ctx, in, escalate)
		return repository.SubmitResult{
			Success:   true,
			Message:   "Explanation recorded locally, server sync unavailable",
			Escalated: escalate,
			Degraded:  true,
		}, nil
	default:
		return repository.SubmitResult{}, err
	}
}

// Session returns the cached gate state for a technician, if any.
func (s *Service) Session(technicianID uuid.UUID) (repository.GateStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.sessions[technicianID]
	if !ok {
		return repository.GateStatus{}, false
	}
	return *status, true
}

func (s *Service) pendingItem(technicianID, assignmentID uuid.UUID) (repository.PendingItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.sessions[technicianID]
	if !ok {
		return repository.PendingItem{}, false
	}
	for _, item := range status.PendingItems {
		if item.AssignmentID == assignmentID {
			return item, true
		}
	}
	return repository.PendingItem{}, false
}

// addressLocally folds one addressed item into the cached session: the item
// leaves pendingItems, addressedCount rises, and the gate clears when nothing
// is left pending.
func (s *Service) addressLocally(technicianID, assignmentID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.sessions[technicianID]
	if !ok {
		return
	}

	kept := make([]repository.PendingItem, 0, len(status.PendingItems))
	removed := false
	for _, item := range status.PendingItems {
		if item.AssignmentID == assignmentID {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return
	}

	status.PendingItems = kept
	status.AddressedCount++
	status.GateCleared = len(status.PendingItems) == 0
}

func (s *Service) publishAddressed(ctx context.Context, in SubmitInput, escalated bool) {
	s.eventBus.Publish(ctx, events.GateItemAddressed{
		BaseEvent:    events.NewBaseEvent(),
		AssignmentID: in.AssignmentID,
		TechnicianID: in.TechnicianID,
		Escalated:    escalated,
	})
	if !escalated {
		return
	}

	detail := ""
	if in.Detail != nil {
		detail = *in.Detail
	}
	s.eventBus.Publish(ctx, events.GateEscalated{
		BaseEvent:    events.NewBaseEvent(),
		AssignmentID: in.AssignmentID,
		TechnicianID: in.TechnicianID,
		Reason:       in.Reason,
		Detail:       detail,
	})
	s.notifier.Notify(ctx, notification.SeverityWarning, "High-priority item escalated to the coordinator queue")
}
