// Package service implements the work-order lifecycle engine: assignment,
// review, completion, rejection and emergency override, with the
// procedure-first persistence strategy behind a single store interface.
package service

import (
	"context"
	"fmt"

	"maintops_backend/internal/classifier"
	"maintops_backend/internal/events"
	"maintops_backend/internal/notification"
	"maintops_backend/internal/workorders/repository"
	"maintops_backend/internal/workorders/store"
	"maintops_backend/platform/logger"

	"github.com/google/uuid"
)

// approverRoles may approve a completion. Checked locally before any store
// call is issued.
var approverRoles = map[string]bool{
	"coordinator": true,
	"supervisor":  true,
	"manager":     true,
	"admin":       true,
}

// overrideReasons are the accepted emergency-override categories.
var overrideReasons = map[string]bool{
	"emergency":  true,
	"turnover":   true,
	"inspection": true,
	"other":      true,
}

// IsApproverRole reports whether the role may approve completions.
func IsApproverRole(role string) bool {
	return approverRoles[role]
}

// IsOverrideReason reports whether the reason is an accepted override
// category.
func IsOverrideReason(reason string) bool {
	return overrideReasons[reason]
}

type Service struct {
	store      store.LifecycleStore
	repo       *repository.Repository
	classifier classifier.Classifier
	eventBus   events.Bus
	notifier   notification.Notifier
	log        *logger.Logger
}

func New(
	lifecycleStore store.LifecycleStore,
	repo *repository.Repository,
	clf classifier.Classifier,
	eventBus events.Bus,
	notifier notification.Notifier,
	log *logger.Logger,
) *Service {
	return &Service{
		store:      lifecycleStore,
		repo:       repo,
		classifier: clf,
		eventBus:   eventBus,
		notifier:   notifier,
		log:        log,
	}
}

// Assign routes the work order to a technician. Never retried here; the
// caller decides whether to try again on failure.
func (s *Service) Assign(ctx context.Context, p store.AssignParams) (store.Result, error) {
	res, err := s.store.Assign(ctx, p)
	if err != nil {
		s.notifier.Notify(ctx, notification.SeverityError, "Assignment failed: "+err.Error())
		return store.Result{}, err
	}
	if !res.Success {
		s.notifier.Notify(ctx, notification.SeverityWarning, res.Message)
		return res, nil
	}

	s.eventBus.Publish(ctx, events.WorkOrderAssigned{
		BaseEvent:    events.NewBaseEvent(),
		WorkOrderID:  p.WorkOrderID,
		TechnicianID: p.TechnicianID,
		AssignedBy:   p.AssignedBy,
		Degraded:     res.Degraded,
	})
	s.notifier.Notify(ctx, notification.SeveritySuccess, res.Message)
	return res, nil
}

func (s *Service) MarkReadyForReview(ctx context.Context, p store.ReadyParams) (store.Result, error) {
	res, err := s.store.MarkReadyForReview(ctx, p)
	if err != nil {
		s.notifier.Notify(ctx, notification.SeverityError, "Could not mark ready for review: "+err.Error())
		return store.Result{}, err
	}
	if !res.Success {
		s.notifier.Notify(ctx, notification.SeverityWarning, res.Message)
		return res, nil
	}

	s.eventBus.Publish(ctx, events.WorkOrderReadyForReview{
		BaseEvent:    events.NewBaseEvent(),
		WorkOrderID:  p.WorkOrderID,
		TechnicianID: p.TechnicianID,
	})
	s.notifier.Notify(ctx, notification.SeveritySuccess, res.Message)
	return res, nil
}

// Complete approves finished work. Callers outside the approver roles are
// rejected locally without touching the store. A completion that raced a
// concurrent transition reports success but leaves the row unchanged;
// re-read to notice.
func (s *Service) Complete(ctx context.Context, p store.CompleteParams) (store.Result, error) {
	if !IsApproverRole(p.ApproverRole) {
		res := store.Result{
			Success: false,
			Message: fmt.Sprintf("Role %q cannot approve completions", p.ApproverRole),
		}
		s.notifier.Notify(ctx, notification.SeverityWarning, res.Message)
		return res, nil
	}

	res, err := s.store.Complete(ctx, p)
	if err != nil {
		s.notifier.Notify(ctx, notification.SeverityError, "Completion failed: "+err.Error())
		return store.Result{}, err
	}
	if !res.Success {
		s.notifier.Notify(ctx, notification.SeverityWarning, res.Message)
		return res, nil
	}

	s.eventBus.Publish(ctx, events.WorkOrderCompleted{
		BaseEvent:   events.NewBaseEvent(),
		WorkOrderID: p.WorkOrderID,
		ApprovedBy:  p.ApprovedBy.String(),
	})
	s.notifier.Notify(ctx, notification.SeveritySuccess, res.Message)
	return res, nil
}

// Reject sends reviewed work back to in_progress. Direct mutation; there is
// no procedure variant for this edge.
func (s *Service) Reject(ctx context.Context, workOrderID uuid.UUID, rejectedBy, reason string) (store.Result, error) {
	if err := s.repo.Reject(ctx, workOrderID, reason); err != nil {
		if err == repository.ErrNotFound {
			res := store.Result{Success: false, Message: "Work order is not awaiting review"}
			s.notifier.Notify(ctx, notification.SeverityWarning, res.Message)
			return res, nil
		}
		s.notifier.Notify(ctx, notification.SeverityError, "Rejection failed: "+err.Error())
		return store.Result{}, err
	}

	if err := s.repo.WriteAuditLog(ctx, rejectedBy, "work_order.rejected", "work_order", workOrderID, map[string]any{
		"reason": reason,
	}); err != nil {
		s.log.Error("audit log write failed", "error", err, "work_order_id", workOrderID.String())
	}

	s.eventBus.Publish(ctx, events.WorkOrderRejected{
		BaseEvent:   events.NewBaseEvent(),
		WorkOrderID: workOrderID,
		RejectedBy:  rejectedBy,
		Reason:      reason,
	})
	s.notifier.Notify(ctx, notification.SeverityInfo, "Work order sent back for rework")
	return store.Result{Success: true, Message: "Work order rejected"}, nil
}

// RecordOverride displaces a technician's upcoming schedule for an
// emergency. Returns the displaced count so the caller can prompt
// reassignment.
func (s *Service) RecordOverride(ctx context.Context, p store.OverrideParams) (store.OverrideResult, error) {
	if !IsOverrideReason(p.Reason) {
		res := store.OverrideResult{Result: store.Result{
			Success: false,
			Message: fmt.Sprintf("Unknown override reason %q", p.Reason),
		}}
		s.notifier.Notify(ctx, notification.SeverityWarning, res.Message)
		return res, nil
	}

	res, err := s.store.RecordOverride(ctx, p)
	if err != nil {
		s.notifier.Notify(ctx, notification.SeverityError, "Override failed: "+err.Error())
		return store.OverrideResult{}, err
	}
	if !res.Success {
		s.notifier.Notify(ctx, notification.SeverityWarning, res.Message)
		return res, nil
	}

	s.eventBus.Publish(ctx, events.OverrideRecorded{
		BaseEvent:      events.NewBaseEvent(),
		TechnicianID:   p.TechnicianID,
		OverrideBy:     p.OverrideBy,
		Reason:         p.Reason,
		DisplacedCount: res.DisplacedCount,
	})
	s.notifier.Notify(ctx, notification.SeverityWarning,
		fmt.Sprintf("Override recorded: %d assignments need a new technician", res.DisplacedCount))
	return res, nil
}

// Classify runs the classifier over the work order and persists its opinion.
// Write-back failure does not invalidate the returned opinion.
func (s *Service) Classify(ctx context.Context, workOrderID uuid.UUID) (classifier.Classification, error) {
	wo, err := s.repo.GetWorkOrder(ctx, workOrderID)
	if err != nil {
		return classifier.Classification{}, err
	}

	classification, err := s.classifier.Classify(ctx, classifier.WorkOrderContext{
		ID:           wo.ID,
		CreatedAt:    wo.CreatedAt,
		Title:        wo.Title,
		Description:  wo.Description,
		Property:     wo.Property,
		Unit:         wo.Unit,
		Status:       wo.Status,
		Priority:     wo.Priority,
		ResidentName: wo.ResidentName,
		Channel:      wo.Channel,
	})
	if err != nil {
		return classifier.Classification{}, err
	}

	if err := s.repo.SaveClassification(ctx, workOrderID, classification); err != nil {
		s.log.Error("classification write-back failed", "error", err, "work_order_id", workOrderID.String())
	}
	return classification, nil
}

func (s *Service) GetWorkOrder(ctx context.Context, id uuid.UUID) (repository.WorkOrder, error) {
	return s.repo.GetWorkOrder(ctx, id)
}

func (s *Service) ListWorkOrders(ctx context.Context, status *string) ([]repository.WorkOrder, error) {
	return s.repo.ListWorkOrders(ctx, status)
}

func (s *Service) GetActiveAssignment(ctx context.Context, workOrderID uuid.UUID) (repository.Assignment, error) {
	return s.repo.GetActiveAssignment(ctx, workOrderID)
}

func (s *Service) ListAssignmentHistory(ctx context.Context, workOrderID uuid.UUID) ([]repository.Assignment, error) {
	return s.repo.ListAssignmentHistory(ctx, workOrderID)
}

func (s *Service) ListTechnicians(ctx context.Context) ([]repository.Technician, error) {
	return s.repo.ListTechnicians(ctx)
}

func (s *Service) ListOverrideHistory(ctx context.Context, technicianID uuid.UUID) ([]repository.OverrideRecord, error) {
	return s.repo.ListOverrideHistory(ctx, technicianID)
}
