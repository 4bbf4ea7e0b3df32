// Package service implements the duplicate resolution engine: scoring,
// analysis, and merge/dismiss disposition of candidate pairs. Resolutions go
// through the database procedures; when those are unavailable, the candidate
// leaves the local working set immediately and a compensation record is
// staged so the server catches up later.
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"maintops_backend/internal/classifier"
	"maintops_backend/internal/duplicates/repository"
	"maintops_backend/internal/events"
	"maintops_backend/internal/notification"
	"maintops_backend/internal/outbox"
	"maintops_backend/internal/reconcile"
	"maintops_backend/platform/apperr"
	"maintops_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Outbox action names for degraded resolutions.
const (
	ActionMergeWorkOrders  = "duplicates.merge_work_orders"
	ActionDismissDuplicate = "duplicates.dismiss_duplicate"
)

// MergePayload is the compensation payload for a degraded merge.
type MergePayload struct {
	PrimaryID   string  `json:"primaryId"`
	DuplicateID string  `json:"duplicateId"`
	MergedBy    string  `json:"mergedBy"`
	MergeNote   *string `json:"mergeNote,omitempty"`
}

// DismissPayload is the compensation payload for a degraded dismissal.
type DismissPayload struct {
	CandidateID string `json:"candidateId"`
	DismissedBy string `json:"dismissedBy"`
}

// CandidateRepo is the persistence surface the engine works against.
type CandidateRepo interface {
	ListPending(ctx context.Context) ([]repository.Candidate, error)
	Get(ctx context.Context, id uuid.UUID) (repository.Candidate, error)
	SaveAnalysis(ctx context.Context, id uuid.UUID, analysis classifier.PairAnalysis) error
	MergeWorkOrders(ctx context.Context, primaryID, duplicateID uuid.UUID, mergedBy string, mergeNote *string) (repository.Result, error)
	DismissDuplicate(ctx context.Context, candidateID uuid.UUID, dismissedBy string) (repository.Result, error)
}

// CompensationStager stages degraded resolutions for later replay.
type CompensationStager interface {
	RegisterHandler(action string, h outbox.ActionHandler)
	Stage(ctx context.Context, action string, payload any) (uuid.UUID, error)
}

// viewCandidate adapts a repository row to the reconciled view.
type viewCandidate struct {
	repository.Candidate
}

func (c viewCandidate) RowID() string { return c.ID.String() }

// Resolution is the outcome of a merge or dismiss call.
type Resolution struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Degraded bool   `json:"degraded,omitempty"`
}

// BulkOutcome summarizes a bulk resolution pass.
type BulkOutcome struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type Service struct {
	repo       CandidateRepo
	classifier classifier.Classifier
	outbox     CompensationStager
	eventBus   events.Bus
	notifier   notification.Notifier
	log        *logger.Logger

	view               *reconcile.View[viewCandidate]
	analyzing          singleflight.Group
	pacer              *rate.Limiter
	autoMergeThreshold int
	warmed             bool
}

func New(
	repo CandidateRepo,
	clf classifier.Classifier,
	outboxSvc CompensationStager,
	eventBus events.Bus,
	notifier notification.Notifier,
	log *logger.Logger,
	pace rate.Limit,
	autoMergeThreshold int,
) *Service {
	s := &Service{
		repo:               repo,
		classifier:         clf,
		outbox:             outboxSvc,
		eventBus:           eventBus,
		notifier:           notifier,
		log:                log,
		view:               reconcile.NewView[viewCandidate](),
		pacer:              rate.NewLimiter(pace, 1),
		autoMergeThreshold: autoMergeThreshold,
	}
	s.registerCompensationHandlers()
	return s
}

// registerCompensationHandlers binds the outbox replay functions to the
// resolution procedures.
func (s *Service) registerCompensationHandlers() {
	if s.outbox == nil {
		return
	}

	s.outbox.RegisterHandler(ActionMergeWorkOrders, func(ctx context.Context, raw json.RawMessage) error {
		var p MergePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		primaryID, err := uuid.Parse(p.PrimaryID)
		if err != nil {
			return err
		}
		duplicateID, err := uuid.Parse(p.DuplicateID)
		if err != nil {
			return err
		}
		res, err := s.repo.MergeWorkOrders(ctx, primaryID, duplicateID, p.MergedBy, p.MergeNote)
		if err != nil {
			return err
		}
		if !res.Success {
			// The server refused the merge outright; replaying cannot help.
			s.log.Warn("merge compensation rejected by server", "message", res.Message)
		}
		return nil
	})

	s.outbox.RegisterHandler(ActionDismissDuplicate, func(ctx context.Context, raw json.RawMessage) error {
		var p DismissPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		candidateID, err := uuid.Parse(p.CandidateID)
		if err != nil {
			return err
		}
		res, err := s.repo.DismissDuplicate(ctx, candidateID, p.DismissedBy)
		if err != nil {
			return err
		}
		if !res.Success {
			s.log.Warn("dismiss compensation rejected by server", "message", res.Message)
		}
		return nil
	})
}

// WarmView loads unresolved candidates into the working set. Called once on
// startup; changefeed deliveries keep it current afterwards.
func (s *Service) WarmView(ctx context.Context) error {
	candidates, err := s.repo.ListPending(ctx)
	if err != nil {
		return err
	}
	for _, c := range candidates {
		s.view.ApplyRemote(viewCandidate{c})
	}
	s.warmed = true
	return nil
}

// ApplyRemoteCandidate folds a changefeed row into the working set.
func (s *Service) ApplyRemoteCandidate(c repository.Candidate) {
	s.view.ApplyRemote(viewCandidate{c})
}

// RemoveCandidate drops a candidate from the working set, for changefeed
// deletes and degraded local resolutions.
func (s *Service) RemoveCandidate(id uuid.UUID) {
	s.view.Delete(id.String())
}

// List returns the current working set, falling back to the database when
// the view has not been warmed.
func (s *Service) List(ctx context.Context) ([]repository.Candidate, error) {
	if !s.warmed {
		return s.repo.ListPending(ctx)
	}

	snapshot := s.view.Snapshot()
	out := make([]repository.Candidate, 0, len(snapshot))
	for _, c := range snapshot {
		out = append(out, c.Candidate)
	}
	return out, nil
}

// Analyze scores one candidate pair. Concurrent calls for the same
// candidate coalesce into one classifier round-trip. The stored write-back
// is best-effort: a persistence failure is logged and the opinion still
// returned.
func (s *Service) Analyze(ctx context.Context, candidateID uuid.UUID) (classifier.PairAnalysis, error) {
	v, err, _ := s.analyzing.Do(candidateID.String(), func() (any, error) {
		candidate, err := s.repo.Get(ctx, candidateID)
		if err != nil {
			return nil, err
		}
		return s.analyzeCandidate(ctx, candidate)
	})
	if err != nil {
		return classifier.PairAnalysis{}, err
	}
	return v.(classifier.PairAnalysis), nil
}

func (s *Service) analyzeCandidate(ctx context.Context, candidate repository.Candidate) (classifier.PairAnalysis, error) {
	analysis, err := s.classifier.AnalyzePair(ctx,
		toClassifierContext(candidate.Primary),
		toClassifierContext(candidate.Duplicate),
	)
	if err != nil {
		return classifier.PairAnalysis{}, err
	}

	if err := s.repo.SaveAnalysis(ctx, candidate.ID, analysis); err != nil {
		s.log.Error("analysis write-back failed", "error", err, "candidate_id", candidate.ID.String())
	} else {
		refreshed, err := s.repo.Get(ctx, candidate.ID)
		if err == nil {
			s.view.ApplyRemote(viewCandidate{refreshed})
		}
	}

	if ShouldAutoMerge(analysis.Recommendation, analysis.Confidence, s.autoMergeThreshold) {
		res, err := s.Merge(ctx, candidate.ID, "auto-merge", analysis.MergeNote)
		if err != nil {
			s.log.Error("auto-merge failed", "error", err, "candidate_id", candidate.ID.String())
		} else if res.Success {
			s.notifier.Notify(ctx, notification.SeveritySuccess,
				fmt.Sprintf("Auto-merged duplicate of %q (%d%% confidence)", candidate.Primary.Title, analysis.Confidence))
		}
	}
	return analysis, nil
}

// BulkAnalyze scores every not-yet-analyzed candidate sequentially, pacing
// calls to be polite to the classifier. Runs to completion over its input;
// per-candidate failures are collected, not fatal.
func (s *Service) BulkAnalyze(ctx context.Context) (map[uuid.UUID]classifier.PairAnalysis, error) {
	candidates, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	results := make(map[uuid.UUID]classifier.PairAnalysis)
	for _, candidate := range candidates {
		if candidate.Analyzed() {
			continue
		}
		if err := s.pacer.Wait(ctx); err != nil {
			return results, err
		}

		analysis, err := s.analyzeCandidate(ctx, candidate)
		if err != nil {
			s.log.Error("bulk analysis failed for candidate", "error", err, "candidate_id", candidate.ID.String())
			continue
		}
		results[candidate.ID] = analysis
	}
	return results, nil
}

// Merge resolves a candidate by folding the duplicate into the primary.
func (s *Service) Merge(ctx context.Context, candidateID uuid.UUID, mergedBy string, mergeNote *string) (Resolution, error) {
	candidate, err := s.repo.Get(ctx, candidateID)
	if err != nil {
		return Resolution{}, err
	}

	res, err := s.repo.MergeWorkOrders(ctx, candidate.Primary.ID, candidate.Duplicate.ID, mergedBy, mergeNote)
	switch {
	case err == nil && res.Success:
		s.view.Delete(candidateID.String())
		s.publishResolved(ctx, candidateID, "merged", mergedBy, false)
		return Resolution{Success: true, Message: res.Message}, nil
	case err == nil:
		return Resolution{Success: false, Message: res.Message}, nil
	case apperr.IsUnavailable(err):
		s.log.Fallback("merge_work_orders", err)
		s.view.Delete(candidateID.String())
		if _, stageErr := s.outbox.Stage(ctx, ActionMergeWorkOrders, MergePayload{
			PrimaryID:   candidate.Primary.ID.String(),
			DuplicateID: candidate.Duplicate.ID.String(),
			MergedBy:    mergedBy,
			MergeNote:   mergeNote,
		}); stageErr != nil {
			return Resolution{}, stageErr
		}
		s.publishResolved(ctx, candidateID, "merged", mergedBy, true)
		return Resolution{Success: true, Message: "Merged locally, server sync queued", Degraded: true}, nil
	default:
		return Resolution{}, err
	}
}

// Dismiss resolves a candidate as not a duplicate.
func (s *Service) Dismiss(ctx context.Context, candidateID uuid.UUID, dismissedBy string) (Resolution, error) {
	res, err := s.repo.DismissDuplicate(ctx, candidateID, dismissedBy)
	switch {
	case err == nil && res.Success:
		s.view.Delete(candidateID.String())
		s.publishResolved(ctx, candidateID, "dismissed", dismissedBy, false)
		return Resolution{Success: true, Message: res.Message}, nil
	case err == nil:
		return Resolution{Success: false, Message: res.Message}, nil
	case apperr.IsUnavailable(err):
		s.log.Fallback("dismiss_duplicate", err)
		s.view.Delete(candidateID.String())
		if _, stageErr := s.outbox.Stage(ctx, ActionDismissDuplicate, DismissPayload{
			CandidateID: candidateID.String(),
			DismissedBy: dismissedBy,
		}); stageErr != nil {
			return Resolution{}, stageErr
		}
		s.publishResolved(ctx, candidateID, "dismissed", dismissedBy, true)
		return Resolution{Success: true, Message: "Dismissed locally, server sync queued", Degraded: true}, nil
	default:
		return Resolution{}, err
	}
}

// BulkMerge applies Merge sequentially over ids, counting outcomes and
// raising one summary notification at the end.
func (s *Service) BulkMerge(ctx context.Context, ids []uuid.UUID, mergedBy string) (BulkOutcome, error) {
	var outcome BulkOutcome
	for _, id := range ids {
		res, err := s.Merge(ctx, id, mergedBy, nil)
		if err != nil || !res.Success {
			outcome.Failed++
			continue
		}
		outcome.Succeeded++
	}

	s.notifier.Notify(ctx, notification.SeverityInfo,
		fmt.Sprintf("Bulk merge finished: %d merged, %d failed", outcome.Succeeded, outcome.Failed))
	return outcome, nil
}

// BulkDismiss applies Dismiss sequentially over ids.
func (s *Service) BulkDismiss(ctx context.Context, ids []uuid.UUID, dismissedBy string) (BulkOutcome, error) {
	var outcome BulkOutcome
	for _, id := range ids {
		res, err := s.Dismiss(ctx, id, dismissedBy)
		if err != nil || !res.Success {
			outcome.Failed++
			continue
		}
		outcome.Succeeded++
	}

	s.notifier.Notify(ctx, notification.SeverityInfo,
		fmt.Sprintf("Bulk dismiss finished: %d dismissed, %d failed", outcome.Succeeded, outcome.Failed))
	return outcome, nil
}

func (s *Service) publishResolved(ctx context.Context, candidateID uuid.UUID, resolution, resolvedBy string, degraded bool) {
	s.eventBus.Publish(ctx, events.DuplicateResolved{
		BaseEvent:   events.NewBaseEvent(),
		CandidateID: candidateID,
		Resolution:  resolution,
		ResolvedBy:  resolvedBy,
		Degraded:    degraded,
	})
}

func toClassifierContext(wo repository.WorkOrderSummary) classifier.WorkOrderContext {
	return classifier.WorkOrderContext{
		ID:          wo.ID,
		CreatedAt:   wo.CreatedAt,
		Title:       wo.Title,
		Description: wo.Description,
		Property:    wo.Property,
		Unit:        wo.Unit,
		Status:      wo.Status,
		Priority:    wo.Priority,
	}
}
