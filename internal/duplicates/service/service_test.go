package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"maintops_backend/internal/classifier"
	"maintops_backend/internal/duplicates/repository"
	"maintops_backend/internal/events"
	"maintops_backend/internal/notification"
	"maintops_backend/internal/outbox"
	"maintops_backend/platform/apperr"
	"maintops_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type fakeRepo struct {
	candidates map[uuid.UUID]repository.Candidate

	mergeRes   repository.Result
	mergeErr   error
	mergeCalls int

	dismissRes   repository.Result
	dismissErr   error
	dismissCalls int

	saveCalls int
}

func (r *fakeRepo) ListPending(context.Context) ([]repository.Candidate, error) {
	out := make([]repository.Candidate, 0, len(r.candidates))
	for _, c := range r.candidates {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeRepo) Get(_ context.Context, id uuid.UUID) (repository.Candidate, error) {
	c, ok := r.candidates[id]
	if !ok {
		return repository.Candidate{}, apperr.NotFound("candidate not found")
	}
	return c, nil
}

func (r *fakeRepo) SaveAnalysis(context.Context, uuid.UUID, classifier.PairAnalysis) error {
	r.saveCalls++
	return nil
}

func (r *fakeRepo) MergeWorkOrders(context.Context, uuid.UUID, uuid.UUID, string, *string) (repository.Result, error) {
	r.mergeCalls++
	return r.mergeRes, r.mergeErr
}

func (r *fakeRepo) DismissDuplicate(context.Context, uuid.UUID, string) (repository.Result, error) {
	r.dismissCalls++
	return r.dismissRes, r.dismissErr
}

type fakeStager struct {
	staged []string
}

func (s *fakeStager) RegisterHandler(string, outbox.ActionHandler) {}

func (s *fakeStager) Stage(_ context.Context, action string, _ any) (uuid.UUID, error) {
	s.staged = append(s.staged, action)
	return uuid.New(), nil
}

type fixedClassifier struct {
	analysis classifier.PairAnalysis
	calls    int
}

func (c *fixedClassifier) Classify(context.Context, classifier.WorkOrderContext) (classifier.Classification, error) {
	return classifier.Classification{}, errors.New("not used")
}

func (c *fixedClassifier) AnalyzePair(context.Context, classifier.WorkOrderContext, classifier.WorkOrderContext) (classifier.PairAnalysis, error) {
	c.calls++
	return c.analysis, nil
}

func newCandidate() repository.Candidate {
	return repository.Candidate{
		ID:              uuid.New(),
		ConfidenceScore: 0.7,
		DetectionReason: "same unit, similar description",
		Primary: repository.WorkOrderSummary{
			ID: uuid.New(), Title: "Leaking sink", Status: "new", Priority: "medium",
		},
		Duplicate: repository.WorkOrderSummary{
			ID: uuid.New(), Title: "Sink is leaking", Status: "new", Priority: "medium",
		},
		CreatedAt: time.Now(),
	}
}

func newTestService(repo *fakeRepo, clf classifier.Classifier, stager *fakeStager) *Service {
	log := logger.New("test")
	return New(repo, clf, stager, events.NewInMemoryBus(log), notification.NopNotifier{}, log,
		rate.Inf, DefaultAutoMergeThreshold)
}

func TestMergeSuccessRemovesCandidateFromWorkingSet(t *testing.T) {
	candidate := newCandidate()
	repo := &fakeRepo{
		candidates: map[uuid.UUID]repository.Candidate{candidate.ID: candidate},
		mergeRes:   repository.Result{Success: true, Message: "merged"},
	}
	stager := &fakeStager{}
	svc := newTestService(repo, &fixedClassifier{}, stager)

	if err := svc.WarmView(context.Background()); err != nil {
		t.Fatalf("WarmView: %v", err)
	}

	res, err := svc.Merge(context.Background(), candidate.ID, "alice", nil)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !res.Success || res.Degraded {
		t.Fatalf("got %+v, want non-degraded success", res)
	}
	if len(stager.staged) != 0 {
		t.Fatalf("staged %v, want no compensation for a clean merge", stager.staged)
	}

	list, _ := svc.List(context.Background())
	if len(list) != 0 {
		t.Fatalf("working set has %d candidates after merge, want 0", len(list))
	}
}

func TestMergeUnavailableStagesCompensation(t *testing.T) {
	candidate := newCandidate()
	repo := &fakeRepo{
		candidates: map[uuid.UUID]repository.Candidate{candidate.ID: candidate},
		mergeErr:   apperr.Unavailable("merge_work_orders unreachable", errors.New("dial timeout")),
	}
	stager := &fakeStager{}
	svc := newTestService(repo, &fixedClassifier{}, stager)

	if err := svc.WarmView(context.Background()); err != nil {
		t.Fatalf("WarmView: %v", err)
	}

	res, err := svc.Merge(context.Background(), candidate.ID, "alice", nil)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !res.Success || !res.Degraded {
		t.Fatalf("got %+v, want degraded success", res)
	}
	if len(stager.staged) != 1 || stager.staged[0] != ActionMergeWorkOrders {
		t.Fatalf("staged %v, want [%s]", stager.staged, ActionMergeWorkOrders)
	}

	list, _ := svc.List(context.Background())
	if len(list) != 0 {
		t.Fatalf("candidate still in working set after degraded merge")
	}
}

func TestMergeBusinessRejectionIsFinal(t *testing.T) {
	candidate := newCandidate()
	repo := &fakeRepo{
		candidates: map[uuid.UUID]repository.Candidate{candidate.ID: candidate},
		mergeRes:   repository.Result{Success: false, Message: "work orders already merged"},
	}
	stager := &fakeStager{}
	svc := newTestService(repo, &fixedClassifier{}, stager)

	if err := svc.WarmView(context.Background()); err != nil {
		t.Fatalf("WarmView: %v", err)
	}

	res, err := svc.Merge(context.Background(), candidate.ID, "alice", nil)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.Success {
		t.Fatal("rejected merge reported success")
	}
	if len(stager.staged) != 0 {
		t.Fatalf("rejection staged compensation %v, want none", stager.staged)
	}

	list, _ := svc.List(context.Background())
	if len(list) != 1 {
		t.Fatalf("candidate left working set on a server rejection")
	}
}

func TestDismissUnavailableStagesCompensation(t *testing.T) {
	candidate := newCandidate()
	repo := &fakeRepo{
		candidates: map[uuid.UUID]repository.Candidate{candidate.ID: candidate},
		dismissErr: apperr.Unavailable("dismiss_duplicate unreachable", errors.New("dial timeout")),
	}
	stager := &fakeStager{}
	svc := newTestService(repo, &fixedClassifier{}, stager)

	res, err := svc.Dismiss(context.Background(), candidate.ID, "bob")
	if err != nil {
		t.Fatalf("Dismiss: %v", err)
	}
	if !res.Success || !res.Degraded {
		t.Fatalf("got %+v, want degraded success", res)
	}
	if len(stager.staged) != 1 || stager.staged[0] != ActionDismissDuplicate {
		t.Fatalf("staged %v, want [%s]", stager.staged, ActionDismissDuplicate)
	}
}

func TestBulkAnalyzeSkipsAlreadyAnalyzed(t *testing.T) {
	fresh := newCandidate()
	analyzed := newCandidate()
	when := time.Now()
	analyzed.AnalyzedAt = &when

	repo := &fakeRepo{candidates: map[uuid.UUID]repository.Candidate{
		fresh.ID:    fresh,
		analyzed.ID: analyzed,
	}}
	clf := &fixedClassifier{analysis: classifier.PairAnalysis{
		Recommendation: classifier.RecommendationNeedsReview,
		Confidence:     50,
	}}
	svc := newTestService(repo, clf, &fakeStager{})

	results, err := svc.BulkAnalyze(context.Background())
	if err != nil {
		t.Fatalf("BulkAnalyze: %v", err)
	}
	if clf.calls != 1 {
		t.Fatalf("classifier called %d times, want 1 (analyzed candidate skipped)", clf.calls)
	}
	if _, ok := results[fresh.ID]; !ok {
		t.Fatal("fresh candidate missing from results")
	}
	if _, ok := results[analyzed.ID]; ok {
		t.Fatal("already-analyzed candidate re-scored")
	}
}

func TestAnalyzeAutoMergesConfidentRecommendation(t *testing.T) {
	candidate := newCandidate()
	repo := &fakeRepo{
		candidates: map[uuid.UUID]repository.Candidate{candidate.ID: candidate},
		mergeRes:   repository.Result{Success: true, Message: "merged"},
	}
	clf := &fixedClassifier{analysis: classifier.PairAnalysis{
		Recommendation: classifier.RecommendationMerge,
		Confidence:     95,
	}}
	svc := newTestService(repo, clf, &fakeStager{})

	if _, err := svc.Analyze(context.Background(), candidate.ID); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if repo.mergeCalls != 1 {
		t.Fatalf("merge called %d times, want 1 auto-merge", repo.mergeCalls)
	}
}

func TestAnalyzeDoesNotAutoMergeBelowThreshold(t *testing.T) {
	candidate := newCandidate()
	repo := &fakeRepo{candidates: map[uuid.UUID]repository.Candidate{candidate.ID: candidate}}
	clf := &fixedClassifier{analysis: classifier.PairAnalysis{
		Recommendation: classifier.RecommendationMerge,
		Confidence:     DefaultAutoMergeThreshold - 1,
	}}
	svc := newTestService(repo, clf, &fakeStager{})

	if _, err := svc.Analyze(context.Background(), candidate.ID); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if repo.mergeCalls != 0 {
		t.Fatalf("merge called %d times, want 0 below threshold", repo.mergeCalls)
	}
}

func TestListFallsBackToRepositoryBeforeWarmUp(t *testing.T) {
	candidate := newCandidate()
	repo := &fakeRepo{candidates: map[uuid.UUID]repository.Candidate{candidate.ID: candidate}}
	svc := newTestService(repo, &fixedClassifier{}, &fakeStager{})

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d candidates, want 1 from the repository", len(list))
	}
}
