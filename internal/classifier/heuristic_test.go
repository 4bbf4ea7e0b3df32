package classifier

import (
	"context"
	"errors"
	"testing"

	"maintops_backend/platform/apperr"
	"maintops_backend/platform/logger"
)

func TestHeuristicClassifyEmergencyKeywords(t *testing.T) {
	h := NewHeuristic()

	for _, desc := range []string{
		"flood in the basement",
		"smell of gas near the stove",
		"no heat in unit since yesterday",
		"sparks from the outlet",
	} {
		got, err := h.Classify(context.Background(), WorkOrderContext{Description: desc})
		if err != nil {
			t.Fatalf("Classify(%q): %v", desc, err)
		}
		if got.Priority != "emergency" {
			t.Errorf("Classify(%q).Priority = %q, want emergency", desc, got.Priority)
		}
		if !got.Flags.SafetyConcern {
			t.Errorf("Classify(%q) should flag a safety concern", desc)
		}
	}
}

func TestHeuristicClassifyLeakSeverity(t *testing.T) {
	h := NewHeuristic()

	big, _ := h.Classify(context.Background(), WorkOrderContext{Description: "water leak under the bathroom sink"})
	if big.Priority != "high" {
		t.Fatalf("unqualified leak priority = %q, want high", big.Priority)
	}

	minor, _ := h.Classify(context.Background(), WorkOrderContext{Description: "small drip from kitchen faucet"})
	if minor.Priority != "low" {
		t.Fatalf("small drip priority = %q, want low", minor.Priority)
	}
}

func TestHeuristicClassifyCategoryAndCertification(t *testing.T) {
	h := NewHeuristic()

	electrical, _ := h.Classify(context.Background(), WorkOrderContext{Description: "bedroom light switch sparking sometimes"})
	if electrical.Category != "electrical" {
		t.Fatalf("Category = %q, want electrical", electrical.Category)
	}
	if electrical.CertificationRequired == nil || *electrical.CertificationRequired != "licensed_electrician" {
		t.Fatalf("CertificationRequired = %v, want licensed_electrician", electrical.CertificationRequired)
	}

	plumbing, _ := h.Classify(context.Background(), WorkOrderContext{Description: "toilet keeps running"})
	if plumbing.Category != "plumbing" {
		t.Fatalf("Category = %q, want plumbing", plumbing.Category)
	}
	if len(plumbing.SkillsRequired) != 1 || plumbing.SkillsRequired[0] != "plumbing" {
		t.Fatalf("SkillsRequired = %v, want [plumbing]", plumbing.SkillsRequired)
	}
	if plumbing.CertificationRequired != nil {
		t.Fatalf("plumbing should not require certification, got %v", *plumbing.CertificationRequired)
	}
}

func TestHeuristicAnalyzePairHighOverlapMerges(t *testing.T) {
	h := NewHeuristic()

	analysis, err := h.AnalyzePair(context.Background(),
		WorkOrderContext{Description: "leaking kitchen sink pipe"},
		WorkOrderContext{Description: "kitchen sink pipe is leaking"},
	)
	if err != nil {
		t.Fatalf("AnalyzePair: %v", err)
	}
	if analysis.Recommendation != RecommendationMerge {
		t.Fatalf("Recommendation = %q, want MERGE", analysis.Recommendation)
	}
	if analysis.Confidence < 60 || analysis.Confidence > 95 {
		t.Fatalf("Confidence = %d, want within [60,95]", analysis.Confidence)
	}
	if analysis.MergeNote == nil {
		t.Fatal("MERGE result should carry a merge note")
	}
}

func TestHeuristicAnalyzePairPartialOverlapNeedsReview(t *testing.T) {
	h := NewHeuristic()

	analysis, _ := h.AnalyzePair(context.Background(),
		WorkOrderContext{Description: "kitchen sink drain clogged again badly"},
		WorkOrderContext{Description: "kitchen ceiling paint peeling near window"},
	)
	if analysis.Recommendation != RecommendationNeedsReview {
		t.Fatalf("Recommendation = %q, want NEEDS_REVIEW", analysis.Recommendation)
	}
	if analysis.Confidence < 40 || analysis.Confidence > 55 {
		t.Fatalf("Confidence = %d, want within [40,55]", analysis.Confidence)
	}
}

func TestHeuristicAnalyzePairDisjointDescriptions(t *testing.T) {
	h := NewHeuristic()

	analysis, _ := h.AnalyzePair(context.Background(),
		WorkOrderContext{Description: "broken dishwasher door latch"},
		WorkOrderContext{Description: "bedroom window paint peeling"},
	)
	if analysis.Recommendation != RecommendationNotDuplicate {
		t.Fatalf("Recommendation = %q, want NOT_DUPLICATE", analysis.Recommendation)
	}
	if analysis.Confidence < 70 || analysis.Confidence > 95 {
		t.Fatalf("Confidence = %d, want within [70,95]", analysis.Confidence)
	}
}

func TestHeuristicAnalyzePairEmptyDescriptions(t *testing.T) {
	h := NewHeuristic()

	analysis, _ := h.AnalyzePair(context.Background(),
		WorkOrderContext{Description: ""},
		WorkOrderContext{Description: ""},
	)
	if analysis.Recommendation != RecommendationNotDuplicate {
		t.Fatalf("Recommendation = %q, want NOT_DUPLICATE for empty input", analysis.Recommendation)
	}
}

type failingClassifier struct{}

func (failingClassifier) Classify(context.Context, WorkOrderContext) (Classification, error) {
	return Classification{}, apperr.Unavailable("classifier unreachable", errors.New("dial timeout"))
}

func (failingClassifier) AnalyzePair(context.Context, WorkOrderContext, WorkOrderContext) (PairAnalysis, error) {
	return PairAnalysis{}, apperr.Unavailable("classifier unreachable", errors.New("dial timeout"))
}

func TestResolverFallsBackToHeuristic(t *testing.T) {
	r := NewResolver(failingClassifier{}, logger.New("test"))

	classification, err := r.Classify(context.Background(), WorkOrderContext{Description: "fire damage in kitchen"})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if classification.Priority != "emergency" {
		t.Fatalf("fallback Priority = %q, want emergency", classification.Priority)
	}

	analysis, err := r.AnalyzePair(context.Background(),
		WorkOrderContext{Description: "leaking kitchen sink pipe"},
		WorkOrderContext{Description: "kitchen sink pipe is leaking"},
	)
	if err != nil {
		t.Fatalf("AnalyzePair: %v", err)
	}
	if analysis.Recommendation != RecommendationMerge {
		t.Fatalf("fallback Recommendation = %q, want MERGE", analysis.Recommendation)
	}
}

func TestResolverWithoutRemoteUsesHeuristic(t *testing.T) {
	r := NewResolver(nil, logger.New("test"))

	classification, err := r.Classify(context.Background(), WorkOrderContext{Description: "dripping faucet"})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if classification.Priority != "low" {
		t.Fatalf("Priority = %q, want low", classification.Priority)
	}
}
