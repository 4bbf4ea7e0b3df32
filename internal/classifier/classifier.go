// Package classifier scores work orders (priority, category, skills) and
// work-order pairs (duplicate recommendation). The remote model is optional:
// when it is unconfigured or unreachable, a deterministic keyword heuristic
// produces the opinion instead, so callers always get an answer.
package classifier

import (
	"context"
	"time"

	"maintops_backend/platform/logger"

	"github.com/google/uuid"
)

// Recommendation is the duplicate-analysis verdict.
type Recommendation string

const (
	RecommendationMerge        Recommendation = "MERGE"
	RecommendationNotDuplicate Recommendation = "NOT_DUPLICATE"
	RecommendationNeedsReview  Recommendation = "NEEDS_REVIEW"
)

// WorkOrderContext is the descriptive context handed to the classifier.
type WorkOrderContext struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	Title        string
	Description  string
	Property     string
	Unit         string
	Status       string
	Priority     string
	ResidentName string
	Channel      string
}

// PartsForecast splits suggested parts by how certain the classifier is
// they will be needed.
type PartsForecast struct {
	HighConfidence  []string `json:"highConfidence"`
	BringJustInCase []string `json:"bringJustInCase"`
}

// Flags are boolean risk markers attached to a classification.
type Flags struct {
	SafetyConcern        bool `json:"safetyConcern"`
	PossibleTenantDamage bool `json:"possibleTenantDamage"`
	LikelyRecurring      bool `json:"likelyRecurring"`
	MultiVisitLikely     bool `json:"multiVisitLikely"`
}

// Classification is the structured opinion for a single work order.
type Classification struct {
	Priority                 string        `json:"priority"`
	PriorityConfidence       int           `json:"priorityConfidence"`
	PriorityReasoning        string        `json:"priorityReasoning"`
	SkillsRequired           []string      `json:"skillsRequired"`
	CertificationRequired    *string       `json:"certificationRequired"`
	EstimatedHours           float64       `json:"estimatedHours"`
	EstimatedHoursConfidence int           `json:"estimatedHoursConfidence"`
	TimeFactors              []string      `json:"timeFactors"`
	LikelyParts              PartsForecast `json:"likelyParts"`
	Category                 string        `json:"category"`
	Subcategory              *string       `json:"subcategory"`
	Flags                    Flags         `json:"flags"`
}

// PairAnalysis is the structured opinion for a candidate duplicate pair.
type PairAnalysis struct {
	Recommendation Recommendation `json:"recommendation"`
	Confidence     int            `json:"confidence"`
	Reasoning      string         `json:"reasoning"`
	KeyDifferences *string        `json:"keyDifferences"`
	MergeNote      *string        `json:"mergeNote"`
}

// Classifier produces structured opinions about work orders.
type Classifier interface {
	Classify(ctx context.Context, wo WorkOrderContext) (Classification, error)
	AnalyzePair(ctx context.Context, older, newer WorkOrderContext) (PairAnalysis, error)
}

// Resolver fronts an optional remote classifier with the keyword heuristic.
// Remote failures are logged and absorbed; the heuristic answer is returned
// in their place.
type Resolver struct {
	remote    Classifier
	heuristic *Heuristic
	log       *logger.Logger
}

// NewResolver builds a Resolver. remote may be nil when no model is
// configured.
func NewResolver(remote Classifier, log *logger.Logger) *Resolver {
	return &Resolver{
		remote:    remote,
		heuristic: NewHeuristic(),
		log:       log,
	}
}

// Classify implements Classifier.
func (r *Resolver) Classify(ctx context.Context, wo WorkOrderContext) (Classification, error) {
	if r.remote != nil {
		classification, err := r.remote.Classify(ctx, wo)
		if err == nil {
			return classification, nil
		}
		r.log.ClassifierUnavailable("classify", err)
	}
	return r.heuristic.Classify(ctx, wo)
}

// AnalyzePair implements Classifier.
func (r *Resolver) AnalyzePair(ctx context.Context, older, newer WorkOrderContext) (PairAnalysis, error) {
	if r.remote != nil {
		analysis, err := r.remote.AnalyzePair(ctx, older, newer)
		if err == nil {
			return analysis, nil
		}
		r.log.ClassifierUnavailable("analyze_pair", err)
	}
	return r.heuristic.AnalyzePair(ctx, older, newer)
}

var _ Classifier = (*Resolver)(nil)
