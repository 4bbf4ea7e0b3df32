package classifier

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Heuristic is the deterministic offline classifier. It never fails, so it
// is safe as the last link in the fallback chain.
type Heuristic struct{}

func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Classify keys priority and category off description keywords.
func (h *Heuristic) Classify(_ context.Context, wo WorkOrderContext) (Classification, error) {
	desc := strings.ToLower(wo.Description)

	priority := "medium"
	category := "other"
	skills := []string{"general"}
	safetyConcern := false

	switch {
	case containsAny(desc, "flood", "fire", "gas", "no heat", "sparks", "smoke"):
		priority = "emergency"
		safetyConcern = true
	case strings.Contains(desc, "leak") && !strings.Contains(desc, "small") && !strings.Contains(desc, "drip"):
		priority = "high"
	case containsAny(desc, "broken", "not working"):
		priority = "high"
	case containsAny(desc, "drip", "small"):
		priority = "low"
	}

	switch {
	case containsAny(desc, "faucet", "toilet", "sink", "drain", "water", "leak"):
		category = "plumbing"
		skills = []string{"plumbing"}
	case containsAny(desc, "outlet", "light", "electric", "switch", "breaker"):
		category = "electrical"
		skills = []string{"electrical"}
	case containsAny(desc, "ac", "heat", "hvac", "air condition", "thermostat"):
		category = "hvac"
		skills = []string{"hvac"}
	case containsAny(desc, "door", "window", "lock"):
		category = "doors_windows"
		skills = []string{"carpentry"}
	case containsAny(desc, "fridge", "stove", "dishwasher", "washer", "dryer", "appliance"):
		category = "appliance"
		skills = []string{"appliance"}
	}

	var certification *string
	if category == "electrical" {
		cert := "licensed_electrician"
		certification = &cert
	}

	estimatedHours := 1.5
	if priority == "emergency" {
		estimatedHours = 2.0
	}

	return Classification{
		Priority:                 priority,
		PriorityConfidence:       70,
		PriorityReasoning:        fmt.Sprintf("Classified based on keywords in description. Category: %s.", category),
		SkillsRequired:           skills,
		CertificationRequired:    certification,
		EstimatedHours:           estimatedHours,
		EstimatedHoursConfidence: 60,
		TimeFactors:              []string{"Estimate based on typical repairs"},
		LikelyParts: PartsForecast{
			HighConfidence:  []string{},
			BringJustInCase: []string{"Standard repair kit"},
		},
		Category: category,
		Flags: Flags{
			SafetyConcern: safetyConcern,
		},
	}, nil
}

// AnalyzePair scores the overlap of significant tokens (length > 3) between
// both descriptions: r = |common| / max(|A|, |B|, 1). r above 0.5 reads as
// a duplicate, between 0.2 and 0.5 as needing review, otherwise distinct.
func (h *Heuristic) AnalyzePair(_ context.Context, older, newer WorkOrderContext) (PairAnalysis, error) {
	descA := strings.ToLower(older.Description)
	descB := strings.ToLower(newer.Description)

	tokensA := significantTokens(descA)
	tokensB := significantTokens(descB)

	common := 0
	seenB := make(map[string]bool, len(tokensB))
	for _, tok := range tokensB {
		seenB[tok] = true
	}
	for _, tok := range tokensA {
		if seenB[tok] {
			common++
		}
	}

	denom := len(tokensA)
	if len(tokensB) > denom {
		denom = len(tokensB)
	}
	if denom < 1 {
		denom = 1
	}
	similarity := float64(common) / float64(denom)

	switch {
	case similarity > 0.5:
		keyDifferences := (*string)(nil)
		if descA != descB {
			diff := "Slight wording differences"
			keyDifferences = &diff
		}
		mergeNote := "Duplicate submission - no additional context needed."
		return PairAnalysis{
			Recommendation: RecommendationMerge,
			Confidence:     int(math.Round(60 + similarity*35)),
			Reasoning: fmt.Sprintf(
				"Descriptions share %d common keywords and appear to describe the same issue.", common),
			KeyDifferences: keyDifferences,
			MergeNote:      &mergeNote,
		}, nil
	case similarity > 0.2:
		diff := "Different wording - may be related or separate issues"
		return PairAnalysis{
			Recommendation: RecommendationNeedsReview,
			Confidence:     int(math.Round(40 + similarity*30)),
			Reasoning:      "Some overlap in descriptions but not enough to determine if same issue. Manual review recommended.",
			KeyDifferences: &diff,
		}, nil
	default:
		diff := "Different maintenance issues"
		return PairAnalysis{
			Recommendation: RecommendationNotDuplicate,
			Confidence:     int(math.Round(70 + (1-similarity)*25)),
			Reasoning:      "Descriptions appear to describe different issues despite being in the same unit.",
			KeyDifferences: &diff,
		}, nil
	}
}

func significantTokens(s string) []string {
	var out []string
	for _, tok := range strings.Fields(s) {
		if len(tok) > 3 {
			out = append(out, tok)
		}
	}
	return out
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var _ Classifier = (*Heuristic)(nil)
