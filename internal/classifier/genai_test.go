package classifier

import "testing"

func TestParseClassificationValidPayload(t *testing.T) {
	text := "Here is the result:\n```json\n" + `{
		"priority": "HIGH",
		"priority_confidence": 88,
		"priority_reasoning": "Major appliance down",
		"skills_required": ["appliance"],
		"certification_required": null,
		"estimated_hours": 2.5,
		"estimated_hours_confidence": 70,
		"time_factors": ["Parts availability"],
		"likely_parts": {"high_confidence": ["door seal"], "bring_just_in_case": []},
		"category": "appliance",
		"subcategory": "dishwasher",
		"flags": {"safety_concern": false, "possible_tenant_damage": false, "likely_recurring": true, "multi_visit_likely": false}
	}` + "\n```"

	got := parseClassification(text)
	if got.Priority != "high" {
		t.Fatalf("Priority = %q, want high (lowercased)", got.Priority)
	}
	if got.PriorityConfidence != 88 {
		t.Fatalf("PriorityConfidence = %d, want 88", got.PriorityConfidence)
	}
	if got.Category != "appliance" {
		t.Fatalf("Category = %q, want appliance", got.Category)
	}
	if !got.Flags.LikelyRecurring {
		t.Fatal("LikelyRecurring flag lost in parsing")
	}
}

func TestParseClassificationInvalidPriorityFallsBackToDefault(t *testing.T) {
	got := parseClassification(`{"priority": "urgent-ish", "priority_confidence": 90}`)
	if got.Priority != "medium" || got.PriorityConfidence != 0 {
		t.Fatalf("got %q/%d, want medium/0 safe default", got.Priority, got.PriorityConfidence)
	}
}

func TestParseClassificationClampsConfidence(t *testing.T) {
	got := parseClassification(`{"priority": "low", "priority_confidence": 250}`)
	if got.PriorityConfidence != 100 {
		t.Fatalf("PriorityConfidence = %d, want clamped to 100", got.PriorityConfidence)
	}
}

func TestParsePairAnalysisValidPayload(t *testing.T) {
	got := parsePairAnalysis(`{
		"recommendation": "merge",
		"confidence": 92,
		"reasoning": "Same issue reported twice.",
		"keyDifferences": null,
		"mergeNote": "Tenant mentioned it worsened overnight."
	}`)
	if got.Recommendation != RecommendationMerge {
		t.Fatalf("Recommendation = %q, want MERGE (uppercased)", got.Recommendation)
	}
	if got.Confidence != 92 {
		t.Fatalf("Confidence = %d, want 92", got.Confidence)
	}
	if got.MergeNote == nil {
		t.Fatal("MergeNote dropped in parsing")
	}
}

func TestParsePairAnalysisGarbageNeedsReview(t *testing.T) {
	got := parsePairAnalysis("the model refused to answer")
	if got.Recommendation != RecommendationNeedsReview || got.Confidence != 0 {
		t.Fatalf("got %q/%d, want NEEDS_REVIEW/0 safe default", got.Recommendation, got.Confidence)
	}
}
