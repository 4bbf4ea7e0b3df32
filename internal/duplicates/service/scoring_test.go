package service

import (
	"testing"

	"maintops_backend/internal/classifier"
)

func TestShouldAutoMergeFullCrossProduct(t *testing.T) {
	recommendations := []classifier.Recommendation{
		classifier.RecommendationMerge,
		classifier.RecommendationNotDuplicate,
		classifier.RecommendationNeedsReview,
	}

	for _, rec := range recommendations {
		for confidence := 0; confidence <= 100; confidence++ {
			want := rec == classifier.RecommendationMerge && confidence >= DefaultAutoMergeThreshold
			got := ShouldAutoMerge(rec, confidence, DefaultAutoMergeThreshold)
			if got != want {
				t.Fatalf("ShouldAutoMerge(%s, %d, %d) = %v, want %v",
					rec, confidence, DefaultAutoMergeThreshold, got, want)
			}
		}
	}
}

func TestShouldAutoMergeRespectsCustomThreshold(t *testing.T) {
	if !ShouldAutoMerge(classifier.RecommendationMerge, 75, 75) {
		t.Fatal("confidence equal to threshold must auto-merge")
	}
	if ShouldAutoMerge(classifier.RecommendationMerge, 74, 75) {
		t.Fatal("confidence below threshold must not auto-merge")
	}
}

func TestScoreBucket(t *testing.T) {
	cases := []struct {
		rec        classifier.Recommendation
		confidence int
		want       Bucket
	}{
		{classifier.RecommendationMerge, 85, BucketStrong},
		{classifier.RecommendationMerge, 100, BucketStrong},
		{classifier.RecommendationMerge, 84, BucketWeak},
		{classifier.RecommendationMerge, 0, BucketWeak},
		{classifier.RecommendationNotDuplicate, 99, BucketNeutral},
		{classifier.RecommendationNotDuplicate, 10, BucketNeutral},
		{classifier.RecommendationNeedsReview, 95, BucketAttention},
		{classifier.Recommendation(""), 50, BucketAttention},
	}

	for _, tc := range cases {
		if got := ScoreBucket(tc.rec, tc.confidence); got != tc.want {
			t.Errorf("ScoreBucket(%q, %d) = %q, want %q", tc.rec, tc.confidence, got, tc.want)
		}
	}
}
