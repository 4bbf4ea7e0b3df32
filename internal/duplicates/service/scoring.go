package service

import "maintops_backend/internal/classifier"

// Bucket is the presentation grade downstream consumers use for a candidate.
type Bucket string

const (
	// BucketStrong: MERGE with confidence of at least 85.
	BucketStrong Bucket = "strong"
	// BucketWeak: MERGE below 85.
	BucketWeak Bucket = "weak"
	// BucketNeutral: NOT_DUPLICATE.
	BucketNeutral Bucket = "neutral"
	// BucketAttention: NEEDS_REVIEW or no analysis yet.
	BucketAttention Bucket = "attention"
)

const strongBucketThreshold = 85

// DefaultAutoMergeThreshold is the confidence floor for unattended merges.
const DefaultAutoMergeThreshold = 90

// ScoreBucket grades an analyzed candidate.
func ScoreBucket(recommendation classifier.Recommendation, confidence int) Bucket {
	switch recommendation {
	case classifier.RecommendationMerge:
		if confidence >= strongBucketThreshold {
			return BucketStrong
		}
		return BucketWeak
	case classifier.RecommendationNotDuplicate:
		return BucketNeutral
	default:
		return BucketAttention
	}
}

// ShouldAutoMerge is true only for a MERGE recommendation at or above the
// threshold.
func ShouldAutoMerge(recommendation classifier.Recommendation, confidence, threshold int) bool {
	return recommendation == classifier.RecommendationMerge && confidence >= threshold
}
