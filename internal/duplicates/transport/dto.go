package transport

import "time"

type MergeRequest struct {
	MergeNote *string `json:"mergeNote" validate:"omitempty,max=2000"`
}

type BulkRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,uuid"`
}

type WorkOrderSummaryResponse struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Property    string    `json:"property"`
	Unit        string    `json:"unit"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
}

type CandidateResponse struct {
	ID              string                   `json:"id"`
	ConfidenceScore float64                  `json:"confidenceScore"`
	DetectionReason string                   `json:"detectionReason"`
	Primary         WorkOrderSummaryResponse `json:"primary"`
	Duplicate       WorkOrderSummaryResponse `json:"duplicate"`
	Recommendation  *string                  `json:"recommendation,omitempty"`
	Confidence      *int                     `json:"confidence,omitempty"`
	Reasoning       *string                  `json:"reasoning,omitempty"`
	KeyDifferences  *string                  `json:"keyDifferences,omitempty"`
	MergeNote       *string                  `json:"mergeNote,omitempty"`
	Bucket          *string                  `json:"bucket,omitempty"`
	AnalyzedAt      *time.Time               `json:"analyzedAt,omitempty"`
	CreatedAt       time.Time                `json:"createdAt"`
}
