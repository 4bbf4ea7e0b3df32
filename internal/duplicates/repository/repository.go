package repository

import (
	"context"
	"errors"
	"time"

	"maintops_backend/internal/classifier"
	"maintops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

// Result mirrors the (success, message) row the resolution procedures
// return.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WorkOrderSummary is the slice of work-order context the pair analysis
// needs.
type WorkOrderSummary struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	Title       string
	Description string
	Property    string
	Unit        string
	Status      string
	Priority    string
}

// Candidate is one detected duplicate pair plus any stored analysis.
type Candidate struct {
	ID              uuid.UUID
	ConfidenceScore float64 // detection-time score in [0,1]
	DetectionReason string
	Primary         WorkOrderSummary
	Duplicate       WorkOrderSummary
	Recommendation  *string
	Confidence      *int
	Reasoning       *string
	KeyDifferences  *string
	MergeNote       *string
	AnalyzedAt      *time.Time
	CreatedAt       time.Time
}

// Analyzed reports whether the candidate already carries an analysis.
func (c Candidate) Analyzed() bool {
	return c.AnalyzedAt != nil
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const candidateColumns = `
	c.id, c.confidence_score, c.detection_reason,
	c.recommendation, c.confidence, c.reasoning, c.key_differences, c.merge_note,
	c.analyzed_at, c.created_at,
	p.id, p.created_at, p.title, p.description, p.property, p.unit, p.status, p.priority,
	d.id, d.created_at, d.title, d.description, d.property, d.unit, d.status, d.priority`

const candidateJoins = `
	JOIN work_orders p ON p.id = c.primary_work_order_id
	JOIN work_orders d ON d.id = c.duplicate_work_order_id`

// pendingQuery reads through v_pending_duplicates, which filters out
// resolved candidates.
const pendingQuery = `
	SELECT` + candidateColumns + `
	FROM v_pending_duplicates c` + candidateJoins

const candidateByIDQuery = `
	SELECT` + candidateColumns + `
	FROM duplicate_candidates c` + candidateJoins + `
	WHERE c.id = $1`

func scanCandidate(row pgx.Row) (Candidate, error) {
	var c Candidate
	err := row.Scan(
		&c.ID, &c.ConfidenceScore, &c.DetectionReason,
		&c.Recommendation, &c.Confidence, &c.Reasoning, &c.KeyDifferences, &c.MergeNote,
		&c.AnalyzedAt, &c.CreatedAt,
		&c.Primary.ID, &c.Primary.CreatedAt, &c.Primary.Title, &c.Primary.Description,
		&c.Primary.Property, &c.Primary.Unit, &c.Primary.Status, &c.Primary.Priority,
		&c.Duplicate.ID, &c.Duplicate.CreatedAt, &c.Duplicate.Title, &c.Duplicate.Description,
		&c.Duplicate.Property, &c.Duplicate.Unit, &c.Duplicate.Status, &c.Duplicate.Priority,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Candidate{}, ErrNotFound
	}
	if err != nil {
		return Candidate{}, err
	}
	return c, nil
}

// ListPending returns unresolved candidates oldest-first.
func (r *Repository) ListPending(ctx context.Context) ([]Candidate, error) {
	rows, err := r.pool.Query(ctx, pendingQuery+`
		ORDER BY c.created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Candidate, error) {
	return scanCandidate(r.pool.QueryRow(ctx, candidateByIDQuery, id))
}

// SaveAnalysis writes the classifier's opinion onto the candidate row.
func (r *Repository) SaveAnalysis(ctx context.Context, id uuid.UUID, analysis classifier.PairAnalysis) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE duplicate_candidates
		SET recommendation = $2,
		    confidence = $3,
		    reasoning = $4,
		    key_differences = $5,
		    merge_note = $6,
		    analyzed_at = now()
		WHERE id = $1
	`, id, string(analysis.Recommendation), analysis.Confidence,
		analysis.Reasoning, analysis.KeyDifferences, analysis.MergeNote)
	return err
}

// MergeWorkOrders invokes the merge procedure. Call errors surface as
// unavailable so the caller can engage its compensation fallback.
func (r *Repository) MergeWorkOrders(ctx context.Context, primaryID, duplicateID uuid.UUID, mergedBy string, mergeNote *string) (Result, error) {
	var res Result
	err := r.pool.QueryRow(ctx, `
		SELECT success, message FROM merge_work_orders($1, $2, $3, $4)
	`, primaryID, duplicateID, mergedBy, mergeNote).Scan(&res.Success, &res.Message)
	if err != nil {
		return Result{}, rpcUnavailable("merge_work_orders", err)
	}
	return res, nil
}

// DismissDuplicate invokes the dismiss procedure.
func (r *Repository) DismissDuplicate(ctx context.Context, candidateID uuid.UUID, dismissedBy string) (Result, error) {
	var res Result
	err := r.pool.QueryRow(ctx, `
		SELECT success, message FROM dismiss_duplicate($1, $2)
	`, candidateID, dismissedBy).Scan(&res.Success, &res.Message)
	if err != nil {
		return Result{}, rpcUnavailable("dismiss_duplicate", err)
	}
	return res, nil
}

func rpcUnavailable(procedure string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperr.Unavailable("procedure "+procedure+" unavailable", err)
}
