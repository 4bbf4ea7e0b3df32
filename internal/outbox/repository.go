// Package outbox queues compensating server mutations for duplicate
// resolutions that only succeeded locally. When the merge/dismiss procedure
// path is down, the resolution is recorded here and replayed by the
// scheduler worker until the server catches up, instead of silently
// accepting local/remote drift.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

type Record struct {
	ID        uuid.UUID
	Action    string
	Payload   json.RawMessage
	Status    string
	Attempts  int
	LastError *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, action string, payload any) (uuid.UUID, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()
	_, err = r.pool.Exec(ctx, `
		INSERT INTO compensation_outbox (id, action, payload, status)
		VALUES ($1, $2, $3, 'pending')
	`, id, action, data)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	var rec Record
	err := r.pool.QueryRow(ctx, `
		SELECT id, action, payload, status, attempts, last_error, created_at, updated_at
		FROM compensation_outbox
		WHERE id = $1
	`, id).Scan(
		&rec.ID, &rec.Action, &rec.Payload, &rec.Status,
		&rec.Attempts, &rec.LastError, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ListPending returns pending records last touched before the cutoff, for
// the sweep dispatcher to re-enqueue.
func (r *Repository) ListPending(ctx context.Context, cutoff time.Time, limit int) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, action, payload, status, attempts, last_error, created_at, updated_at
		FROM compensation_outbox
		WHERE status = 'pending' AND updated_at < $1
		ORDER BY created_at
		LIMIT $2
	`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.Action, &rec.Payload, &rec.Status,
			&rec.Attempts, &rec.LastError, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repository) MarkDone(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE compensation_outbox
		SET status = 'done', updated_at = now()
		WHERE id = $1
	`, id)
	return err
}

// RecordFailure bumps the attempt counter and stores the error. The row
// stays pending so retries continue until maxAttempts, then it is parked
// as failed for manual inspection.
func (r *Repository) RecordFailure(ctx context.Context, id uuid.UUID, cause string, maxAttempts int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE compensation_outbox
		SET attempts = attempts + 1,
		    last_error = $2,
		    status = CASE WHEN attempts + 1 >= $3 THEN 'failed' ELSE 'pending' END,
		    updated_at = now()
		WHERE id = $1
	`, id, cause, maxAttempts)
	return err
}
