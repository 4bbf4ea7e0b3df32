// Package repository persists work-order message threads.
package repository

import (
	"context"
	"errors"
	"time"

	"maintops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Message struct {
	ID                uuid.UUID
	WorkOrderID       uuid.UUID
	SenderType        string
	SenderName        string
	Content           string
	TranslatedContent *string
	RecipientPhone    *string
	ReadAt            *time.Time
	CreatedAt         time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const messageColumns = `
	id, work_order_id, sender_type, sender_name, content,
	translated_content, recipient_phone, read_at, created_at
`

func (r *Repository) Insert(ctx context.Context, m Message) (Message, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO messages (work_order_id, sender_type, sender_name, content, translated_content, recipient_phone)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING`+messageColumns,
		m.WorkOrderID, m.SenderType, m.SenderName, m.Content, m.TranslatedContent, m.RecipientPhone)
	return scanMessage(row)
}

func (r *Repository) ListByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+messageColumns+`
		FROM messages
		WHERE work_order_id = $1
		ORDER BY created_at
	`, workOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkRead stamps the read receipt once; re-reading an already-read message
// is a no-op.
func (r *Repository) MarkRead(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE messages SET read_at = now()
		WHERE id = $1 AND read_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either already read or missing; distinguish for the caller.
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM messages WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("message not found")
		}
	}
	return nil
}

func (r *Repository) UnreadCount(ctx context.Context, workOrderID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM messages
		WHERE work_order_id = $1 AND read_at IS NULL AND sender_type = 'tenant'
	`, workOrderID).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (Message, error) {
	var m Message
	err := row.Scan(
		&m.ID, &m.WorkOrderID, &m.SenderType, &m.SenderName, &m.Content,
		&m.TranslatedContent, &m.RecipientPhone, &m.ReadAt, &m.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Message{}, apperr.NotFound("message not found")
	}
	if err != nil {
		return Message{}, err
	}
	return m, nil
}
