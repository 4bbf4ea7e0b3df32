// Package repository persists work-order photo attachment metadata. The
// bytes themselves live in object storage under FileKey.
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

type Attachment struct {
	ID          uuid.UUID
	WorkOrderID uuid.UUID
	FileKey     string
	FileName    string
	ContentType string
	SizeBytes   int64
	UploadedBy  string
	CreatedAt   time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const attachmentColumns = `
	id, work_order_id, file_key, file_name, content_type, size_bytes, uploaded_by, created_at
`

func (r *Repository) Insert(ctx context.Context, a Attachment) (Attachment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO work_order_attachments (work_order_id, file_key, file_name, content_type, size_bytes, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING`+attachmentColumns,
		a.WorkOrderID, a.FileKey, a.FileName, a.ContentType, a.SizeBytes, a.UploadedBy)
	return scanAttachment(row)
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Attachment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+attachmentColumns+`
		FROM work_order_attachments
		WHERE id = $1
	`, id)
	return scanAttachment(row)
}

func (r *Repository) ListByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]Attachment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+attachmentColumns+`
		FROM work_order_attachments
		WHERE work_order_id = $1
		ORDER BY created_at
	`, workOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM work_order_attachments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("attachment not found")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttachment(row rowScanner) (Attachment, error) {
	var a Attachment
	err := row.Scan(
		&a.ID, &a.WorkOrderID, &a.FileKey, &a.FileName,
		&a.ContentType, &a.SizeBytes, &a.UploadedBy, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Attachment{}, apperr.NotFound("attachment not found")
	}
	if err != nil {
		return Attachment{}, err
	}
	return a, nil
}
