package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kirillkom/document-router/internal/core/domain"
)

type BatchRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewBatchRepository(db *sql.DB, dialect Dialect) *BatchRepository {
	return &BatchRepository{db: db, dialect: dialect}
}

func (r *BatchRepository) CreateBatch(ctx context.Context, batch *domain.Batch) error {
	_, err := r.db.ExecContext(ctx, rebind(r.dialect, `
INSERT INTO batches (id, name, target_department, uploader_name, uploader_email, total_files, status, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`), batch.ID, batch.Name, batch.TargetDepartment, batch.UploaderName, batch.UploaderEmail, batch.TotalFiles,
		string(batch.Status), batch.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

func (r *BatchRepository) CompleteBatch(ctx context.Context, batch *domain.Batch) error {
	failures, err := marshalJSON(nonNil(batch.Failures))
	if err != nil {
		return fmt.Errorf("marshal failures: %w", err)
	}
	docIDs, err := marshalJSON(nonNil(batch.DocumentIDs))
	if err != nil {
		return fmt.Errorf("marshal document ids: %w", err)
	}
	var completedAt any
	if batch.CompletedAt != nil {
		completedAt = batch.CompletedAt.UTC()
	}
	return execOne(ctx, r.db, r.dialect, domain.ErrNotFound, "complete batch", `
UPDATE batches
SET processed_files = $2, failed_files = $3, failures = $4, document_ids = $5, status = $6, completed_at = $7
WHERE id = $1
`, batch.ID, batch.ProcessedFiles, batch.FailedFiles, failures, docIDs, string(batch.Status), completedAt)
}

func (r *BatchRepository) GetBatch(ctx context.Context, id string) (*domain.Batch, error) {
	row := r.db.QueryRowContext(ctx, rebind(r.dialect, `
SELECT id, name, target_department, uploader_name, uploader_email, total_files, processed_files, failed_files,
	failures, document_ids, status, created_at, completed_at
FROM batches
WHERE id = $1
`), id)

	var (
		batch            domain.Batch
		failures, docIDs []byte
		status           string
		completedAt      sql.NullTime
	)
	err := row.Scan(&batch.ID, &batch.Name, &batch.TargetDepartment, &batch.UploaderName, &batch.UploaderEmail,
		&batch.TotalFiles, &batch.ProcessedFiles, &batch.FailedFiles, &failures, &docIDs, &status, &batch.CreatedAt, &completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get batch", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan batch: %w", err)
	}
	if err := json.Unmarshal(failures, &batch.Failures); err != nil {
		return nil, fmt.Errorf("unmarshal failures: %w", err)
	}
	if err := json.Unmarshal(docIDs, &batch.DocumentIDs); err != nil {
		return nil, fmt.Errorf("unmarshal document ids: %w", err)
	}
	batch.Status = domain.BatchStatus(status)
	if completedAt.Valid {
		at := completedAt.Time
		batch.CompletedAt = &at
	}
	return &batch, nil
}
