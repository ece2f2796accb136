package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/document-router/internal/core/domain"
)

type LogRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewLogRepository(db *sql.DB, dialect Dialect) *LogRepository {
	return &LogRepository{db: db, dialect: dialect}
}

func (r *LogRepository) AppendLog(ctx context.Context, entry *domain.ProcessingLog) error {
	var details any
	if len(entry.Details) > 0 {
		raw, err := marshalJSON(entry.Details)
		if err != nil {
			return fmt.Errorf("marshal log details: %w", err)
		}
		details = raw
	}
	_, err := r.db.ExecContext(ctx, rebind(r.dialect, `
INSERT INTO processing_logs (id, doc_id, step, status, details, error_message, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`), entry.ID, entry.DocumentID, string(entry.Step), string(entry.Status), details, entry.Error, entry.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert processing log: %w", err)
	}
	return nil
}

func (r *LogRepository) ListLogs(ctx context.Context, documentID string) ([]domain.ProcessingLog, error) {
	rows, err := r.db.QueryContext(ctx, rebind(r.dialect, `
SELECT id, doc_id, step, status, details, error_message, created_at
FROM processing_logs
WHERE doc_id = $1
ORDER BY created_at ASC, id ASC
`), documentID)
	if err != nil {
		return nil, fmt.Errorf("list processing logs: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ProcessingLog, 0)
	for rows.Next() {
		var (
			entry        domain.ProcessingLog
			step, status string
			details      []byte
		)
		if err := rows.Scan(&entry.ID, &entry.DocumentID, &step, &status, &details, &entry.Error, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan processing log: %w", err)
		}
		entry.Step = domain.ProcessingStep(step)
		entry.Status = domain.StepStatus(status)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshal log details: %w", err)
			}
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processing logs: %w", err)
	}
	return out, nil
}
