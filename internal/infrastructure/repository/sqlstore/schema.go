package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const schemaLockID int64 = 2026021001

const schemaTemplate = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	size_bytes BIGINT NOT NULL DEFAULT 0,
	storage_path TEXT NOT NULL,
	batch_id TEXT NOT NULL DEFAULT '',
	uploader_name TEXT NOT NULL DEFAULT '',
	uploader_email TEXT NOT NULL DEFAULT '',
	target_department TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	review_status TEXT NOT NULL,
	doc_type TEXT NOT NULL DEFAULT '',
	department TEXT NOT NULL DEFAULT '',
	priority TEXT NOT NULL DEFAULT '',
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	page_count INTEGER NOT NULL DEFAULT 0,
	language TEXT NOT NULL DEFAULT '',
	tags {{json}} NOT NULL DEFAULT '[]',
	extracted_text TEXT NOT NULL DEFAULT '',
	analysis {{json}},
	assignment {{json}},
	error_message TEXT NOT NULL DEFAULT '',
	created_at {{ts}} NOT NULL,
	updated_at {{ts}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_department ON documents(department);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);

CREATE TABLE IF NOT EXISTS batches (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	target_department TEXT NOT NULL,
	uploader_name TEXT NOT NULL DEFAULT '',
	uploader_email TEXT NOT NULL DEFAULT '',
	total_files INTEGER NOT NULL DEFAULT 0,
	processed_files INTEGER NOT NULL DEFAULT 0,
	failed_files INTEGER NOT NULL DEFAULT 0,
	failures {{json}} NOT NULL DEFAULT '[]',
	document_ids {{json}} NOT NULL DEFAULT '[]',
	status TEXT NOT NULL,
	created_at {{ts}} NOT NULL,
	completed_at {{ts}}
);

CREATE TABLE IF NOT EXISTS reviews (
	id TEXT PRIMARY KEY,
	doc_id TEXT NOT NULL REFERENCES documents(id),
	reviewer TEXT NOT NULL,
	reviewer_email TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	comments TEXT NOT NULL DEFAULT '',
	reviewed_at {{ts}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reviews_doc_id ON reviews(doc_id);

CREATE TABLE IF NOT EXISTS notifications (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	doc_id TEXT NOT NULL DEFAULT '',
	batch_id TEXT NOT NULL DEFAULT '',
	recipient TEXT NOT NULL,
	reply_to TEXT NOT NULL DEFAULT '',
	subject TEXT NOT NULL,
	body TEXT NOT NULL,
	provider TEXT NOT NULL,
	provider_message_id TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	is_read BOOLEAN NOT NULL DEFAULT FALSE,
	created_at {{ts}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient, created_at DESC);

CREATE TABLE IF NOT EXISTS processing_logs (
	id TEXT PRIMARY KEY,
	doc_id TEXT NOT NULL,
	step TEXT NOT NULL,
	status TEXT NOT NULL,
	details {{json}},
	error_message TEXT NOT NULL DEFAULT '',
	created_at {{ts}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_processing_logs_doc_id ON processing_logs(doc_id, created_at);
`

func schemaDDL(dialect Dialect) string {
	jsonType, tsType := "JSONB", "TIMESTAMPTZ"
	if dialect == DialectSQLite {
		jsonType, tsType = "TEXT", "TIMESTAMP"
	}
	return strings.NewReplacer("{{json}}", jsonType, "{{ts}}", tsType).Replace(schemaTemplate)
}

// EnsureSchema creates all tables. On PostgreSQL concurrent api/worker
// startups are serialised with an advisory lock.
func EnsureSchema(ctx context.Context, db *sql.DB, dialect Dialect) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if dialect != DialectSQLite {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
			return fmt.Errorf("acquire schema lock: %w", err)
		}
	}

	for _, stmt := range strings.Split(schemaDDL(dialect), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema ddl: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
