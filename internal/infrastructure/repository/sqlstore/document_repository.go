package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/document-router/internal/core/domain"
)

type DocumentRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewDocumentRepository(db *sql.DB, dialect Dialect) *DocumentRepository {
	return &DocumentRepository{db: db, dialect: dialect}
}

const documentColumns = `id, filename, mime_type, size_bytes, storage_path, batch_id, uploader_name, uploader_email,
	target_department, status, review_status, doc_type, department, priority, confidence, page_count,
	language, tags, extracted_text, analysis, assignment, error_message, created_at, updated_at`

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	tagsJSON, err := marshalJSON(nonNil(doc.Tags))
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	analysisJSON, err := marshalNullable(doc.Analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	assignmentJSON, err := marshalNullable(doc.Assignment)
	if err != nil {
		return fmt.Errorf("marshal assignment: %w", err)
	}

	_, err = r.db.ExecContext(ctx, rebind(r.dialect, `
INSERT INTO documents (`+documentColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
`),
		doc.ID, doc.Filename, doc.MimeType, doc.SizeBytes, doc.StoragePath, doc.BatchID, doc.UploaderName, doc.UploaderEmail,
		doc.TargetDepartment, string(doc.Status), string(doc.ReviewStatus), doc.DocType, doc.Department, string(doc.Priority),
		doc.Confidence, doc.PageCount, doc.Language, tagsJSON, doc.ExtractedText, analysisJSON, assignmentJSON, doc.Error,
		doc.CreatedAt.UTC(), doc.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, rebind(r.dialect, `
SELECT `+documentColumns+`
FROM documents
WHERE id = $1
`), id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	filter = filter.Normalize()

	var (
		where []string
		args  []any
	)
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.Department != "" {
		add("department = $%d", filter.Department)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.ReviewStatus != "" {
		add("review_status = $%d", string(filter.ReviewStatus))
	}

	query := "SELECT " + documentColumns + "\nFROM documents\n"
	if len(where) > 0 {
		query += "WHERE " + strings.Join(where, " AND ") + "\n"
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf("ORDER BY created_at DESC\nLIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, rebind(r.dialect, query), args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	return execOne(ctx, r.db, r.dialect, domain.ErrDocumentNotFound, "update document status", `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
}

func (r *DocumentRepository) SaveClassification(ctx context.Context, id string, cls domain.Classification, extractedText string, pageCount int) error {
	tagsJSON, err := marshalJSON(nonNil(cls.Tags))
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	return execOne(ctx, r.db, r.dialect, domain.ErrDocumentNotFound, "save classification", `
UPDATE documents
SET doc_type = $2, department = $3, priority = $4, confidence = $5, language = $6, tags = $7,
	extracted_text = $8, page_count = $9, updated_at = $10
WHERE id = $1
`, id, cls.DocType, cls.Department, string(cls.Priority), cls.Confidence, cls.Language, tagsJSON,
		domain.TruncateText(extractedText, domain.MaxExtractedTextChars), pageCount, time.Now().UTC())
}

func (r *DocumentRepository) SaveAnalysis(ctx context.Context, id string, analysis domain.Analysis) error {
	raw, err := marshalJSON(analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	return execOne(ctx, r.db, r.dialect, domain.ErrDocumentNotFound, "save analysis", `
UPDATE documents
SET analysis = $2, updated_at = $3
WHERE id = $1
`, id, raw, time.Now().UTC())
}

func (r *DocumentRepository) SaveAssignment(ctx context.Context, id string, decision domain.RoutingDecision) error {
	raw, err := marshalJSON(decision)
	if err != nil {
		return fmt.Errorf("marshal assignment: %w", err)
	}
	return execOne(ctx, r.db, r.dialect, domain.ErrDocumentNotFound, "save assignment", `
UPDATE documents
SET assignment = $2, priority = $3, updated_at = $4
WHERE id = $1
`, id, raw, string(decision.Priority), time.Now().UTC())
}

// SaveReview records the review and moves the document to reviewed atomically.
func (r *DocumentRepository) SaveReview(ctx context.Context, review domain.Review) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin review tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := execOne(ctx, tx, r.dialect, domain.ErrDocumentNotFound, "update review status", `
UPDATE documents
SET review_status = $2, status = $3, updated_at = $4
WHERE id = $1
`, review.DocumentID, string(review.Status), string(domain.StatusReviewed), review.ReviewedAt.UTC()); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, rebind(r.dialect, `
INSERT INTO reviews (id, doc_id, reviewer, reviewer_email, status, comments, reviewed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`), review.ID, review.DocumentID, review.Reviewer, review.ReviewerEmail, string(review.Status), review.Comments, review.ReviewedAt.UTC()); err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit review tx: %w", err)
	}
	return nil
}

var processedStatuses = []domain.DocumentStatus{domain.StatusClassified, domain.StatusRouted, domain.StatusReviewed, domain.StatusArchived}

func (r *DocumentRepository) StatsCounts(ctx context.Context, since time.Time) (*domain.StatsCounts, error) {
	counts := &domain.StatsCounts{
		Departments:   map[string]int{},
		DocumentTypes: map[string]int{},
		Priorities:    map[string]int{},
	}

	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM documents GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	err = scanGroupCounts(rows, func(key string, n int) {
		counts.Total += n
		switch status := domain.DocumentStatus(key); {
		case containsStatus(processedStatuses, status):
			counts.Processed += n
		case status == domain.StatusFailed:
			counts.Errors += n
		}
	})
	if err != nil {
		return nil, err
	}

	// Pending means awaiting review, whatever the processing status.
	if err := r.db.QueryRowContext(ctx, rebind(r.dialect, `SELECT COUNT(*) FROM documents WHERE review_status = $1`),
		string(domain.ReviewPending)).Scan(&counts.Pending); err != nil {
		return nil, fmt.Errorf("count pending reviews: %w", err)
	}

	for column, target := range map[string]map[string]int{
		"department": counts.Departments,
		"doc_type":   counts.DocumentTypes,
		"priority":   counts.Priorities,
	} {
		rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`SELECT %[1]s, COUNT(*) FROM documents WHERE %[1]s <> '' GROUP BY %[1]s`, column))
		if err != nil {
			return nil, fmt.Errorf("count by %s: %w", column, err)
		}
		if err := scanGroupCounts(rows, func(key string, n int) { target[key] = n }); err != nil {
			return nil, err
		}
	}

	recent, err := r.db.QueryContext(ctx, rebind(r.dialect, `SELECT created_at FROM documents WHERE created_at >= $1 ORDER BY created_at`), since.UTC())
	if err != nil {
		return nil, fmt.Errorf("recent uploads: %w", err)
	}
	defer recent.Close()
	for recent.Next() {
		var at time.Time
		if err := recent.Scan(&at); err != nil {
			return nil, fmt.Errorf("scan recent upload: %w", err)
		}
		counts.RecentUploads = append(counts.RecentUploads, at)
	}
	if err := recent.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent uploads: %w", err)
	}
	return counts, nil
}

func scanGroupCounts(rows *sql.Rows, fn func(key string, n int)) error {
	defer rows.Close()
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scan count: %w", err)
		}
		fn(key, n)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate counts: %w", err)
	}
	return nil
}

func containsStatus(list []domain.DocumentStatus, s domain.DocumentStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		doc                    domain.Document
		status, review, prio   string
		tagsRaw                []byte
		analysisRaw, assignRaw []byte
	)
	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.MimeType, &doc.SizeBytes, &doc.StoragePath, &doc.BatchID, &doc.UploaderName, &doc.UploaderEmail,
		&doc.TargetDepartment, &status, &review, &doc.DocType, &doc.Department, &prio, &doc.Confidence, &doc.PageCount,
		&doc.Language, &tagsRaw, &doc.ExtractedText, &analysisRaw, &assignRaw, &doc.Error, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.Status = domain.DocumentStatus(status)
	doc.ReviewStatus = domain.ReviewStatus(review)
	doc.Priority = domain.Priority(prio)

	if err := json.Unmarshal(tagsRaw, &doc.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	doc.Tags = nonNil(doc.Tags)
	if len(analysisRaw) > 0 {
		doc.Analysis = &domain.Analysis{}
		if err := json.Unmarshal(analysisRaw, doc.Analysis); err != nil {
			return nil, fmt.Errorf("unmarshal analysis: %w", err)
		}
	}
	if len(assignRaw) > 0 {
		doc.Assignment = &domain.RoutingDecision{}
		if err := json.Unmarshal(assignRaw, doc.Assignment); err != nil {
			return nil, fmt.Errorf("unmarshal assignment: %w", err)
		}
	}
	return &doc, nil
}

func marshalJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// marshalNullable maps a nil pointer to SQL NULL.
func marshalNullable[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	return marshalJSON(v)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
