package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-router/internal/core/domain"
	"github.com/kirillkom/document-router/internal/core/ports"
)

const DefaultMaxUploadBytes int64 = 10 << 20

type IngestOptions struct {
	MaxUploadBytes int64
	Logger         *slog.Logger
}

type IngestDocumentUseCase struct {
	repo     ports.DocumentRepository
	batches  ports.BatchRepository
	storage  ports.ObjectStorage
	queue    ports.MessageQueue
	notifier ports.Notifier
	steps    stepLogger
	maxBytes int64
	logger   *slog.Logger
	now      func() time.Time
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	batches ports.BatchRepository,
	logs ports.ProcessingLogRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	notifier ports.Notifier,
	options IngestOptions,
) *IngestDocumentUseCase {
	maxBytes := options.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestDocumentUseCase{
		repo:     repo,
		batches:  batches,
		storage:  storage,
		queue:    queue,
		notifier: notifier,
		steps:    newStepLogger(logs, logger),
		maxBytes: maxBytes,
		logger:   logger,
		now:      time.Now,
	}
}

func (uc *IngestDocumentUseCase) Upload(ctx context.Context, req ports.UploadRequest) (*domain.Document, error) {
	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("filename is required"))
	}
	if req.Body == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("file body is required"))
	}
	target := strings.TrimSpace(req.TargetDepartment)
	if target != "" && !domain.IsKnownDepartment(target) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", fmt.Errorf("unknown target department %q", target))
	}
	if req.Size > uc.maxBytes {
		return nil, domain.WrapError(domain.ErrPayloadTooLarge, "upload", fmt.Errorf("%d bytes exceeds %d", req.Size, uc.maxBytes))
	}

	// Declared sizes are advisory, so the body is read with a hard cap as well.
	data, err := io.ReadAll(io.LimitReader(req.Body, uc.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}
	if int64(len(data)) > uc.maxBytes {
		return nil, domain.WrapError(domain.ErrPayloadTooLarge, "upload", fmt.Errorf("body exceeds %d bytes", uc.maxBytes))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := uc.now().UTC()

	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:               id,
		Filename:         filepath.Base(filename),
		MimeType:         req.MimeType,
		SizeBytes:        int64(len(data)),
		StoragePath:      storageKey,
		BatchID:          req.BatchID,
		UploaderName:     strings.TrimSpace(req.UploaderName),
		UploaderEmail:    strings.TrimSpace(req.UploaderEmail),
		TargetDepartment: target,
		Status:           domain.StatusUploaded,
		ReviewStatus:     domain.ReviewPending,
		Tags:             []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}
	uc.steps.completed(ctx, doc.ID, domain.StepUpload, map[string]any{
		"filename":   doc.Filename,
		"size_bytes": doc.SizeBytes,
		"batch_id":   doc.BatchID,
	})

	if err := uc.queue.PublishDocumentIngested(ctx, domain.IngestedEvent{DocumentID: doc.ID, UploadedAt: now}); err != nil {
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return doc, nil
}

func (uc *IngestDocumentUseCase) BulkUpload(ctx context.Context, req ports.BulkUploadRequest) (*domain.Batch, error) {
	name := strings.TrimSpace(req.BatchName)
	target := strings.TrimSpace(req.TargetDepartment)
	switch {
	case name == "":
		return nil, domain.WrapError(domain.ErrInvalidInput, "bulk upload", errors.New("batch name is required"))
	case target == "":
		return nil, domain.WrapError(domain.ErrInvalidInput, "bulk upload", errors.New("target department is required"))
	case !domain.IsKnownDepartment(target):
		return nil, domain.WrapError(domain.ErrInvalidInput, "bulk upload", fmt.Errorf("unknown target department %q", target))
	case len(req.Files) == 0:
		return nil, domain.WrapError(domain.ErrInvalidInput, "bulk upload", errors.New("at least one file is required"))
	}

	batch := &domain.Batch{
		ID:               uuid.NewString(),
		Name:             name,
		TargetDepartment: target,
		UploaderName:     strings.TrimSpace(req.UploaderName),
		UploaderEmail:    strings.TrimSpace(req.UploaderEmail),
		TotalFiles:       len(req.Files),
		Failures:         []string{},
		DocumentIDs:      []string{},
		Status:           domain.BatchProcessing,
		CreatedAt:        uc.now().UTC(),
	}
	if err := uc.batches.CreateBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}

	uploaded := make([]domain.Document, 0, len(req.Files))
	for _, file := range req.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := uc.uploadBatchFile(ctx, batch, file)
		if err != nil {
			batch.FailedFiles++
			batch.Failures = append(batch.Failures, fmt.Sprintf("%s: %s", file.Filename, failureReason(err)))
			uc.logger.Warn("batch_file_rejected", "batch_id", batch.ID, "filename", file.Filename, "error", err)
			continue
		}
		batch.ProcessedFiles++
		batch.DocumentIDs = append(batch.DocumentIDs, doc.ID)
		uploaded = append(uploaded, *doc)
	}

	completedAt := uc.now().UTC()
	batch.CompletedAt = &completedAt
	batch.Status = domain.BatchCompleted
	if batch.ProcessedFiles == 0 {
		batch.Status = domain.BatchFailed
	}
	if err := uc.batches.CompleteBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("complete batch: %w", err)
	}

	if len(uploaded) > 0 && uc.notifier != nil {
		if err := uc.notifier.NotifyBatchUploaded(ctx, batch, uploaded); err != nil {
			uc.logger.Warn("batch_notification_failed", "batch_id", batch.ID, "error", err)
		}
		if batch.UploaderEmail != "" {
			if err := uc.notifier.NotifyUploadConfirmation(ctx, batch); err != nil {
				uc.logger.Warn("upload_confirmation_failed", "batch_id", batch.ID, "error", err)
			}
		}
	}

	return batch, nil
}

func (uc *IngestDocumentUseCase) uploadBatchFile(ctx context.Context, batch *domain.Batch, file ports.UploadFile) (*domain.Document, error) {
	if file.Open == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "bulk upload", errors.New("file has no content"))
	}
	body, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", file.Filename, err)
	}
	defer body.Close()

	return uc.Upload(ctx, ports.UploadRequest{
		Filename:         file.Filename,
		MimeType:         file.MimeType,
		Size:             file.Size,
		Body:             body,
		BatchID:          batch.ID,
		TargetDepartment: batch.TargetDepartment,
		UploaderName:     batch.UploaderName,
		UploaderEmail:    batch.UploaderEmail,
	})
}

// failureReason is the short, user-facing cause recorded on a batch.
func failureReason(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrPayloadTooLarge):
		return "File too large"
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "Invalid file"
	default:
		return "Upload failed"
	}
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == ".." {
		return "document.bin"
	}
	return base
}
