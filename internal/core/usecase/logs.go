package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-router/internal/core/domain"
	"github.com/kirillkom/document-router/internal/core/ports"
)

// stepLogger appends processing log rows. A failed append is reported but never
// interrupts the pipeline step it describes.
type stepLogger struct {
	repo   ports.ProcessingLogRepository
	logger *slog.Logger
	now    func() time.Time
}

func newStepLogger(repo ports.ProcessingLogRepository, logger *slog.Logger) stepLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return stepLogger{repo: repo, logger: logger, now: time.Now}
}

func (l stepLogger) completed(ctx context.Context, documentID string, step domain.ProcessingStep, details map[string]any) {
	l.append(ctx, documentID, step, domain.StepCompleted, details, nil)
}

func (l stepLogger) failed(ctx context.Context, documentID string, step domain.ProcessingStep, err error) {
	l.append(ctx, documentID, step, domain.StepFailed, nil, err)
}

func (l stepLogger) append(
	ctx context.Context,
	documentID string,
	step domain.ProcessingStep,
	status domain.StepStatus,
	details map[string]any,
	stepErr error,
) {
	if l.repo == nil {
		return
	}
	entry := &domain.ProcessingLog{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Step:       step,
		Status:     status,
		Details:    details,
		CreatedAt:  l.now().UTC(),
	}
	if stepErr != nil {
		entry.Error = stepErr.Error()
	}
	if err := l.repo.AppendLog(ctx, entry); err != nil {
		l.logger.Warn("processing_log_append_failed",
			"doc_id", documentID,
			"step", string(step),
			"error", err,
		)
	}
}
