package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-router/internal/core/domain"
	"github.com/kirillkom/document-router/internal/core/ports"
)

type ReviewUseCase struct {
	repo     ports.DocumentRepository
	notifier ports.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewReviewUseCase(repo ports.DocumentRepository, notifier ports.Notifier, logger *slog.Logger) *ReviewUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewUseCase{repo: repo, notifier: notifier, logger: logger, now: time.Now}
}

func (uc *ReviewUseCase) Review(ctx context.Context, documentID string, input domain.ReviewInput) (*domain.Review, error) {
	if input.Status != domain.ReviewApproved && input.Status != domain.ReviewRejected {
		return nil, domain.WrapError(domain.ErrInvalidInput, "review document", fmt.Errorf("status must be approved or rejected, got %q", input.Status))
	}
	reviewer := strings.TrimSpace(input.Reviewer)
	if reviewer == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "review document", errors.New("reviewer is required"))
	}

	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}

	review := domain.Review{
		ID:            uuid.NewString(),
		DocumentID:    doc.ID,
		Reviewer:      reviewer,
		ReviewerEmail: strings.TrimSpace(input.ReviewerEmail),
		Status:        input.Status,
		Comments:      strings.TrimSpace(input.Comments),
		ReviewedAt:    uc.now().UTC(),
	}
	if err := uc.repo.SaveReview(ctx, review); err != nil {
		return nil, fmt.Errorf("save review: %w", err)
	}
	doc.ReviewStatus = review.Status
	doc.Status = domain.StatusReviewed

	if doc.UploaderEmail != "" && uc.notifier != nil {
		if err := uc.notifier.NotifyReviewCompleted(ctx, doc, review); err != nil {
			uc.logger.Warn("review_notification_failed", "doc_id", doc.ID, "error", err)
		}
	}
	return &review, nil
}
