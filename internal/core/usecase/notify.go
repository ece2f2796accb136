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

type NotificationUseCase struct {
	repo      ports.NotificationRepository
	renderer  ports.MessageRenderer
	sender    ports.MailSender
	managers  ports.ManagerDirectory
	publisher ports.EventPublisher
	metrics   ports.PipelineMetrics
	logger    *slog.Logger
	now       func() time.Time
}

type NotificationOptions struct {
	Publisher ports.EventPublisher
	Metrics   ports.PipelineMetrics
	Logger    *slog.Logger
}

func NewNotificationUseCase(
	repo ports.NotificationRepository,
	renderer ports.MessageRenderer,
	sender ports.MailSender,
	managers ports.ManagerDirectory,
	options NotificationOptions,
) *NotificationUseCase {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationUseCase{
		repo:      repo,
		renderer:  renderer,
		sender:    sender,
		managers:  managers,
		publisher: options.Publisher,
		metrics:   options.Metrics,
		logger:    logger,
		now:       time.Now,
	}
}

type delivery struct {
	kind       domain.NotificationKind
	recipient  string
	replyTo    string
	documentID string
	batchID    string
	data       ports.NotificationData
}

func (uc *NotificationUseCase) NotifyDocumentRouted(ctx context.Context, doc *domain.Document, decision domain.RoutingDecision) error {
	recipient := decision.NotifyEmail
	if recipient == "" {
		recipient = uc.managers.ManagerEmail(decision.Department)
	}
	return uc.deliver(ctx, delivery{
		kind:       domain.NotificationDocumentRouted,
		recipient:  recipient,
		replyTo:    doc.UploaderEmail,
		documentID: doc.ID,
		batchID:    doc.BatchID,
		data: ports.NotificationData{
			Department: decision.Department,
			Document:   doc,
			Decision:   &decision,
		},
	})
}

func (uc *NotificationUseCase) NotifyBatchUploaded(ctx context.Context, batch *domain.Batch, docs []domain.Document) error {
	return uc.deliver(ctx, delivery{
		kind:      domain.NotificationBatchUploaded,
		recipient: uc.managers.ManagerEmail(batch.TargetDepartment),
		replyTo:   batch.UploaderEmail,
		batchID:   batch.ID,
		data: ports.NotificationData{
			Department: batch.TargetDepartment,
			Batch:      batch,
			Documents:  docs,
		},
	})
}

func (uc *NotificationUseCase) NotifyUploadConfirmation(ctx context.Context, batch *domain.Batch) error {
	return uc.deliver(ctx, delivery{
		kind:      domain.NotificationUploadConfirmation,
		recipient: batch.UploaderEmail,
		batchID:   batch.ID,
		data: ports.NotificationData{
			RecipientName: batch.UploaderName,
			Department:    batch.TargetDepartment,
			Batch:         batch,
		},
	})
}

func (uc *NotificationUseCase) NotifyReviewCompleted(ctx context.Context, doc *domain.Document, review domain.Review) error {
	return uc.deliver(ctx, delivery{
		kind:       domain.NotificationReviewCompleted,
		recipient:  doc.UploaderEmail,
		replyTo:    review.ReviewerEmail,
		documentID: doc.ID,
		data: ports.NotificationData{
			RecipientName: doc.UploaderName,
			Department:    doc.RoutingDepartment(),
			Document:      doc,
			Review:        &review,
		},
	})
}

// deliver sends one notification and stores a row for the attempt, including failed ones.
func (uc *NotificationUseCase) deliver(ctx context.Context, d delivery) error {
	if strings.TrimSpace(d.recipient) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "notify", errors.New("recipient is required"))
	}
	d.data.SentAt = uc.now().UTC()

	rendered, err := uc.renderer.Render(d.kind, d.data)
	if err != nil {
		return fmt.Errorf("render %s notification: %w", d.kind, err)
	}

	n := &domain.Notification{
		ID:         uuid.NewString(),
		Kind:       d.kind,
		DocumentID: d.documentID,
		BatchID:    d.batchID,
		Recipient:  d.recipient,
		ReplyTo:    d.replyTo,
		Subject:    rendered.Subject,
		Body:       rendered.TextBody,
		Provider:   uc.sender.Name(),
		CreatedAt:  d.data.SentAt,
	}

	messageID, sendErr := uc.sender.Send(ctx, domain.OutboundMessage{
		To:       d.recipient,
		ReplyTo:  d.replyTo,
		Subject:  rendered.Subject,
		HTMLBody: rendered.HTMLBody,
		TextBody: rendered.TextBody,
	})
	switch {
	case sendErr != nil:
		n.Status = domain.NotificationFailed
		n.Error = sendErr.Error()
	case uc.sender.Name() == "log":
		n.Status = domain.NotificationLogged
	default:
		n.Status = domain.NotificationSent
		n.ProviderMessageID = messageID
	}

	if err := uc.repo.CreateNotification(ctx, n); err != nil {
		return errors.Join(sendErr, fmt.Errorf("store notification: %w", err))
	}
	if uc.metrics != nil {
		uc.metrics.ObserveNotification(n.Kind, n.Status)
	}
	uc.publish(ctx, n)

	uc.logger.Info("notification_recorded",
		"notification_id", n.ID,
		"kind", string(n.Kind),
		"recipient", n.Recipient,
		"status", string(n.Status),
		"provider", n.Provider,
	)
	if sendErr != nil {
		return fmt.Errorf("send %s notification: %w", d.kind, sendErr)
	}
	return nil
}

func (uc *NotificationUseCase) publish(ctx context.Context, n *domain.Notification) {
	if uc.publisher == nil {
		return
	}
	err := uc.publisher.PublishNotification(ctx, domain.NotificationEvent{
		NotificationID: n.ID,
		Kind:           n.Kind,
		DocumentID:     n.DocumentID,
		BatchID:        n.BatchID,
		Recipient:      n.Recipient,
		Status:         n.Status,
		Timestamp:      n.CreatedAt,
	})
	if err != nil {
		uc.logger.Warn("notification_publish_failed", "notification_id", n.ID, "error", err)
	}
}

func (uc *NotificationUseCase) ListNotifications(ctx context.Context, recipient string, limit int) ([]domain.Notification, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list notifications", errors.New("recipient is required"))
	}
	return uc.repo.ListNotifications(ctx, recipient, limit)
}

func (uc *NotificationUseCase) MarkNotificationRead(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "mark notification read", errors.New("id is required"))
	}
	return uc.repo.MarkRead(ctx, id)
}

func (uc *NotificationUseCase) CountUnread(ctx context.Context, recipient string) (int, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, "count unread notifications", errors.New("recipient is required"))
	}
	return uc.repo.CountUnread(ctx, recipient)
}
