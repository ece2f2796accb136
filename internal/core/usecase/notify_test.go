package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/document-router/internal/core/domain"
	"github.com/kirillkom/document-router/internal/core/ports"
)

type notificationRepoFake struct {
	stored []domain.Notification
	err    error
}

func (f *notificationRepoFake) CreateNotification(_ context.Context, n *domain.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, *n)
	return nil
}

func (f *notificationRepoFake) ListNotifications(context.Context, string, int) ([]domain.Notification, error) {
	return f.stored, nil
}

func (f *notificationRepoFake) MarkRead(context.Context, string) error { return nil }

func (f *notificationRepoFake) CountUnread(context.Context, string) (int, error) {
	return len(f.stored), nil
}

type rendererFake struct {
	kinds []domain.NotificationKind
	data  []ports.NotificationData
}

func (f *rendererFake) Render(kind domain.NotificationKind, data ports.NotificationData) (ports.RenderedMessage, error) {
	f.kinds = append(f.kinds, kind)
	f.data = append(f.data, data)
	return ports.RenderedMessage{Subject: "subject " + string(kind), HTMLBody: "<p>b</p>", TextBody: "b"}, nil
}

type senderFake struct {
	name string
	sent []domain.OutboundMessage
	err  error
}

func (f *senderFake) Name() string { return f.name }

func (f *senderFake) Send(_ context.Context, msg domain.OutboundMessage) (string, error) {
	f.sent = append(f.sent, msg)
	if f.err != nil {
		return "", f.err
	}
	return "msg-1", nil
}

type managersFake map[string]string

func (m managersFake) ManagerEmail(department string) string {
	if email, ok := m[department]; ok {
		return email
	}
	return domain.FallbackManagerMail
}

type publisherFake struct {
	events []domain.NotificationEvent
}

func (f *publisherFake) PublishNotification(_ context.Context, event domain.NotificationEvent) error {
	f.events = append(f.events, event)
	return nil
}

type notifyFixture struct {
	repo      *notificationRepoFake
	renderer  *rendererFake
	sender    *senderFake
	publisher *publisherFake
	metrics   *metricsFake
	uc        *NotificationUseCase
}

func newNotifyFixture(provider string) *notifyFixture {
	f := &notifyFixture{
		repo:      &notificationRepoFake{},
		renderer:  &rendererFake{},
		sender:    &senderFake{name: provider},
		publisher: &publisherFake{},
		metrics:   &metricsFake{},
	}
	f.uc = NewNotificationUseCase(f.repo, f.renderer, f.sender, managersFake{"legal": "legal.manager@company.com"}, NotificationOptions{
		Publisher: f.publisher,
		Metrics:   f.metrics,
	})
	return f
}

func TestNotifyDocumentRoutedRecordsSent(t *testing.T) {
	f := newNotifyFixture("sendgrid")
	doc := &domain.Document{ID: "doc-1", UploaderEmail: "jane@company.com"}

	err := f.uc.NotifyDocumentRouted(context.Background(), doc, domain.RoutingDecision{
		Department:  "finance",
		NotifyEmail: "finance.manager@company.com",
	})
	if err != nil {
		t.Fatalf("NotifyDocumentRouted() error = %v", err)
	}
	if len(f.sender.sent) != 1 || f.sender.sent[0].To != "finance.manager@company.com" || f.sender.sent[0].ReplyTo != "jane@company.com" {
		t.Fatalf("unexpected outbound message: %+v", f.sender.sent)
	}
	n := f.repo.stored[0]
	if n.Status != domain.NotificationSent || n.ProviderMessageID != "msg-1" || n.Provider != "sendgrid" || n.DocumentID != "doc-1" {
		t.Fatalf("unexpected stored notification: %+v", n)
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0].NotificationID != n.ID {
		t.Fatalf("expected notification event, got %+v", f.publisher.events)
	}
	if len(f.metrics.notifications) != 1 || f.metrics.notifications[0] != domain.NotificationSent {
		t.Fatalf("expected sent metric, got %v", f.metrics.notifications)
	}
}

func TestNotifyRecordsFailedAttempt(t *testing.T) {
	f := newNotifyFixture("smtp")
	f.sender.err = errors.New("connection refused")

	err := f.uc.NotifyBatchUploaded(context.Background(), &domain.Batch{ID: "b-1", TargetDepartment: "legal"}, nil)
	if err == nil {
		t.Fatalf("expected send error")
	}
	if f.sender.sent[0].To != "legal.manager@company.com" {
		t.Fatalf("expected manager directory lookup, got %s", f.sender.sent[0].To)
	}
	n := f.repo.stored[0]
	if n.Status != domain.NotificationFailed || n.Error != "connection refused" || n.BatchID != "b-1" {
		t.Fatalf("unexpected stored notification: %+v", n)
	}
}

func TestNotifyLogProviderRecordsLogged(t *testing.T) {
	f := newNotifyFixture("log")

	err := f.uc.NotifyUploadConfirmation(context.Background(), &domain.Batch{ID: "b-1", UploaderEmail: "jane@company.com", UploaderName: "Jane"})
	if err != nil {
		t.Fatalf("NotifyUploadConfirmation() error = %v", err)
	}
	if f.repo.stored[0].Status != domain.NotificationLogged {
		t.Fatalf("expected logged status, got %s", f.repo.stored[0].Status)
	}
	if f.renderer.data[0].RecipientName != "Jane" {
		t.Fatalf("expected recipient name in template data")
	}
}

func TestNotifyReviewCompletedUsesReviewerAsReplyTo(t *testing.T) {
	f := newNotifyFixture("resend")
	doc := &domain.Document{ID: "doc-1", UploaderEmail: "jane@company.com", TargetDepartment: "legal"}

	err := f.uc.NotifyReviewCompleted(context.Background(), doc, domain.Review{ReviewerEmail: "counsel@company.com", Status: domain.ReviewApproved})
	if err != nil {
		t.Fatalf("NotifyReviewCompleted() error = %v", err)
	}
	if f.sender.sent[0].ReplyTo != "counsel@company.com" || f.renderer.data[0].Department != "legal" {
		t.Fatalf("unexpected message %+v", f.sender.sent[0])
	}
}

func TestNotifyRequiresRecipient(t *testing.T) {
	f := newNotifyFixture("log")
	err := f.uc.NotifyUploadConfirmation(context.Background(), &domain.Batch{ID: "b-1"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if len(f.sender.sent) != 0 {
		t.Fatalf("nothing should be sent without a recipient")
	}
}

func TestNotificationInboxValidation(t *testing.T) {
	f := newNotifyFixture("log")
	if _, err := f.uc.ListNotifications(context.Background(), " ", 10); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := f.uc.CountUnread(context.Background(), ""); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if err := f.uc.MarkNotificationRead(context.Background(), ""); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
