package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/document-router/internal/core/domain"
)

// DocumentRepository persists document state and derived metadata.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveClassification(ctx context.Context, id string, cls domain.Classification, extractedText string, pageCount int) error
	SaveAnalysis(ctx context.Context, id string, analysis domain.Analysis) error
	SaveAssignment(ctx context.Context, id string, decision domain.RoutingDecision) error
	SaveReview(ctx context.Context, review domain.Review) error
	StatsCounts(ctx context.Context, since time.Time) (*domain.StatsCounts, error)
}

type BatchRepository interface {
	CreateBatch(ctx context.Context, batch *domain.Batch) error
	CompleteBatch(ctx context.Context, batch *domain.Batch) error
	GetBatch(ctx context.Context, id string) (*domain.Batch, error)
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error
	ListNotifications(ctx context.Context, recipient string, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id string) error
	CountUnread(ctx context.Context, recipient string) (int, error)
}

type ProcessingLogRepository interface {
	AppendLog(ctx context.Context, entry *domain.ProcessingLog) error
	ListLogs(ctx context.Context, documentID string) ([]domain.ProcessingLog, error)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes and consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, event domain.IngestedEvent) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, domain.IngestedEvent) error) error
}

// EventPublisher fans notification events out to interested consumers.
type EventPublisher interface {
	PublishNotification(ctx context.Context, event domain.NotificationEvent) error
}

type ExtractedText struct {
	Text      string
	PageCount int
}

// TextExtractor turns raw file bytes into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, filename, mimeType string, data []byte) (ExtractedText, error)
}

type DocumentClassifier interface {
	Classify(ctx context.Context, input domain.ClassificationInput) (domain.Classification, error)
}

type ContentAnalyzer interface {
	Analyze(ctx context.Context, text string) (domain.Analysis, error)
}

type DocumentRouter interface {
	Route(ctx context.Context, req domain.RoutingRequest) (domain.RoutingDecision, error)
}

// RenderedMessage is a subject and body pair produced from a notification template.
type RenderedMessage struct {
	Subject  string
	HTMLBody string
	TextBody string
}

// NotificationData is the view a notification template renders. Fields unused by a kind stay zero.
type NotificationData struct {
	RecipientName string
	Department    string
	Document      *domain.Document
	Decision      *domain.RoutingDecision
	Batch         *domain.Batch
	Documents     []domain.Document
	Review        *domain.Review
	SentAt        time.Time
}

type MessageRenderer interface {
	Render(kind domain.NotificationKind, data NotificationData) (RenderedMessage, error)
}

// MailSender delivers a message and returns the provider message id, if any.
type MailSender interface {
	Send(ctx context.Context, msg domain.OutboundMessage) (string, error)
	Name() string
}

// DocumentGraph links documents that share extracted entities.
type DocumentGraph interface {
	LinkDocument(ctx context.Context, doc *domain.Document, entities []string) ([]string, error)
}

// PipelineMetrics receives per-document classification observations.
type PipelineMetrics interface {
	ObserveClassification(cls domain.Classification)
	ObserveNotification(kind domain.NotificationKind, status domain.NotificationStatus)
}

// ManagerDirectory resolves the manager mailbox for a department.
type ManagerDirectory interface {
	ManagerEmail(department string) string
}
