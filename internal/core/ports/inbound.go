package ports

import (
	"context"
	"io"

	"github.com/kirillkom/document-router/internal/core/domain"
)

// UploadRequest carries one file and the optional context an uploader attaches to it.
type UploadRequest struct {
	Filename         string
	MimeType         string
	Size             int64
	Body             io.Reader
	BatchID          string
	TargetDepartment string
	UploaderName     string
	UploaderEmail    string
}

type BulkUploadRequest struct {
	BatchName        string
	TargetDepartment string
	UploaderName     string
	UploaderEmail    string
	Files            []UploadFile
}

type UploadFile struct {
	Filename string
	MimeType string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// DocumentIngestor is the inbound contract for single and batch uploads.
type DocumentIngestor interface {
	Upload(ctx context.Context, req UploadRequest) (*domain.Document, error)
	BulkUpload(ctx context.Context, req BulkUploadRequest) (*domain.Batch, error)
}

// DocumentProcessor runs the asynchronous classification and routing pipeline.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// DocumentCatalog is the read side used by the API.
type DocumentCatalog interface {
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	ListDocuments(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)
	OpenContent(ctx context.Context, id string) (*domain.Document, io.ReadCloser, error)
	ListLogs(ctx context.Context, documentID string) ([]domain.ProcessingLog, error)
	GetBatch(ctx context.Context, id string) (*domain.Batch, error)
	Stats(ctx context.Context) (*domain.Stats, error)
}

type DocumentReviewer interface {
	Review(ctx context.Context, documentID string, input domain.ReviewInput) (*domain.Review, error)
}

type NotificationInbox interface {
	ListNotifications(ctx context.Context, recipient string, limit int) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	CountUnread(ctx context.Context, recipient string) (int, error)
}

type ClassifiedFile struct {
	Filename       string                `json:"filename"`
	ExtractedText  string                `json:"extracted_text"`
	PageCount      int                   `json:"page_count"`
	Classification domain.Classification `json:"classification"`
	Analysis       domain.Analysis       `json:"analysis"`
	Error          string                `json:"error,omitempty"`
}

type ClassifyBatchResult struct {
	BatchID        string           `json:"batch_id"`
	TotalFiles     int              `json:"total_files"`
	ProcessedFiles int              `json:"processed_files"`
	Results        []ClassifiedFile `json:"results"`
}

type FileContent struct {
	Filename string
	MimeType string
	Data     []byte
}

// ClassificationService exposes the heuristics without persisting anything.
type ClassificationService interface {
	ClassifyFile(ctx context.Context, file FileContent) (*ClassifiedFile, error)
	ClassifyBatch(ctx context.Context, files []FileContent) (*ClassifyBatchResult, error)
	AnalyzeText(ctx context.Context, documentID, content string) (*domain.Analysis, error)
	RouteDocument(ctx context.Context, req domain.RoutingRequest) (*domain.RoutingDecision, error)
	TriggerWorkflow(ctx context.Context, documentID, workflowType string) (*domain.Workflow, error)
}

// Notifier issues the notifications emitted by the pipeline and the review flow.
type Notifier interface {
	NotifyDocumentRouted(ctx context.Context, doc *domain.Document, decision domain.RoutingDecision) error
	NotifyBatchUploaded(ctx context.Context, batch *domain.Batch, docs []domain.Document) error
	NotifyUploadConfirmation(ctx context.Context, batch *domain.Batch) error
	NotifyReviewCompleted(ctx context.Context, doc *domain.Document, review domain.Review) error
}
