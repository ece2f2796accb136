package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusClassified DocumentStatus = "classified"
	StatusRouted     DocumentStatus = "routed"
	StatusReviewed   DocumentStatus = "reviewed"
	StatusArchived   DocumentStatus = "archived"
	StatusFailed     DocumentStatus = "failed"
)

type ReviewStatus string

const (
	ReviewPending       ReviewStatus = "pending"
	ReviewApproved      ReviewStatus = "approved"
	ReviewRejected      ReviewStatus = "rejected"
	ReviewNeedsRevision ReviewStatus = "needs_revision"
)

// MaxExtractedTextChars bounds the text persisted and returned alongside a document.
const MaxExtractedTextChars = 2000

type Document struct {
	ID               string           `json:"id"`
	Filename         string           `json:"filename"`
	MimeType         string           `json:"mime_type"`
	SizeBytes        int64            `json:"size_bytes"`
	StoragePath      string           `json:"storage_path"`
	BatchID          string           `json:"batch_id,omitempty"`
	UploaderName     string           `json:"uploader_name,omitempty"`
	UploaderEmail    string           `json:"uploader_email,omitempty"`
	TargetDepartment string           `json:"target_department,omitempty"`
	Status           DocumentStatus   `json:"status"`
	ReviewStatus     ReviewStatus     `json:"review_status"`
	DocType          string           `json:"doc_type,omitempty"`
	Department       string           `json:"department,omitempty"`
	Priority         Priority         `json:"priority,omitempty"`
	Confidence       float64          `json:"confidence,omitempty"`
	PageCount        int              `json:"page_count,omitempty"`
	Language         string           `json:"language,omitempty"`
	Tags             []string         `json:"tags"`
	ExtractedText    string           `json:"extracted_text,omitempty"`
	Analysis         *Analysis        `json:"analysis,omitempty"`
	Assignment       *RoutingDecision `json:"assignment,omitempty"`
	Error            string           `json:"error,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ApplyClassification copies classifier output onto the document.
func (d *Document) ApplyClassification(cls Classification) {
	d.DocType = cls.DocType
	d.Department = cls.Department
	d.Priority = cls.Priority
	d.Confidence = cls.Confidence
	d.Language = cls.Language
	d.Tags = cls.Tags
	if d.Tags == nil {
		d.Tags = []string{}
	}
}

// RoutingDepartment is the department used for routing: an explicit upload
// target wins over the classified one.
func (d *Document) RoutingDepartment() string {
	if d.TargetDepartment != "" {
		return d.TargetDepartment
	}
	return d.Department
}

// TruncateText cuts s to at most n runes.
func TruncateText(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

type DocumentFilter struct {
	Department   string
	Status       DocumentStatus
	ReviewStatus ReviewStatus
	Limit        int
	Offset       int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Normalize clamps paging values.
func (f DocumentFilter) Normalize() DocumentFilter {
	out := f
	if out.Limit <= 0 {
		out.Limit = DefaultListLimit
	}
	if out.Limit > MaxListLimit {
		out.Limit = MaxListLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	return out
}

// IngestedEvent is the queue payload published after a successful upload.
type IngestedEvent struct {
	DocumentID string    `json:"doc_id"`
	UploadedAt time.Time `json:"uploaded_at"`
}
