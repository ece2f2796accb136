package domain

import "time"

type BatchStatus string

const (
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
)

type Batch struct {
	ID               string      `json:"batch_id"`
	Name             string      `json:"batch_name"`
	TargetDepartment string      `json:"target_department"`
	UploaderName     string      `json:"uploader_name,omitempty"`
	UploaderEmail    string      `json:"uploader_email,omitempty"`
	TotalFiles       int         `json:"total_files"`
	ProcessedFiles   int         `json:"processed_files"`
	FailedFiles      int         `json:"failed_files"`
	Failures         []string    `json:"failures,omitempty"`
	DocumentIDs      []string    `json:"document_ids,omitempty"`
	Status           BatchStatus `json:"status"`
	CreatedAt        time.Time   `json:"created_at"`
	CompletedAt      *time.Time  `json:"completed_at,omitempty"`
}
