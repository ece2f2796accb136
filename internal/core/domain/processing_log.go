package domain

import "time"

type ProcessingStep string

const (
	StepUpload   ProcessingStep = "upload"
	StepExtract  ProcessingStep = "extract"
	StepClassify ProcessingStep = "classify"
	StepAnalyze  ProcessingStep = "analyze"
	StepRoute    ProcessingStep = "route"
	StepNotify   ProcessingStep = "notify"
	StepLink     ProcessingStep = "link"
)

type StepStatus string

const (
	StepStarted   StepStatus = "started"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

type ProcessingLog struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"doc_id"`
	Step       ProcessingStep `json:"processing_step"`
	Status     StepStatus     `json:"status"`
	Details    map[string]any `json:"details,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
