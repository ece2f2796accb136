package domain

import "time"

const TrendWindowDays = 30

type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type Stats struct {
	TotalDocuments     int            `json:"total_documents"`
	ProcessedDocuments int            `json:"processed_documents"`
	PendingDocuments   int            `json:"pending_documents"`
	ErrorDocuments     int            `json:"error_documents"`
	ProcessingRate     float64        `json:"processing_rate"`
	Departments        map[string]int `json:"departments"`
	DocumentTypes      map[string]int `json:"document_types"`
	Priorities         map[string]int `json:"priorities"`
	UploadTrends       []TrendPoint   `json:"upload_trends"`
}

// StatsCounts is the raw aggregate a repository returns before rates and trends are derived.
type StatsCounts struct {
	Total         int
	Processed     int
	Pending       int
	Errors        int
	Departments   map[string]int
	DocumentTypes map[string]int
	Priorities    map[string]int
	RecentUploads []time.Time
}
