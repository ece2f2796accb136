package domain

import "time"

type NotificationKind string

const (
	NotificationDocumentRouted     NotificationKind = "document_routed"
	NotificationBatchUploaded      NotificationKind = "batch_uploaded"
	NotificationUploadConfirmation NotificationKind = "upload_confirmation"
	NotificationReviewCompleted    NotificationKind = "review_completed"
)

type NotificationStatus string

const (
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
	NotificationLogged NotificationStatus = "logged"
)

type Notification struct {
	ID                string             `json:"id"`
	Kind              NotificationKind   `json:"kind"`
	DocumentID        string             `json:"doc_id,omitempty"`
	BatchID           string             `json:"batch_id,omitempty"`
	Recipient         string             `json:"recipient"`
	ReplyTo           string             `json:"reply_to,omitempty"`
	Subject           string             `json:"subject"`
	Body              string             `json:"body"`
	Provider          string             `json:"provider"`
	ProviderMessageID string             `json:"provider_message_id,omitempty"`
	Status            NotificationStatus `json:"status"`
	Error             string             `json:"error,omitempty"`
	Read              bool               `json:"read"`
	CreatedAt         time.Time          `json:"created_at"`
}

// OutboundMessage is a rendered message ready to hand to a mail provider.
type OutboundMessage struct {
	To       string
	ReplyTo  string
	Subject  string
	HTMLBody string
	TextBody string
}

// NotificationEvent is published on the notifications subject for every attempt.
type NotificationEvent struct {
	NotificationID string             `json:"notification_id"`
	Kind           NotificationKind   `json:"kind"`
	DocumentID     string             `json:"doc_id,omitempty"`
	BatchID        string             `json:"batch_id,omitempty"`
	Recipient      string             `json:"recipient"`
	Status         NotificationStatus `json:"status"`
	Timestamp      time.Time          `json:"timestamp"`
}
