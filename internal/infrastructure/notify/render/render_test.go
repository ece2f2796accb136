package render

import (
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/document-router/internal/core/domain"
	"github.com/kirillkom/document-router/internal/core/ports"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r
}

func TestRenderDocumentRouted(t *testing.T) {
	r := newRenderer(t)
	msg, err := r.Render(domain.NotificationDocumentRouted, ports.NotificationData{
		Department: "finance",
		Document: &domain.Document{
			Filename:   "invoice_<march>.pdf",
			DocType:    "invoice",
			Priority:   domain.PriorityHigh,
			Confidence: 0.87,
		},
		Decision: &domain.RoutingDecision{Assignee: "finance_team", EscalationLevel: 4},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if msg.Subject != "New HIGH priority document routed to Finance & Accounting: invoice_<march>.pdf" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if !strings.Contains(msg.HTMLBody, "invoice_&lt;march&gt;.pdf") {
		t.Fatalf("expected escaped filename in html body: %s", msg.HTMLBody)
	}
	if !strings.Contains(msg.TextBody, "Confidence: 87%") || !strings.Contains(msg.TextBody, "Assignee: finance_team") {
		t.Fatalf("unexpected text body: %s", msg.TextBody)
	}
}

func TestRenderBatchUploadedListsDocuments(t *testing.T) {
	r := newRenderer(t)
	msg, err := r.Render(domain.NotificationBatchUploaded, ports.NotificationData{
		Department: "legal",
		Batch:      &domain.Batch{UploaderName: "Jane Doe"},
		Documents: []domain.Document{
			{Filename: "nda.docx", TargetDepartment: "legal"},
			{Filename: "msa.pdf", DocType: "contract", Priority: domain.PriorityMedium, TargetDepartment: "legal"},
		},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if msg.Subject != "New Documents Uploaded to LEGAL Department" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	for _, want := range []string{"Jane Doe has uploaded 2 document(s)", "nda.docx", "Type: pending", "Type: contract"} {
		if !strings.Contains(msg.HTMLBody, want) {
			t.Fatalf("html body missing %q: %s", want, msg.HTMLBody)
		}
	}
}

func TestRenderUploadConfirmationIncludesFailures(t *testing.T) {
	r := newRenderer(t)
	msg, err := r.Render(domain.NotificationUploadConfirmation, ports.NotificationData{
		RecipientName: "Jane",
		Department:    "customer_support",
		Batch:         &domain.Batch{ProcessedFiles: 3, Failures: []string{"big.pdf: file too large"}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if msg.Subject != "Document Upload Confirmation - 3 files processed" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if !strings.Contains(msg.TextBody, "Customer Support department") {
		t.Fatalf("expected display name in text body: %s", msg.TextBody)
	}
	if !strings.Contains(msg.TextBody, "Failed: big.pdf: file too large") {
		t.Fatalf("expected failure list in text body: %s", msg.TextBody)
	}
}

func TestRenderReviewCompleted(t *testing.T) {
	r := newRenderer(t)
	reviewedAt := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	msg, err := r.Render(domain.NotificationReviewCompleted, ports.NotificationData{
		RecipientName: "Jane",
		Document:      &domain.Document{Filename: "msa.pdf"},
		Review: &domain.Review{
			Reviewer:   "Legal Counsel",
			Status:     domain.ReviewApproved,
			Comments:   "Looks good",
			ReviewedAt: reviewedAt,
		},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if msg.Subject != "Document Review Complete: msa.pdf - APPROVED" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if !strings.Contains(msg.HTMLBody, "2026-02-10 09:30:00") || !strings.Contains(msg.HTMLBody, "Looks good") {
		t.Fatalf("unexpected html body: %s", msg.HTMLBody)
	}
}

func TestRenderUnknownKind(t *testing.T) {
	r := newRenderer(t)
	_, err := r.Render(domain.NotificationKind("carrier_pigeon"), ports.NotificationData{})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestDepartmentName(t *testing.T) {
	tests := map[string]string{
		"":                  "Unassigned",
		"hr":                "Human Resources",
		"general":           "General",
		"quality_assurance": "Quality Assurance",
	}
	for code, want := range tests {
		if got := DepartmentName(code); got != want {
			t.Fatalf("DepartmentName(%q) = %q, want %q", code, got, want)
		}
	}
}
