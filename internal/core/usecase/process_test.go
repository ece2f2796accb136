package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kirillkom/document-router/internal/core/domain"
)

type processFixture struct {
	repo       *docRepoFake
	logs       *logRepoFake
	storage    *storageFake
	extractor  *extractorFake
	classifier *classifierFake
	analyzer   *analyzerFake
	router     *routerFake
	notifier   *notifierFake
	graph      *graphFake
	metrics    *metricsFake
}

func newProcessFixture(doc *domain.Document, body string) *processFixture {
	f := &processFixture{
		repo:      newDocRepoFake(doc),
		logs:      &logRepoFake{},
		storage:   newStorageFake(),
		extractor: &extractorFake{},
		classifier: &classifierFake{cls: domain.Classification{
			DocType:    "invoice",
			Department: "finance",
			Priority:   domain.PriorityHigh,
			Confidence: 0.8,
			Tags:       []string{"financial"},
			Source:     domain.SourceKeyword,
		}},
		analyzer: &analyzerFake{analysis: domain.Analysis{
			Entities:  domain.Entities{Names: []string{"Acme Corp"}, Amounts: []string{"$1,200.00"}},
			RiskScore: 0.2,
			WordCount: 4,
		}},
		router: &routerFake{decision: domain.RoutingDecision{
			Assignee:        "finance_team",
			Department:      "finance",
			Priority:        domain.PriorityHigh,
			PriorityBoost:   1,
			EscalationLevel: 4,
			NotifyEmail:     "finance.manager@company.com",
			Status:          domain.RoutingStatusRouted,
		}},
		notifier: &notifierFake{},
		graph:    &graphFake{},
		metrics:  &metricsFake{},
	}
	f.storage.objects[doc.StoragePath] = []byte(body)
	return f
}

func (f *processFixture) useCase() *ProcessDocumentUseCase {
	return NewProcessDocumentUseCase(f.repo, f.logs, f.storage, f.extractor, f.classifier, f.analyzer, f.router, ProcessOptions{
		Notifier: f.notifier,
		Graph:    f.graph,
		Metrics:  f.metrics,
	})
}

func testDocument() *domain.Document {
	return &domain.Document{
		ID:          "doc-1",
		Filename:    "invoice.txt",
		MimeType:    "text/plain",
		StoragePath: "doc-1_invoice.txt",
		Status:      domain.StatusUploaded,
	}
}

func TestProcessByIDSuccess(t *testing.T) {
	f := newProcessFixture(testDocument(), "Invoice total $1,200.00")
	f.graph.related = []string{"doc-0"}

	if err := f.useCase().ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}

	want := []domain.DocumentStatus{domain.StatusProcessing, domain.StatusClassified, domain.StatusRouted}
	if diff := cmp.Diff(want, f.repo.statuses()); diff != "" {
		t.Fatalf("status transitions mismatch (-want +got):\n%s", diff)
	}

	doc := f.repo.docs["doc-1"]
	if doc.DocType != "invoice" || doc.ExtractedText != "Invoice total $1,200.00" || doc.PageCount != 1 {
		t.Fatalf("classification not persisted: %+v", doc)
	}
	if doc.Assignment == nil || doc.Assignment.Workflow == nil || doc.Assignment.Workflow.Type != domain.WorkflowExpedited {
		t.Fatalf("expected expedited workflow on assignment, got %+v", doc.Assignment)
	}
	if doc.Analysis == nil || len(doc.Analysis.RelatedDocuments) != 1 {
		t.Fatalf("expected related documents to be saved, got %+v", doc.Analysis)
	}
	if len(f.notifier.routed) != 1 || f.notifier.routed[0].NotifyEmail != "finance.manager@company.com" {
		t.Fatalf("expected routing notification, got %+v", f.notifier.routed)
	}
	if diff := cmp.Diff([]string{"Acme Corp", "$1,200.00"}, f.graph.entities); diff != "" {
		t.Fatalf("graph entities mismatch (-want +got):\n%s", diff)
	}
	if f.metrics.classifications != 1 {
		t.Fatalf("expected classification metric")
	}

	wantSteps := []domain.ProcessingStep{
		domain.StepExtract, domain.StepClassify, domain.StepAnalyze, domain.StepRoute, domain.StepNotify, domain.StepLink,
	}
	if diff := cmp.Diff(wantSteps, f.logs.steps(domain.StepCompleted)); diff != "" {
		t.Fatalf("processing log mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessByIDPinsTargetDepartment(t *testing.T) {
	doc := testDocument()
	doc.TargetDepartment = "legal"
	f := newProcessFixture(doc, "Invoice")

	if err := f.useCase().ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	req := f.router.requests[0]
	if req.Department != "legal" || !req.DepartmentPinned {
		t.Fatalf("expected pinned target department, got %+v", req)
	}
}

func TestProcessByIDEmptyTextFails(t *testing.T) {
	f := newProcessFixture(testDocument(), "")
	f.extractor.text = "   "

	err := f.useCase().ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	last := f.repo.statusCalls[len(f.repo.statusCalls)-1]
	if last.status != domain.StatusFailed || last.errMsg != "could not extract text from document" {
		t.Fatalf("unexpected failure status: %+v", last)
	}
	if steps := f.logs.steps(domain.StepFailed); len(steps) != 1 || steps[0] != domain.StepExtract {
		t.Fatalf("expected failed extract log, got %v", steps)
	}
}

func TestProcessByIDClassifierErrorMarksFailed(t *testing.T) {
	f := newProcessFixture(testDocument(), "text")
	f.classifier.err = errors.New("rules broken")

	err := f.useCase().ProcessByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	last := f.repo.statusCalls[len(f.repo.statusCalls)-1]
	if last.status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %s", last.status)
	}
	if len(f.router.requests) != 0 {
		t.Fatalf("router should not be called")
	}
}

func TestProcessByIDNotificationAndGraphFailuresAreNonFatal(t *testing.T) {
	f := newProcessFixture(testDocument(), "text")
	f.notifier.err = errors.New("smtp down")
	f.graph.err = errors.New("neo4j down")

	if err := f.useCase().ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if f.repo.docs["doc-1"].Status != domain.StatusRouted {
		t.Fatalf("document should still be routed")
	}
	if diff := cmp.Diff([]domain.ProcessingStep{domain.StepNotify, domain.StepLink}, f.logs.steps(domain.StepFailed)); diff != "" {
		t.Fatalf("failed steps mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessByIDSkipsReviewedDocuments(t *testing.T) {
	doc := testDocument()
	doc.Status = domain.StatusReviewed
	f := newProcessFixture(doc, "text")

	if err := f.useCase().ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if len(f.repo.statusCalls) != 0 {
		t.Fatalf("reviewed documents must not be reprocessed, got %v", f.repo.statuses())
	}
}

func TestProcessByIDMissingDocument(t *testing.T) {
	f := newProcessFixture(testDocument(), "text")
	err := f.useCase().ProcessByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
