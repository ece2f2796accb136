package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/document-router/internal/adapters/http/openapi"
	"github.com/kirillkom/document-router/internal/config"
	"github.com/kirillkom/document-router/internal/core/domain"
	"github.com/kirillkom/document-router/internal/core/ports"
)

type classificationFake struct {
	files   []ports.FileContent
	routing domain.RoutingRequest
}

func (f *classificationFake) ClassifyFile(_ context.Context, file ports.FileContent) (*ports.ClassifiedFile, error) {
	f.files = append(f.files, file)
	return &ports.ClassifiedFile{
		Filename:       file.Filename,
		ExtractedText:  string(file.Data),
		Classification: domain.Classification{DocType: "invoice", Department: "finance"},
	}, nil
}

func (f *classificationFake) ClassifyBatch(_ context.Context, files []ports.FileContent) (*ports.ClassifyBatchResult, error) {
	f.files = append(f.files, files...)
	out := &ports.ClassifyBatchResult{BatchID: "batch_1", TotalFiles: len(files), ProcessedFiles: len(files)}
	for _, file := range files {
		out.Results = append(out.Results, ports.ClassifiedFile{Filename: file.Filename})
	}
	return out, nil
}

func (f *classificationFake) AnalyzeText(_ context.Context, _, content string) (*domain.Analysis, error) {
	return &domain.Analysis{WordCount: len(strings.Fields(content))}, nil
}

func (f *classificationFake) RouteDocument(_ context.Context, req domain.RoutingRequest) (*domain.RoutingDecision, error) {
	f.routing = req
	return &domain.RoutingDecision{DocumentID: req.DocumentID, Department: req.Department, Priority: req.Priority}, nil
}

func (f *classificationFake) TriggerWorkflow(_ context.Context, id, workflowType string) (*domain.Workflow, error) {
	wf := domain.NewWorkflow(id, workflowType, time.Now())
	return &wf, nil
}

type inboxFake struct {
	recipient string
	limit     int
	read      []string
}

func (f *inboxFake) ListNotifications(_ context.Context, recipient string, limit int) ([]domain.Notification, error) {
	f.recipient = recipient
	f.limit = limit
	return []domain.Notification{{ID: "n-1", Recipient: recipient}}, nil
}

func (f *inboxFake) MarkNotificationRead(_ context.Context, id string) error {
	f.read = append(f.read, id)
	return nil
}

func (f *inboxFake) CountUnread(context.Context, string) (int, error) {
	return 4, nil
}

func TestListDocumentsBindsFilters(t *testing.T) {
	catalog := &catalogFake{}
	handler := NewRouter(config.Config{}, Services{Catalog: catalog}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/documents?department=hr&status=routed&review_status=pending&limit=500&offset=10", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	want := domain.DocumentFilter{
		Department:   "hr",
		Status:       domain.StatusRouted,
		ReviewStatus: domain.ReviewPending,
		Limit:        domain.MaxListLimit,
		Offset:       10,
	}
	if catalog.filter != want {
		t.Fatalf("filter = %+v, want %+v", catalog.filter, want)
	}
}

func TestListDocumentsRejectsNonNumericLimit(t *testing.T) {
	handler := newTestHandler(config.Config{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/documents?limit=ten", nil))
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestDownloadDocumentSetsHeaders(t *testing.T) {
	handler := NewRouter(config.Config{}, Services{Catalog: &catalogFake{content: "%PDF-1.7"}}).Handler()

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/documents/doc-1/content", nil))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if ct := res.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := res.Header().Get("Content-Disposition"); cd != `attachment; filename="q3 report.pdf"` {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	if res.Body.String() != "%PDF-1.7" {
		t.Fatalf("unexpected body %q", res.Body.String())
	}
}

func TestClassifyFileReturnsResult(t *testing.T) {
	classifier := &classificationFake{}
	handler := NewRouter(config.Config{}, Services{Classifier: classifier}).Handler()

	body, contentType := multipartBody(t, nil, formFile{"file", "invoice.txt", "Invoice total due"})
	req := httptest.NewRequest(http.MethodPost, "/v1/classify", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if len(classifier.files) != 1 || string(classifier.files[0].Data) != "Invoice total due" {
		t.Fatalf("unexpected classified files: %+v", classifier.files)
	}
	resp := decodeBody(t, res)
	cls, _ := resp["classification"].(map[string]any)
	if cls["doc_type"] != "invoice" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestClassifyFileTruncatesReadAtLimit(t *testing.T) {
	classifier := &classificationFake{}
	handler := NewRouter(config.Config{MaxUploadBytes: 4}, Services{Classifier: classifier}).Handler()

	body, contentType := multipartBody(t, nil, formFile{"file", "a.txt", "0123456789"})
	req := httptest.NewRequest(http.MethodPost, "/v1/classify", body)
	req.Header.Set("Content-Type", contentType)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if len(classifier.files) != 1 || len(classifier.files[0].Data) != 5 {
		t.Fatalf("expected limit+1 bytes handed to the service, got %+v", classifier.files)
	}
}

func TestClassifyBulkRequiresFiles(t *testing.T) {
	handler := NewRouter(config.Config{}, Services{Classifier: &classificationFake{}}).Handler()

	body, contentType := multipartBody(t, map[string]string{"note": "x"})
	req := httptest.NewRequest(http.MethodPost, "/v1/classify/bulk", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestRouteDocumentDecodesRequest(t *testing.T) {
	classifier := &classificationFake{}
	handler := NewRouter(config.Config{}, Services{Classifier: classifier}).Handler()

	payload, _ := json.Marshal(map[string]any{"doc_id": "doc-9", "doc_type": "contract", "department": "legal", "priority": "high"})
	req := httptest.NewRequest(http.MethodPost, "/v1/route", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	want := domain.RoutingRequest{DocumentID: "doc-9", DocType: "contract", Department: "legal", Priority: domain.PriorityHigh}
	if classifier.routing != want {
		t.Fatalf("routing request = %+v, want %+v", classifier.routing, want)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	handler := newTestHandler(config.Config{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/departments", nil))
	deps, _ := decodeBody(t, res)["departments"].([]any)
	if len(deps) != len(domain.Departments()) {
		t.Fatalf("expected %d departments, got %d", len(domain.Departments()), len(deps))
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/priority-levels", nil))
	levels, _ := decodeBody(t, res)["priority_levels"].([]any)
	if len(levels) != len(domain.PriorityLevels()) {
		t.Fatalf("expected %d priority levels, got %d", len(domain.PriorityLevels()), len(levels))
	}
}

func TestNotificationEndpoints(t *testing.T) {
	inbox := &inboxFake{}
	handler := NewRouter(config.Config{}, Services{Inbox: inbox}).Handler()

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/notifications?recipient=ann@company.com&limit=5", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("list expected 200, got %d", res.Code)
	}
	if inbox.recipient != "ann@company.com" || inbox.limit != 5 {
		t.Fatalf("unexpected inbox call: %q %d", inbox.recipient, inbox.limit)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/notifications/unread-count?recipient=ann@company.com", nil))
	if got := decodeBody(t, res)["unread_count"]; got != float64(4) {
		t.Fatalf("expected unread_count 4, got %v", got)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/v1/notifications/n-1/read", nil))
	if res.Code != http.StatusNoContent {
		t.Fatalf("mark read expected 204, got %d", res.Code)
	}
	if len(inbox.read) != 1 || inbox.read[0] != "n-1" {
		t.Fatalf("unexpected read ids: %v", inbox.read)
	}
}

func TestRequestValidatorRejectsUnknownPriority(t *testing.T) {
	validator, err := openapi.NewValidator(context.Background())
	if err != nil {
		t.Fatalf("NewValidator() error = %v", err)
	}
	classifier := &classificationFake{}
	handler := NewRouter(config.Config{}, Services{Classifier: classifier}, WithRequestValidator(validator)).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/route", strings.NewReader(`{"doc_id":"doc-1","priority":"asap"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if classifier.routing.DocumentID != "" {
		t.Fatalf("handler must not run for invalid requests")
	}
}
