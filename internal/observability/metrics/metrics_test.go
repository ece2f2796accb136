package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/kirillkom/document-router/internal/core/domain"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/healthz":                       "/healthz",
		"/v1/documents":                  "/v1/documents",
		"/v1/documents/abc":              "/v1/documents/{id}",
		"/v1/documents/abc/logs":         "/v1/documents/{id}/logs",
		"/v1/batches/b-1":                "/v1/batches/{id}",
		"/v1/notifications/n-1/read":     "/v1/notifications/{id}/read",
		"/v1/notifications/unread-count": "/v1/notifications/unread-count",
		"/v1/classify/bulk":              "/v1/classify/bulk",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHTTPMiddlewareCountsRequests(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	for _, id := range []string{"a", "b"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/documents/"+id, nil))
	}

	got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", http.MethodGet, "/v1/documents/{id}", "202"))
	if got != 2 {
		t.Fatalf("expected 2 requests on normalised path, got %v", got)
	}
}

func TestHTTPMiddlewareUsesRoutePattern(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler { return m.Middleware("api", next) })
	r.Route("/v1", func(v chi.Router) {
		v.Post("/documents", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) })
		v.Post("/notifications/{id}/read", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	})

	upload := httptest.NewRequest(http.MethodPost, "/v1/documents", strings.NewReader(strings.Repeat("x", 2048)))
	r.ServeHTTP(httptest.NewRecorder(), upload)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/notifications/n-7/read", nil))

	if got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", http.MethodPost, "/v1/documents", "202")); got != 1 {
		t.Fatalf("expected upload counted on route pattern, got %v", got)
	}
	if got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", http.MethodPost, "/v1/notifications/{id}/read", "204")); got != 1 {
		t.Fatalf("expected mark-read counted on route pattern, got %v", got)
	}
	if got := testutil.CollectAndCount(m.uploadBytes); got != 1 {
		t.Fatalf("expected one upload size series, got %d", got)
	}
}

func TestPipelineCollectors(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.ObserveClassification(domain.Classification{
		DocType:    "invoice",
		Department: "finance",
		Priority:   domain.PriorityHigh,
		Confidence: 0.8,
		Source:     domain.SourceKeyword,
	})
	m.ObserveNotification(domain.NotificationDocumentRouted, domain.NotificationSent)
	m.ObserveNotification(domain.NotificationDocumentRouted, domain.NotificationSent)

	if got := testutil.ToFloat64(m.classificationsTotal.WithLabelValues("worker", "department", "finance")); got != 1 {
		t.Fatalf("expected one finance classification, got %v", got)
	}
	if got := testutil.ToFloat64(m.classificationsTotal.WithLabelValues("worker", "priority", "high")); got != 1 {
		t.Fatalf("expected one high priority classification, got %v", got)
	}
	if got := testutil.ToFloat64(m.notificationsTotal.WithLabelValues("worker", "document_routed", "sent")); got != 2 {
		t.Fatalf("expected two sent notifications, got %v", got)
	}
}

func TestWorkerQueueLagIgnoresNegative(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.ObserveQueueLag(-time.Second)
	m.ObserveQueueLag(time.Second)

	var out dto.Metric
	if err := m.queueLag.Write(&out); err != nil {
		t.Fatalf("write histogram: %v", err)
	}
	if got := out.GetHistogram().GetSampleCount(); got != 1 {
		t.Fatalf("expected one lag sample, got %d", got)
	}
}

func TestFinishDocumentOutcomes(t *testing.T) {
	m := NewWorkerMetrics("worker")
	errs := []error{
		nil,
		domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty")),
		domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New("d1")),
		domain.WrapError(domain.ErrTemporary, "publish", errors.New("nats down")),
		context.DeadlineExceeded,
		errors.New("boom"),
	}
	for _, err := range errs {
		m.StartDocument()
		m.FinishDocument(time.Millisecond, err)
	}

	for _, outcome := range []string{"routed", "invalid", "not_found", "temporary", "canceled", "failed"} {
		if got := testutil.ToFloat64(m.documentsTotal.WithLabelValues(outcome)); got != 1 {
			t.Fatalf("expected one %s document, got %v", outcome, got)
		}
	}
	if got := testutil.ToFloat64(m.documentsInFlight); got != 0 {
		t.Fatalf("expected nothing in flight, got %v", got)
	}
}

func TestRulesReloadCounter(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.ObserveRulesReload("routing", nil)
	m.ObserveRulesReload("routing", errors.New("bad yaml"))
	m.ObserveRulesReload("classifier", nil)

	if got := testutil.ToFloat64(m.rulesReloads.WithLabelValues("routing", "error")); got != 1 {
		t.Fatalf("expected one failed routing reload, got %v", got)
	}
	if got := testutil.CollectAndCount(m.rulesReloads); got != 3 {
		t.Fatalf("expected three reload series, got %d", got)
	}
}

func TestObserveRetryCountsByOperation(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.ObserveRetry("nats.publish", 1, errors.New("timeout"))
	m.ObserveRetry("nats.publish", 2, errors.New("timeout"))
	m.ObserveRetry("", 1, nil)

	if got := testutil.ToFloat64(m.retriesTotal.WithLabelValues("worker", "nats.publish")); got != 2 {
		t.Fatalf("expected two publish retries, got %v", got)
	}
	if got := testutil.ToFloat64(m.retriesTotal.WithLabelValues("worker", "unknown")); got != 1 {
		t.Fatalf("expected unnamed retry under unknown, got %v", got)
	}
}
