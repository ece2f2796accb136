package openapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newValidated(t *testing.T) http.Handler {
	t.Helper()
	v, err := NewValidator(context.Background())
	if err != nil {
		t.Fatalf("NewValidator() error = %v", err)
	}
	return v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestValidatorPassesDocumentedRequests(t *testing.T) {
	handler := newValidated(t)

	cases := []struct {
		name string
		req  *http.Request
	}{
		{"list with filters", httptest.NewRequest(http.MethodGet, "/v1/documents?department=hr&status=routed&limit=10", nil)},
		{"document logs", httptest.NewRequest(http.MethodGet, "/v1/documents/doc-1/logs", nil)},
		{"undocumented route", httptest.NewRequest(http.MethodGet, "/v1/unknown", nil)},
		{"route body", jsonRequest(http.MethodPost, "/v1/route", `{"doc_id":"doc-1","priority":"high"}`)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, tc.req)
			if res.Code != http.StatusNoContent {
				t.Fatalf("expected pass-through 204, got %d: %s", res.Code, res.Body.String())
			}
		})
	}
}

func TestValidatorRejectsBadParameters(t *testing.T) {
	handler := newValidated(t)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/documents?limit=lots", nil))
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-integer limit, got %d", res.Code)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/notifications/unread-count", nil))
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing recipient, got %d", res.Code)
	}
}

func TestValidatorRejectsBadJSONBody(t *testing.T) {
	handler := newValidated(t)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, jsonRequest(http.MethodPost, "/v1/route", `{"doc_id":"doc-1","priority":"whenever"}`))
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown priority, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "error") {
		t.Fatalf("expected json error body, got %s", res.Body.String())
	}
}

func TestValidatorSkipsMultipartBodies(t *testing.T) {
	handler := newValidated(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", strings.NewReader("--x--\r\n"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected multipart body left to handler, got %d", res.Code)
	}
}
