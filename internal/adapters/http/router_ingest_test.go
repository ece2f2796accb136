package httpadapter

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/document-router/internal/config"
	"github.com/kirillkom/document-router/internal/core/domain"
)

type formFile struct {
	field, name, content string
}

func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("WriteField() error = %v", err)
		}
	}
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		if _, err := part.Write([]byte(f.content)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestHealthzEndpoint(t *testing.T) {
	handler := newTestHandler(config.Config{})
	for _, path := range []string{"/healthz", "/ping"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)

		if res.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, res.Code)
		}
		if res.Header().Get(requestIDHeader) == "" {
			t.Fatalf("%s: expected request id header", path)
		}
	}
}

func TestUploadDocumentSuccess(t *testing.T) {
	ingest := &ingestFake{}
	handler := NewRouter(config.Config{}, Services{Ingestor: ingest}).Handler()

	body, contentType := multipartBody(t, map[string]string{
		"target_department": "legal",
		"uploader_name":     "Ann",
		"uploader_email":    "ann@company.com",
	}, formFile{"file", "file.txt", "hello"})

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", res.Code)
	}
	docResp := decodeBody(t, res)
	if docResp["id"] != "doc-1" || docResp["target_department"] != "legal" {
		t.Fatalf("unexpected response: %+v", docResp)
	}
	if len(ingest.uploads) != 1 {
		t.Fatalf("expected one upload, got %d", len(ingest.uploads))
	}
	got := ingest.uploads[0]
	if got.Filename != "file.txt" || got.UploaderEmail != "ann@company.com" || got.Size != 5 {
		t.Fatalf("unexpected upload request: %+v", got)
	}
	if ingest.contents[0] != "hello" {
		t.Fatalf("expected streamed body, got %q", ingest.contents[0])
	}
}

func TestUploadDocumentMissingMultipartField(t *testing.T) {
	handler := newTestHandler(config.Config{})

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", bytes.NewBufferString("plain-text"))
	req.Header.Set("Content-Type", "text/plain")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestUploadDocumentTooLargeMapsTo413(t *testing.T) {
	handler := NewRouter(config.Config{}, Services{
		Ingestor: &ingestFake{err: domain.WrapError(domain.ErrPayloadTooLarge, "upload", errors.New("File too large"))},
	}).Handler()

	body, contentType := multipartBody(t, nil, formFile{"file", "big.pdf", "%PDF"})
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", res.Code)
	}
}

func TestUploadBatchPassesFilesInOrder(t *testing.T) {
	ingest := &ingestFake{}
	handler := NewRouter(config.Config{}, Services{Ingestor: ingest}).Handler()

	body, contentType := multipartBody(t, map[string]string{
		"batch_name":        "Q3 invoices",
		"target_department": "finance",
	}, formFile{"files", "a.txt", "first"}, formFile{"files", "b.txt", "second"})

	req := httptest.NewRequest(http.MethodPost, "/v1/batches", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	resp := decodeBody(t, res)
	if resp["batch_id"] != "batch-1" || resp["total_files"] != float64(2) {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if ingest.bulk == nil || ingest.bulk.BatchName != "Q3 invoices" || ingest.bulk.TargetDepartment != "finance" {
		t.Fatalf("unexpected bulk request: %+v", ingest.bulk)
	}
	if len(ingest.contents) != 2 || ingest.contents[0] != "first" || ingest.contents[1] != "second" {
		t.Fatalf("expected files in upload order, got %v", ingest.contents)
	}
}
