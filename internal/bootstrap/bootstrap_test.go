package bootstrap

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/document-router/internal/config"
	"github.com/kirillkom/document-router/internal/core/domain"
	"github.com/kirillkom/document-router/internal/core/ports"
	"github.com/kirillkom/document-router/internal/infrastructure/resilience"
)

func TestNewClassificationUsesEmbeddedDefaults(t *testing.T) {
	cls, err := NewClassification(config.Config{}, nil)
	if err != nil {
		t.Fatalf("NewClassification() error = %v", err)
	}
	if cls.Classifier != ports.DocumentClassifier(cls.Keyword) {
		t.Fatalf("expected keyword classifier without LLM fallback")
	}

	result, err := cls.Service.ClassifyFile(context.Background(), ports.FileContent{
		Filename: "invoice_march.txt",
		MimeType: "text/plain",
		Data:     []byte("Invoice number 1042. Payment due within 30 days. Amount due: $1,200."),
	})
	if err != nil {
		t.Fatalf("ClassifyFile() error = %v", err)
	}
	if result.Classification.DocType != "invoice" {
		t.Fatalf("expected invoice, got %+v", result.Classification)
	}
}

func TestNewClassificationRejectsMissingRulesFile(t *testing.T) {
	_, err := NewClassification(config.Config{ClassifierRulesPath: t.TempDir() + "/missing.yaml"}, nil)
	if err == nil || !strings.Contains(err.Error(), "classifier rules") {
		t.Fatalf("expected classifier rules error, got %v", err)
	}
}

func TestNewObjectStorage(t *testing.T) {
	objects, closeFn, err := newObjectStorage(context.Background(), config.Config{StoragePath: t.TempDir()})
	if err != nil || objects == nil {
		t.Fatalf("expected local storage, got %v", err)
	}
	if closeFn != nil {
		t.Fatalf("local storage needs no close hook")
	}

	if _, _, err := newObjectStorage(context.Background(), config.Config{StorageBackend: "ftp"}); err == nil {
		t.Fatalf("expected unsupported backend error")
	}
}

type staticDirectory string

func (d staticDirectory) ManagerEmail(string) string { return string(d) }

func TestManagerDirectoryPrefersOverrides(t *testing.T) {
	dir := newManagerDirectory(map[string]string{"hr": "people@company.com"}, staticDirectory(domain.FallbackManagerMail))

	if got := dir.ManagerEmail("hr"); got != "people@company.com" {
		t.Fatalf("expected override, got %q", got)
	}
	if got := dir.ManagerEmail("legal"); got != domain.FallbackManagerMail {
		t.Fatalf("expected table fallback, got %q", got)
	}
}

type retryCounter struct{ retries []string }

func (c *retryCounter) ObserveClassification(domain.Classification) {}

func (c *retryCounter) ObserveNotification(domain.NotificationKind, domain.NotificationStatus) {}

func (c *retryCounter) ObserveRetry(operation string, _ int, _ error) {
	c.retries = append(c.retries, operation)
}

func TestObservedExecutorReportsRetries(t *testing.T) {
	cfg := config.Config{RetryMaxAttempts: 3, RetryInitialBackoff: time.Millisecond, RetryMaxBackoff: time.Millisecond}
	counter := &retryCounter{}
	exec := newObservedExecutor(cfg, resilience.ProfileGraph, counter)

	err := exec.Execute(context.Background(), "neo4j.link", func(context.Context) error {
		return errors.New("unavailable")
	}, func(error) resilience.ErrorClassification {
		return resilience.ErrorClassification{Retryable: true}
	})
	if err == nil {
		t.Fatalf("expected the last attempt's error")
	}
	if len(counter.retries) != 2 || counter.retries[0] != "neo4j.link" {
		t.Fatalf("expected two observed retries, got %v", counter.retries)
	}
}
