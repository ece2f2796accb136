package usecase

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kirillkom/document-router/internal/core/domain"
)

func TestCatalogStats(t *testing.T) {
	now := time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC)
	repo := newDocRepoFake()
	repo.counts = &domain.StatsCounts{
		Total:       3,
		Processed:   2,
		Pending:     1,
		Departments: map[string]int{"finance": 2, "legal": 1},
		RecentUploads: []time.Time{
			now.Add(-time.Hour),
			now.Add(-2 * time.Hour),
			now.AddDate(0, 0, -29),
		},
	}
	uc := NewCatalogUseCase(repo, &batchRepoFake{}, &logRepoFake{}, newStorageFake())
	uc.now = func() time.Time { return now }

	stats, err := uc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.ProcessingRate != 66.7 {
		t.Fatalf("expected 66.7%% processing rate, got %v", stats.ProcessingRate)
	}
	if !repo.statsSince.Equal(time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected stats window start %v", repo.statsSince)
	}
	if len(stats.UploadTrends) != domain.TrendWindowDays {
		t.Fatalf("expected %d trend points, got %d", domain.TrendWindowDays, len(stats.UploadTrends))
	}
	first, last := stats.UploadTrends[0], stats.UploadTrends[len(stats.UploadTrends)-1]
	if diff := cmp.Diff(domain.TrendPoint{Date: "2026-01-12", Count: 1}, first); diff != "" {
		t.Fatalf("first trend point mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(domain.TrendPoint{Date: "2026-02-10", Count: 2}, last); diff != "" {
		t.Fatalf("last trend point mismatch (-want +got):\n%s", diff)
	}
	if stats.DocumentTypes == nil || stats.Priorities == nil {
		t.Fatalf("count maps must never be nil")
	}
}

func TestCatalogStatsEmpty(t *testing.T) {
	repo := newDocRepoFake()
	repo.counts = &domain.StatsCounts{}
	uc := NewCatalogUseCase(repo, &batchRepoFake{}, &logRepoFake{}, newStorageFake())

	stats, err := uc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.ProcessingRate != 0 || stats.TotalDocuments != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestCatalogListNormalizesFilter(t *testing.T) {
	repo := newDocRepoFake()
	uc := NewCatalogUseCase(repo, &batchRepoFake{}, &logRepoFake{}, newStorageFake())

	if _, err := uc.ListDocuments(context.Background(), domain.DocumentFilter{Limit: 5000, Offset: -1}); err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if repo.listFilter.Limit != domain.MaxListLimit || repo.listFilter.Offset != 0 {
		t.Fatalf("filter not normalized: %+v", repo.listFilter)
	}
}

func TestCatalogOpenContent(t *testing.T) {
	doc := testDocument()
	storage := newStorageFake()
	storage.objects[doc.StoragePath] = []byte("payload")
	uc := NewCatalogUseCase(newDocRepoFake(doc), &batchRepoFake{}, &logRepoFake{}, storage)

	got, body, err := uc.OpenContent(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("OpenContent() error = %v", err)
	}
	defer body.Close()
	raw, _ := io.ReadAll(body)
	if got.Filename != "invoice.txt" || string(raw) != "payload" {
		t.Fatalf("unexpected content %q for %s", raw, got.Filename)
	}
}

func TestCatalogListLogsRequiresDocument(t *testing.T) {
	uc := NewCatalogUseCase(newDocRepoFake(), &batchRepoFake{}, &logRepoFake{}, newStorageFake())
	if _, err := uc.ListLogs(context.Background(), "missing"); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
