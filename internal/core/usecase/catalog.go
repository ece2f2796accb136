package usecase

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/kirillkom/document-router/internal/core/domain"
	"github.com/kirillkom/document-router/internal/core/ports"
)

type CatalogUseCase struct {
	repo    ports.DocumentRepository
	batches ports.BatchRepository
	logs    ports.ProcessingLogRepository
	storage ports.ObjectStorage
	now     func() time.Time
}

func NewCatalogUseCase(
	repo ports.DocumentRepository,
	batches ports.BatchRepository,
	logs ports.ProcessingLogRepository,
	storage ports.ObjectStorage,
) *CatalogUseCase {
	return &CatalogUseCase{repo: repo, batches: batches, logs: logs, storage: storage, now: time.Now}
}

func (uc *CatalogUseCase) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return uc.repo.GetByID(ctx, id)
}

func (uc *CatalogUseCase) ListDocuments(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	return uc.repo.List(ctx, filter.Normalize())
}

func (uc *CatalogUseCase) OpenContent(ctx context.Context, id string) (*domain.Document, io.ReadCloser, error) {
	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	body, err := uc.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open document content: %w", err)
	}
	return doc, body, nil
}

func (uc *CatalogUseCase) ListLogs(ctx context.Context, documentID string) ([]domain.ProcessingLog, error) {
	if _, err := uc.repo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return uc.logs.ListLogs(ctx, documentID)
}

func (uc *CatalogUseCase) GetBatch(ctx context.Context, id string) (*domain.Batch, error) {
	return uc.batches.GetBatch(ctx, id)
}

func (uc *CatalogUseCase) Stats(ctx context.Context) (*domain.Stats, error) {
	today := truncateDay(uc.now().UTC())
	since := today.AddDate(0, 0, -(domain.TrendWindowDays - 1))

	counts, err := uc.repo.StatsCounts(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load stats counts: %w", err)
	}
	return buildStats(counts, since, domain.TrendWindowDays), nil
}

func buildStats(counts *domain.StatsCounts, since time.Time, days int) *domain.Stats {
	stats := &domain.Stats{
		TotalDocuments:     counts.Total,
		ProcessedDocuments: counts.Processed,
		PendingDocuments:   counts.Pending,
		ErrorDocuments:     counts.Errors,
		Departments:        nonNilCounts(counts.Departments),
		DocumentTypes:      nonNilCounts(counts.DocumentTypes),
		Priorities:         nonNilCounts(counts.Priorities),
		UploadTrends:       uploadTrend(counts.RecentUploads, since, days),
	}
	if counts.Total > 0 {
		rate := float64(counts.Processed) / float64(counts.Total) * 100
		stats.ProcessingRate = math.Round(rate*10) / 10
	}
	return stats
}

// uploadTrend buckets upload times per UTC day, oldest first, with empty days kept as zero.
func uploadTrend(uploads []time.Time, since time.Time, days int) []domain.TrendPoint {
	byDay := make(map[string]int, days)
	for _, at := range uploads {
		byDay[at.UTC().Format(time.DateOnly)]++
	}
	out := make([]domain.TrendPoint, 0, days)
	for i := 0; i < days; i++ {
		day := since.AddDate(0, 0, i).Format(time.DateOnly)
		out = append(out, domain.TrendPoint{Date: day, Count: byDay[day]})
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nonNilCounts(in map[string]int) map[string]int {
	if in == nil {
		return map[string]int{}
	}
	return in
}
