package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/document-router/internal/core/domain"
	"github.com/kirillkom/document-router/internal/core/ports"
)

const defaultClassifyParallelism = 4

// ClassificationUseCase runs extraction and the heuristics without persisting anything.
type ClassificationUseCase struct {
	extractor   ports.TextExtractor
	classifier  ports.DocumentClassifier
	analyzer    ports.ContentAnalyzer
	router      ports.DocumentRouter
	parallelism int
	maxBytes    int64
	now         func() time.Time
}

func NewClassificationUseCase(
	extractor ports.TextExtractor,
	classifier ports.DocumentClassifier,
	analyzer ports.ContentAnalyzer,
	router ports.DocumentRouter,
	parallelism int,
	maxBytes int64,
) *ClassificationUseCase {
	if parallelism <= 0 {
		parallelism = defaultClassifyParallelism
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &ClassificationUseCase{
		extractor:   extractor,
		classifier:  classifier,
		analyzer:    analyzer,
		router:      router,
		parallelism: parallelism,
		maxBytes:    maxBytes,
		now:         time.Now,
	}
}

func (uc *ClassificationUseCase) ClassifyFile(ctx context.Context, file ports.FileContent) (*ports.ClassifiedFile, error) {
	if strings.TrimSpace(file.Filename) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "classify file", errors.New("filename is required"))
	}
	if int64(len(file.Data)) > uc.maxBytes {
		return nil, domain.WrapError(domain.ErrPayloadTooLarge, "classify file", fmt.Errorf("%d bytes exceeds %d", len(file.Data), uc.maxBytes))
	}

	extracted, err := uc.extractor.Extract(ctx, file.Filename, file.MimeType, file.Data)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	if strings.TrimSpace(extracted.Text) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract text", errEmptyText)
	}

	cls, err := uc.classifier.Classify(ctx, domain.ClassificationInput{Filename: file.Filename, Text: extracted.Text})
	if err != nil {
		return nil, fmt.Errorf("classify document: %w", err)
	}
	analysis, err := uc.analyzer.Analyze(ctx, extracted.Text)
	if err != nil {
		return nil, fmt.Errorf("analyze content: %w", err)
	}

	return &ports.ClassifiedFile{
		Filename:       file.Filename,
		ExtractedText:  domain.TruncateText(extracted.Text, domain.MaxExtractedTextChars),
		PageCount:      extracted.PageCount,
		Classification: cls,
		Analysis:       analysis,
	}, nil
}

// ClassifyBatch classifies files concurrently. Results keep the input order and a failed
// file is reported in its own result rather than failing the batch.
func (uc *ClassificationUseCase) ClassifyBatch(ctx context.Context, files []ports.FileContent) (*ports.ClassifyBatchResult, error) {
	if len(files) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "classify batch", errors.New("at least one file is required"))
	}

	results := make([]ports.ClassifiedFile, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.parallelism)
	for i, file := range files {
		g.Go(func() error {
			classified, err := uc.ClassifyFile(gctx, file)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				results[i] = ports.ClassifiedFile{Filename: file.Filename, Error: err.Error()}
				return nil
			}
			results[i] = *classified
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	processed := 0
	for _, r := range results {
		if r.Error == "" {
			processed++
		}
	}
	return &ports.ClassifyBatchResult{
		BatchID:        fmt.Sprintf("batch_%d", uc.now().Unix()),
		TotalFiles:     len(files),
		ProcessedFiles: processed,
		Results:        results,
	}, nil
}

func (uc *ClassificationUseCase) AnalyzeText(ctx context.Context, documentID, content string) (*domain.Analysis, error) {
	if strings.TrimSpace(content) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "analyze text", errors.New("content is required"))
	}
	analysis, err := uc.analyzer.Analyze(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", documentID, err)
	}
	return &analysis, nil
}

func (uc *ClassificationUseCase) RouteDocument(ctx context.Context, req domain.RoutingRequest) (*domain.RoutingDecision, error) {
	if req.Priority == "" {
		req.Priority = domain.DefaultPriority
	}
	if _, ok := domain.ParsePriority(string(req.Priority)); !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "route document", fmt.Errorf("unknown priority %q", req.Priority))
	}
	decision, err := uc.router.Route(ctx, req)
	if err != nil {
		return nil, err
	}
	return &decision, nil
}

func (uc *ClassificationUseCase) TriggerWorkflow(_ context.Context, documentID, workflowType string) (*domain.Workflow, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "trigger workflow", errors.New("doc_id is required"))
	}
	switch workflowType {
	case "", domain.WorkflowStandard, domain.WorkflowExpedited:
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "trigger workflow", fmt.Errorf("unknown workflow type %q", workflowType))
	}
	workflow := domain.NewWorkflow(documentID, workflowType, uc.now())
	return &workflow, nil
}
