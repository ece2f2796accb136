package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/document-router/internal/core/domain"
	"github.com/kirillkom/document-router/internal/core/ports"
)

var errEmptyText = errors.New("could not extract text from document")

type ProcessDocumentUseCase struct {
	repo       ports.DocumentRepository
	storage    ports.ObjectStorage
	extractor  ports.TextExtractor
	classifier ports.DocumentClassifier
	analyzer   ports.ContentAnalyzer
	router     ports.DocumentRouter
	notifier   ports.Notifier
	graph      ports.DocumentGraph
	metrics    ports.PipelineMetrics
	steps      stepLogger
	logger     *slog.Logger
	now        func() time.Time
}

// ProcessOptions holds the collaborators the pipeline can run without.
type ProcessOptions struct {
	Notifier ports.Notifier
	Graph    ports.DocumentGraph
	Metrics  ports.PipelineMetrics
	Logger   *slog.Logger
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	logs ports.ProcessingLogRepository,
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	classifier ports.DocumentClassifier,
	analyzer ports.ContentAnalyzer,
	router ports.DocumentRouter,
	options ProcessOptions,
) *ProcessDocumentUseCase {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessDocumentUseCase{
		repo:       repo,
		storage:    storage,
		extractor:  extractor,
		classifier: classifier,
		analyzer:   analyzer,
		router:     router,
		notifier:   options.Notifier,
		graph:      options.Graph,
		metrics:    options.Metrics,
		steps:      newStepLogger(logs, logger),
		logger:     logger,
		now:        time.Now,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}
	if doc.Status == domain.StatusReviewed || doc.Status == domain.StatusArchived {
		uc.logger.Info("document_process_skipped", "doc_id", doc.ID, "status", string(doc.Status))
		return nil
	}

	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	extracted, err := uc.extract(ctx, doc)
	if err != nil {
		return uc.fail(ctx, doc.ID, domain.StepExtract, err)
	}

	cls, analysis, err := uc.classify(ctx, doc, extracted)
	if err != nil {
		return uc.fail(ctx, doc.ID, domain.StepClassify, err)
	}

	decision, err := uc.route(ctx, doc, cls, analysis)
	if err != nil {
		return uc.fail(ctx, doc.ID, domain.StepRoute, err)
	}

	uc.notify(ctx, doc, decision)
	uc.link(ctx, doc, analysis)

	uc.logger.Info("document_processed",
		"doc_id", doc.ID,
		"doc_type", cls.DocType,
		"department", decision.Department,
		"assignee", decision.Assignee,
		"priority", string(decision.Priority),
	)
	return nil
}

func (uc *ProcessDocumentUseCase) extract(ctx context.Context, doc *domain.Document) (ports.ExtractedText, error) {
	body, err := uc.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return ports.ExtractedText{}, fmt.Errorf("open stored document: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return ports.ExtractedText{}, fmt.Errorf("read stored document: %w", err)
	}

	extracted, err := uc.extractor.Extract(ctx, doc.Filename, doc.MimeType, data)
	if err != nil {
		return ports.ExtractedText{}, fmt.Errorf("extract text: %w", err)
	}
	if strings.TrimSpace(extracted.Text) == "" {
		return ports.ExtractedText{}, domain.WrapError(domain.ErrInvalidInput, "extract text", errEmptyText)
	}

	uc.steps.completed(ctx, doc.ID, domain.StepExtract, map[string]any{
		"page_count": extracted.PageCount,
		"chars":      len([]rune(extracted.Text)),
	})
	return extracted, nil
}

func (uc *ProcessDocumentUseCase) classify(
	ctx context.Context,
	doc *domain.Document,
	extracted ports.ExtractedText,
) (domain.Classification, domain.Analysis, error) {
	cls, err := uc.classifier.Classify(ctx, domain.ClassificationInput{Filename: doc.Filename, Text: extracted.Text})
	if err != nil {
		return domain.Classification{}, domain.Analysis{}, fmt.Errorf("classify document: %w", err)
	}
	if uc.metrics != nil {
		uc.metrics.ObserveClassification(cls)
	}
	uc.steps.completed(ctx, doc.ID, domain.StepClassify, map[string]any{
		"doc_type":   cls.DocType,
		"department": cls.Department,
		"priority":   string(cls.Priority),
		"confidence": cls.Confidence,
		"source":     cls.Source,
	})

	analysis, err := uc.analyzer.Analyze(ctx, extracted.Text)
	if err != nil {
		uc.steps.failed(ctx, doc.ID, domain.StepAnalyze, err)
		return domain.Classification{}, domain.Analysis{}, fmt.Errorf("analyze content: %w", err)
	}
	uc.steps.completed(ctx, doc.ID, domain.StepAnalyze, map[string]any{
		"risk_score":      analysis.RiskScore,
		"sentiment":       string(analysis.Sentiment.Label),
		"confidentiality": string(analysis.Confidentiality.Level),
		"word_count":      analysis.WordCount,
	})

	text := domain.TruncateText(extracted.Text, domain.MaxExtractedTextChars)
	if err := uc.repo.SaveClassification(ctx, doc.ID, cls, text, extracted.PageCount); err != nil {
		return domain.Classification{}, domain.Analysis{}, fmt.Errorf("save classification: %w", err)
	}
	if err := uc.repo.SaveAnalysis(ctx, doc.ID, analysis); err != nil {
		return domain.Classification{}, domain.Analysis{}, fmt.Errorf("save analysis: %w", err)
	}
	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusClassified, ""); err != nil {
		return domain.Classification{}, domain.Analysis{}, fmt.Errorf("set status=classified: %w", err)
	}

	doc.ApplyClassification(cls)
	doc.ExtractedText = text
	doc.PageCount = extracted.PageCount
	doc.Analysis = &analysis
	return cls, analysis, nil
}

func (uc *ProcessDocumentUseCase) route(
	ctx context.Context,
	doc *domain.Document,
	cls domain.Classification,
	analysis domain.Analysis,
) (domain.RoutingDecision, error) {
	decision, err := uc.router.Route(ctx, domain.RoutingRequest{
		DocumentID:       doc.ID,
		DocType:          cls.DocType,
		Department:       doc.RoutingDepartment(),
		Priority:         cls.Priority,
		RiskScore:        analysis.RiskScore,
		DepartmentPinned: doc.TargetDepartment != "",
	})
	if err != nil {
		return domain.RoutingDecision{}, fmt.Errorf("route document: %w", err)
	}
	workflow := domain.NewWorkflow(doc.ID, domain.WorkflowTypeForLevel(decision.EscalationLevel), uc.now())
	decision.Workflow = &workflow

	if err := uc.repo.SaveAssignment(ctx, doc.ID, decision); err != nil {
		return domain.RoutingDecision{}, fmt.Errorf("save assignment: %w", err)
	}
	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusRouted, ""); err != nil {
		return domain.RoutingDecision{}, fmt.Errorf("set status=routed: %w", err)
	}
	uc.steps.completed(ctx, doc.ID, domain.StepRoute, map[string]any{
		"assignee":         decision.Assignee,
		"department":       decision.Department,
		"escalation_level": decision.EscalationLevel,
		"matched_rule":     decision.MatchedRule,
		"workflow_id":      workflow.ID,
	})

	doc.Assignment = &decision
	doc.Priority = decision.Priority
	doc.Status = domain.StatusRouted
	return decision, nil
}

func (uc *ProcessDocumentUseCase) notify(ctx context.Context, doc *domain.Document, decision domain.RoutingDecision) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.NotifyDocumentRouted(ctx, doc, decision); err != nil {
		uc.steps.failed(ctx, doc.ID, domain.StepNotify, err)
		uc.logger.Warn("routing_notification_failed", "doc_id", doc.ID, "recipient", decision.NotifyEmail, "error", err)
		return
	}
	uc.steps.completed(ctx, doc.ID, domain.StepNotify, map[string]any{"recipient": decision.NotifyEmail})
}

func (uc *ProcessDocumentUseCase) link(ctx context.Context, doc *domain.Document, analysis domain.Analysis) {
	if uc.graph == nil {
		return
	}
	related, err := uc.graph.LinkDocument(ctx, doc, analysis.Entities.Flatten())
	if err != nil {
		uc.steps.failed(ctx, doc.ID, domain.StepLink, err)
		uc.logger.Warn("document_link_failed", "doc_id", doc.ID, "error", err)
		return
	}
	if len(related) > 0 {
		analysis.RelatedDocuments = related
		if err := uc.repo.SaveAnalysis(ctx, doc.ID, analysis); err != nil {
			uc.steps.failed(ctx, doc.ID, domain.StepLink, err)
			uc.logger.Warn("related_documents_save_failed", "doc_id", doc.ID, "error", err)
			return
		}
	}
	uc.steps.completed(ctx, doc.ID, domain.StepLink, map[string]any{"related": len(related)})
}

func (uc *ProcessDocumentUseCase) fail(ctx context.Context, documentID string, step domain.ProcessingStep, processErr error) error {
	uc.steps.failed(ctx, documentID, step, processErr)
	message := processErr.Error()
	if errors.Is(processErr, errEmptyText) {
		message = errEmptyText.Error()
	}
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, message); err != nil {
		return fmt.Errorf("%w; mark failed status: %v", processErr, err)
	}
	return processErr
}
