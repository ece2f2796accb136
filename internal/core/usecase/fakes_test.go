package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/kirillkom/document-router/internal/core/domain"
	"github.com/kirillkom/document-router/internal/core/ports"
)

type statusCall struct {
	status domain.DocumentStatus
	errMsg string
}

type docRepoFake struct {
	mu          sync.Mutex
	docs        map[string]*domain.Document
	statusCalls []statusCall
	reviews     []domain.Review
	createErr   error
	getErr      error
	saveErr     error
	counts      *domain.StatsCounts
	statsSince  time.Time
	listFilter  domain.DocumentFilter
}

func newDocRepoFake(docs ...*domain.Document) *docRepoFake {
	f := &docRepoFake{docs: map[string]*domain.Document{}}
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return f
}

func (f *docRepoFake) Create(_ context.Context, doc *domain.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	copyDoc := *doc
	f.docs[doc.ID] = &copyDoc
	return nil
}

func (f *docRepoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New(id))
	}
	copyDoc := *doc
	return &copyDoc, nil
}

func (f *docRepoFake) List(_ context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	f.listFilter = filter
	out := make([]domain.Document, 0, len(f.docs))
	for _, d := range f.docs {
		out = append(out, *d)
	}
	return out, nil
}

func (f *docRepoFake) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	if doc, ok := f.docs[id]; ok {
		doc.Status = status
		doc.Error = errMessage
	}
	return nil
}

func (f *docRepoFake) SaveClassification(_ context.Context, id string, cls domain.Classification, text string, pages int) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	doc := f.docs[id]
	doc.ApplyClassification(cls)
	doc.ExtractedText = text
	doc.PageCount = pages
	return nil
}

func (f *docRepoFake) SaveAnalysis(_ context.Context, id string, analysis domain.Analysis) error {
	f.docs[id].Analysis = &analysis
	return nil
}

func (f *docRepoFake) SaveAssignment(_ context.Context, id string, decision domain.RoutingDecision) error {
	f.docs[id].Assignment = &decision
	f.docs[id].Priority = decision.Priority
	return nil
}

func (f *docRepoFake) SaveReview(_ context.Context, review domain.Review) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.reviews = append(f.reviews, review)
	doc := f.docs[review.DocumentID]
	doc.ReviewStatus = review.Status
	doc.Status = domain.StatusReviewed
	return nil
}

func (f *docRepoFake) StatsCounts(_ context.Context, since time.Time) (*domain.StatsCounts, error) {
	f.statsSince = since
	return f.counts, nil
}

func (f *docRepoFake) statuses() []domain.DocumentStatus {
	out := make([]domain.DocumentStatus, 0, len(f.statusCalls))
	for _, c := range f.statusCalls {
		out = append(out, c.status)
	}
	return out
}

type batchRepoFake struct {
	created   *domain.Batch
	completed *domain.Batch
}

func (f *batchRepoFake) CreateBatch(_ context.Context, batch *domain.Batch) error {
	copyBatch := *batch
	f.created = &copyBatch
	return nil
}

func (f *batchRepoFake) CompleteBatch(_ context.Context, batch *domain.Batch) error {
	copyBatch := *batch
	f.completed = &copyBatch
	return nil
}

func (f *batchRepoFake) GetBatch(_ context.Context, id string) (*domain.Batch, error) {
	if f.completed != nil && f.completed.ID == id {
		return f.completed, nil
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get batch", errors.New(id))
}

type logRepoFake struct {
	mu      sync.Mutex
	entries []domain.ProcessingLog
}

func (f *logRepoFake) AppendLog(_ context.Context, entry *domain.ProcessingLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *logRepoFake) ListLogs(_ context.Context, documentID string) ([]domain.ProcessingLog, error) {
	var out []domain.ProcessingLog
	for _, e := range f.entries {
		if e.DocumentID == documentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *logRepoFake) steps(status domain.StepStatus) []domain.ProcessingStep {
	var out []domain.ProcessingStep
	for _, e := range f.entries {
		if e.Status == status {
			out = append(out, e.Step)
		}
	}
	return out
}

type storageFake struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newStorageFake() *storageFake {
	return &storageFake{objects: map[string][]byte{}}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.objects[key] = raw
	f.mu.Unlock()
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := f.objects[key]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "open object", errors.New(key))
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

type queueFake struct {
	mu     sync.Mutex
	events []domain.IngestedEvent
	err    error
}

func (f *queueFake) PublishDocumentIngested(_ context.Context, event domain.IngestedEvent) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.events = append(f.events, event)
	f.mu.Unlock()
	return nil
}

func (f *queueFake) SubscribeDocumentIngested(context.Context, func(context.Context, domain.IngestedEvent) error) error {
	return errors.New("not implemented")
}

type notifierFake struct {
	routed        []domain.RoutingDecision
	batches       []int
	confirmations int
	reviews       []domain.Review
	err           error
}

func (f *notifierFake) NotifyDocumentRouted(_ context.Context, _ *domain.Document, decision domain.RoutingDecision) error {
	f.routed = append(f.routed, decision)
	return f.err
}

func (f *notifierFake) NotifyBatchUploaded(_ context.Context, _ *domain.Batch, docs []domain.Document) error {
	f.batches = append(f.batches, len(docs))
	return f.err
}

func (f *notifierFake) NotifyUploadConfirmation(context.Context, *domain.Batch) error {
	f.confirmations++
	return f.err
}

func (f *notifierFake) NotifyReviewCompleted(_ context.Context, _ *domain.Document, review domain.Review) error {
	f.reviews = append(f.reviews, review)
	return f.err
}

type extractorFake struct {
	text  string
	pages int
	err   error
}

func (f *extractorFake) Extract(_ context.Context, filename, _ string, data []byte) (ports.ExtractedText, error) {
	if f.err != nil {
		return ports.ExtractedText{}, f.err
	}
	if f.text == "" && len(data) > 0 {
		return ports.ExtractedText{Text: string(data), PageCount: 1}, nil
	}
	return ports.ExtractedText{Text: f.text, PageCount: f.pages}, nil
}

type classifierFake struct {
	cls domain.Classification
	err error
}

func (f *classifierFake) Classify(context.Context, domain.ClassificationInput) (domain.Classification, error) {
	if f.err != nil {
		return domain.Classification{}, f.err
	}
	return f.cls, nil
}

type analyzerFake struct {
	analysis domain.Analysis
	err      error
}

func (f *analyzerFake) Analyze(context.Context, string) (domain.Analysis, error) {
	if f.err != nil {
		return domain.Analysis{}, f.err
	}
	return f.analysis, nil
}

type routerFake struct {
	requests []domain.RoutingRequest
	decision domain.RoutingDecision
	err      error
}

func (f *routerFake) Route(_ context.Context, req domain.RoutingRequest) (domain.RoutingDecision, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return domain.RoutingDecision{}, f.err
	}
	out := f.decision
	out.DocumentID = req.DocumentID
	return out, nil
}

type graphFake struct {
	entities []string
	related  []string
	err      error
}

func (f *graphFake) LinkDocument(_ context.Context, _ *domain.Document, entities []string) ([]string, error) {
	f.entities = entities
	return f.related, f.err
}

type metricsFake struct {
	classifications int
	notifications   []domain.NotificationStatus
}

func (f *metricsFake) ObserveClassification(domain.Classification) { f.classifications++ }

func (f *metricsFake) ObserveNotification(_ domain.NotificationKind, status domain.NotificationStatus) {
	f.notifications = append(f.notifications, status)
}
