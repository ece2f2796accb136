package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/document-router/internal/config"
	"github.com/kirillkom/document-router/internal/core/ports"
	"github.com/kirillkom/document-router/internal/core/usecase"
	"github.com/kirillkom/document-router/internal/infrastructure/analyzer/content"
	"github.com/kirillkom/document-router/internal/infrastructure/classifier/fallback"
	"github.com/kirillkom/document-router/internal/infrastructure/classifier/keyword"
	"github.com/kirillkom/document-router/internal/infrastructure/extractor/multiformat"
	"github.com/kirillkom/document-router/internal/infrastructure/graph/neo4j"
	"github.com/kirillkom/document-router/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/document-router/internal/infrastructure/notify/email"
	"github.com/kirillkom/document-router/internal/infrastructure/notify/render"
	"github.com/kirillkom/document-router/internal/infrastructure/queue/nats"
	"github.com/kirillkom/document-router/internal/infrastructure/repository/sqlstore"
	"github.com/kirillkom/document-router/internal/infrastructure/resilience"
	"github.com/kirillkom/document-router/internal/infrastructure/routing/rules"
	"github.com/kirillkom/document-router/internal/infrastructure/storage/gcs"
	"github.com/kirillkom/document-router/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/document-router/internal/infrastructure/storage/s3store"
)

// Classification is the stateless part of the pipeline: extraction, heuristics and routing.
// The offline CLI and the MCP server run on it alone. Classifier is Keyword, optionally
// backed by the LLM fallback.
type Classification struct {
	Extractor  *multiformat.Extractor
	Keyword    *keyword.Classifier
	Classifier ports.DocumentClassifier
	Analyzer   *content.Analyzer
	Routing    *rules.Engine
	Service    *usecase.ClassificationUseCase
}

func NewClassification(cfg config.Config, logger *slog.Logger) (*Classification, error) {
	kwRules, err := loadKeywordRules(cfg.ClassifierRulesPath)
	if err != nil {
		return nil, err
	}
	table, err := loadRoutingTable(cfg.RoutingRulesPath)
	if err != nil {
		return nil, err
	}
	engine, err := rules.New(table)
	if err != nil {
		return nil, fmt.Errorf("init routing engine: %w", err)
	}

	kw := keyword.New(kwRules)
	var classifier ports.DocumentClassifier = kw
	if cfg.ClassifierLLMEnabled {
		client := ollama.New(cfg.OllamaURL, cfg.OllamaModel, ollama.Options{
			Timeout:            cfg.OllamaTimeout,
			ResilienceExecutor: newExecutor(cfg, resilience.ProfileLLM),
		})
		classifier = fallback.New(kw, ollama.NewClassifier(client), cfg.ClassifierLLMThreshold, logger)
	}

	extractor := multiformat.New()
	analyzer := content.New()
	return &Classification{
		Extractor:  extractor,
		Keyword:    kw,
		Classifier: classifier,
		Analyzer:   analyzer,
		Routing:    engine,
		Service: usecase.NewClassificationUseCase(
			extractor, classifier, analyzer, engine, cfg.ClassifyParallelism, cfg.MaxUploadBytes,
		),
	}, nil
}

func loadKeywordRules(path string) (*keyword.Rules, error) {
	if strings.TrimSpace(path) == "" {
		r, err := keyword.DefaultRules()
		if err != nil {
			return nil, fmt.Errorf("load default classifier rules: %w", err)
		}
		return r, nil
	}
	r, err := keyword.LoadRules(path)
	if err != nil {
		return nil, fmt.Errorf("load classifier rules: %w", err)
	}
	return r, nil
}

func loadRoutingTable(path string) (*rules.Table, error) {
	if strings.TrimSpace(path) == "" {
		t, err := rules.DefaultTable()
		if err != nil {
			return nil, fmt.Errorf("load default routing table: %w", err)
		}
		return t, nil
	}
	t, err := rules.LoadTable(path)
	if err != nil {
		return nil, fmt.Errorf("load routing table: %w", err)
	}
	return t, nil
}

type Options struct {
	Metrics ports.PipelineMetrics
	Logger  *slog.Logger
}

type App struct {
	Config config.Config
	Logger *slog.Logger

	*Classification

	Queue     *nats.Queue
	IngestUC  *usecase.IngestDocumentUseCase
	ProcessUC *usecase.ProcessDocumentUseCase
	CatalogUC *usecase.CatalogUseCase
	ReviewUC  *usecase.ReviewUseCase
	NotifyUC  *usecase.NotificationUseCase

	closers []func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Config: cfg, Logger: logger}
	if err := app.init(ctx, opts); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) init(ctx context.Context, opts Options) error {
	cfg := a.Config
	cls, err := NewClassification(cfg, a.Logger)
	if err != nil {
		return err
	}
	a.Classification = cls

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() { _ = st.db.Close() })

	objects, closeObjects, err := newObjectStorage(ctx, cfg)
	if err != nil {
		return err
	}
	if closeObjects != nil {
		a.closers = append(a.closers, closeObjects)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		NotificationSubject: cfg.NATSNotificationSubject,
		ResilienceExecutor:  newObservedExecutor(cfg, resilience.ProfileBroker, opts.Metrics),
		Logger:              a.Logger,
	})
	if err != nil {
		return fmt.Errorf("init message queue: %w", err)
	}
	a.Queue = queue
	a.closers = append(a.closers, queue.Close)

	renderer, err := render.New()
	if err != nil {
		return fmt.Errorf("init notification templates: %w", err)
	}
	sender, err := email.NewSender(email.Config{
		Provider: cfg.EmailProvider,
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
		SMTP: email.SMTPConfig{
			Host:       cfg.SMTPHost,
			Port:       cfg.SMTPPort,
			Username:   cfg.SMTPUsername,
			Password:   cfg.SMTPPassword,
			RequireTLS: cfg.SMTPRequireTLS,
		},
		SendGridAPIKey: cfg.SendGridAPIKey,
		ResendAPIKey:   cfg.ResendAPIKey,
	}, a.Logger)
	if err != nil {
		return fmt.Errorf("init email sender: %w", err)
	}

	managers := newManagerDirectory(cfg.ManagerDirectory(), cls.Routing)
	a.NotifyUC = usecase.NewNotificationUseCase(
		st.notifications, renderer, email.WithResilience(sender, newObservedExecutor(cfg, resilience.ProfileMail, opts.Metrics)), managers,
		usecase.NotificationOptions{Publisher: queue, Metrics: opts.Metrics, Logger: a.Logger},
	)

	var graph ports.DocumentGraph
	if strings.TrimSpace(cfg.Neo4jURI) != "" {
		linker, err := neo4j.New(ctx, neo4j.Options{
			URI:                cfg.Neo4jURI,
			Username:           cfg.Neo4jUsername,
			Password:           cfg.Neo4jPassword,
			Database:           cfg.Neo4jDatabase,
			MaxRelated:         cfg.Neo4jMaxRelated,
			ResilienceExecutor: newObservedExecutor(cfg, resilience.ProfileGraph, opts.Metrics),
		})
		if err != nil {
			return fmt.Errorf("init neo4j linker: %w", err)
		}
		graph = linker
		a.closers = append(a.closers, func() { _ = linker.Close(context.Background()) })
	}

	a.IngestUC = usecase.NewIngestDocumentUseCase(
		st.documents, st.batches, st.logs, objects, queue, a.NotifyUC,
		usecase.IngestOptions{MaxUploadBytes: cfg.MaxUploadBytes, Logger: a.Logger},
	)
	a.ProcessUC = usecase.NewProcessDocumentUseCase(
		st.documents, st.logs, objects, cls.Extractor, cls.Classifier, cls.Analyzer, cls.Routing,
		usecase.ProcessOptions{Notifier: a.NotifyUC, Graph: graph, Metrics: opts.Metrics, Logger: a.Logger},
	)
	a.CatalogUC = usecase.NewCatalogUseCase(st.documents, st.batches, st.logs, objects)
	a.ReviewUC = usecase.NewReviewUseCase(st.documents, a.NotifyUC, a.Logger)
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

type store struct {
	db            *sql.DB
	documents     *sqlstore.DocumentRepository
	batches       *sqlstore.BatchRepository
	logs          *sqlstore.LogRepository
	notifications *sqlstore.NotificationRepository
}

func openStore(ctx context.Context, cfg config.Config) (*store, error) {
	dialect, err := sqlstore.ParseDialect(cfg.DBDriver)
	if err != nil {
		return nil, err
	}
	db, err := sqlstore.OpenDB(ctx, dialect, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if err := sqlstore.EnsureSchema(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &store{
		db:            db,
		documents:     sqlstore.NewDocumentRepository(db, dialect),
		batches:       sqlstore.NewBatchRepository(db, dialect),
		logs:          sqlstore.NewLogRepository(db, dialect),
		notifications: sqlstore.NewNotificationRepository(db, dialect),
	}, nil
}

// NewCatalog opens only what read access needs; the MCP server uses it for get_document.
func NewCatalog(ctx context.Context, cfg config.Config) (ports.DocumentCatalog, func(), error) {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	objects, closeObjects, err := newObjectStorage(ctx, cfg)
	if err != nil {
		_ = st.db.Close()
		return nil, nil, err
	}
	closeFn := func() {
		if closeObjects != nil {
			closeObjects()
		}
		_ = st.db.Close()
	}
	return usecase.NewCatalogUseCase(st.documents, st.batches, st.logs, objects), closeFn, nil
}

func newObjectStorage(ctx context.Context, cfg config.Config) (ports.ObjectStorage, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.StorageBackend)) {
	case "", "local":
		s, err := localfs.New(cfg.StoragePath)
		if err != nil {
			return nil, nil, fmt.Errorf("init local storage: %w", err)
		}
		return s, nil, nil
	case "s3":
		s, err := s3store.New(ctx, s3store.Options{
			Bucket:       cfg.S3Bucket,
			Prefix:       cfg.S3Prefix,
			Region:       cfg.S3Region,
			Endpoint:     cfg.S3Endpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			UsePathStyle: cfg.S3UsePathStyle,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init s3 storage: %w", err)
		}
		return s, nil, nil
	case "gcs":
		s, err := gcs.New(ctx, cfg.GCSBucket, cfg.GCSPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("init gcs storage: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}

func newExecutor(cfg config.Config, profile resilience.Profile) *resilience.Executor {
	base := resilience.DefaultConfig()
	base.RetryMaxAttempts = cfg.RetryMaxAttempts
	base.RetryInitialBackoff = cfg.RetryInitialBackoff
	base.RetryMaxBackoff = cfg.RetryMaxBackoff
	base.BreakerEnabled = cfg.BreakerEnabled
	return resilience.NewExecutor(base.For(profile))
}

// retryObserver is implemented by the Prometheus metrics sets.
type retryObserver interface {
	ObserveRetry(operation string, attempt int, err error)
}

func newObservedExecutor(cfg config.Config, profile resilience.Profile, m ports.PipelineMetrics) *resilience.Executor {
	exec := newExecutor(cfg, profile)
	if o, ok := m.(retryObserver); ok {
		exec.WithRetryObserver(o.ObserveRetry)
	}
	return exec
}

// managerDirectory prefers MANAGER_EMAILS overrides over the routing table.
type managerDirectory struct {
	overrides map[string]string
	table     ports.ManagerDirectory
}

func newManagerDirectory(overrides map[string]string, table ports.ManagerDirectory) managerDirectory {
	return managerDirectory{overrides: overrides, table: table}
}

func (d managerDirectory) ManagerEmail(department string) string {
	if addr, ok := d.overrides[department]; ok {
		return addr
	}
	return d.table.ManagerEmail(department)
}
