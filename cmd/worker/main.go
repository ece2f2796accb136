package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/document-router/internal/bootstrap"
	"github.com/kirillkom/document-router/internal/config"
	"github.com/kirillkom/document-router/internal/core/domain"
	"github.com/kirillkom/document-router/internal/infrastructure/intake/mailbox"
	"github.com/kirillkom/document-router/internal/observability/logging"
	"github.com/kirillkom/document-router/internal/observability/metrics"
)

const serviceName = "worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Metrics: workerMetrics, Logger: logger})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return serveMetrics(gctx, cfg.WorkerMetricsPort, workerMetrics.Handler(), logger)
	})
	g.Go(func() error {
		logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
		return app.Queue.SubscribeDocumentIngested(gctx, func(handlerCtx context.Context, event domain.IngestedEvent) error {
			if !event.UploadedAt.IsZero() {
				workerMetrics.ObserveQueueLag(time.Since(event.UploadedAt))
			}
			processCtx, cancel := context.WithTimeout(handlerCtx, cfg.WorkerProcessTimeout)
			defer cancel()

			workerMetrics.StartDocument()
			startedAt := time.Now()
			err := app.ProcessUC.ProcessByID(processCtx, event.DocumentID)
			workerMetrics.FinishDocument(time.Since(startedAt), err)
			return err
		})
	})

	if cfg.WorkerRulesHotReload {
		for _, w := range bootstrap.RuleWatchers(cfg, app.Classification, workerMetrics.ObserveRulesReload, logger) {
			g.Go(func() error { return w.Run(gctx) })
		}
	}

	if cfg.IMAPEnabled {
		imapCfg := mailbox.IMAPConfig{
			Addr:     cfg.IMAPAddr,
			Username: cfg.IMAPUsername,
			Password: cfg.IMAPPassword,
			Folder:   cfg.IMAPFolder,
		}
		poller := mailbox.NewPoller(func(dialCtx context.Context) (mailbox.Mailbox, error) {
			return mailbox.DialIMAP(dialCtx, imapCfg)
		}, app.IngestUC, mailbox.PollerOptions{
			Interval:         cfg.IMAPInterval,
			TargetDepartment: cfg.IMAPTargetDepartment,
			MaxBytes:         cfg.MaxUploadBytes,
			Logger:           logger,
		})
		g.Go(func() error {
			logger.Info("imap_poller_started", "addr", cfg.IMAPAddr, "folder", cfg.IMAPFolder)
			return poller.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker_stopped", "error", err)
		os.Exit(1)
	}
}

func serveMetrics(ctx context.Context, port string, handler http.Handler, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("worker_metrics_listening", "port", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
