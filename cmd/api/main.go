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

	httpadapter "github.com/kirillkom/document-router/internal/adapters/http"
	"github.com/kirillkom/document-router/internal/adapters/http/openapi"
	"github.com/kirillkom/document-router/internal/bootstrap"
	"github.com/kirillkom/document-router/internal/config"
	"github.com/kirillkom/document-router/internal/observability/logging"
	"github.com/kirillkom/document-router/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics("api")
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Metrics: httpMetrics, Logger: logger})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	options := []httpadapter.Option{httpadapter.WithMetrics(httpMetrics)}
	if cfg.APIRequestValidation {
		validator, err := openapi.NewValidator(ctx)
		if err != nil {
			logger.Error("openapi_validator_failed", "error", err)
			os.Exit(1)
		}
		options = append(options, httpadapter.WithRequestValidator(validator))
	}

	router := httpadapter.NewRouter(cfg, httpadapter.Services{
		Ingestor:   app.IngestUC,
		Catalog:    app.CatalogUC,
		Reviewer:   app.ReviewUC,
		Classifier: app.Service,
		Inbox:      app.NotifyUC,
	}, options...).Handler()
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if cfg.APIRulesHotReload {
		for _, w := range bootstrap.RuleWatchers(cfg, app.Classification, nil, logger) {
			go func() {
				if err := w.Run(ctx); err != nil {
					logger.Error("rules_watch_failed", "rules", w.Name, "error", err)
				}
			}()
		}
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}
