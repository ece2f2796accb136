package main

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/document-router/internal/adapters/mcp"
	"github.com/kirillkom/document-router/internal/bootstrap"
	"github.com/kirillkom/document-router/internal/config"
	"github.com/kirillkom/document-router/internal/core/ports"
	"github.com/kirillkom/document-router/internal/observability/logging"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel)

	cls, err := bootstrap.NewClassification(cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}

	// get_document needs the database; the classification tools work without it.
	var catalog ports.DocumentCatalog
	if c, closeCatalog, err := bootstrap.NewCatalog(context.Background(), cfg); err != nil {
		logger.Warn("mcp_catalog_unavailable", "error", err)
	} else {
		catalog = c
		defer closeCatalog()
	}

	s := mcpadapter.NewServer(mcpadapter.NewTools(cls.Service, catalog, logger), version)
	if err := server.ServeStdio(s); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
