// Package mcpadapter exposes classification and routing as MCP tools.
package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/document-router/internal/core/domain"
	"github.com/kirillkom/document-router/internal/core/ports"
)

const serverName = "document-router"

type Tools struct {
	classifier ports.ClassificationService
	catalog    ports.DocumentCatalog
	logger     *slog.Logger
}

// NewTools builds the tool handlers. catalog may be nil when no database is configured;
// get_document then reports an error result.
func NewTools(classifier ports.ClassificationService, catalog ports.DocumentCatalog, logger *slog.Logger) *Tools {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tools{classifier: classifier, catalog: catalog, logger: logger}
}

func NewServer(tools *Tools, version string) *server.MCPServer {
	s := server.NewMCPServer(serverName, version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("classify_text",
		mcp.WithDescription("Classify document text into type, department and priority, with content analysis."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Plain document text.")),
		mcp.WithString("filename", mcp.Description("Original filename; its keywords add to the score.")),
	), tools.ClassifyText)

	s.AddTool(mcp.NewTool("analyze_text",
		mcp.WithDescription("Extract entities, risk, sentiment, confidentiality and a summary from text."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Plain document text.")),
		mcp.WithString("doc_id", mcp.Description("Document id used for related-document lookups.")),
	), tools.AnalyzeText)

	s.AddTool(mcp.NewTool("route_document",
		mcp.WithDescription("Compute the assignee, escalation level and notification address for a classified document."),
		mcp.WithString("doc_id", mcp.Required()),
		mcp.WithString("doc_type"),
		mcp.WithString("department"),
		mcp.WithString("priority", mcp.Enum("low", "medium", "high", "urgent")),
		mcp.WithNumber("risk_score", mcp.Description("Risk score between 0 and 1.")),
	), tools.RouteDocument)

	s.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Fetch a stored document with its classification and routing."),
		mcp.WithString("id", mcp.Required()),
	), tools.GetDocument)

	return s
}

func (t *Tools) ClassifyText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename := req.GetString("filename", "input.txt")
	result, err := t.classifier.ClassifyFile(ctx, ports.FileContent{
		Filename: filename,
		MimeType: "text/plain",
		Data:     []byte(text),
	})
	return t.respond("classify_text", result, err)
}

func (t *Tools) AnalyzeText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	analysis, err := t.classifier.AnalyzeText(ctx, req.GetString("doc_id", ""), content)
	return t.respond("analyze_text", analysis, err)
}

func (t *Tools) RouteDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("doc_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	decision, err := t.classifier.RouteDocument(ctx, domain.RoutingRequest{
		DocumentID: id,
		DocType:    req.GetString("doc_type", ""),
		Department: req.GetString("department", ""),
		Priority:   domain.Priority(req.GetString("priority", "")),
		RiskScore:  req.GetFloat("risk_score", 0),
	})
	return t.respond("route_document", decision, err)
}

func (t *Tools) GetDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.catalog == nil {
		return mcp.NewToolResultError("document storage is not configured"), nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := t.catalog.GetDocument(ctx, id)
	return t.respond("get_document", doc, err)
}

// respond turns domain errors into tool errors; only unexpected failures are logged.
func (t *Tools) respond(tool string, payload any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidInput) && !errors.Is(err, domain.ErrDocumentNotFound) {
			t.logger.Error("mcp_tool_failed", "tool", tool, "error", err)
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(raw)), nil
}
