package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kirillkom/document-router/internal/adapters/http/openapi"
	"github.com/kirillkom/document-router/internal/config"
	"github.com/kirillkom/document-router/internal/core/ports"
	"github.com/kirillkom/document-router/internal/observability/metrics"
)

const (
	serviceName = "api"

	multipartMemory = 8 << 20
	// A batch body may carry this many maximum-size files.
	batchBodyFiles = 20
)

// Services are the inbound ports the API exposes. Nil services answer 503.
type Services struct {
	Ingestor   ports.DocumentIngestor
	Catalog    ports.DocumentCatalog
	Reviewer   ports.DocumentReviewer
	Classifier ports.ClassificationService
	Inbox      ports.NotificationInbox
}

type Router struct {
	cfg       config.Config
	services  Services
	metrics   *metrics.HTTPServerMetrics
	validator *openapi.Validator
}

type Option func(*Router)

func WithMetrics(m *metrics.HTTPServerMetrics) Option {
	return func(rt *Router) { rt.metrics = m }
}

func WithRequestValidator(v *openapi.Validator) Option {
	return func(rt *Router) { rt.validator = v }
}

func NewRouter(cfg config.Config, services Services, options ...Option) *Router {
	rt := &Router{cfg: cfg, services: services}
	for _, opt := range options {
		opt(rt)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware)
	if rt.metrics != nil {
		r.Use(func(next http.Handler) http.Handler {
			return rt.metrics.Middleware(serviceName, next)
		})
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	r.Get("/healthz", rt.healthz)
	r.Get("/ping", rt.healthz)
	r.Get("/openapi.yaml", rt.openAPIDocument)

	r.Route("/v1", func(v chi.Router) {
		v.Use(func(next http.Handler) http.Handler {
			return rateLimitMiddleware(next, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
		})
		v.Use(func(next http.Handler) http.Handler {
			return backpressureMiddleware(next, rt.cfg.APIBackpressureMaxInFlight, rt.cfg.APIBackpressureWait)
		})
		v.Use(middleware.Compress(5, "application/json"))
		if rt.validator != nil {
			v.Use(rt.validator.Middleware)
		}

		v.Route("/documents", func(d chi.Router) {
			d.Post("/", rt.uploadDocument)
			d.Get("/", rt.listDocuments)
			d.Get("/{id}", rt.getDocument)
			d.Get("/{id}/content", rt.downloadDocument)
			d.Get("/{id}/logs", rt.listProcessingLogs)
			d.Post("/{id}/review", rt.reviewDocument)
		})
		v.Post("/batches", rt.uploadBatch)
		v.Get("/batches/{id}", rt.getBatch)

		v.Post("/classify", rt.classifyFile)
		v.Post("/classify/bulk", rt.classifyFiles)
		v.Post("/analyze", rt.analyzeText)
		v.Post("/route", rt.routeDocument)
		v.Post("/workflows", rt.triggerWorkflow)

		v.Get("/departments", rt.listDepartments)
		v.Get("/priority-levels", rt.listPriorityLevels)
		v.Get("/stats", rt.stats)

		v.Get("/notifications", rt.listNotifications)
		v.Get("/notifications/unread-count", rt.countUnreadNotifications)
		v.Post("/notifications/{id}/read", rt.markNotificationRead)
	})
	return r
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) openAPIDocument(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(openapi.Document())
}

func (rt *Router) maxUploadBytes() int64 {
	if rt.cfg.MaxUploadBytes > 0 {
		return rt.cfg.MaxUploadBytes
	}
	return 10 << 20
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps domain kinds to status codes. Internal failures are logged and
// answered without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("http_handler_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		message = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": message})
}

func unavailable(w http.ResponseWriter, what string) {
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": what + " is not configured"})
}
