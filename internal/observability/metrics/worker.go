package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/document-router/internal/core/domain"
)

// WorkerMetrics covers the queue consumer and the background jobs supervised next to it.
type WorkerMetrics struct {
	registry *prometheus.Registry

	documentsTotal    *prometheus.CounterVec
	documentDuration  *prometheus.HistogramVec
	documentsInFlight prometheus.Gauge
	queueLag          prometheus.Histogram
	rulesReloads      *prometheus.CounterVec

	pipelineCollectors
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "docrouter",
			Subsystem:   "worker",
			Name:        "documents_processed_total",
			Help:        "Documents taken off the queue by outcome (routed, invalid, not_found, temporary, canceled, failed).",
			ConstLabels: constLabels,
		},
		[]string{"outcome"},
	)
	documentDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "docrouter",
			Subsystem:   "worker",
			Name:        "document_pipeline_seconds",
			Help:        "Extract, classify, analyze and route duration by outcome.",
			Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
			ConstLabels: constLabels,
		},
		[]string{"outcome"},
	)
	documentsInFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "docrouter",
		Subsystem:   "worker",
		Name:        "documents_in_flight",
		Help:        "Documents currently in the pipeline.",
		ConstLabels: constLabels,
	})
	queueLag := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   "docrouter",
		Subsystem:   "worker",
		Name:        "ingest_lag_seconds",
		Help:        "Delay between upload and the worker picking the document up.",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		ConstLabels: constLabels,
	})
	rulesReloads := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "docrouter",
			Subsystem:   "worker",
			Name:        "rules_reloads_total",
			Help:        "Hot reloads of rule files by file and result.",
			ConstLabels: constLabels,
		},
		[]string{"rules", "result"},
	)

	registry.MustRegister(documentsTotal, documentDuration, documentsInFlight, queueLag, rulesReloads)

	return &WorkerMetrics{
		registry:          registry,
		documentsTotal:    documentsTotal,
		documentDuration:  documentDuration,
		documentsInFlight: documentsInFlight,
		queueLag:          queueLag,
		rulesReloads:      rulesReloads,

		pipelineCollectors: newPipelineCollectors(service, registry),
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartDocument() {
	m.documentsInFlight.Inc()
}

func (m *WorkerMetrics) FinishDocument(duration time.Duration, err error) {
	m.documentsInFlight.Dec()
	outcome := processOutcome(err)
	m.documentsTotal.WithLabelValues(outcome).Inc()
	m.documentDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveQueueLag ignores negative lag from skewed publisher clocks.
func (m *WorkerMetrics) ObserveQueueLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.Observe(lag.Seconds())
}

func (m *WorkerMetrics) ObserveRulesReload(rules string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.rulesReloads.WithLabelValues(rules, result).Inc()
}

func processOutcome(err error) string {
	if err == nil {
		return "routed"
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	switch domain.KindOf(err) {
	case domain.ErrInvalidInput, domain.ErrPayloadTooLarge:
		return "invalid"
	case domain.ErrDocumentNotFound:
		return "not_found"
	case domain.ErrTemporary:
		return "temporary"
	default:
		return "failed"
	}
}
