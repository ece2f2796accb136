package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/document-router/internal/core/domain"
)

// pipelineCollectors backs ports.PipelineMetrics for both the API and the worker.
type pipelineCollectors struct {
	service string

	classificationsTotal     *prometheus.CounterVec
	classificationConfidence *prometheus.HistogramVec
	notificationsTotal       *prometheus.CounterVec
	retriesTotal             *prometheus.CounterVec
}

func newPipelineCollectors(service string, registry *prometheus.Registry) pipelineCollectors {
	classificationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docrouter",
			Subsystem: "pipeline",
			Name:      "classifications_total",
			Help:      "Classification outcomes by axis (doc_type, department, priority) and value.",
		},
		[]string{"service", "axis", "value"},
	)
	classificationConfidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docrouter",
			Subsystem: "pipeline",
			Name:      "classification_confidence",
			Help:      "Overall classification confidence by classifier source.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"service", "source"},
	)
	notificationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docrouter",
			Subsystem: "pipeline",
			Name:      "notifications_total",
			Help:      "Notifications by kind and delivery status.",
		},
		[]string{"service", "kind", "status"},
	)

	retriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docrouter",
			Subsystem: "resilience",
			Name:      "retries_total",
			Help:      "Retried outbound calls by operation.",
		},
		[]string{"service", "operation"},
	)

	registry.MustRegister(classificationsTotal, classificationConfidence, notificationsTotal, retriesTotal)

	return pipelineCollectors{
		service:                  service,
		classificationsTotal:     classificationsTotal,
		classificationConfidence: classificationConfidence,
		notificationsTotal:       notificationsTotal,
		retriesTotal:             retriesTotal,
	}
}

func (c pipelineCollectors) ObserveClassification(cls domain.Classification) {
	c.classificationsTotal.WithLabelValues(c.service, "doc_type", labelOrUnknown(cls.DocType)).Inc()
	c.classificationsTotal.WithLabelValues(c.service, "department", labelOrUnknown(cls.Department)).Inc()
	c.classificationsTotal.WithLabelValues(c.service, "priority", labelOrUnknown(string(cls.Priority))).Inc()
	c.classificationConfidence.WithLabelValues(c.service, labelOrUnknown(cls.Source)).Observe(cls.Confidence)
}

func (c pipelineCollectors) ObserveNotification(kind domain.NotificationKind, status domain.NotificationStatus) {
	c.notificationsTotal.WithLabelValues(c.service, labelOrUnknown(string(kind)), labelOrUnknown(string(status))).Inc()
}

// ObserveRetry matches resilience.RetryObserver once bound to an operation name.
func (c pipelineCollectors) ObserveRetry(operation string, _ int, _ error) {
	c.retriesTotal.WithLabelValues(c.service, labelOrUnknown(operation)).Inc()
}

func labelOrUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
