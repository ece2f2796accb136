package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/document-router/internal/core/domain"
	"github.com/kirillkom/document-router/internal/infrastructure/resilience"
)

const (
	DefaultIngestSubject       = "documents.ingested"
	DefaultNotificationSubject = "notifications"
	workerQueueGroup           = "workers"
)

type Queue struct {
	conn                *nats.Conn
	subject             string
	notificationSubject string
	executor            *resilience.Executor
	logger              *slog.Logger
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	NotificationSubject  string
	ClientName           string
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	if subject == "" {
		subject = DefaultIngestSubject
	}
	notificationSubject := options.NotificationSubject
	if notificationSubject == "" {
		notificationSubject = DefaultNotificationSubject
	}
	clientName := options.ClientName
	if clientName == "" {
		clientName = "document-router"
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name(clientName),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:                conn,
		subject:             subject,
		notificationSubject: notificationSubject,
		executor:            options.ResilienceExecutor,
		logger:              logger,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishDocumentIngested(ctx context.Context, event domain.IngestedEvent) error {
	return q.publish(ctx, "nats.publish", q.subject, event)
}

func (q *Queue) PublishNotification(ctx context.Context, event domain.NotificationEvent) error {
	return q.publish(ctx, "nats.publish_notification", q.notificationSubject, event)
}

func (q *Queue) publish(ctx context.Context, operation, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", subject, err)
	}
	call := func(_ context.Context) error {
		if err := q.conn.Publish(subject, data); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, operation, call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

func (q *Queue) SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, domain.IngestedEvent) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, workerQueueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		event, err := decodeIngestedEvent(msg.Data)
		if err != nil {
			q.logger.Error("ingest_event_invalid", "error", err, "payload_bytes", len(msg.Data))
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, event); err != nil {
			q.logger.Error("worker_handler_failed", "doc_id", event.DocumentID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

// decodeIngestedEvent accepts the JSON event and, for older publishers, a bare document id.
func decodeIngestedEvent(data []byte) (domain.IngestedEvent, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return domain.IngestedEvent{}, fmt.Errorf("empty ingest payload")
	}
	if !strings.HasPrefix(trimmed, "{") {
		return domain.IngestedEvent{DocumentID: trimmed}, nil
	}
	var event domain.IngestedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.IngestedEvent{}, fmt.Errorf("decode ingest payload: %w", err)
	}
	if event.DocumentID == "" {
		return domain.IngestedEvent{}, fmt.Errorf("ingest payload has no doc_id")
	}
	return event, nil
}
