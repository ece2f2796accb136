package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/kirillkom/document-router/internal/core/domain"
	"github.com/kirillkom/document-router/internal/core/ports"
	"github.com/kirillkom/document-router/internal/infrastructure/resilience"
)

const (
	ProviderLog      = "log"
	ProviderSMTP     = "smtp"
	ProviderSendGrid = "sendgrid"
	ProviderResend   = "resend"
)

var errInvalidAddress = errors.New("invalid email address")

type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	RequireTLS bool
}

type Config struct {
	Provider       string
	From           string
	FromName       string
	SMTP           SMTPConfig
	SendGridAPIKey string
	ResendAPIKey   string
}

// NewSender builds the provider named by cfg.Provider. An empty provider logs messages only.
func NewSender(cfg Config, logger *slog.Logger) (ports.MailSender, error) {
	if logger == nil {
		logger = slog.Default()
	}
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" || provider == ProviderLog {
		return NewLogSender(logger), nil
	}
	if err := ValidateAddress(cfg.From); err != nil {
		return nil, fmt.Errorf("email sender: %w", err)
	}

	switch provider {
	case ProviderSMTP:
		if cfg.SMTP.Host == "" {
			return nil, fmt.Errorf("email sender: SMTP_HOST is required for smtp provider")
		}
		return NewSMTPSender(cfg.SMTP, cfg.From, cfg.FromName), nil
	case ProviderSendGrid:
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("email sender: SENDGRID_API_KEY is required for sendgrid provider")
		}
		return NewSendGridSender(cfg.SendGridAPIKey, cfg.From, cfg.FromName), nil
	case ProviderResend:
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("email sender: RESEND_API_KEY is required for resend provider")
		}
		return NewResendSender(cfg.ResendAPIKey, cfg.From, cfg.FromName), nil
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.Provider)
	}
}

// ValidateAddress rejects header injection characters and anything net/mail cannot parse.
func ValidateAddress(address string) error {
	if strings.TrimSpace(address) == "" {
		return fmt.Errorf("%w: empty", errInvalidAddress)
	}
	if strings.ContainsAny(address, "\r\n,;") {
		return fmt.Errorf("%w: contains invalid characters", errInvalidAddress)
	}
	if _, err := mail.ParseAddress(address); err != nil {
		return fmt.Errorf("%w: %v", errInvalidAddress, err)
	}
	return nil
}

func validateMessage(msg domain.OutboundMessage) error {
	if err := ValidateAddress(msg.To); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "validate recipient", err)
	}
	if msg.ReplyTo != "" {
		if err := ValidateAddress(msg.ReplyTo); err != nil {
			return domain.WrapError(domain.ErrInvalidInput, "validate reply-to", err)
		}
	}
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return domain.WrapError(domain.ErrInvalidInput, "validate subject", errors.New("subject contains line breaks"))
	}
	return nil
}

type resilientSender struct {
	next     ports.MailSender
	executor *resilience.Executor
}

// WithResilience routes Send through the executor. Invalid messages are never retried.
func WithResilience(next ports.MailSender, executor *resilience.Executor) ports.MailSender {
	if executor == nil {
		return next
	}
	return &resilientSender{next: next, executor: executor}
}

func (s *resilientSender) Name() string { return s.next.Name() }

func (s *resilientSender) Send(ctx context.Context, msg domain.OutboundMessage) (string, error) {
	id, err := resilience.Do(ctx, s.executor, "email."+s.next.Name(), func(ctx context.Context) (string, error) {
		return s.next.Send(ctx, msg)
	}, classifySendError)
	if err != nil && resilience.IsCircuitOpen(err) {
		return "", domain.WrapError(domain.ErrTemporary, "email send", err)
	}
	return id, err
}

func classifySendError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{}
	case domain.IsKind(err, domain.ErrInvalidInput), domain.IsKind(err, domain.ErrCredentialsRejected):
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	default:
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
}

type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Name() string { return ProviderLog }

func (s *LogSender) Send(ctx context.Context, msg domain.OutboundMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateMessage(msg); err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "email_logged",
		"to", msg.To,
		"reply_to", msg.ReplyTo,
		"subject", msg.Subject,
		"body_bytes", len(msg.TextBody)+len(msg.HTMLBody),
	)
	return "", nil
}
