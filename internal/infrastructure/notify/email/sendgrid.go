package email

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/kirillkom/document-router/internal/core/domain"
)

type sendGridAPI interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

type SendGridSender struct {
	client   sendGridAPI
	from     string
	fromName string
}

func NewSendGridSender(apiKey, from, fromName string) *SendGridSender {
	return &SendGridSender{client: sendgrid.NewSendClient(apiKey), from: from, fromName: fromName}
}

func (s *SendGridSender) Name() string { return ProviderSendGrid }

func (s *SendGridSender) Send(ctx context.Context, msg domain.OutboundMessage) (string, error) {
	if err := validateMessage(msg); err != nil {
		return "", err
	}
	message := sgmail.NewSingleEmail(
		sgmail.NewEmail(s.fromName, s.from),
		msg.Subject,
		sgmail.NewEmail("", msg.To),
		msg.TextBody,
		msg.HTMLBody,
	)
	if msg.ReplyTo != "" {
		message.SetReplyTo(sgmail.NewEmail("", msg.ReplyTo))
	}

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return "", fmt.Errorf("sendgrid send: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", domain.WrapError(domain.ErrCredentialsRejected, "sendgrid send", fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusBadRequest:
		return "", domain.WrapError(domain.ErrInvalidInput, "sendgrid send", fmt.Errorf("status %d: %s", resp.StatusCode, resp.Body))
	case resp.StatusCode >= 300:
		return "", fmt.Errorf("sendgrid send: status %d", resp.StatusCode)
	}
	return firstHeader(resp.Headers, "X-Message-Id"), nil
}

func firstHeader(headers map[string][]string, key string) string {
	values := http.Header(headers).Values(key)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
