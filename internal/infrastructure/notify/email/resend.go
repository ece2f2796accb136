package email

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/resend/resend-go/v2"

	"github.com/kirillkom/document-router/internal/core/domain"
)

type resendAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type ResendSender struct {
	emails resendAPI
	from   string
}

func NewResendSender(apiKey, from, fromName string) *ResendSender {
	client := resend.NewClient(apiKey)
	return &ResendSender{emails: client.Emails, from: formatFrom(from, fromName)}
}

func (s *ResendSender) Name() string { return ProviderResend }

func (s *ResendSender) Send(ctx context.Context, msg domain.OutboundMessage) (string, error) {
	if err := validateMessage(msg); err != nil {
		return "", err
	}
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTMLBody,
		Text:    msg.TextBody,
		ReplyTo: msg.ReplyTo,
	}
	sent, err := s.emails.SendWithContext(ctx, params)
	if err != nil {
		return "", fmt.Errorf("resend send: %w", err)
	}
	if sent == nil {
		return "", nil
	}
	return sent.Id, nil
}

func formatFrom(address, name string) string {
	if name == "" {
		return address
	}
	return (&mail.Address{Name: name, Address: address}).String()
}
