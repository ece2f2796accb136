package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/kirillkom/document-router/internal/core/domain"
)

type SMTPSender struct {
	config   SMTPConfig
	from     string
	fromName string
	now      func() time.Time
}

func NewSMTPSender(cfg SMTPConfig, from, fromName string) *SMTPSender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPSender{config: cfg, from: from, fromName: fromName, now: time.Now}
}

func (s *SMTPSender) Name() string { return ProviderSMTP }

func (s *SMTPSender) Send(ctx context.Context, msg domain.OutboundMessage) (string, error) {
	if err := validateMessage(msg); err != nil {
		return "", err
	}
	body, messageID, err := buildMIME(s.from, s.fromName, msg, s.now())
	if err != nil {
		return "", fmt.Errorf("compose smtp message: %w", err)
	}
	if err := s.deliver(ctx, msg.To, body); err != nil {
		return "", err
	}
	return messageID, nil
}

func (s *SMTPSender) deliver(ctx context.Context, to string, body []byte) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.config.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	} else if s.config.RequireTLS || s.config.Username != "" {
		return domain.WrapError(domain.ErrInvalidInput, "smtp starttls", errors.New("server does not offer STARTTLS"))
	}

	if s.config.Username != "" {
		auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
		if err := client.Auth(auth); err != nil {
			return sanitizeSMTPError(err)
		}
	}
	if err := client.Mail(s.from); err != nil {
		return fmt.Errorf("smtp sender rejected: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp recipient rejected: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp finalize: %w", err)
	}
	return client.Quit()
}

// sanitizeSMTPError keeps credentials and server banners out of stored notification errors.
func sanitizeSMTPError(err error) error {
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "auth") || strings.Contains(lower, "535") {
		return domain.WrapError(domain.ErrCredentialsRejected, "smtp auth", errors.New("authentication failed"))
	}
	return fmt.Errorf("smtp auth: %w", err)
}

// buildMIME renders a multipart/alternative message and returns it with its Message-Id.
func buildMIME(from, fromName string, msg domain.OutboundMessage, now time.Time) ([]byte, string, error) {
	var h mail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*mail.Address{{Name: fromName, Address: from}})
	h.SetAddressList("To", []*mail.Address{{Address: msg.To}})
	if msg.ReplyTo != "" {
		h.SetAddressList("Reply-To", []*mail.Address{{Address: msg.ReplyTo}})
	}
	h.SetSubject(msg.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, "", err
	}
	messageID, err := h.MessageID()
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, "", err
	}
	tw, err := mw.CreateInline()
	if err != nil {
		return nil, "", err
	}
	if err := writeInlinePart(tw, "text/plain", msg.TextBody); err != nil {
		return nil, "", err
	}
	if msg.HTMLBody != "" {
		if err := writeInlinePart(tw, "text/html", msg.HTMLBody); err != nil {
			return nil, "", err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), messageID, nil
}

func writeInlinePart(tw *mail.InlineWriter, contentType, body string) error {
	var ph mail.InlineHeader
	ph.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	w, err := tw.CreatePart(ph)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, body); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
