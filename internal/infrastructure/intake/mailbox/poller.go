// Package mailbox turns email attachments from an IMAP folder into uploads.
package mailbox

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kirillkom/document-router/internal/core/domain"
	"github.com/kirillkom/document-router/internal/core/ports"
)

type Dialer func(ctx context.Context) (Mailbox, error)

type PollerOptions struct {
	Interval         time.Duration
	TargetDepartment string
	MaxBytes         int64
	Logger           *slog.Logger
}

type Poller struct {
	dial     Dialer
	ingestor ports.DocumentIngestor
	opts     PollerOptions
	logger   *slog.Logger
}

func NewPoller(dial Dialer, ingestor ports.DocumentIngestor, opts PollerOptions) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 10 << 20
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{dial: dial, ingestor: ingestor, opts: opts, logger: logger}
}

// Run polls until ctx is cancelled. Poll failures are logged, not returned.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()
	for {
		if _, err := p.PollOnce(ctx); err != nil && ctx.Err() == nil {
			p.logger.Error("mailbox_poll_failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// PollOnce uploads every attachment of every unseen message and returns the
// number of documents created. Messages whose uploads failed transiently stay
// unseen so the next poll retries them.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	box, err := p.dial(ctx)
	if err != nil {
		return 0, err
	}
	defer box.Close()

	raws, err := box.FetchUnseen(ctx)
	if err != nil {
		return 0, err
	}

	uploaded := 0
	var done []uint32
	for _, raw := range raws {
		msg, err := ParseMessage(raw.UID, bytes.NewReader(raw.Body), p.opts.MaxBytes)
		if err != nil {
			p.logger.Warn("mailbox_message_unreadable", "uid", raw.UID, "error", err)
			done = append(done, raw.UID)
			continue
		}
		n, retry := p.ingest(ctx, msg)
		uploaded += n
		if !retry {
			done = append(done, raw.UID)
		}
	}

	if err := box.MarkSeen(ctx, done); err != nil {
		return uploaded, err
	}
	if uploaded > 0 {
		p.logger.Info("mailbox_poll_completed", "messages", len(raws), "documents", uploaded)
	}
	return uploaded, nil
}

func (p *Poller) ingest(ctx context.Context, msg Message) (int, bool) {
	for _, name := range msg.Skipped {
		p.logger.Warn("mailbox_attachment_too_large", "uid", msg.UID, "filename", name)
	}
	uploaded := 0
	retry := false
	for _, att := range msg.Attachments {
		_, err := p.ingestor.Upload(ctx, ports.UploadRequest{
			Filename:         att.Filename,
			MimeType:         att.MimeType,
			Size:             int64(len(att.Data)),
			Body:             bytes.NewReader(att.Data),
			TargetDepartment: p.opts.TargetDepartment,
			UploaderName:     msg.FromName,
			UploaderEmail:    msg.From,
		})
		switch {
		case err == nil:
			uploaded++
		case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrPayloadTooLarge):
			p.logger.Warn("mailbox_attachment_rejected", "uid", msg.UID, "filename", att.Filename, "error", err)
		default:
			retry = true
			p.logger.Error("mailbox_attachment_upload_failed", "uid", msg.UID, "filename", att.Filename, "error", err)
		}
	}
	return uploaded, retry
}
