package mailbox

import (
	"context"
	"fmt"
	"io"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// RawMessage is a fetched message body keyed by its IMAP UID.
type RawMessage struct {
	UID  uint32
	Body []byte
}

// Mailbox is the subset of IMAP the poller needs.
type Mailbox interface {
	FetchUnseen(ctx context.Context) ([]RawMessage, error)
	MarkSeen(ctx context.Context, uids []uint32) error
	Close() error
}

type IMAPConfig struct {
	Addr     string
	Username string
	Password string
	Folder   string
}

type imapMailbox struct {
	client *client.Client
	folder string
}

// DialIMAP connects over TLS and logs in.
func DialIMAP(_ context.Context, cfg IMAPConfig) (Mailbox, error) {
	c, err := client.DialTLS(cfg.Addr, nil)
	if err != nil {
		return nil, fmt.Errorf("connect imap %s: %w", cfg.Addr, err)
	}
	if err := c.Login(cfg.Username, cfg.Password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	folder := cfg.Folder
	if folder == "" {
		folder = "INBOX"
	}
	return &imapMailbox{client: c, folder: folder}, nil
}

func (m *imapMailbox) FetchUnseen(ctx context.Context) ([]RawMessage, error) {
	if _, err := m.client.Select(m.folder, false); err != nil {
		return nil, fmt.Errorf("select mailbox %s: %w", m.folder, err)
	}
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := m.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("search unseen: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- m.client.UidFetch(seqSet, items, messages)
	}()

	out := make([]RawMessage, 0, len(uids))
	for msg := range messages {
		if ctx.Err() != nil {
			continue
		}
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			continue
		}
		out = append(out, RawMessage{UID: msg.Uid, Body: raw})
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *imapMailbox) MarkSeen(_ context.Context, uids []uint32) error {
	if len(uids) == 0 {
		return nil
	}
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := m.client.UidStore(seqSet, item, []interface{}{imap.SeenFlag}, nil); err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	return nil
}

func (m *imapMailbox) Close() error {
	return m.client.Logout()
}
