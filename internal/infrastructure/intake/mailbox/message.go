package mailbox

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

type Attachment struct {
	Filename string
	MimeType string
	Data     []byte
}

// Message is an inbound email reduced to its sender and file attachments.
type Message struct {
	UID         uint32
	From        string
	FromName    string
	Subject     string
	Attachments []Attachment
	Skipped     []string
}

// ParseMessage reads an RFC 5322 message and collects attachment parts.
// Attachments larger than maxBytes are reported in Skipped instead.
func ParseMessage(uid uint32, raw io.Reader, maxBytes int64) (Message, error) {
	mr, err := mail.CreateReader(raw)
	if err != nil {
		return Message{}, fmt.Errorf("read message: %w", err)
	}
	defer mr.Close()

	msg := Message{UID: uid}
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		msg.From = strings.ToLower(from[0].Address)
		msg.FromName = from[0].Name
	}
	if subject, err := mr.Header.Subject(); err == nil {
		msg.Subject = subject
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return msg, fmt.Errorf("read message part: %w", err)
		}
		h, ok := part.Header.(*mail.AttachmentHeader)
		if !ok {
			continue
		}
		filename, _ := h.Filename()
		if strings.TrimSpace(filename) == "" {
			continue
		}
		contentType, _, _ := h.ContentType()

		var buf bytes.Buffer
		n, err := io.Copy(&buf, io.LimitReader(part.Body, maxBytes+1))
		if err != nil {
			return msg, fmt.Errorf("read attachment %s: %w", filename, err)
		}
		if n > maxBytes {
			msg.Skipped = append(msg.Skipped, filename)
			continue
		}
		if contentType == "" {
			contentType = mime.TypeByExtension(filenameExt(filename))
		}
		msg.Attachments = append(msg.Attachments, Attachment{Filename: filename, MimeType: contentType, Data: buf.Bytes()})
	}
	return msg, nil
}

func filenameExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}
