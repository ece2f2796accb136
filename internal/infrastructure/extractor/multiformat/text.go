package multiformat

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"github.com/kirillkom/document-router/internal/core/ports"
)

var errBinaryContent = errors.New("unsupported binary content")

func extractText(data []byte, mimeType string) (ports.ExtractedText, error) {
	if bytes.IndexByte(data, 0) >= 0 {
		return ports.ExtractedText{}, errBinaryContent
	}
	if utf8.Valid(data) {
		return ports.ExtractedText{Text: string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))), PageCount: 1}, nil
	}
	enc, name, _ := charset.DetermineEncoding(data, mimeType)
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return ports.ExtractedText{}, fmt.Errorf("decode %s text: %w", name, err)
	}
	return ports.ExtractedText{Text: string(decoded), PageCount: 1}, nil
}
