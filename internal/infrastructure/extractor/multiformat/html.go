package multiformat

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/kirillkom/document-router/internal/core/ports"
)

const htmlBlockSelector = "p, div, li, tr, h1, h2, h3, h4, h5, h6, br, section, article, blockquote, pre"

func extractHTML(data []byte, mimeType string) (ports.ExtractedText, error) {
	utf8Reader, err := charset.NewReader(bytes.NewReader(data), mimeType)
	if err != nil {
		return ports.ExtractedText{}, fmt.Errorf("detect html charset: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(utf8Reader)
	if err != nil {
		return ports.ExtractedText{}, fmt.Errorf("parse html: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find("script, style, noscript, template, head").Remove()
	// Block boundaries become line breaks so sentences do not run together.
	doc.Find(htmlBlockSelector).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	lines := strings.Split(doc.Text(), "\n")
	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteString("\n\n")
	}
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return ports.ExtractedText{Text: b.String(), PageCount: 1}, nil
}
