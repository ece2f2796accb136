// Package multiformat extracts plain text from the document formats the
// pipeline accepts: pdf, docx, xlsx, html and text.
package multiformat

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kirillkom/document-router/internal/core/domain"
	"github.com/kirillkom/document-router/internal/core/ports"
)

type Format string

const (
	FormatText Format = "text"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
)

var extensionFormats = map[string]Format{
	".txt":  FormatText,
	".md":   FormatText,
	".csv":  FormatText,
	".log":  FormatText,
	".json": FormatText,
	".xml":  FormatText,
	".eml":  FormatText,
	".pdf":  FormatPDF,
	".docx": FormatDOCX,
	".xlsx": FormatXLSX,
	".htm":  FormatHTML,
	".html": FormatHTML,
}

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// DetectFormat prefers the file extension and falls back to the MIME type.
func DetectFormat(filename, mimeType string) (Format, bool) {
	if f, ok := extensionFormats[strings.ToLower(filepath.Ext(filename))]; ok {
		return f, true
	}
	base := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	switch base {
	case "application/pdf":
		return FormatPDF, true
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return FormatDOCX, true
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return FormatXLSX, true
	case "text/html", "application/xhtml+xml":
		return FormatHTML, true
	case "application/json", "application/xml":
		return FormatText, true
	}
	if strings.HasPrefix(base, "text/") {
		return FormatText, true
	}
	return "", false
}

func (e *Extractor) Extract(ctx context.Context, filename, mimeType string, data []byte) (ports.ExtractedText, error) {
	if err := ctx.Err(); err != nil {
		return ports.ExtractedText{}, err
	}
	format, ok := DetectFormat(filename, mimeType)
	if !ok {
		// Unlabelled uploads are still accepted when they decode as text.
		format = FormatText
	}

	var (
		out ports.ExtractedText
		err error
	)
	switch format {
	case FormatPDF:
		out, err = extractPDF(data)
	case FormatDOCX:
		out, err = extractDOCX(data)
	case FormatXLSX:
		out, err = extractXLSX(data)
	case FormatHTML:
		out, err = extractHTML(data, mimeType)
	default:
		out, err = extractText(data, mimeType)
	}
	if err != nil {
		return ports.ExtractedText{}, domain.WrapError(domain.ErrInvalidInput, fmt.Sprintf("extract %s", format), err)
	}
	out.Text = normalizeWhitespace(out.Text)
	return out, nil
}

var (
	trailingSpaceRe = regexp.MustCompile(`[ \t]+\n`)
	blankLinesRe    = regexp.MustCompile(`\n{3,}`)
)

func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = trailingSpaceRe.ReplaceAllString(s, "\n")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
