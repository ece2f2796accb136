package render

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"strings"
	texttemplate "text/template"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kirillkom/document-router/internal/core/domain"
	"github.com/kirillkom/document-router/internal/core/ports"
)

//go:embed templates/*
var templateFS embed.FS

var kinds = []domain.NotificationKind{
	domain.NotificationDocumentRouted,
	domain.NotificationBatchUploaded,
	domain.NotificationUploadConfirmation,
	domain.NotificationReviewCompleted,
}

type kindTemplates struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

// Renderer produces notification subjects and bodies from the embedded templates.
type Renderer struct {
	templates map[domain.NotificationKind]kindTemplates
}

func New() (*Renderer, error) {
	funcs := funcMap()
	r := &Renderer{templates: make(map[domain.NotificationKind]kindTemplates, len(kinds))}
	for _, kind := range kinds {
		textTmpl, err := texttemplate.New(string(kind)).
			Option("missingkey=error").
			Funcs(texttemplate.FuncMap(funcs)).
			ParseFS(templateFS, "templates/"+string(kind)+".txt")
		if err != nil {
			return nil, fmt.Errorf("parse %s text template: %w", kind, err)
		}
		if textTmpl.Lookup("subject") == nil {
			return nil, fmt.Errorf("template %s has no subject", kind)
		}

		kt := kindTemplates{text: textTmpl}
		htmlName := "templates/" + string(kind) + ".html"
		if _, err := fs.Stat(templateFS, htmlName); err == nil {
			kt.html, err = htmltemplate.New(string(kind) + ".html").
				Funcs(htmltemplate.FuncMap(funcs)).
				ParseFS(templateFS, htmlName)
			if err != nil {
				return nil, fmt.Errorf("parse %s html template: %w", kind, err)
			}
		}
		r.templates[kind] = kt
	}
	return r, nil
}

// Render executes the templates for kind. A kind without an HTML template gets the text
// body wrapped in <pre>.
func (r *Renderer) Render(kind domain.NotificationKind, data ports.NotificationData) (ports.RenderedMessage, error) {
	kt, ok := r.templates[kind]
	if !ok {
		return ports.RenderedMessage{}, domain.WrapError(domain.ErrInvalidInput, "render notification", fmt.Errorf("unknown kind %q", kind))
	}
	if data.SentAt.IsZero() {
		data.SentAt = time.Now().UTC()
	}

	subject, err := executeText(kt.text, "subject", data)
	if err != nil {
		return ports.RenderedMessage{}, fmt.Errorf("render %s subject: %w", kind, err)
	}
	text, err := executeText(kt.text, "text", data)
	if err != nil {
		return ports.RenderedMessage{}, fmt.Errorf("render %s text: %w", kind, err)
	}

	var html string
	if kt.html != nil {
		var buf bytes.Buffer
		if err := kt.html.Execute(&buf, data); err != nil {
			return ports.RenderedMessage{}, fmt.Errorf("render %s html: %w", kind, err)
		}
		html = buf.String()
	} else {
		html = "<pre>" + htmltemplate.HTMLEscapeString(text) + "</pre>"
	}

	return ports.RenderedMessage{
		Subject:  strings.Join(strings.Fields(subject), " "),
		HTMLBody: html,
		TextBody: text,
	}, nil
}

func executeText(tmpl *texttemplate.Template, name string, data ports.NotificationData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func funcMap() map[string]any {
	return map[string]any{
		"upper":   strings.ToUpper,
		"dept":    DepartmentName,
		"percent": func(v float64) string {
			return fmt.Sprintf("%.0f%%", v*100)
		},
		"datetime": func(t time.Time) string {
			return t.UTC().Format("2006-01-02 15:04:05")
		},
	}
}

// DepartmentName prefers the catalogue display name and title-cases unknown codes.
func DepartmentName(code string) string {
	if code == "" {
		return "Unassigned"
	}
	if name := domain.DepartmentDisplayName(code); name != code {
		return name
	}
	// Casers keep state between calls, so each call gets its own.
	return cases.Title(language.English).String(strings.ReplaceAll(code, "_", " "))
}
