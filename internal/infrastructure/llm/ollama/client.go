package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/document-router/internal/core/domain"
	"github.com/kirillkom/document-router/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, model string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

// Classifier asks the model for a classification restricted to the known catalog.
type Classifier struct {
	client *Client
}

func NewClassifier(client *Client) *Classifier {
	return &Classifier{client: client}
}

type llmClassification struct {
	DocType    string  `json:"doc_type"`
	Department string  `json:"department"`
	Priority   string  `json:"priority"`
	Confidence float64 `json:"confidence"`
}

func (c *Classifier) Classify(ctx context.Context, input domain.ClassificationInput) (domain.Classification, error) {
	respText, err := c.client.generateJSON(ctx, buildClassificationPrompt(input))
	if err != nil {
		return domain.Classification{}, err
	}

	var raw llmClassification
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &raw); err != nil {
		return domain.Classification{}, domain.WrapError(domain.ErrInvalidInput, "parse llm classification", err)
	}
	return raw.toDomain()
}

func (r llmClassification) toDomain() (domain.Classification, error) {
	docType := strings.ToLower(strings.TrimSpace(r.DocType))
	department := strings.ToLower(strings.TrimSpace(r.Department))
	priority, ok := domain.ParsePriority(strings.ToLower(strings.TrimSpace(r.Priority)))
	switch {
	case !domain.IsKnownDocType(docType):
		return domain.Classification{}, domain.WrapError(domain.ErrInvalidInput, "validate llm classification", fmt.Errorf("unknown doc_type %q", r.DocType))
	case !domain.IsKnownDepartment(department):
		return domain.Classification{}, domain.WrapError(domain.ErrInvalidInput, "validate llm classification", fmt.Errorf("unknown department %q", r.Department))
	case !ok || priority == domain.PriorityUrgent:
		return domain.Classification{}, domain.WrapError(domain.ErrInvalidInput, "validate llm classification", fmt.Errorf("unknown priority %q", r.Priority))
	}
	confidence := min(max(r.Confidence, 0), 1)
	return domain.Classification{
		DocType:              docType,
		Department:           department,
		Priority:             priority,
		TypeConfidence:       confidence,
		DepartmentConfidence: confidence,
		PriorityConfidence:   confidence,
		Confidence:           confidence,
		Source:               domain.SourceLLM,
	}, nil
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := resilience.Do(ctx, c.executor, "ollama.generate", func(callCtx context.Context) (generateResponse, error) {
		return c.generate(callCtx, prompt)
	}, classifyOllamaError)
	if err != nil {
		return "", wrapTemporaryIfNeeded("ollama generate", err)
	}
	return strings.TrimSpace(resp.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func buildClassificationPrompt(input domain.ClassificationInput) string {
	const maxSnippet = 4000
	snippet := domain.TruncateText(input.Text, maxSnippet)

	departments := make([]string, 0, 13)
	for _, d := range domain.Departments() {
		departments = append(departments, d.Code)
	}
	departments = append(departments, domain.DefaultDepartment)
	docTypes := append(domain.DocumentTypes(), domain.DefaultDocType)

	return fmt.Sprintf(`You classify organisational documents.
Return a strict JSON object with keys:
doc_type (one of: %s),
department (one of: %s),
priority (one of: high, medium, low),
confidence (number from 0 to 1).
No markdown, no extra keys.

Filename: %s
Document:
%s`, strings.Join(docTypes, ", "), strings.Join(departments, ", "), input.Filename, snippet)
}
