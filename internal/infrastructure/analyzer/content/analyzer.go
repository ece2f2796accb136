// Package content derives entities, risk, sentiment, confidentiality and an
// extractive summary from plain document text.
package content

import (
	"context"
	"math"
	"strings"

	"github.com/kirillkom/document-router/internal/core/domain"
)

type Analyzer struct {
	summarizer *Summarizer
}

func New() *Analyzer {
	return &Analyzer{summarizer: NewSummarizer(DefaultSummaryLimits())}
}

func NewWithSummarizer(s *Summarizer) *Analyzer {
	return &Analyzer{summarizer: s}
}

func (a *Analyzer) Analyze(ctx context.Context, text string) (domain.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return domain.Analysis{}, err
	}
	entities := ExtractEntities(text)
	return domain.Analysis{
		Entities:        entities,
		RiskScore:       RiskScore(text, entities),
		Sentiment:       ScoreSentiment(text),
		Confidentiality: AssessConfidentiality(text, entities),
		Summary:         a.summarizer.Summarize(text),
		WordCount:       len(strings.Fields(text)),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
