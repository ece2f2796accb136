// Package fallback chains a primary classifier with a secondary one used only
// when the primary is not confident enough.
package fallback

import (
	"context"
	"log/slog"

	"github.com/kirillkom/document-router/internal/core/domain"
	"github.com/kirillkom/document-router/internal/core/ports"
)

type Classifier struct {
	primary   ports.DocumentClassifier
	secondary ports.DocumentClassifier
	threshold float64
	logger    *slog.Logger
}

func New(primary, secondary ports.DocumentClassifier, threshold float64, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{primary: primary, secondary: secondary, threshold: threshold, logger: logger}
}

func (c *Classifier) Classify(ctx context.Context, input domain.ClassificationInput) (domain.Classification, error) {
	cls, err := c.primary.Classify(ctx, input)
	if err != nil {
		return domain.Classification{}, err
	}
	if c.secondary == nil || cls.Confidence >= c.threshold {
		return cls, nil
	}

	alt, err := c.secondary.Classify(ctx, input)
	if err != nil {
		c.logger.Warn("fallback_classifier_failed", "filename", input.Filename, "error", err)
		return cls, nil
	}
	if alt.Confidence <= cls.Confidence {
		return cls, nil
	}
	// Tags and language stay heuristic; the secondary only decides the three axes.
	alt.Tags = cls.Tags
	alt.Language = cls.Language
	return alt, nil
}
