package keyword

import (
	"context"
	"regexp"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/kirillkom/document-router/internal/core/domain"
)

const (
	maxConfidence = 0.95
	maxTags       = 8
)

// Classifier scores text against keyword rules. Rules can be swapped at runtime.
type Classifier struct {
	rules atomic.Pointer[Rules]
}

func New(rules *Rules) *Classifier {
	c := &Classifier{}
	if rules == nil {
		rules = MustDefaultRules()
	}
	c.rules.Store(rules)
	return c
}

func (c *Classifier) SetRules(rules *Rules) {
	if rules != nil {
		c.rules.Store(rules)
	}
}

func (c *Classifier) Rules() *Rules {
	return c.rules.Load()
}

func (c *Classifier) Classify(ctx context.Context, input domain.ClassificationInput) (domain.Classification, error) {
	if err := ctx.Err(); err != nil {
		return domain.Classification{}, err
	}
	rules := c.rules.Load()
	text := strings.ToLower(input.Text)
	filename := normalizeFilename(input.Filename)

	docType, typeScore := best(rules.docTypes, text, filename)
	department, deptScore := best(rules.departments, text, filename)
	priority, prioScore := best(rules.priorities, text, filename)

	cls := domain.Classification{
		DocType:              domain.DefaultDocType,
		Department:           domain.DefaultDepartment,
		Priority:             domain.DefaultPriority,
		TypeConfidence:       domain.DefaultConfidence,
		DepartmentConfidence: domain.DefaultConfidence,
		PriorityConfidence:   domain.DefaultConfidence,
		Tags:                 ExtractTags(input.Text),
		Language:             DetectLanguage(input.Text),
		Source:               domain.SourceKeyword,
	}
	if typeScore > 0 {
		cls.DocType = docType
		cls.TypeConfidence = normalize(0.3, 0.1, typeScore)
	}
	if deptScore > 0 {
		cls.Department = department
		cls.DepartmentConfidence = normalize(0.4, 0.08, deptScore)
	}
	if prioScore > 0 {
		cls.Priority = domain.Priority(priority)
		cls.PriorityConfidence = normalize(0.5, 0.08, prioScore)
	}
	cls.Confidence = (cls.TypeConfidence + cls.DepartmentConfidence + cls.PriorityConfidence) / 3
	return cls, nil
}

// best returns the first category holding the maximum combined score.
func best(categories []compiledCategory, texts ...string) (string, int) {
	bestName, bestScore := "", 0
	for _, cat := range categories {
		score := 0
		for _, text := range texts {
			score += cat.score(text)
		}
		if score > bestScore {
			bestName, bestScore = cat.name, score
		}
	}
	return bestName, bestScore
}

func (c compiledCategory) score(text string) int {
	if text == "" {
		return 0
	}
	matches := 0
	for _, re := range c.patterns {
		matches += len(re.FindAllStringIndex(text, -1))
	}
	return matches * c.weight
}

func normalize(base, step float64, score int) float64 {
	return min(maxConfidence, base+step*float64(score))
}

func normalizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', '.':
			return ' '
		}
		return unicode.ToLower(r)
	}, name)
}

var statusTerms = []string{
	"confidential", "urgent", "draft", "final", "approved", "pending",
	"completed", "cancelled", "revised", "classified", "sensitive",
}

var (
	financialRe  = regexp.MustCompile(`\$[\d,]+|€[\d,]+|£[\d,]+`)
	datedRe      = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)
	executableRe = regexp.MustCompile(`signature|sign|executed|effective\s*date`)
	technicalRe  = regexp.MustCompile(`api|database|server|network|software`)
	meetingRe    = regexp.MustCompile(`meeting|conference|presentation|workshop`)
)

// ExtractTags derives up to eight descriptive tags from raw text.
func ExtractTags(text string) []string {
	lower := strings.ToLower(text)
	tags := make([]string, 0, maxTags)
	for _, term := range statusTerms {
		if strings.Contains(lower, term) {
			tags = append(tags, term)
		}
	}
	if financialRe.MatchString(text) {
		tags = append(tags, "financial")
	}
	if datedRe.MatchString(text) {
		tags = append(tags, "dated")
	}
	if executableRe.MatchString(lower) {
		tags = append(tags, "executable")
	}
	if technicalRe.MatchString(lower) {
		tags = append(tags, "technical")
	}
	if meetingRe.MatchString(lower) {
		tags = append(tags, "meeting")
	}
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	return tags
}

var englishMarkers = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
}

// DetectLanguage reports "en" when at least three distinct English function words appear.
func DetectLanguage(text string) string {
	seen := make(map[string]struct{}, len(englishMarkers))
	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if _, ok := englishMarkers[word]; ok {
			seen[word] = struct{}{}
			if len(seen) >= 3 {
				return "en"
			}
		}
	}
	return "unknown"
}
