package content

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kirillkom/document-router/internal/core/domain"
)

type SummaryLimits struct {
	MinSentenceChars int
	PerStrategy      int
	MaxPoints        int
	MaxPointChars    int
	MaxSummaryChars  int
	FallbackChars    int
}

func DefaultSummaryLimits() SummaryLimits {
	return SummaryLimits{
		MinSentenceChars: 20,
		PerStrategy:      2,
		MaxPoints:        5,
		MaxPointChars:    200,
		MaxSummaryChars:  1000,
		FallbackChars:    200,
	}
}

type strategy struct {
	label string
	limit int
	match func(sentence, lower string) bool
}

var timelineRe = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december|monday|tuesday|wednesday|thursday|friday|tomorrow|quarter|q[1-4])\b`)

func keywordMatch(terms ...string) func(string, string) bool {
	return func(_ string, lower string) bool {
		return containsAny(lower, terms...)
	}
}

func defaultStrategies(perStrategy int) []strategy {
	return []strategy{
		{label: "Overview", limit: 1, match: func(string, string) bool { return true }},
		{label: "Action Required", limit: perStrategy, match: keywordMatch(
			"please", "must", "required", "action", "deadline", "submit", "approve", "need to", "asap", "respond",
		)},
		{label: "Financial Details", limit: perStrategy, match: func(s, lower string) bool {
			return amountRe.MatchString(s) || containsAny(lower, "payment", "invoice", "total", "budget", "cost", "price", "fee")
		}},
		{label: "Timeline/Dates", limit: perStrategy, match: func(s, lower string) bool {
			return dateRe.MatchString(s) || timelineRe.MatchString(s) || containsAny(lower, "due", "schedule", "by the end")
		}},
		{label: "Key Parties", limit: perStrategy, match: func(s, lower string) bool {
			return containsAny(lower, "between", "parties", "client", "vendor", "signed by", "on behalf of", "employee") ||
				len(nameRe.FindAllString(s, 2)) == 2
		}},
		{label: "Important Notes", limit: perStrategy, match: keywordMatch(
			"important", "note", "warning", "attention", "critical", "confidential", "risk",
		)},
	}
}

// Summarizer builds an extractive summary by running labeled sentence
// predicates in a fixed order.
type Summarizer struct {
	limits     SummaryLimits
	strategies []strategy
}

func NewSummarizer(limits SummaryLimits) *Summarizer {
	d := DefaultSummaryLimits()
	if limits.MinSentenceChars <= 0 {
		limits.MinSentenceChars = d.MinSentenceChars
	}
	if limits.PerStrategy <= 0 {
		limits.PerStrategy = d.PerStrategy
	}
	if limits.MaxPoints <= 0 {
		limits.MaxPoints = d.MaxPoints
	}
	if limits.MaxPointChars <= 0 {
		limits.MaxPointChars = d.MaxPointChars
	}
	if limits.MaxSummaryChars <= 0 {
		limits.MaxSummaryChars = d.MaxSummaryChars
	}
	if limits.FallbackChars <= 0 {
		limits.FallbackChars = d.FallbackChars
	}
	return &Summarizer{limits: limits, strategies: defaultStrategies(limits.PerStrategy)}
}

func (s *Summarizer) Summarize(text string) domain.Summary {
	sentences := s.sentences(text)
	used := make(map[string]struct{}, len(sentences))
	points := make([]domain.SummaryPoint, 0, s.limits.MaxPoints)

	for _, st := range s.strategies {
		taken := 0
		for _, sentence := range sentences {
			if len(points) >= s.limits.MaxPoints || taken >= st.limit {
				break
			}
			key := dedupeKey(sentence)
			if _, ok := used[key]; ok {
				continue
			}
			if !st.match(sentence, strings.ToLower(sentence)) {
				continue
			}
			used[key] = struct{}{}
			taken++
			points = append(points, domain.SummaryPoint{
				Category: st.label,
				Text:     truncateAtWord(sentence, s.limits.MaxPointChars),
			})
		}
	}

	if len(points) == 0 {
		return domain.Summary{
			Text:   truncateRunes(strings.TrimSpace(text), s.limits.FallbackChars),
			Points: []domain.SummaryPoint{},
		}
	}

	var b strings.Builder
	kept := points[:0]
	for _, p := range points {
		line := p.Category + ": " + p.Text
		extra := len(line)
		if b.Len() > 0 {
			extra++
		}
		if b.Len()+extra >= s.limits.MaxSummaryChars {
			break
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		kept = append(kept, p)
	}
	return domain.Summary{Text: b.String(), Points: kept}
}

// sentences splits on terminal punctuation followed by whitespace and on line breaks.
func (s *Summarizer) sentences(text string) []string {
	var out []string
	runes := []rune(text)
	start := 0
	flush := func(end int) {
		sentence := strings.Join(strings.Fields(string(runes[start:end])), " ")
		if utf8.RuneCountInString(sentence) >= s.limits.MinSentenceChars {
			out = append(out, sentence)
		}
		start = end
	}
	for i, r := range runes {
		switch {
		case r == '\n':
			flush(i + 1)
		case r == '.' || r == '!' || r == '?':
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				flush(i + 1)
			}
		}
	}
	if start < len(runes) {
		flush(len(runes))
	}
	return out
}

func dedupeKey(sentence string) string {
	key := strings.ToLower(strings.Join(strings.Fields(sentence), " "))
	return strings.TrimRight(key, ".!?;: ")
}

const ellipsis = "..."

// truncateAtWord keeps the result, ellipsis included, within limit runes.
func truncateAtWord(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	keep := max(limit-len(ellipsis), 1)
	runes := []rune(s)
	cut := string(runes[:keep])
	if idx := strings.LastIndexFunc(cut, unicode.IsSpace); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:") + ellipsis
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
