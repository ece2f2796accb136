package content

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/kirillkom/document-router/internal/core/domain"
)

// RiskScore adds fixed weights for sensitive wording, legal wording and money, capped at 1.
func RiskScore(text string, entities domain.Entities) float64 {
	lower := strings.ToLower(text)
	score := 0.0
	if containsAny(lower, "confidential", "private", "sensitive") {
		score += 0.3
	}
	if containsAny(lower, "contract", "agreement", "legal") {
		score += 0.2
	}
	if len(entities.Amounts) > 0 {
		score += 0.2
	}
	return round2(min(score, 1.0))
}

func containsAny(s string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

var positiveTerms = wordSet(
	"good", "great", "excellent", "success", "successful", "successfully", "pleased", "happy",
	"approved", "appreciate", "appreciated", "thank", "thanks", "benefit", "improve", "improved",
	"positive", "satisfied", "congratulations", "welcome", "growth", "resolved", "efficient",
)

var negativeTerms = wordSet(
	"bad", "poor", "fail", "failed", "failure", "problem", "problems", "issue", "issues",
	"complaint", "delay", "delayed", "late", "error", "errors", "loss", "breach", "dispute",
	"unfortunately", "reject", "rejected", "concern", "concerns", "damage", "overdue",
	"penalty", "terminate", "termination", "disappointed", "outage",
)

func wordSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-'
	})
}

// ScoreSentiment compares positive and negative lexicon hits.
func ScoreSentiment(text string) domain.Sentiment {
	pos, neg := 0, 0
	for _, w := range words(text) {
		if _, ok := positiveTerms[w]; ok {
			pos++
		}
		if _, ok := negativeTerms[w]; ok {
			neg++
		}
	}
	if pos+neg == 0 {
		return domain.Sentiment{Label: domain.SentimentNeutral, Score: 0}
	}
	score := round2(float64(pos-neg) / float64(pos+neg))
	label := domain.SentimentNeutral
	switch {
	case score > 0.2:
		label = domain.SentimentPositive
	case score < -0.2:
		label = domain.SentimentNegative
	}
	return domain.Sentiment{Label: label, Score: score}
}

var (
	restrictedRe   = regexp.MustCompile(`(?i)\b(top secret|restricted|privileged|attorney[- ]client)\b`)
	ssnRe          = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	confidentialRe = regexp.MustCompile(`(?i)\b(confidential|nda|non-disclosure|proprietary|private|sensitive)\b`)
	internalRe     = regexp.MustCompile(`(?i)\b(internal use|internal only|do not distribute|for internal)\b`)
)

// AssessConfidentiality picks the strictest level any signal supports.
func AssessConfidentiality(text string, entities domain.Entities) domain.Confidentiality {
	var reasons []string
	for _, m := range uniqueLower(restrictedRe.FindAllString(text, -1)) {
		reasons = append(reasons, "keyword: "+m)
	}
	if ssnRe.MatchString(text) {
		reasons = append(reasons, "national id pattern")
	}
	if len(reasons) > 0 {
		return domain.Confidentiality{Level: domain.ConfidentialityRestricted, Reasons: reasons}
	}

	for _, m := range uniqueLower(confidentialRe.FindAllString(text, -1)) {
		reasons = append(reasons, "keyword: "+m)
	}
	if len(reasons) > 0 {
		return domain.Confidentiality{Level: domain.ConfidentialityConfidential, Reasons: reasons}
	}

	for _, m := range uniqueLower(internalRe.FindAllString(text, -1)) {
		reasons = append(reasons, "keyword: "+m)
	}
	if len(entities.Emails) > 0 || len(entities.Phones) > 0 {
		reasons = append(reasons, "contact details present")
	}
	if len(reasons) > 0 {
		return domain.Confidentiality{Level: domain.ConfidentialityInternal, Reasons: reasons}
	}
	return domain.Confidentiality{Level: domain.ConfidentialityPublic, Reasons: []string{}}
}

func uniqueLower(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(v)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
