package content

import (
	"regexp"
	"strings"

	"github.com/kirillkom/document-router/internal/core/domain"
)

var (
	nameRe    = regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`)
	dateRe    = regexp.MustCompile(`\d{4}-\d{2}-\d{2}|\d{2}/\d{2}/\d{4}|\d{2}-\d{2}-\d{4}`)
	emailRe   = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	amountRe  = regexp.MustCompile(`[$€£]\d+(?:,\d{3})*(?:\.\d{2})?|\d+(?:,\d{3})*(?:\.\d{2})?\s*(?:USD|EUR|GBP)`)
	phoneRe   = regexp.MustCompile(`(?:\+\d{1,3}[\s.-]?)?\(?\b\d{3}\)?[\s.-]?\d{3}[\s.-]\d{4}\b`)
	addressRe = regexp.MustCompile(`\b\d{1,5}\s+(?:[A-Z][a-z]+\s+){1,3}(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr|Court|Ct|Way|Place|Pl)\b`)
)

// ExtractEntities returns unique matches per entity kind in order of first occurrence.
func ExtractEntities(text string) domain.Entities {
	return domain.Entities{
		Names:     findUnique(nameRe, text),
		Dates:     findUnique(dateRe, text),
		Emails:    findUnique(emailRe, text),
		Amounts:   findUnique(amountRe, text),
		Phones:    findUnique(phoneRe, text),
		Addresses: findUnique(addressRe, text),
	}
}

// findUnique compares case-insensitively and keeps the first spelling seen.
func findUnique(re *regexp.Regexp, text string) []string {
	matches := re.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		key := strings.ToLower(m)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out
}
