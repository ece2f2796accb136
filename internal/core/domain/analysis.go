package domain

type Entities struct {
	Names     []string `json:"names"`
	Dates     []string `json:"dates"`
	Emails    []string `json:"emails"`
	Amounts   []string `json:"amounts"`
	Phones    []string `json:"phones"`
	Addresses []string `json:"addresses"`
}

// Flatten lists all values in a fixed category order.
func (e Entities) Flatten() []string {
	var out []string
	for _, group := range [][]string{e.Names, e.Dates, e.Emails, e.Amounts, e.Phones, e.Addresses} {
		out = append(out, group...)
	}
	return out
}

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

type Sentiment struct {
	Label SentimentLabel `json:"label"`
	Score float64        `json:"score"`
}

type ConfidentialityLevel string

const (
	ConfidentialityPublic       ConfidentialityLevel = "public"
	ConfidentialityInternal     ConfidentialityLevel = "internal"
	ConfidentialityConfidential ConfidentialityLevel = "confidential"
	ConfidentialityRestricted   ConfidentialityLevel = "restricted"
)

type Confidentiality struct {
	Level   ConfidentialityLevel `json:"level"`
	Reasons []string             `json:"reasons"`
}

type SummaryPoint struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

type Summary struct {
	Text   string         `json:"text"`
	Points []SummaryPoint `json:"points"`
}

type Analysis struct {
	Entities         Entities        `json:"entities"`
	RiskScore        float64         `json:"risk_score"`
	Sentiment        Sentiment       `json:"sentiment"`
	Confidentiality  Confidentiality `json:"confidentiality"`
	Summary          Summary         `json:"summary"`
	WordCount        int             `json:"word_count"`
	RelatedDocuments []string        `json:"related_documents,omitempty"`
}
