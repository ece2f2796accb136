package domain

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities for escalation; unknown values rank as medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	default:
		return 2
	}
}

func ParsePriority(raw string) (Priority, bool) {
	switch Priority(raw) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return Priority(raw), true
	default:
		return "", false
	}
}

const (
	DefaultDocType    = "document"
	DefaultDepartment = "general"
	DefaultPriority   = PriorityMedium
	DefaultConfidence = 0.5

	SourceKeyword = "keyword"
	SourceLLM     = "llm"
)

type ClassificationInput struct {
	Filename string
	Text     string
}

type Classification struct {
	DocType              string   `json:"doc_type"`
	Department           string   `json:"department"`
	Priority             Priority `json:"priority"`
	TypeConfidence       float64  `json:"type_confidence"`
	DepartmentConfidence float64  `json:"department_confidence"`
	PriorityConfidence   float64  `json:"priority_confidence"`
	Confidence           float64  `json:"confidence"`
	Tags                 []string `json:"tags"`
	Language             string   `json:"language"`
	Source               string   `json:"source"`
}

type Department struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
}

var departments = []Department{
	{Code: "hr", DisplayName: "Human Resources"},
	{Code: "finance", DisplayName: "Finance & Accounting"},
	{Code: "legal", DisplayName: "Legal"},
	{Code: "sales", DisplayName: "Sales"},
	{Code: "marketing", DisplayName: "Marketing"},
	{Code: "it", DisplayName: "Information Technology"},
	{Code: "operations", DisplayName: "Operations"},
	{Code: "customer_support", DisplayName: "Customer Support"},
	{Code: "procurement", DisplayName: "Procurement/Purchase"},
	{Code: "product", DisplayName: "Product/R&D"},
	{Code: "administration", DisplayName: "Administration"},
	{Code: "executive", DisplayName: "Executive/Management"},
}

// Departments returns the organisational departments in declaration order.
func Departments() []Department {
	out := make([]Department, len(departments))
	copy(out, departments)
	return out
}

func IsKnownDepartment(code string) bool {
	if code == DefaultDepartment {
		return true
	}
	for _, d := range departments {
		if d.Code == code {
			return true
		}
	}
	return false
}

// DepartmentDisplayName falls back to the raw code for unknown departments.
func DepartmentDisplayName(code string) string {
	for _, d := range departments {
		if d.Code == code {
			return d.DisplayName
		}
	}
	if code == DefaultDepartment {
		return "General"
	}
	return code
}

type PriorityLevel struct {
	Level       Priority `json:"level"`
	Description string   `json:"description"`
}

func PriorityLevels() []PriorityLevel {
	return []PriorityLevel{
		{Level: PriorityHigh, Description: "Time-sensitive, urgent, requires immediate action"},
		{Level: PriorityMedium, Description: "Important but not urgent - typically this week or within a few days"},
		{Level: PriorityLow, Description: "Informational, long-term, or low urgency"},
	}
}

var docTypes = []string{
	"invoice", "contract", "purchase_order", "receipt", "report",
	"memo", "letter", "resume", "policy", "specification",
}

func DocumentTypes() []string {
	out := make([]string, len(docTypes))
	copy(out, docTypes)
	return out
}

func IsKnownDocType(name string) bool {
	if name == DefaultDocType {
		return true
	}
	for _, t := range docTypes {
		if t == name {
			return true
		}
	}
	return false
}
