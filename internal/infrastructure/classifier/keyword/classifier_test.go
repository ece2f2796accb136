package keyword

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/kirillkom/document-router/internal/core/domain"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func classify(t *testing.T, filename, text string) domain.Classification {
	t.Helper()
	cls, err := New(nil).Classify(context.Background(), domain.ClassificationInput{Filename: filename, Text: text})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	return cls
}

func TestClassifyInvoice(t *testing.T) {
	cls := classify(t, "", "INVOICE #123\nAmount due: $1,500.00\nPayment due by end of day")

	if cls.DocType != "invoice" || cls.Department != "finance" || cls.Priority != domain.PriorityHigh {
		t.Fatalf("unexpected classification: %+v", cls)
	}
	if !approx(cls.TypeConfidence, 0.9) {
		t.Fatalf("type confidence = %v, want 0.9", cls.TypeConfidence)
	}
	if !approx(cls.DepartmentConfidence, 0.64) {
		t.Fatalf("department confidence = %v, want 0.64", cls.DepartmentConfidence)
	}
	if !approx(cls.PriorityConfidence, 0.74) {
		t.Fatalf("priority confidence = %v, want 0.74", cls.PriorityConfidence)
	}
	if !approx(cls.Confidence, 0.76) {
		t.Fatalf("overall confidence = %v, want 0.76", cls.Confidence)
	}
	if cls.Source != domain.SourceKeyword {
		t.Fatalf("expected keyword source, got %q", cls.Source)
	}
}

func TestClassifyDefaultsWhenNothingMatches(t *testing.T) {
	cls := classify(t, "", "zzz qqq")

	if cls.DocType != domain.DefaultDocType || cls.Department != domain.DefaultDepartment || cls.Priority != domain.DefaultPriority {
		t.Fatalf("expected defaults, got %+v", cls)
	}
	if !approx(cls.Confidence, 0.5) {
		t.Fatalf("expected 0.5 confidence, got %v", cls.Confidence)
	}
	if len(cls.Tags) != 0 {
		t.Fatalf("expected no tags, got %v", cls.Tags)
	}
	if cls.Language != "unknown" {
		t.Fatalf("expected unknown language, got %q", cls.Language)
	}
}

func TestClassifyTieBreaksByDeclarationOrder(t *testing.T) {
	// payroll is listed under both hr and finance; hr is declared first.
	cls := classify(t, "", "payroll")
	if cls.Department != "hr" {
		t.Fatalf("expected hr to win the tie, got %s", cls.Department)
	}
	if !approx(cls.DepartmentConfidence, 0.48) {
		t.Fatalf("department confidence = %v, want 0.48", cls.DepartmentConfidence)
	}
}

func TestClassifyScoresFilename(t *testing.T) {
	cls := classify(t, "contract_2024.pdf", "zzz")
	if cls.DocType != "contract" || cls.Department != "legal" {
		t.Fatalf("expected filename to drive classification, got %+v", cls)
	}
	if !approx(cls.TypeConfidence, 0.5) {
		t.Fatalf("type confidence = %v, want 0.5", cls.TypeConfidence)
	}
}

func TestClassifyPriorityWeighting(t *testing.T) {
	tests := []struct {
		name string
		text string
		want domain.Priority
	}{
		{name: "high outweighs medium", text: "urgent reminder", want: domain.PriorityHigh},
		{name: "medium outweighs single low", text: "reminder, fyi", want: domain.PriorityMedium},
		{name: "low only", text: "fyi", want: domain.PriorityLow},
		{name: "no signal", text: "zzz", want: domain.PriorityMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(t, "", tt.text).Priority; got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(nil).Classify(ctx, domain.ClassificationInput{Text: "invoice"}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestExtractTags(t *testing.T) {
	got := ExtractTags("CONFIDENTIAL draft. Signature required by 12/05/2024 for $2,000 at the server meeting")
	want := []string{"confidential", "draft", "financial", "dated", "executable", "technical", "meeting"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExtractTagsCapsAtEight(t *testing.T) {
	got := ExtractTags("confidential urgent draft final approved pending completed cancelled revised")
	if len(got) != maxTags {
		t.Fatalf("expected %d tags, got %d (%v)", maxTags, len(got), got)
	}
	if got[7] != "cancelled" {
		t.Fatalf("expected declaration order to be kept, got %v", got)
	}
}

func TestDetectLanguage(t *testing.T) {
	if got := DetectLanguage("The report and the findings for review"); got != "en" {
		t.Fatalf("expected en, got %s", got)
	}
	if got := DetectLanguage("to be or"); got != "unknown" {
		t.Fatalf("expected unknown, got %s", got)
	}
	// substrings of longer words do not count
	if got := DetectLanguage("theory android format"); got != "unknown" {
		t.Fatalf("expected unknown, got %s", got)
	}
}

func TestSetRulesSwapsAtomically(t *testing.T) {
	c := New(nil)
	rules, err := Compile(RuleSet{
		DocumentTypes: []Category{{Name: "ticket", Weight: 1, Patterns: []string{"zzz"}}},
		Departments:   []Category{{Name: "it", Weight: 1, Patterns: []string{"zzz"}}},
		Priorities:    []Category{{Name: "high", Weight: 3, Patterns: []string{"zzz"}}},
	})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	c.SetRules(rules)

	cls, err := c.Classify(context.Background(), domain.ClassificationInput{Text: "zzz"})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if cls.DocType != "ticket" || cls.Department != "it" || cls.Priority != domain.PriorityHigh {
		t.Fatalf("expected swapped rules to apply, got %+v", cls)
	}
}
