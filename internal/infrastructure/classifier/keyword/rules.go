package keyword

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// RuleSet is the on-disk shape of a rules file.
type RuleSet struct {
	DocumentTypes []Category `yaml:"document_types"`
	Departments   []Category `yaml:"departments"`
	Priorities    []Category `yaml:"priorities"`
}

type Category struct {
	Name     string   `yaml:"name"`
	Weight   int      `yaml:"weight"`
	Patterns []string `yaml:"patterns"`
}

type compiledCategory struct {
	name     string
	weight   int
	patterns []*regexp.Regexp
}

// Rules is an immutable, compiled RuleSet.
type Rules struct {
	docTypes    []compiledCategory
	departments []compiledCategory
	priorities  []compiledCategory
}

func DefaultRules() (*Rules, error) {
	return ParseRules(defaultRulesYAML)
}

// MustDefaultRules panics if the embedded rules do not compile.
func MustDefaultRules() *Rules {
	rules, err := DefaultRules()
	if err != nil {
		panic(fmt.Sprintf("keyword: embedded rules: %v", err))
	}
	return rules
}

// LoadRules reads rules from path, or returns the embedded defaults when path is empty.
func LoadRules(path string) (*Rules, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultRules()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read classifier rules: %w", err)
	}
	rules, err := ParseRules(raw)
	if err != nil {
		return nil, fmt.Errorf("classifier rules %s: %w", path, err)
	}
	return rules, nil
}

func ParseRules(raw []byte) (*Rules, error) {
	var set RuleSet
	if err := yaml.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("decode rules yaml: %w", err)
	}
	return Compile(set)
}

func Compile(set RuleSet) (*Rules, error) {
	docTypes, err := compileAxis("document_types", set.DocumentTypes)
	if err != nil {
		return nil, err
	}
	departments, err := compileAxis("departments", set.Departments)
	if err != nil {
		return nil, err
	}
	priorities, err := compileAxis("priorities", set.Priorities)
	if err != nil {
		return nil, err
	}
	return &Rules{docTypes: docTypes, departments: departments, priorities: priorities}, nil
}

func compileAxis(axis string, categories []Category) ([]compiledCategory, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("%s: at least one category is required", axis)
	}
	seen := make(map[string]struct{}, len(categories))
	out := make([]compiledCategory, 0, len(categories))
	var errs []error
	for idx, cat := range categories {
		name := strings.TrimSpace(cat.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("%s[%d]: name is required", axis, idx))
			continue
		}
		if _, dup := seen[name]; dup {
			errs = append(errs, fmt.Errorf("%s[%d]: duplicate category %q", axis, idx, name))
			continue
		}
		seen[name] = struct{}{}
		if cat.Weight <= 0 {
			errs = append(errs, fmt.Errorf("%s.%s: weight must be positive", axis, name))
			continue
		}
		compiled := compiledCategory{name: name, weight: cat.Weight}
		for _, pattern := range cat.Patterns {
			re, err := regexp.Compile(pattern)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s.%s: pattern %q: %w", axis, name, pattern, err))
				continue
			}
			compiled.patterns = append(compiled.patterns, re)
		}
		out = append(out, compiled)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// Summary reports category counts per axis, used by the CLI validator.
func (r *Rules) Summary() map[string]int {
	count := func(cats []compiledCategory) int {
		n := 0
		for _, c := range cats {
			n += len(c.patterns)
		}
		return n
	}
	return map[string]int{
		"document_types":         len(r.docTypes),
		"document_type_patterns": count(r.docTypes),
		"departments":            len(r.departments),
		"department_patterns":    count(r.departments),
		"priorities":             len(r.priorities),
		"priority_patterns":      count(r.priorities),
	}
}
