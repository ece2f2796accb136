package rules

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/document-router/internal/core/domain"
)

//go:embed default_routing.yaml
var defaultTableYAML []byte

type Rule struct {
	Name          string            `yaml:"name"`
	DocTypes      []string          `yaml:"doc_types"`
	Departments   []string          `yaml:"departments"`
	Priorities    []domain.Priority `yaml:"priorities"`
	MinRisk       float64           `yaml:"min_risk"`
	Assignee      string            `yaml:"assignee"`
	Department    string            `yaml:"department"`
	PriorityBoost int               `yaml:"priority_boost"`
}

type Team struct {
	Assignee      string `yaml:"assignee"`
	PriorityBoost int    `yaml:"priority_boost"`
}

// Table is the full routing configuration. It must not be mutated after
// it is handed to an Engine.
type Table struct {
	Rules           []Rule            `yaml:"rules"`
	DocTypes        map[string]string `yaml:"doc_types"`
	Departments     map[string]Team   `yaml:"departments"`
	ManagerDomain   string            `yaml:"manager_domain"`
	FallbackManager string            `yaml:"fallback_manager"`
	Managers        map[string]string `yaml:"managers"`
}

func DefaultTable() (*Table, error) {
	return ParseTable(defaultTableYAML)
}

// LoadTable reads a routing table from path; an empty path yields the embedded default.
func LoadTable(path string) (*Table, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultTable()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routing table: %w", err)
	}
	table, err := ParseTable(raw)
	if err != nil {
		return nil, fmt.Errorf("routing table %s: %w", path, err)
	}
	return table, nil
}

func ParseTable(raw []byte) (*Table, error) {
	var table Table
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("decode routing yaml: %w", err)
	}
	if err := table.validate(); err != nil {
		return nil, err
	}
	if table.FallbackManager == "" {
		table.FallbackManager = domain.FallbackManagerMail
	}
	return &table, nil
}

func (t *Table) validate() error {
	var errs []error
	seen := map[string]struct{}{}
	for i, r := range t.Rules {
		if strings.TrimSpace(r.Name) == "" {
			errs = append(errs, fmt.Errorf("rule %d: name is required", i))
		} else if _, dup := seen[r.Name]; dup {
			errs = append(errs, fmt.Errorf("rule %q: duplicate name", r.Name))
		}
		seen[r.Name] = struct{}{}
		if strings.TrimSpace(r.Assignee) == "" {
			errs = append(errs, fmt.Errorf("rule %q: assignee is required", r.Name))
		}
		if len(r.DocTypes) == 0 && len(r.Departments) == 0 && len(r.Priorities) == 0 && r.MinRisk <= 0 {
			errs = append(errs, fmt.Errorf("rule %q: at least one condition is required", r.Name))
		}
		for _, p := range r.Priorities {
			if _, ok := domain.ParsePriority(string(p)); !ok {
				errs = append(errs, fmt.Errorf("rule %q: unknown priority %q", r.Name, p))
			}
		}
		if r.MinRisk < 0 || r.MinRisk > 1 {
			errs = append(errs, fmt.Errorf("rule %q: min_risk must be within [0,1]", r.Name))
		}
		if r.PriorityBoost < 0 {
			errs = append(errs, fmt.Errorf("rule %q: priority_boost must not be negative", r.Name))
		}
	}
	for docType, dept := range t.DocTypes {
		if strings.TrimSpace(dept) == "" {
			errs = append(errs, fmt.Errorf("doc_types[%s]: department is required", docType))
		}
	}
	for dept, team := range t.Departments {
		if strings.TrimSpace(team.Assignee) == "" {
			errs = append(errs, fmt.Errorf("departments[%s]: assignee is required", dept))
		}
		if team.PriorityBoost < 0 {
			errs = append(errs, fmt.Errorf("departments[%s]: priority_boost must not be negative", dept))
		}
	}
	return errors.Join(errs...)
}

func (r Rule) matches(req domain.RoutingRequest, department string) bool {
	if len(r.DocTypes) > 0 && !contains(r.DocTypes, req.DocType) {
		return false
	}
	if len(r.Departments) > 0 && !contains(r.Departments, department) {
		return false
	}
	if len(r.Priorities) > 0 && !contains(r.Priorities, req.Priority) {
		return false
	}
	return req.RiskScore >= r.MinRisk
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// ManagerEmail resolves the notification address for a department.
func (t *Table) ManagerEmail(department string) string {
	if addr, ok := t.Managers[department]; ok && addr != "" {
		return addr
	}
	if t.ManagerDomain != "" && department != domain.DefaultDepartment && domain.IsKnownDepartment(department) {
		return department + ".manager@" + t.ManagerDomain
	}
	return t.FallbackManager
}
