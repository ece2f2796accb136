// Package rules routes classified documents to an assignee using a YAML
// routing table that can be swapped at runtime.
package rules

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/kirillkom/document-router/internal/core/domain"
)

var errMissingDocumentID = errors.New("document id is required")

type Engine struct {
	table atomic.Pointer[Table]
}

// New builds an engine; a nil table selects the embedded default.
func New(table *Table) (*Engine, error) {
	if table == nil {
		var err error
		table, err = DefaultTable()
		if err != nil {
			return nil, err
		}
	}
	e := &Engine{}
	e.table.Store(table)
	return e, nil
}

func (e *Engine) Table() *Table {
	return e.table.Load()
}

// Reload swaps in the table at path. On error the current table stays active.
func (e *Engine) Reload(path string) error {
	table, err := LoadTable(path)
	if err != nil {
		return err
	}
	e.table.Store(table)
	return nil
}

func (e *Engine) ManagerEmail(department string) string {
	return e.table.Load().ManagerEmail(department)
}

func (e *Engine) Route(ctx context.Context, req domain.RoutingRequest) (domain.RoutingDecision, error) {
	if err := ctx.Err(); err != nil {
		return domain.RoutingDecision{}, err
	}
	if strings.TrimSpace(req.DocumentID) == "" {
		return domain.RoutingDecision{}, domain.WrapError(domain.ErrInvalidInput, "route document", errMissingDocumentID)
	}
	table := e.table.Load()

	department := strings.TrimSpace(req.Department)
	if department == "" {
		department = domain.DefaultDepartment
	}
	priority, ok := domain.ParsePriority(string(req.Priority))
	if !ok {
		priority = domain.DefaultPriority
	}
	req.Priority = priority

	var (
		assignee string
		boost    int
		matched  string
	)
	if rule, ok := firstMatch(table.Rules, req, department); ok {
		assignee, boost, matched = rule.Assignee, rule.PriorityBoost, rule.Name
		if rule.Department != "" {
			department = rule.Department
		}
	} else {
		if mapped, ok := table.DocTypes[req.DocType]; ok && !req.DepartmentPinned {
			department = mapped
			matched = "doc_type:" + req.DocType
		}
		var fromTable bool
		assignee, boost, fromTable = table.team(department)
		if matched == "" {
			matched = "department:" + department
			if !fromTable && department == domain.DefaultDepartment {
				matched = "default"
			}
		}
	}

	level := min(priority.Rank()+boost, domain.MaxEscalationLevel)
	if level >= domain.MaxEscalationLevel && priority == domain.PriorityHigh {
		priority = domain.PriorityUrgent
	}

	return domain.RoutingDecision{
		DocumentID:      req.DocumentID,
		Assignee:        assignee,
		Department:      department,
		Priority:        priority,
		PriorityBoost:   boost,
		EscalationLevel: level,
		NotifyEmail:     table.ManagerEmail(department),
		MatchedRule:     matched,
		Status:          domain.RoutingStatusRouted,
	}, nil
}

// firstMatch skips rules that would move a pinned document to another department.
func firstMatch(rules []Rule, req domain.RoutingRequest, department string) (Rule, bool) {
	for _, r := range rules {
		if req.DepartmentPinned && r.Department != "" && r.Department != department {
			continue
		}
		if r.matches(req, department) {
			return r, true
		}
	}
	return Rule{}, false
}

// team reports whether the department had an explicit table entry.
func (t *Table) team(department string) (string, int, bool) {
	if team, ok := t.Departments[department]; ok {
		return team.Assignee, team.PriorityBoost, true
	}
	if department == domain.DefaultDepartment {
		return domain.DefaultAssignee, 0, false
	}
	return department + "_team", 0, false
}
