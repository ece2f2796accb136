package domain

import "time"

const (
	RoutingStatusRouted = "routed"
	DefaultAssignee     = "general_team"
	FallbackManagerMail = "admin@company.com"
	MaxEscalationLevel  = 5
)

type RoutingRequest struct {
	DocumentID string   `json:"doc_id"`
	DocType    string   `json:"doc_type"`
	Department string   `json:"department"`
	Priority   Priority `json:"priority"`
	RiskScore  float64  `json:"risk_score"`
	// DepartmentPinned marks a department chosen at upload; document type
	// mappings do not override it.
	DepartmentPinned bool `json:"department_pinned,omitempty"`
}

type RoutingDecision struct {
	DocumentID      string    `json:"doc_id"`
	Assignee        string    `json:"assignee"`
	Department      string    `json:"department"`
	Priority        Priority  `json:"priority"`
	PriorityBoost   int       `json:"priority_boost"`
	EscalationLevel int       `json:"escalation_level"`
	NotifyEmail     string    `json:"notify_email"`
	MatchedRule     string    `json:"matched_rule"`
	Status          string    `json:"routing_status"`
	Workflow        *Workflow `json:"workflow,omitempty"`
}

const (
	WorkflowStandard  = "standard"
	WorkflowExpedited = "expedited"

	WorkflowStatusInProgress = "in_progress"
)

type Workflow struct {
	ID        string    `json:"workflow_id"`
	Type      string    `json:"type"`
	Steps     []string  `json:"steps"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// WorkflowSteps is the fixed step list every triggered workflow starts with.
func WorkflowSteps() []string {
	return []string{
		"Document received",
		"Classification completed",
		"Routing assigned",
		"Notification sent",
	}
}

// WorkflowTypeForLevel expedites anything escalated to level 4 or above.
func WorkflowTypeForLevel(escalationLevel int) string {
	if escalationLevel >= 4 {
		return WorkflowExpedited
	}
	return WorkflowStandard
}

func NewWorkflow(documentID, workflowType string, at time.Time) Workflow {
	if workflowType == "" {
		workflowType = WorkflowStandard
	}
	return Workflow{
		ID:        "wf_" + documentID,
		Type:      workflowType,
		Steps:     WorkflowSteps(),
		Status:    WorkflowStatusInProgress,
		CreatedAt: at.UTC(),
	}
}
