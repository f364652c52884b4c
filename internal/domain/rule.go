package domain

// TicketField enumerates the ticket attributes a category rule may
// inspect. Keeping the set closed keeps rule evaluation total.
type TicketField string

const (
	FieldStatus     TicketField = "status"
	FieldPriority   TicketField = "priority"
	FieldIssueType  TicketField = "issue_type"
	FieldAssignee   TicketField = "assignee"
	FieldReporter   TicketField = "reporter"
	FieldProjectKey TicketField = "project_key"
	FieldSummary    TicketField = "summary"
	FieldLabels     TicketField = "labels"
)

// ConditionOperator enumerates supported predicate kinds.
type ConditionOperator string

const (
	OpEquals   ConditionOperator = "equals"
	OpContains ConditionOperator = "contains"
	OpOneOf    ConditionOperator = "one_of"
)

// RuleCondition is one clause of a rule predicate. All string
// comparisons are case-insensitive; a nil/absent ticket field never
// matches.
type RuleCondition struct {
	Field    TicketField       `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    string            `json:"value,omitempty"`
	Values   []string          `json:"values,omitempty"`
}

// CategoryRule maps tickets matching every condition to a label.
// Rules are evaluated in ascending PriorityOrder; the first match wins.
type CategoryRule struct {
	ID            string          `json:"id"`
	PriorityOrder int             `json:"priority_order"`
	Conditions    []RuleCondition `json:"conditions"`
	CategoryLabel string          `json:"category_label"`
}

// ValidFields lists the rule-addressable fields, for validation.
var ValidFields = map[TicketField]bool{
	FieldStatus:     true,
	FieldPriority:   true,
	FieldIssueType:  true,
	FieldAssignee:   true,
	FieldReporter:   true,
	FieldProjectKey: true,
	FieldSummary:    true,
	FieldLabels:     true,
}

// ValidOperators lists the supported condition operators, for validation.
var ValidOperators = map[ConditionOperator]bool{
	OpEquals:   true,
	OpContains: true,
	OpOneOf:    true,
}
