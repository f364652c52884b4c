package domain

import (
	"strings"
	"time"
)

// Ticket is the locally mirrored shape of one remote issue. Key is the
// natural identity; the store holds at most one record per key. All
// fields except Category are owned by the remote tracker and replaced
// wholesale on merge; Category is derived locally and only ever written
// by the categorization pass.
type Ticket struct {
	Key        string
	Summary    string
	Status     string
	Priority   string
	IssueType  string
	Assignee   *string
	Reporter   *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ResolvedAt *time.Time
	Labels     []string
	ProjectKey string
	Category   *string
}

// Resolved reports whether the ticket reached a terminal status.
func (t *Ticket) Resolved() bool {
	return t.ResolvedAt != nil
}

// FieldValue returns the ticket attribute addressed by a rule field,
// or (nil, false) when the attribute is absent. Labels are returned as
// the full slice so contains/one-of conditions can match any element.
func (t *Ticket) FieldValue(field TicketField) (any, bool) {
	switch field {
	case FieldStatus:
		return t.Status, t.Status != ""
	case FieldPriority:
		return t.Priority, t.Priority != ""
	case FieldIssueType:
		return t.IssueType, t.IssueType != ""
	case FieldAssignee:
		if t.Assignee == nil {
			return nil, false
		}
		return *t.Assignee, true
	case FieldReporter:
		if t.Reporter == nil {
			return nil, false
		}
		return *t.Reporter, true
	case FieldProjectKey:
		return t.ProjectKey, t.ProjectKey != ""
	case FieldSummary:
		return t.Summary, t.Summary != ""
	case FieldLabels:
		return t.Labels, len(t.Labels) > 0
	default:
		return nil, false
	}
}

// LabelsCSV flattens labels for storage, matching the remote tracker's
// comma-separated representation.
func (t *Ticket) LabelsCSV() string {
	return strings.Join(t.Labels, ",")
}

// SplitLabels reverses LabelsCSV.
func SplitLabels(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	labels := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}
	return labels
}
