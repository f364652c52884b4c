package dto

import (
	"time"

	"github.com/spec-kit/jira-mirror/internal/domain"
)

// TicketResponse is the mirrored ticket shape served to the UI.
type TicketResponse struct {
	Key        string     `json:"key"`
	Summary    string     `json:"summary"`
	Status     string     `json:"status"`
	Priority   string     `json:"priority"`
	IssueType  string     `json:"issue_type"`
	Assignee   *string    `json:"assignee"`
	Reporter   *string    `json:"reporter"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ResolvedAt *time.Time `json:"resolved_at"`
	Labels     []string   `json:"labels"`
	ProjectKey string     `json:"project_key"`
	Category   *string    `json:"category"`
}

// FromTicket maps a domain ticket onto the response shape.
func FromTicket(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		Key:        ticket.Key,
		Summary:    ticket.Summary,
		Status:     ticket.Status,
		Priority:   ticket.Priority,
		IssueType:  ticket.IssueType,
		Assignee:   ticket.Assignee,
		Reporter:   ticket.Reporter,
		CreatedAt:  ticket.CreatedAt,
		UpdatedAt:  ticket.UpdatedAt,
		ResolvedAt: ticket.ResolvedAt,
		Labels:     ticket.Labels,
		ProjectKey: ticket.ProjectKey,
		Category:   ticket.Category,
	}
}
