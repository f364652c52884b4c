package service

import (
	"context"
	"time"

	"github.com/spec-kit/jira-mirror/internal/domain"
	"github.com/spec-kit/jira-mirror/internal/repository"
)

// TicketService is the read-side surface over the mirror. The mirror is
// written only by the sync orchestrator and the categorization pass, so
// this service never mutates tickets.
type TicketService struct {
	tickets repository.TicketRepository
}

// TicketQuery describes presentation-layer listing filters.
type TicketQuery struct {
	Statuses     []string
	Priorities   []string
	Categories   []string
	ProjectKey   *string
	Assignee     *string
	SearchTerm   *string
	UpdatedFrom  *time.Time
	UpdatedTo    *time.Time
	ResolvedOnly bool
	Limit        int
	Offset       int
}

// NewTicketService constructs the service.
func NewTicketService(tickets repository.TicketRepository) *TicketService {
	return &TicketService{tickets: tickets}
}

// ListTickets returns mirrored tickets matching the query.
func (s *TicketService) ListTickets(ctx context.Context, query TicketQuery) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{
		Statuses:     query.Statuses,
		Priorities:   query.Priorities,
		Categories:   query.Categories,
		ProjectKey:   query.ProjectKey,
		Assignee:     query.Assignee,
		SearchTerm:   query.SearchTerm,
		UpdatedFrom:  query.UpdatedFrom,
		UpdatedTo:    query.UpdatedTo,
		ResolvedOnly: query.ResolvedOnly,
		Limit:        query.Limit,
		Offset:       query.Offset,
	}
	return s.tickets.ListWithFilter(ctx, filter)
}

// GetTicket fetches a single mirrored ticket by key.
func (s *TicketService) GetTicket(ctx context.Context, key string) (*domain.Ticket, error) {
	return s.tickets.GetByKey(ctx, key)
}
