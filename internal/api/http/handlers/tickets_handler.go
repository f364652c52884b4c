package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/jira-mirror/internal/api/dto"
	"github.com/spec-kit/jira-mirror/internal/service"
)

// TicketsHandler serves the mirrored ticket read surface.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	query := parseTicketQuery(c)
	tickets, err := h.service.ListTickets(c.UserContext(), query)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.FromTicket(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:key.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("key"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

func parseTicketQuery(c *fiber.Ctx) service.TicketQuery {
	query := service.TicketQuery{
		Statuses:   splitCSV(c.Query("status")),
		Priorities: splitCSV(c.Query("priority")),
		Categories: splitCSV(c.Query("category")),
	}
	if project := c.Query("project"); project != "" {
		query.ProjectKey = &project
	}
	if assignee := c.Query("assignee"); assignee != "" {
		query.Assignee = &assignee
	}
	if search := c.Query("q"); search != "" {
		query.SearchTerm = &search
	}
	if from := parseTime(c.Query("updated_from")); from != nil {
		query.UpdatedFrom = from
	}
	if to := parseTime(c.Query("updated_to")); to != nil {
		query.UpdatedTo = to
	}
	query.ResolvedOnly = c.QueryBool("resolved")
	query.Limit = parseInt(c.Query("limit"), 50)
	query.Offset = parseInt(c.Query("offset"), 0)
	return query
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func parseTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
