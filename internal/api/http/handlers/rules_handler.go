package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/jira-mirror/internal/api/dto"
	"github.com/spec-kit/jira-mirror/internal/service"
	"github.com/spec-kit/jira-mirror/pkg/util/errorutil"
)

// RulesHandler manages the user-defined category rule sequence.
type RulesHandler struct {
	service *service.RulesService
}

// NewRulesHandler constructs handler.
func NewRulesHandler(rulesService *service.RulesService) *RulesHandler {
	return &RulesHandler{service: rulesService}
}

// ListRules GET /rules.
func (h *RulesHandler) ListRules(c *fiber.Ctx) error {
	rules, err := h.service.ListRules(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.RulesResponse{Rules: rules}})
}

// SaveRules PUT /rules. Replaces the whole ordered sequence and
// recategorizes the mirror.
func (h *RulesHandler) SaveRules(c *fiber.Ctx) error {
	var req dto.SaveRulesRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	saved, err := h.service.SaveRules(c.UserContext(), req.Rules)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.RulesResponse{Rules: saved}})
}
