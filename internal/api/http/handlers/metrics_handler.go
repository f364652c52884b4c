package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/jira-mirror/internal/service"
)

// MetricsHandler serves aggregated mirror statistics.
type MetricsHandler struct {
	service *service.MetricsService
}

// NewMetricsHandler constructs handler.
func NewMetricsHandler(metricsService *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{service: metricsService}
}

// Aggregations GET /metrics/aggregations.
func (h *MetricsHandler) Aggregations(c *fiber.Ctx) error {
	result, err := h.service.Aggregations(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

// Summary GET /metrics/summary.
func (h *MetricsHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}
