package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/jira-mirror/internal/api/dto"
	"github.com/spec-kit/jira-mirror/internal/domain"
	"github.com/spec-kit/jira-mirror/internal/observability"
	"github.com/spec-kit/jira-mirror/internal/service"
)

// SyncHandler exposes sync triggers and status to the UI layer.
type SyncHandler struct {
	sync    *service.SyncService
	metrics *observability.Metrics
}

// NewSyncHandler constructs handler.
func NewSyncHandler(syncService *service.SyncService, metrics *observability.Metrics) *SyncHandler {
	return &SyncHandler{sync: syncService, metrics: metrics}
}

// StartSync POST /sync. A trigger while a cycle is running resolves to
// the running cycle instead of starting a second one.
func (h *SyncHandler) StartSync(c *fiber.Ctx) error {
	cycleID, started := h.sync.StartSync("manual")
	response := dto.StartSyncResponse{CycleID: cycleID, AlreadyRunning: !started}
	if !started {
		return c.Status(http.StatusOK).JSON(fiber.Map{"data": response})
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": response})
}

// CancelSync DELETE /sync.
func (h *SyncHandler) CancelSync(c *fiber.Ctx) error {
	cancelled := h.sync.CancelSync()
	return c.JSON(fiber.Map{"data": fiber.Map{"cancelled": cancelled}})
}

// Status GET /sync/status.
func (h *SyncHandler) Status(c *fiber.Ctx) error {
	state, err := h.sync.ScopeState(c.UserContext())
	if err != nil {
		return err
	}

	response := dto.SyncStatusResponse{
		Status:      state.Status,
		Watermark:   state.Watermark,
		LastError:   state.LastError,
		StartedAt:   state.StartedAt,
		CompletedAt: state.CompletedAt,
		Counters:    h.metrics.Snapshot(),
	}
	if _, running := h.sync.Running(); running {
		progress := h.sync.Progress()
		response.Status = domain.SyncStatusRunning
		response.Progress = &progress
	}
	return c.JSON(fiber.Map{"data": response})
}
