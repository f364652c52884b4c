package dto

import (
	"time"

	"github.com/spec-kit/jira-mirror/internal/domain"
	"github.com/spec-kit/jira-mirror/internal/observability"
)

// StartSyncResponse reports the cycle a trigger resolved to.
type StartSyncResponse struct {
	CycleID        string `json:"cycle_id"`
	AlreadyRunning bool   `json:"already_running"`
}

// SyncStatusResponse combines persisted scope state with the advisory
// progress of the running cycle, if any.
type SyncStatusResponse struct {
	Status      domain.SyncStatus             `json:"status"`
	Watermark   *time.Time                    `json:"watermark,omitempty"`
	LastError   *string                       `json:"last_error,omitempty"`
	StartedAt   *time.Time                    `json:"started_at,omitempty"`
	CompletedAt *time.Time                    `json:"completed_at,omitempty"`
	Progress    *domain.SyncProgress          `json:"progress,omitempty"`
	Counters    observability.MetricsSnapshot `json:"counters"`
}

// SaveRulesRequest carries a replacement rule sequence. Order in the
// slice is the evaluation order.
type SaveRulesRequest struct {
	Rules []domain.CategoryRule `json:"rules"`
}

// RulesResponse returns the persisted, normalized rule sequence.
type RulesResponse struct {
	Rules []domain.CategoryRule `json:"rules"`
}
