package events

import (
	"time"

	"github.com/spec-kit/jira-mirror/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSyncStarted    EventType = "sync_started"
	EventSyncPageMerged EventType = "sync_page_merged"
	EventSyncCompleted  EventType = "sync_completed"
	EventSyncFailed     EventType = "sync_failed"
	EventSyncCancelled  EventType = "sync_cancelled"
	EventRulesUpdated   EventType = "rules_updated"
)

// Event represents a lifecycle event emitted by the sync orchestrator.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	CycleID   string      `json:"cycle_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SyncStartedPayload payload.
type SyncStartedPayload struct {
	Watermark *time.Time `json:"watermark,omitempty"`
	FullSync  bool       `json:"full_sync"`
}

// SyncPageMergedPayload payload.
type SyncPageMergedPayload struct {
	PageNumber int `json:"page_number"`
	Tickets    int `json:"tickets"`
}

// SyncCompletedPayload payload.
type SyncCompletedPayload struct {
	TicketsMerged int        `json:"tickets_merged"`
	PagesFetched  int        `json:"pages_fetched"`
	NewWatermark  *time.Time `json:"new_watermark,omitempty"`
	Duration      string     `json:"duration"`
}

// SyncFailedPayload payload.
type SyncFailedPayload struct {
	Reason string `json:"reason"`
	Code   string `json:"code"`
}

// RulesUpdatedPayload payload.
type RulesUpdatedPayload struct {
	Rules         []domain.CategoryRule `json:"rules"`
	Recategorized int                   `json:"recategorized"`
}
