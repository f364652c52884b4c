package domain

import "time"

// SyncStatus enumerates the lifecycle of a sync scope.
type SyncStatus string

const (
	SyncStatusIdle    SyncStatus = "idle"
	SyncStatusRunning SyncStatus = "running"
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusError   SyncStatus = "error"
)

// SyncScopeState is the persisted singleton record for the sync scope.
// Watermark only advances after a cycle fully commits; a nil Watermark
// means the scope has never synced and the next cycle fetches everything.
type SyncScopeState struct {
	Watermark   *time.Time
	Status      SyncStatus
	LastError   *string
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// SyncProgress is the advisory progress signal for a running cycle.
// It never gates correctness; observers poll it.
type SyncProgress struct {
	CycleID       string     `json:"cycle_id"`
	PagesFetched  int        `json:"pages_fetched"`
	TicketsMerged int        `json:"tickets_merged"`
	StartedAt     time.Time  `json:"started_at"`
	LastPageAt    *time.Time `json:"last_page_at,omitempty"`
}
