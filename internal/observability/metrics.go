package observability

import (
	"strconv"
	"sync"
)

// Metrics provides basic in-memory counters for sync activity and the
// HTTP surface. Advisory only; reset on process restart.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	errorCount    map[string]int64
	cyclesRun     int64
	cycleErrors   int64
	pagesFetched  int64
	ticketsMerged int64
	fetchRetries  int64
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	CyclesRun     int64 `json:"cycles_run"`
	CycleErrors   int64 `json:"cycle_errors"`
	PagesFetched  int64 `json:"pages_fetched"`
	TicketsMerged int64 `json:"tickets_merged"`
	FetchRetries  int64 `json:"fetch_retries"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordCycle counts one finished sync cycle.
func (m *Metrics) RecordCycle(failed bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cyclesRun++
	if failed {
		m.cycleErrors++
	}
}

// RecordPage counts one merged page and its tickets.
func (m *Metrics) RecordPage(tickets int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pagesFetched++
	m.ticketsMerged += int64(tickets)
}

// RecordFetchRetry counts one retried page fetch.
func (m *Metrics) RecordFetchRetry() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchRetries++
}

// Snapshot returns a copy of the sync counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		CyclesRun:     m.cyclesRun,
		CycleErrors:   m.cycleErrors,
		PagesFetched:  m.pagesFetched,
		TicketsMerged: m.ticketsMerged,
		FetchRetries:  m.fetchRetries,
	}
}
