package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/spec-kit/jira-mirror/internal/businesshours"
	"github.com/spec-kit/jira-mirror/internal/domain"
	"github.com/spec-kit/jira-mirror/internal/persistence"
	"github.com/spec-kit/jira-mirror/internal/repository"
)

const (
	aggregationsCacheKey = "metrics:aggregations"
	aggregationsCacheTTL = time.Minute
	uncategorizedBucket  = "Uncategorized"
	timeSeriesMonths     = 12
)

// CountEntry is one bucket of a group-by count.
type CountEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ResolutionEntry summarizes business-hours resolution time for one
// priority bucket, computed over resolved tickets only.
type ResolutionEntry struct {
	Name        string  `json:"name"`
	AvgHours    float64 `json:"avg_hours"`
	MedianHours float64 `json:"median_hours"`
	P90Hours    float64 `json:"p90_hours"`
	Count       int     `json:"count"`
}

// TimeSeriesEntry counts tickets created and resolved in one month.
type TimeSeriesEntry struct {
	Month    string `json:"month"`
	Created  int    `json:"created"`
	Resolved int    `json:"resolved"`
}

// SummaryStats is the headline block of the aggregation payload.
type SummaryStats struct {
	TotalTickets          int     `json:"total_tickets"`
	OpenTickets           int     `json:"open_tickets"`
	ResolvedTickets       int     `json:"resolved_tickets"`
	AvgResolutionHours    float64 `json:"avg_resolution_hours"`
	MedianResolutionHours float64 `json:"median_resolution_hours"`
}

// AggregationResult is the full read-side payload for the presentation layer.
type AggregationResult struct {
	TicketsByStatus          []CountEntry      `json:"tickets_by_status"`
	TicketsByPriority        []CountEntry      `json:"tickets_by_priority"`
	TicketsByCategory        []CountEntry      `json:"tickets_by_category"`
	TicketsOverTime          []TimeSeriesEntry `json:"tickets_over_time"`
	ResolutionTimeByPriority []ResolutionEntry `json:"resolution_time_by_priority"`
	Summary                  SummaryStats      `json:"summary"`
}

// MetricsService computes read-side statistics over the mirror
// snapshot. Pure with respect to the store: it never mutates tickets.
type MetricsService struct {
	tickets    repository.TicketRepository
	calculator *businesshours.Calculator
	cache      *persistence.Redis
	logger     *zap.Logger
}

// NewMetricsService constructs the aggregator. The Redis cache is
// optional; a nil cache disables snapshot caching.
func NewMetricsService(tickets repository.TicketRepository, calculator *businesshours.Calculator, cache *persistence.Redis, logger *zap.Logger) *MetricsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricsService{
		tickets:    tickets,
		calculator: calculator,
		cache:      cache,
		logger:     logger,
	}
}

// Aggregations returns the full aggregation payload, served from the
// Redis snapshot cache when fresh.
func (s *MetricsService) Aggregations(ctx context.Context) (*AggregationResult, error) {
	if cached := s.readCache(ctx); cached != nil {
		return cached, nil
	}

	tickets, err := s.tickets.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	result := &AggregationResult{
		TicketsByStatus:          countByField(tickets, func(t *domain.Ticket) string { return t.Status }),
		TicketsByPriority:        countByField(tickets, func(t *domain.Ticket) string { return t.Priority }),
		TicketsByCategory:        countByField(tickets, categoryName),
		TicketsOverTime:          s.ticketsOverTime(tickets),
		ResolutionTimeByPriority: s.resolutionByPriority(tickets),
		Summary:                  s.summary(tickets),
	}

	s.writeCache(ctx, result)
	return result, nil
}

// Summary returns only the headline stats block.
func (s *MetricsService) Summary(ctx context.Context) (*SummaryStats, error) {
	tickets, err := s.tickets.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	summary := s.summary(tickets)
	return &summary, nil
}

// InvalidateCache drops the cached snapshot. Called after each
// successful sync cycle.
func (s *MetricsService) InvalidateCache(ctx context.Context) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	if err := s.cache.Client.Del(ctx, aggregationsCacheKey).Err(); err != nil {
		s.logger.Warn("failed to invalidate metrics cache", zap.Error(err))
	}
}

func (s *MetricsService) readCache(ctx context.Context) *AggregationResult {
	if s.cache == nil || s.cache.Client == nil {
		return nil
	}
	raw, err := s.cache.Client.Get(ctx, aggregationsCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var result AggregationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil
	}
	return &result
}

func (s *MetricsService) writeCache(ctx context.Context, result *AggregationResult) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, aggregationsCacheKey, raw, aggregationsCacheTTL).Err(); err != nil {
		s.logger.Warn("failed to cache metrics snapshot", zap.Error(err))
	}
}

func categoryName(t *domain.Ticket) string {
	if t.Category == nil || *t.Category == "" {
		return uncategorizedBucket
	}
	return *t.Category
}

func countByField(tickets []domain.Ticket, field func(*domain.Ticket) string) []CountEntry {
	counts := make(map[string]int)
	for i := range tickets {
		counts[field(&tickets[i])]++
	}
	entries := make([]CountEntry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, CountEntry{Name: name, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// ticketsOverTime buckets created and resolved counts by calendar
// month, independently, keeping the trailing window. Counting the two
// series separately avoids undercounting tickets resolved in a later
// month than they were created.
func (s *MetricsService) ticketsOverTime(tickets []domain.Ticket) []TimeSeriesEntry {
	type monthCounts struct {
		created  int
		resolved int
	}
	months := make(map[string]*monthCounts)
	bucket := func(month string) *monthCounts {
		if entry, ok := months[month]; ok {
			return entry
		}
		entry := &monthCounts{}
		months[month] = entry
		return entry
	}

	for i := range tickets {
		ticket := &tickets[i]
		bucket(ticket.CreatedAt.UTC().Format("2006-01")).created++
		if ticket.ResolvedAt != nil {
			bucket(ticket.ResolvedAt.UTC().Format("2006-01")).resolved++
		}
	}

	keys := make([]string, 0, len(months))
	for month := range months {
		keys = append(keys, month)
	}
	sort.Strings(keys)
	if len(keys) > timeSeriesMonths {
		keys = keys[len(keys)-timeSeriesMonths:]
	}

	entries := make([]TimeSeriesEntry, 0, len(keys))
	for _, month := range keys {
		entries = append(entries, TimeSeriesEntry{
			Month:    month,
			Created:  months[month].created,
			Resolved: months[month].resolved,
		})
	}
	return entries
}

func (s *MetricsService) resolutionByPriority(tickets []domain.Ticket) []ResolutionEntry {
	hoursByPriority := make(map[string][]float64)
	for i := range tickets {
		ticket := &tickets[i]
		if ticket.ResolvedAt == nil {
			continue
		}
		hours := s.calculator.ElapsedBusinessHours(ticket.CreatedAt, *ticket.ResolvedAt)
		hoursByPriority[ticket.Priority] = append(hoursByPriority[ticket.Priority], hours)
	}

	entries := make([]ResolutionEntry, 0, len(hoursByPriority))
	for priority, hours := range hoursByPriority {
		sort.Float64s(hours)
		entries = append(entries, ResolutionEntry{
			Name:        priority,
			AvgHours:    stat.Mean(hours, nil),
			MedianHours: median(hours),
			P90Hours:    stat.Quantile(0.9, stat.Empirical, hours, nil),
			Count:       len(hours),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return priorityRank(entries[i].Name) < priorityRank(entries[j].Name)
	})
	return entries
}

func (s *MetricsService) summary(tickets []domain.Ticket) SummaryStats {
	summary := SummaryStats{TotalTickets: len(tickets)}
	var hours []float64
	for i := range tickets {
		ticket := &tickets[i]
		if ticket.ResolvedAt == nil {
			summary.OpenTickets++
			continue
		}
		summary.ResolvedTickets++
		hours = append(hours, s.calculator.ElapsedBusinessHours(ticket.CreatedAt, *ticket.ResolvedAt))
	}
	if len(hours) > 0 {
		sort.Float64s(hours)
		summary.AvgResolutionHours = stat.Mean(hours, nil)
		summary.MedianResolutionHours = median(hours)
	}
	return summary
}

// median averages the two middle values for even-sized samples,
// matching the definition the dashboard has always reported.
func median(sorted []float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// priorityRank orders resolution entries by urgency for display.
func priorityRank(priority string) int {
	switch priority {
	case "Critical", "Highest":
		return 1
	case "High":
		return 2
	case "Medium":
		return 3
	case "Low", "Lowest":
		return 4
	default:
		return 5
	}
}
