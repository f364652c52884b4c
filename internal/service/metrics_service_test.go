package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/jira-mirror/internal/businesshours"
	"github.com/spec-kit/jira-mirror/internal/config"
	"github.com/spec-kit/jira-mirror/internal/domain"
	"github.com/spec-kit/jira-mirror/internal/repository"
)

func roundTheClockCalculator() *businesshours.Calculator {
	// Every day, 0-23h window: business time approximates wall time,
	// which keeps expected values easy to state.
	return businesshours.NewCalculator(config.BusinessHoursConfig{
		StartHour: 0,
		EndHour:   23,
		Weekdays: []time.Weekday{
			time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
			time.Thursday, time.Friday, time.Saturday,
		},
		Timezone: "UTC",
	})
}

func resolvedTicket(key, status, priority string, createdAt time.Time, resolveAfter time.Duration) domain.Ticket {
	resolvedAt := createdAt.Add(resolveAfter)
	ticket := mirrorTicket(key, resolvedAt)
	ticket.Status = status
	ticket.Priority = priority
	ticket.CreatedAt = createdAt
	ticket.ResolvedAt = &resolvedAt
	return ticket
}

func TestMetricsService_EmptyStore(t *testing.T) {
	t.Parallel()

	store := repository.NewMemoryStore()
	svc := NewMetricsService(store, roundTheClockCalculator(), nil, nil)

	result, err := svc.Aggregations(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.TicketsByStatus)
	assert.Empty(t, result.TicketsOverTime)
	assert.Empty(t, result.ResolutionTimeByPriority)
	assert.Equal(t, SummaryStats{}, result.Summary)
}

func TestMetricsService_CountsAndSummary(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	store := repository.NewMemoryStore()
	require.NoError(t, store.UpsertBatch(context.Background(), []domain.Ticket{
		resolvedTicket("OPS-1", "Done", "High", base, 2*time.Hour),
		resolvedTicket("OPS-2", "Done", "High", base, 4*time.Hour),
		func() domain.Ticket {
			ticket := mirrorTicket("OPS-3", base)
			ticket.Status = "Open"
			ticket.Priority = "Low"
			ticket.CreatedAt = base
			return ticket
		}(),
	}))

	svc := NewMetricsService(store, roundTheClockCalculator(), nil, nil)
	result, err := svc.Aggregations(context.Background())
	require.NoError(t, err)

	// Buckets sort by descending count, then name.
	require.Len(t, result.TicketsByStatus, 2)
	assert.Equal(t, CountEntry{Name: "Done", Count: 2}, result.TicketsByStatus[0])
	assert.Equal(t, CountEntry{Name: "Open", Count: 1}, result.TicketsByStatus[1])

	require.Len(t, result.TicketsByCategory, 1)
	assert.Equal(t, "Uncategorized", result.TicketsByCategory[0].Name)

	assert.Equal(t, 3, result.Summary.TotalTickets)
	assert.Equal(t, 1, result.Summary.OpenTickets)
	assert.Equal(t, 2, result.Summary.ResolvedTickets)
	assert.InDelta(t, 3.0, result.Summary.AvgResolutionHours, 1e-9)
	assert.InDelta(t, 3.0, result.Summary.MedianResolutionHours, 1e-9)
}

func TestMetricsService_ResolutionByPriority(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	store := repository.NewMemoryStore()
	require.NoError(t, store.UpsertBatch(context.Background(), []domain.Ticket{
		resolvedTicket("OPS-1", "Done", "High", base, 1*time.Hour),
		resolvedTicket("OPS-2", "Done", "High", base, 2*time.Hour),
		resolvedTicket("OPS-3", "Done", "High", base, 6*time.Hour),
		resolvedTicket("OPS-4", "Done", "Low", base, 10*time.Hour),
	}))

	svc := NewMetricsService(store, roundTheClockCalculator(), nil, nil)
	result, err := svc.Aggregations(context.Background())
	require.NoError(t, err)

	require.Len(t, result.ResolutionTimeByPriority, 2)

	// High ranks above Low in the display ordering.
	high := result.ResolutionTimeByPriority[0]
	assert.Equal(t, "High", high.Name)
	assert.Equal(t, 3, high.Count)
	assert.InDelta(t, 3.0, high.AvgHours, 1e-9)
	assert.InDelta(t, 2.0, high.MedianHours, 1e-9)

	low := result.ResolutionTimeByPriority[1]
	assert.Equal(t, "Low", low.Name)
	assert.Equal(t, 1, low.Count)
	assert.InDelta(t, 10.0, low.AvgHours, 1e-9)
}

func TestMetricsService_TicketsOverTime(t *testing.T) {
	t.Parallel()

	january := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	store := repository.NewMemoryStore()

	// Created in January, resolved in February: each month counts its
	// own series.
	crossMonth := mirrorTicket("OPS-1", january)
	crossMonth.CreatedAt = january
	resolvedAt := time.Date(2025, 2, 5, 9, 0, 0, 0, time.UTC)
	crossMonth.ResolvedAt = &resolvedAt

	februaryOnly := mirrorTicket("OPS-2", resolvedAt)
	februaryOnly.CreatedAt = resolvedAt

	require.NoError(t, store.UpsertBatch(context.Background(), []domain.Ticket{crossMonth, februaryOnly}))

	svc := NewMetricsService(store, roundTheClockCalculator(), nil, nil)
	result, err := svc.Aggregations(context.Background())
	require.NoError(t, err)

	require.Len(t, result.TicketsOverTime, 2)
	assert.Equal(t, TimeSeriesEntry{Month: "2025-01", Created: 1, Resolved: 0}, result.TicketsOverTime[0])
	assert.Equal(t, TimeSeriesEntry{Month: "2025-02", Created: 1, Resolved: 1}, result.TicketsOverTime[1])
}

func TestMetricsService_TimeSeriesKeepsTrailingTwelveMonths(t *testing.T) {
	t.Parallel()

	store := repository.NewMemoryStore()
	var tickets []domain.Ticket
	for month := 0; month < 15; month++ {
		createdAt := time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC).AddDate(0, month, 0)
		ticket := mirrorTicket("OPS-"+createdAt.Format("2006-01"), createdAt)
		ticket.CreatedAt = createdAt
		tickets = append(tickets, ticket)
	}
	require.NoError(t, store.UpsertBatch(context.Background(), tickets))

	svc := NewMetricsService(store, roundTheClockCalculator(), nil, nil)
	result, err := svc.Aggregations(context.Background())
	require.NoError(t, err)

	require.Len(t, result.TicketsOverTime, 12)
	assert.Equal(t, "2024-04", result.TicketsOverTime[0].Month)
	assert.Equal(t, "2025-03", result.TicketsOverTime[11].Month)
}
