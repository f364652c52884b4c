package repository

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/jira-mirror/internal/domain"
	"github.com/spec-kit/jira-mirror/pkg/util/errorutil"
)

func storeTicket(key string, updatedAt time.Time) domain.Ticket {
	return domain.Ticket{
		Key:        key,
		Summary:    "summary of " + key,
		Status:     "Open",
		Priority:   "Medium",
		IssueType:  "Task",
		ProjectKey: "OPS",
		CreatedAt:  updatedAt.Add(-time.Hour),
		UpdatedAt:  updatedAt,
	}
}

func TestMemoryStore_UpsertIsIdempotent(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	ticket := storeTicket("OPS-1", time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))

	require.NoError(t, store.Upsert(ctx, &ticket))
	require.NoError(t, store.Upsert(ctx, &ticket))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemoryStore_UpsertReplacesFields(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	ticket := storeTicket("OPS-1", time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, store.Upsert(ctx, &ticket))

	updated := ticket
	updated.Status = "Done"
	updated.UpdatedAt = ticket.UpdatedAt.Add(time.Hour)
	require.NoError(t, store.Upsert(ctx, &updated))

	got, err := store.GetByKey(ctx, "OPS-1")
	require.NoError(t, err)
	assert.Equal(t, "Done", got.Status)
	assert.True(t, got.UpdatedAt.Equal(updated.UpdatedAt))
}

func TestMemoryStore_UpsertPreservesCategory(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	ticket := storeTicket("OPS-1", time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, store.Upsert(ctx, &ticket))

	label := "incidents"
	require.NoError(t, store.SetCategory(ctx, "OPS-1", &label))

	// A refreshed remote record carries no category; the local label
	// must survive the merge.
	refreshed := storeTicket("OPS-1", ticket.UpdatedAt.Add(time.Hour))
	require.NoError(t, store.Upsert(ctx, &refreshed))

	got, err := store.GetByKey(ctx, "OPS-1")
	require.NoError(t, err)
	require.NotNil(t, got.Category)
	assert.Equal(t, "incidents", *got.Category)
}

func TestMemoryStore_SetCategoryUnknownKey(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	label := "incidents"
	err := store.SetCategory(context.Background(), "OPS-404", &label)
	assert.True(t, errorutil.IsNotFound(err))
}

func TestMemoryStore_GetByKeyUnknown(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	_, err := store.GetByKey(context.Background(), "OPS-404")
	assert.True(t, errorutil.IsNotFound(err))
}

func TestMemoryStore_ListWithFilter(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	open := storeTicket("OPS-1", time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))
	done := storeTicket("OPS-2", time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC))
	done.Status = "Done"
	resolvedAt := done.UpdatedAt
	done.ResolvedAt = &resolvedAt
	other := storeTicket("WEB-9", time.Date(2025, 5, 3, 10, 0, 0, 0, time.UTC))
	other.ProjectKey = "WEB"
	other.Summary = "Fix login redirect loop"
	require.NoError(t, store.UpsertBatch(ctx, []domain.Ticket{open, done, other}))

	testCases := []struct {
		name     string
		filter   TicketFilter
		wantKeys []string
	}{
		{
			name:     "ByStatus",
			filter:   TicketFilter{Statuses: []string{"Done"}},
			wantKeys: []string{"OPS-2"},
		},
		{
			name:     "ByProject",
			filter:   TicketFilter{ProjectKey: ptr("OPS")},
			wantKeys: []string{"OPS-2", "OPS-1"},
		},
		{
			name:     "ResolvedOnly",
			filter:   TicketFilter{ResolvedOnly: true},
			wantKeys: []string{"OPS-2"},
		},
		{
			name:     "SearchTermMatchesSummary",
			filter:   TicketFilter{SearchTerm: ptr("redirect")},
			wantKeys: []string{"WEB-9"},
		},
		{
			name:     "SearchTermMatchesKey",
			filter:   TicketFilter{SearchTerm: ptr("web-9")},
			wantKeys: []string{"WEB-9"},
		},
		{
			name:     "UpdatedWindow",
			filter:   TicketFilter{UpdatedFrom: &done.UpdatedAt, UpdatedTo: &done.UpdatedAt},
			wantKeys: []string{"OPS-2"},
		},
		{
			name:     "NoMatch",
			filter:   TicketFilter{Statuses: []string{"Blocked"}},
			wantKeys: nil,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got, err := store.ListWithFilter(ctx, testCase.filter)
			require.NoError(t, err)

			keys := make([]string, 0, len(got))
			for i := range got {
				keys = append(keys, got[i].Key)
			}
			if testCase.wantKeys == nil {
				assert.Empty(t, keys)
			} else {
				assert.Equal(t, testCase.wantKeys, keys)
			}
		})
	}
}

func TestMemoryStore_ListWithFilterPagination(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		ticket := storeTicket("OPS-"+strconv.Itoa(i+1), base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, store.Upsert(ctx, &ticket))
	}

	page, err := store.ListWithFilter(ctx, TicketFilter{Limit: 2, Offset: 0})
	require.NoError(t, err)
	require.Len(t, page, 2)
	// Newest first.
	assert.Equal(t, "OPS-5", page[0].Key)

	page, err = store.ListWithFilter(ctx, TicketFilter{Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "OPS-1", page[0].Key)

	page, err = store.ListWithFilter(ctx, TicketFilter{Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestMemoryStore_QueryUpdatedSince(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	boundary := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.UpsertBatch(ctx, []domain.Ticket{
		storeTicket("OPS-1", boundary.Add(-time.Second)),
		storeTicket("OPS-2", boundary),
		storeTicket("OPS-3", boundary.Add(time.Second)),
	}))

	got, err := store.QueryUpdatedSince(ctx, boundary)
	require.NoError(t, err)

	// The boundary is inclusive, oldest first.
	require.Len(t, got, 2)
	assert.Equal(t, "OPS-2", got[0].Key)
	assert.Equal(t, "OPS-3", got[1].Key)
}

func TestMemoryStore_ScopeStateRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	initial, err := store.GetScopeState(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusIdle, initial.Status)
	assert.Nil(t, initial.Watermark)

	watermark := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.SetScopeState(ctx, &domain.SyncScopeState{
		Watermark: &watermark,
		Status:    domain.SyncStatusSuccess,
	}))

	got, err := store.GetScopeState(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusSuccess, got.Status)
	require.NotNil(t, got.Watermark)
	assert.True(t, got.Watermark.Equal(watermark))
}

func TestMemoryStore_ReplaceRules(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	first := []domain.CategoryRule{
		{ID: "b", PriorityOrder: 2, CategoryLabel: "second"},
		{ID: "a", PriorityOrder: 1, CategoryLabel: "first"},
	}
	require.NoError(t, store.ReplaceRules(ctx, first))

	got, err := store.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID, "rules list in priority order")

	require.NoError(t, store.ReplaceRules(ctx, []domain.CategoryRule{
		{ID: "c", PriorityOrder: 1, CategoryLabel: "only"},
	}))
	got, err = store.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)
}

func ptr[T any](v T) *T { return &v }
