package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/jira-mirror/internal/domain"
	"github.com/spec-kit/jira-mirror/pkg/util/errorutil"
)

// MemoryStore is an in-memory implementation of the store contracts. It
// backs DSN-less development runs and unit tests. All mutation is
// serialized behind one mutex, matching the transactional guarantees of
// the Postgres implementation.
type MemoryStore struct {
	mu      sync.RWMutex
	tickets map[string]domain.Ticket
	scope   domain.SyncScopeState
	rules   []domain.CategoryRule
}

// NewMemoryStore returns an empty store with an idle, never-synced scope.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tickets: make(map[string]domain.Ticket),
		scope:   domain.SyncScopeState{Status: domain.SyncStatusIdle},
	}
}

var (
	_ TicketRepository = (*MemoryStore)(nil)
	_ ScopeRepository  = (*MemoryStore)(nil)
	_ RuleRepository   = (*MemoryStore)(nil)
)

// Upsert inserts or replaces the record at ticket.Key, preserving an
// existing category when the incoming record carries none.
func (s *MemoryStore) Upsert(_ context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertLocked(*ticket)
	return nil
}

// UpsertBatch applies a page atomically with respect to readers.
func (s *MemoryStore) UpsertBatch(_ context.Context, tickets []domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range tickets {
		s.upsertLocked(tickets[i])
	}
	return nil
}

func (s *MemoryStore) upsertLocked(ticket domain.Ticket) {
	if existing, ok := s.tickets[ticket.Key]; ok && ticket.Category == nil {
		ticket.Category = existing.Category
	}
	s.tickets[ticket.Key] = ticket
}

func (s *MemoryStore) GetByKey(_ context.Context, key string) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ticket, ok := s.tickets[key]
	if !ok {
		return nil, errorutil.NewNotFound("ticket", map[string]any{"key": key})
	}
	return &ticket, nil
}

func (s *MemoryStore) GetAll(_ context.Context) ([]domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Ticket, 0, len(s.tickets))
	for _, ticket := range s.tickets {
		result = append(result, ticket)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) QueryUpdatedSince(_ context.Context, since time.Time) ([]domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Ticket
	for _, ticket := range s.tickets {
		if !ticket.UpdatedAt.Before(since) {
			result = append(result, ticket)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.Before(result[j].UpdatedAt)
	})
	return result, nil
}

func (s *MemoryStore) ListWithFilter(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Ticket
	for _, ticket := range s.tickets {
		if !matchesFilter(&ticket, filter) {
			continue
		}
		result = append(result, ticket)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return nil, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func matchesFilter(ticket *domain.Ticket, filter TicketFilter) bool {
	if len(filter.Statuses) > 0 && !containsString(filter.Statuses, ticket.Status) {
		return false
	}
	if len(filter.Priorities) > 0 && !containsString(filter.Priorities, ticket.Priority) {
		return false
	}
	if len(filter.Categories) > 0 {
		if ticket.Category == nil || !containsString(filter.Categories, *ticket.Category) {
			return false
		}
	}
	if filter.ProjectKey != nil && ticket.ProjectKey != *filter.ProjectKey {
		return false
	}
	if filter.Assignee != nil {
		if ticket.Assignee == nil || *ticket.Assignee != *filter.Assignee {
			return false
		}
	}
	if filter.UpdatedFrom != nil && ticket.UpdatedAt.Before(*filter.UpdatedFrom) {
		return false
	}
	if filter.UpdatedTo != nil && ticket.UpdatedAt.After(*filter.UpdatedTo) {
		return false
	}
	if filter.ResolvedOnly && ticket.ResolvedAt == nil {
		return false
	}
	if filter.SearchTerm != nil {
		term := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
		if term != "" &&
			!strings.Contains(strings.ToLower(ticket.Summary), term) &&
			!strings.Contains(strings.ToLower(ticket.Key), term) {
			return false
		}
	}
	return true
}

func containsString(values []string, value string) bool {
	for _, candidate := range values {
		if candidate == value {
			return true
		}
	}
	return false
}

func (s *MemoryStore) SetCategory(_ context.Context, key string, label *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[key]
	if !ok {
		return errorutil.NewNotFound("ticket", map[string]any{"key": key})
	}
	ticket.Category = label
	s.tickets[key] = ticket
	return nil
}

func (s *MemoryStore) GetScopeState(_ context.Context) (*domain.SyncScopeState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := s.scope
	return &state, nil
}

func (s *MemoryStore) SetScopeState(_ context.Context, state *domain.SyncScopeState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scope = *state
	return nil
}

func (s *MemoryStore) ListRules(_ context.Context) ([]domain.CategoryRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rules := make([]domain.CategoryRule, len(s.rules))
	copy(rules, s.rules)
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].PriorityOrder < rules[j].PriorityOrder
	})
	return rules, nil
}

func (s *MemoryStore) ReplaceRules(_ context.Context, rules []domain.CategoryRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = make([]domain.CategoryRule, len(rules))
	copy(s.rules, rules)
	return nil
}
