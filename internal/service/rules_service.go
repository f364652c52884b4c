package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/jira-mirror/internal/categorize"
	"github.com/spec-kit/jira-mirror/internal/domain"
	"github.com/spec-kit/jira-mirror/internal/events"
	"github.com/spec-kit/jira-mirror/internal/repository"
	"github.com/spec-kit/jira-mirror/pkg/util/errorutil"
)

// RulesService manages the user-defined category rule sequence and the
// recategorization pass that follows a rule edit.
type RulesService struct {
	rules      repository.RuleRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewRulesService constructs the service.
func NewRulesService(rules repository.RuleRepository, tickets repository.TicketRepository, dispatcher events.Dispatcher, logger *zap.Logger) *RulesService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RulesService{rules: rules, tickets: tickets, dispatcher: dispatcher, logger: logger}
}

// ListRules returns the ordered rule sequence.
func (s *RulesService) ListRules(ctx context.Context) ([]domain.CategoryRule, error) {
	return s.rules.ListRules(ctx)
}

// SaveRules validates and persists a replacement rule sequence, then
// recategorizes every mirrored ticket under the new rules.
func (s *RulesService) SaveRules(ctx context.Context, rules []domain.CategoryRule) ([]domain.CategoryRule, error) {
	if err := categorize.ValidateRules(rules); err != nil {
		return nil, err
	}

	// Normalize: assign missing IDs and make the stored order explicit.
	normalized := make([]domain.CategoryRule, len(rules))
	copy(normalized, rules)
	for i := range normalized {
		if normalized[i].ID == "" {
			normalized[i].ID = uuid.NewString()
		}
		normalized[i].PriorityOrder = i
	}

	if err := s.rules.ReplaceRules(ctx, normalized); err != nil {
		return nil, err
	}

	recategorized, err := s.recategorizeAll(ctx, normalized)
	if err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventRulesUpdated,
			Timestamp: time.Now(),
			Payload: events.RulesUpdatedPayload{
				Rules:         normalized,
				Recategorized: recategorized,
			},
		})
	}
	s.logger.Info("category rules replaced",
		zap.Int("rules", len(normalized)),
		zap.Int("recategorized", recategorized),
	)
	return normalized, nil
}

func (s *RulesService) recategorizeAll(ctx context.Context, rules []domain.CategoryRule) (int, error) {
	tickets, err := s.tickets.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	changed := 0
	for i := range tickets {
		ticket := &tickets[i]
		label := categorize.Categorize(ticket, rules)
		if sameLabel(ticket.Category, label) {
			continue
		}
		if err := s.tickets.SetCategory(ctx, ticket.Key, label); err != nil {
			if errorutil.IsNotFound(err) {
				continue
			}
			return changed, err
		}
		changed++
	}
	return changed, nil
}
