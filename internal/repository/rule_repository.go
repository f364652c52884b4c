package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/jira-mirror/internal/domain"
	"github.com/spec-kit/jira-mirror/pkg/util/errorutil"
)

// RuleRepository persists the ordered category rule sequence.
type RuleRepository interface {
	ListRules(ctx context.Context) ([]domain.CategoryRule, error)
	ReplaceRules(ctx context.Context, rules []domain.CategoryRule) error
}

type ruleRepository struct {
	pool *pgxpool.Pool
}

// NewRuleRepository instantiates repository.
func NewRuleRepository(pool *pgxpool.Pool) RuleRepository {
	return &ruleRepository{pool: pool}
}

func (r *ruleRepository) ListRules(ctx context.Context) ([]domain.CategoryRule, error) {
	const query = `
        SELECT id, priority_order, conditions, category_label
        FROM category_rules ORDER BY priority_order ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, errorutil.NewStorageUnavailable(err)
	}
	defer rows.Close()

	var rules []domain.CategoryRule
	for rows.Next() {
		var rule domain.CategoryRule
		var conditions []byte
		if err := rows.Scan(&rule.ID, &rule.PriorityOrder, &conditions, &rule.CategoryLabel); err != nil {
			return nil, errorutil.NewStorageUnavailable(err)
		}
		if err := json.Unmarshal(conditions, &rule.Conditions); err != nil {
			return nil, errorutil.NewStorageUnavailable(err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, errorutil.NewStorageUnavailable(err)
	}
	return rules, nil
}

// ReplaceRules swaps the full ordered sequence in one transaction.
func (r *ruleRepository) ReplaceRules(ctx context.Context, rules []domain.CategoryRule) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errorutil.NewStorageUnavailable(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM category_rules`); err != nil {
		return errorutil.NewStorageUnavailable(err)
	}
	for i := range rules {
		conditions, err := json.Marshal(rules[i].Conditions)
		if err != nil {
			return errorutil.NewStorageUnavailable(err)
		}
		const insert = `
            INSERT INTO category_rules (id, priority_order, conditions, category_label)
            VALUES ($1,$2,$3,$4)`
		if _, err := tx.Exec(ctx, insert, rules[i].ID, rules[i].PriorityOrder, conditions, rules[i].CategoryLabel); err != nil {
			return errorutil.NewStorageUnavailable(err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return errorutil.NewStorageUnavailable(err)
	}
	return nil
}
