package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/jira-mirror/internal/domain"
	"github.com/spec-kit/jira-mirror/pkg/util/errorutil"
)

// DefaultScope is the single sync scope this deployment mirrors.
const DefaultScope = "assigned-tickets"

// ScopeRepository persists the singleton sync scope state record.
type ScopeRepository interface {
	GetScopeState(ctx context.Context) (*domain.SyncScopeState, error)
	SetScopeState(ctx context.Context, state *domain.SyncScopeState) error
}

type scopeRepository struct {
	pool *pgxpool.Pool
}

// NewScopeRepository instantiates repository.
func NewScopeRepository(pool *pgxpool.Pool) ScopeRepository {
	return &scopeRepository{pool: pool}
}

// GetScopeState returns the persisted state, or a fresh idle state with
// a nil watermark when the scope has never synced.
func (r *scopeRepository) GetScopeState(ctx context.Context) (*domain.SyncScopeState, error) {
	const query = `
        SELECT watermark, status, last_error, started_at, completed_at
        FROM sync_scope_state WHERE scope=$1`
	var state domain.SyncScopeState
	err := r.pool.QueryRow(ctx, query, DefaultScope).Scan(
		&state.Watermark,
		&state.Status,
		&state.LastError,
		&state.StartedAt,
		&state.CompletedAt,
	)
	if err == pgx.ErrNoRows {
		return &domain.SyncScopeState{Status: domain.SyncStatusIdle}, nil
	}
	if err != nil {
		return nil, errorutil.NewStorageUnavailable(err)
	}
	return &state, nil
}

// SetScopeState upserts the singleton record, last writer wins.
func (r *scopeRepository) SetScopeState(ctx context.Context, state *domain.SyncScopeState) error {
	const query = `
        INSERT INTO sync_scope_state (scope, watermark, status, last_error, started_at, completed_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (scope) DO UPDATE SET
            watermark = EXCLUDED.watermark,
            status = EXCLUDED.status,
            last_error = EXCLUDED.last_error,
            started_at = EXCLUDED.started_at,
            completed_at = EXCLUDED.completed_at`
	_, err := r.pool.Exec(ctx, query,
		DefaultScope,
		state.Watermark,
		state.Status,
		state.LastError,
		state.StartedAt,
		state.CompletedAt,
	)
	if err != nil {
		return errorutil.NewStorageUnavailable(err)
	}
	return nil
}
