package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/jira-mirror/internal/domain"
	"github.com/spec-kit/jira-mirror/pkg/util/errorutil"
)

// TicketFilter captures mirror query parameters.
type TicketFilter struct {
	Statuses     []string
	Priorities   []string
	Categories   []string
	ProjectKey   *string
	Assignee     *string
	SearchTerm   *string
	UpdatedFrom  *time.Time
	UpdatedTo    *time.Time
	ResolvedOnly bool
	Limit        int
	Offset       int
}

// TicketRepository encapsulates the mirrored ticket store.
type TicketRepository interface {
	Upsert(ctx context.Context, ticket *domain.Ticket) error
	UpsertBatch(ctx context.Context, tickets []domain.Ticket) error
	GetByKey(ctx context.Context, key string) (*domain.Ticket, error)
	GetAll(ctx context.Context) ([]domain.Ticket, error)
	QueryUpdatedSince(ctx context.Context, since time.Time) ([]domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	SetCategory(ctx context.Context, key string, label *string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const upsertQuery = `
        INSERT INTO tickets (key, summary, status, priority, issue_type, assignee, reporter,
                             created_at, updated_at, resolved_at, labels, project_key, category)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        ON CONFLICT (key) DO UPDATE SET
            summary = EXCLUDED.summary,
            status = EXCLUDED.status,
            priority = EXCLUDED.priority,
            issue_type = EXCLUDED.issue_type,
            assignee = EXCLUDED.assignee,
            reporter = EXCLUDED.reporter,
            created_at = EXCLUDED.created_at,
            updated_at = EXCLUDED.updated_at,
            resolved_at = EXCLUDED.resolved_at,
            labels = EXCLUDED.labels,
            project_key = EXCLUDED.project_key,
            category = COALESCE(EXCLUDED.category, tickets.category)`

func (r *ticketRepository) Upsert(ctx context.Context, ticket *domain.Ticket) error {
	if _, err := r.pool.Exec(ctx, upsertQuery, upsertArgs(ticket)...); err != nil {
		return errorutil.NewStorageUnavailable(err)
	}
	return nil
}

// UpsertBatch applies one fetched page in a single transaction so
// readers never observe a partially merged page.
func (r *ticketRepository) UpsertBatch(ctx context.Context, tickets []domain.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errorutil.NewStorageUnavailable(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for i := range tickets {
		if _, err := tx.Exec(ctx, upsertQuery, upsertArgs(&tickets[i])...); err != nil {
			return errorutil.NewStorageUnavailable(err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return errorutil.NewStorageUnavailable(err)
	}
	return nil
}

func upsertArgs(ticket *domain.Ticket) []any {
	return []any{
		ticket.Key,
		ticket.Summary,
		ticket.Status,
		ticket.Priority,
		ticket.IssueType,
		ticket.Assignee,
		ticket.Reporter,
		ticket.CreatedAt,
		ticket.UpdatedAt,
		ticket.ResolvedAt,
		ticket.LabelsCSV(),
		ticket.ProjectKey,
		ticket.Category,
	}
}

const selectColumns = `key, summary, status, priority, issue_type, assignee, reporter,
               created_at, updated_at, resolved_at, labels, project_key, category`

func (r *ticketRepository) GetByKey(ctx context.Context, key string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE key=$1`, selectColumns)
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errorutil.NewNotFound("ticket", map[string]any{"key": key})
		}
		return nil, errorutil.NewStorageUnavailable(err)
	}
	return ticket, nil
}

func (r *ticketRepository) GetAll(ctx context.Context) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets ORDER BY created_at DESC`, selectColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, errorutil.NewStorageUnavailable(err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) QueryUpdatedSince(ctx context.Context, since time.Time) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE updated_at >= $1 ORDER BY updated_at ASC`, selectColumns)
	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, errorutil.NewStorageUnavailable(err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, selectColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, priority := range filter.Priorities {
			args = append(args, priority)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, category := range filter.Categories {
			args = append(args, category)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ProjectKey != nil {
		args = append(args, *filter.ProjectKey)
		clauses = append(clauses, fmt.Sprintf("project_key=$%d", len(args)))
	}
	if filter.Assignee != nil {
		args = append(args, *filter.Assignee)
		clauses = append(clauses, fmt.Sprintf("assignee=$%d", len(args)))
	}
	if filter.UpdatedFrom != nil {
		args = append(args, *filter.UpdatedFrom)
		clauses = append(clauses, fmt.Sprintf("updated_at >= $%d", len(args)))
	}
	if filter.UpdatedTo != nil {
		args = append(args, *filter.UpdatedTo)
		clauses = append(clauses, fmt.Sprintf("updated_at <= $%d", len(args)))
	}
	if filter.ResolvedOnly {
		clauses = append(clauses, "resolved_at IS NOT NULL")
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(summary) LIKE %s OR LOWER(key) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errorutil.NewStorageUnavailable(err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

// SetCategory writes only the derived category column. A missing key is
// reported as NotFound, which callers treat as non-fatal.
func (r *ticketRepository) SetCategory(ctx context.Context, key string, label *string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE tickets SET category=$2 WHERE key=$1`, key, label)
	if err != nil {
		return errorutil.NewStorageUnavailable(err)
	}
	if cmd.RowsAffected() == 0 {
		return errorutil.NewNotFound("ticket", map[string]any{"key": key})
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var labels string
	if err := row.Scan(
		&ticket.Key,
		&ticket.Summary,
		&ticket.Status,
		&ticket.Priority,
		&ticket.IssueType,
		&ticket.Assignee,
		&ticket.Reporter,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
		&labels,
		&ticket.ProjectKey,
		&ticket.Category,
	); err != nil {
		return nil, err
	}
	ticket.Labels = domain.SplitLabels(labels)
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, errorutil.NewStorageUnavailable(err)
		}
		result = append(result, *ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, errorutil.NewStorageUnavailable(err)
	}
	return result, nil
}
