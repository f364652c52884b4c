package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/jira-mirror/internal/categorize"
	"github.com/spec-kit/jira-mirror/internal/domain"
	"github.com/spec-kit/jira-mirror/internal/events"
	"github.com/spec-kit/jira-mirror/internal/jira"
	"github.com/spec-kit/jira-mirror/internal/observability"
	"github.com/spec-kit/jira-mirror/internal/repository"
	"github.com/spec-kit/jira-mirror/pkg/util/errorutil"
)

// RemoteClient is the fetch boundary the orchestrator drives. A nil
// cursor starts pagination; a nil NextCursor on the returned page ends it.
type RemoteClient interface {
	FetchPage(ctx context.Context, since *time.Time, cursor *string) (*jira.Page, error)
}

// SyncService owns the fetch-merge-categorize cycle for the sync scope.
// At most one cycle runs at a time; concurrent start requests observe
// the running cycle instead of spawning a second one.
type SyncService struct {
	client     RemoteClient
	tickets    repository.TicketRepository
	scope      repository.ScopeRepository
	rules      repository.RuleRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger

	maxRetries   int
	retryBackoff time.Duration

	mu       sync.Mutex
	running  bool
	cycleID  string
	cancel   context.CancelFunc
	progress domain.SyncProgress
	done     chan struct{}
}

// SyncDependencies bundles collaborators for the orchestrator.
type SyncDependencies struct {
	Client     RemoteClient
	TicketRepo repository.TicketRepository
	ScopeRepo  repository.ScopeRepository
	RuleRepo   repository.RuleRepository
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger

	// MaxFetchRetries bounds attempts per page fetch; RetryBackoff is
	// the base delay, doubled per attempt. Zero values take defaults.
	MaxFetchRetries int
	RetryBackoff    time.Duration
}

// NewSyncService constructs the orchestrator.
func NewSyncService(deps SyncDependencies) *SyncService {
	maxRetries := deps.MaxFetchRetries
	if maxRetries <= 0 {
		maxRetries = 4
	}
	backoff := deps.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		client:       deps.Client,
		tickets:      deps.TicketRepo,
		scope:        deps.ScopeRepo,
		rules:        deps.RuleRepo,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		logger:       logger,
		maxRetries:   maxRetries,
		retryBackoff: backoff,
	}
}

// StartSync begins a cycle unless one is already running, in which case
// the running cycle's ID is returned with started=false. The cycle runs
// detached from the caller's context; CancelSync stops it.
func (s *SyncService) StartSync(trigger string) (cycleID string, started bool) {
	s.mu.Lock()
	if s.running {
		id := s.cycleID
		s.mu.Unlock()
		return id, false
	}

	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	s.running = true
	s.cycleID = id
	s.cancel = cancel
	s.done = make(chan struct{})
	s.progress = domain.SyncProgress{CycleID: id, StartedAt: time.Now()}
	done := s.done
	s.mu.Unlock()

	s.logger.Info("sync cycle starting",
		zap.String("cycle_id", id),
		zap.String("trigger", trigger),
	)

	go func() {
		defer close(done)
		s.runCycle(ctx, id)
	}()
	return id, true
}

// CancelSync cancels the running cycle, if any. It returns once the
// cycle has wound down and the scope is back at its last committed state.
func (s *SyncService) CancelSync() bool {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return false
	}
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	<-done
	return true
}

// Running reports whether a cycle is active, and its ID when so.
func (s *SyncService) Running() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycleID, s.running
}

// Progress returns a copy of the advisory progress signal.
func (s *SyncService) Progress() domain.SyncProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// ScopeState reads the persisted sync scope state.
func (s *SyncService) ScopeState(ctx context.Context) (*domain.SyncScopeState, error) {
	return s.scope.GetScopeState(ctx)
}

// runCycle executes one full fetch-merge-categorize pass. Any failure
// before the final commit leaves the watermark untouched so the next
// cycle re-fetches the same window; upserts are keyed and idempotent,
// so replaying a window converges.
func (s *SyncService) runCycle(ctx context.Context, cycleID string) {
	startedAt := time.Now()

	state, err := s.scope.GetScopeState(ctx)
	if err != nil {
		s.abortStateUnread(cycleID, err)
		return
	}
	previousWatermark := state.Watermark
	previousError := state.LastError

	runningState := &domain.SyncScopeState{
		Watermark: previousWatermark,
		Status:    domain.SyncStatusRunning,
		LastError: previousError,
		StartedAt: &startedAt,
	}
	if err := s.scope.SetScopeState(ctx, runningState); err != nil {
		s.finishError(ctx, cycleID, previousWatermark, startedAt, err)
		return
	}

	s.publish(ctx, events.Event{
		Type:    events.EventSyncStarted,
		CycleID: cycleID,
		Payload: events.SyncStartedPayload{
			Watermark: previousWatermark,
			FullSync:  previousWatermark == nil,
		},
	})

	merged, maxUpdated, err := s.fetchAndMerge(ctx, cycleID, previousWatermark)
	if err != nil {
		if ctx.Err() != nil {
			s.finishCancelled(cycleID, previousWatermark, previousError, startedAt)
			return
		}
		s.finishError(ctx, cycleID, previousWatermark, startedAt, err)
		return
	}

	if err := s.categorizeAll(ctx); err != nil {
		if ctx.Err() != nil {
			s.finishCancelled(cycleID, previousWatermark, previousError, startedAt)
			return
		}
		s.finishError(ctx, cycleID, previousWatermark, startedAt, err)
		return
	}

	// The watermark never regresses: keep the previous one when the
	// delta window was empty.
	newWatermark := previousWatermark
	if merged > 0 && maxUpdated != nil {
		newWatermark = maxUpdated
	}

	completedAt := time.Now()
	successState := &domain.SyncScopeState{
		Watermark:   newWatermark,
		Status:      domain.SyncStatusSuccess,
		StartedAt:   &startedAt,
		CompletedAt: &completedAt,
	}
	if err := s.scope.SetScopeState(ctx, successState); err != nil {
		if ctx.Err() != nil {
			s.finishCancelled(cycleID, previousWatermark, previousError, startedAt)
			return
		}
		s.finishError(ctx, cycleID, previousWatermark, startedAt, err)
		return
	}

	progress := s.Progress()
	s.publish(ctx, events.Event{
		Type:    events.EventSyncCompleted,
		CycleID: cycleID,
		Payload: events.SyncCompletedPayload{
			TicketsMerged: merged,
			PagesFetched:  progress.PagesFetched,
			NewWatermark:  newWatermark,
			Duration:      completedAt.Sub(startedAt).String(),
		},
	})
	s.logger.Info("sync cycle completed",
		zap.String("cycle_id", cycleID),
		zap.Int("tickets_merged", merged),
		zap.Int("pages_fetched", progress.PagesFetched),
	)
	s.metrics.RecordCycle(false)
	s.release()
}

// fetchAndMerge walks the remote pages, upserting each page as one
// durable batch before requesting the next. Returns the merged ticket
// count and the maximum updatedAt observed.
func (s *SyncService) fetchAndMerge(ctx context.Context, cycleID string, since *time.Time) (int, *time.Time, error) {
	var (
		cursor     *string
		merged     int
		maxUpdated *time.Time
		pageNumber int
	)

	for {
		if err := ctx.Err(); err != nil {
			return merged, maxUpdated, err
		}

		page, err := s.fetchPageWithRetry(ctx, since, cursor)
		if err != nil {
			return merged, maxUpdated, err
		}
		pageNumber++

		if err := s.tickets.UpsertBatch(ctx, page.Tickets); err != nil {
			return merged, maxUpdated, err
		}
		merged += len(page.Tickets)
		for i := range page.Tickets {
			updated := page.Tickets[i].UpdatedAt
			if maxUpdated == nil || updated.After(*maxUpdated) {
				maxUpdated = &updated
			}
		}

		now := time.Now()
		s.mu.Lock()
		s.progress.PagesFetched = pageNumber
		s.progress.TicketsMerged = merged
		s.progress.LastPageAt = &now
		s.mu.Unlock()
		s.metrics.RecordPage(len(page.Tickets))

		s.publish(ctx, events.Event{
			Type:    events.EventSyncPageMerged,
			CycleID: cycleID,
			Payload: events.SyncPageMergedPayload{
				PageNumber: pageNumber,
				Tickets:    len(page.Tickets),
			},
		})

		if page.NextCursor == nil {
			return merged, maxUpdated, nil
		}
		cursor = page.NextCursor
	}
}

// fetchPageWithRetry retries transient failures with exponential
// backoff, honoring a rate-limit Retry-After hint when present.
// Non-transient failures return immediately.
func (s *SyncService) fetchPageWithRetry(ctx context.Context, since *time.Time, cursor *string) (*jira.Page, error) {
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			wait := s.retryBackoff << (attempt - 1)
			if domainErr := errorutil.ToDomainError(lastErr); domainErr.RetryAfter > 0 {
				wait = domainErr.RetryAfter
			}
			s.metrics.RecordFetchRetry()
			s.logger.Warn("transient fetch failure, retrying",
				zap.Int("attempt", attempt+1),
				zap.Duration("wait", wait),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		page, err := s.client.FetchPage(ctx, since, cursor)
		if err == nil {
			return page, nil
		}
		if !errorutil.IsTransient(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// categorizeAll reruns the rule set over the full mirror. Categorization
// is idempotent, so only changed labels are written back.
func (s *SyncService) categorizeAll(ctx context.Context) error {
	rules, err := s.rules.ListRules(ctx)
	if err != nil {
		return err
	}
	tickets, err := s.tickets.GetAll(ctx)
	if err != nil {
		return err
	}

	for i := range tickets {
		ticket := &tickets[i]
		label := categorize.Categorize(ticket, rules)
		if sameLabel(ticket.Category, label) {
			continue
		}
		if err := s.tickets.SetCategory(ctx, ticket.Key, label); err != nil {
			if errorutil.IsNotFound(err) {
				s.logger.Warn("categorized ticket vanished from store", zap.String("key", ticket.Key))
				continue
			}
			return err
		}
	}
	return nil
}

func sameLabel(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// abortStateUnread ends a cycle whose previous scope state could not be
// read. Nothing is written back: with the stored watermark unknown, any
// state write here could overwrite a committed one.
func (s *SyncService) abortStateUnread(cycleID string, readErr error) {
	domainErr := errorutil.ToDomainError(readErr)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.publish(ctx, events.Event{
		Type:    events.EventSyncFailed,
		CycleID: cycleID,
		Payload: events.SyncFailedPayload{Reason: domainErr.Error(), Code: domainErr.Code},
	})
	s.logger.Error("sync cycle aborted, scope state unreadable",
		zap.String("cycle_id", cycleID),
		zap.Error(readErr),
	)
	s.metrics.RecordCycle(true)
	s.release()
}

// finishCancelled returns the scope to Idle with its last committed
// values; cancellation loses no progress, it only stops advancing.
func (s *SyncService) finishCancelled(cycleID string, watermark *time.Time, lastError *string, startedAt time.Time) {
	completedAt := time.Now()
	idleState := &domain.SyncScopeState{
		Watermark:   watermark,
		Status:      domain.SyncStatusIdle,
		LastError:   lastError,
		StartedAt:   &startedAt,
		CompletedAt: &completedAt,
	}
	// The cycle context is already cancelled; the state write gets its
	// own short deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.scope.SetScopeState(ctx, idleState); err != nil {
		s.logger.Error("failed to record cancelled state", zap.Error(err))
	}

	s.publish(ctx, events.Event{Type: events.EventSyncCancelled, CycleID: cycleID})
	s.logger.Info("sync cycle cancelled", zap.String("cycle_id", cycleID))
	s.metrics.RecordCycle(false)
	s.release()
}

func (s *SyncService) finishError(_ context.Context, cycleID string, watermark *time.Time, startedAt time.Time, cycleErr error) {
	domainErr := errorutil.ToDomainError(cycleErr)
	reason := domainErr.Error()
	completedAt := time.Now()
	errorState := &domain.SyncScopeState{
		Watermark:   watermark,
		Status:      domain.SyncStatusError,
		LastError:   &reason,
		StartedAt:   &startedAt,
		CompletedAt: &completedAt,
	}
	// State write gets its own deadline; the cycle context may already
	// be dead.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.scope.SetScopeState(ctx, errorState); err != nil {
		s.logger.Error("failed to record error state", zap.Error(err))
	}

	s.publish(ctx, events.Event{
		Type:    events.EventSyncFailed,
		CycleID: cycleID,
		Payload: events.SyncFailedPayload{Reason: reason, Code: domainErr.Code},
	})
	s.logger.Error("sync cycle failed",
		zap.String("cycle_id", cycleID),
		zap.String("code", domainErr.Code),
		zap.Error(cycleErr),
	)
	s.metrics.RecordCycle(true)
	s.release()
}

func (s *SyncService) release() {
	s.mu.Lock()
	s.running = false
	s.cancel = nil
	s.mu.Unlock()
}

func (s *SyncService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
