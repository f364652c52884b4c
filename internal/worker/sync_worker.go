package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/jira-mirror/internal/events"
	"github.com/spec-kit/jira-mirror/internal/service"
)

// StartSyncScheduler runs the periodic sync trigger until ctx is
// cancelled. The scheduled trigger and manual triggers funnel into the
// same single-flight entry point, so an overlapping tick is a no-op.
func StartSyncScheduler(ctx context.Context, interval time.Duration, syncService *service.SyncService, logger *zap.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// First cycle fires immediately so a fresh start does not wait
		// out a full interval before mirroring anything.
		syncService.StartSync("scheduled")

		for {
			select {
			case <-ctx.Done():
				logger.Info("sync scheduler stopping")
				return
			case <-ticker.C:
				if cycleID, started := syncService.StartSync("scheduled"); !started {
					logger.Debug("sync already running, skipping tick", zap.String("cycle_id", cycleID))
				}
			}
		}
	}()
}

// RegisterEventHandlers wires sync lifecycle events to logging and
// cache invalidation.
func RegisterEventHandlers(dispatcher events.Dispatcher, metricsService *service.MetricsService, logger *zap.Logger) {
	if dispatcher == nil {
		return
	}

	dispatcher.Subscribe(events.EventSyncCompleted, func(ctx context.Context, event events.Event) error {
		metricsService.InvalidateCache(ctx)
		return nil
	})
	dispatcher.Subscribe(events.EventRulesUpdated, func(ctx context.Context, event events.Event) error {
		metricsService.InvalidateCache(ctx)
		return nil
	})
	dispatcher.Subscribe(events.EventSyncFailed, func(_ context.Context, event events.Event) error {
		if payload, ok := event.Payload.(events.SyncFailedPayload); ok {
			logger.Warn("sync failure observed",
				zap.String("cycle_id", event.CycleID),
				zap.String("code", payload.Code),
				zap.String("reason", payload.Reason),
			)
		}
		return nil
	})
}
