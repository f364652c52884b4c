package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/jira-mirror/internal/api/http"
	"github.com/spec-kit/jira-mirror/internal/api/http/handlers"
	"github.com/spec-kit/jira-mirror/internal/businesshours"
	"github.com/spec-kit/jira-mirror/internal/config"
	"github.com/spec-kit/jira-mirror/internal/events"
	"github.com/spec-kit/jira-mirror/internal/jira"
	"github.com/spec-kit/jira-mirror/internal/observability"
	"github.com/spec-kit/jira-mirror/internal/persistence"
	"github.com/spec-kit/jira-mirror/internal/repository"
	"github.com/spec-kit/jira-mirror/internal/service"
	"github.com/spec-kit/jira-mirror/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var (
		ticketRepo repository.TicketRepository
		scopeRepo  repository.ScopeRepository
		ruleRepo   repository.RuleRepository
	)
	if pool := pg.PoolHandle(); pool != nil {
		ticketRepo = repository.NewTicketRepository(pool)
		scopeRepo = repository.NewScopeRepository(pool)
		ruleRepo = repository.NewRuleRepository(pool)
	} else {
		store := repository.NewMemoryStore()
		ticketRepo = store
		scopeRepo = store
		ruleRepo = store
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	calculator := businesshours.NewCalculator(cfg.BusinessHours)
	jiraClient := jira.NewClient(cfg.Jira, logger)

	syncService := service.NewSyncService(service.SyncDependencies{
		Client:          jiraClient,
		TicketRepo:      ticketRepo,
		ScopeRepo:       scopeRepo,
		RuleRepo:        ruleRepo,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Logger:          logger,
		MaxFetchRetries: cfg.Jira.MaxFetchRetries,
	})
	ticketService := service.NewTicketService(ticketRepo)
	metricsService := service.NewMetricsService(ticketRepo, calculator, redis, logger)
	rulesService := service.NewRulesService(ruleRepo, ticketRepo, dispatcher, logger)

	worker.RegisterEventHandlers(dispatcher, metricsService, logger)
	if cfg.Sync.AutoStart {
		worker.StartSyncScheduler(ctx, cfg.Sync.Interval(), syncService, logger)
	}

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets: handlers.NewTicketsHandler(ticketService),
		Sync:    handlers.NewSyncHandler(syncService, metrics),
		Metrics: handlers.NewMetricsHandler(metricsService),
		Rules:   handlers.NewRulesHandler(rulesService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	syncService.CancelSync()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
