package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/sla-engine/internal/api/http"
	"github.com/spec-kit/sla-engine/internal/api/http/handlers"
	"github.com/spec-kit/sla-engine/internal/auth"
	"github.com/spec-kit/sla-engine/internal/config"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/observability"
	"github.com/spec-kit/sla-engine/internal/persistence"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/service"
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

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	noteRepo := repository.NewNoteRepository(pool)
	policyRepo := repository.NewPolicyRepository(pool)
	projectRepo := repository.NewProjectRepository(pool)
	customValueRepo := repository.NewCustomValueRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool, redis.Client, cfg.SLA.SettingsCacheTTL())

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	catalog := service.NewPolicyCatalog(policyRepo, logger)

	deadlineService := service.NewDeadlineService(service.DeadlineDependencies{
		TicketRepo:   ticketRepo,
		SettingsRepo: settingsRepo,
		Catalog:      catalog,
		Logger:       logger,
	})
	deadlineService.RegisterHandlers(dispatcher)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:      ticketRepo,
		NoteRepo:        noteRepo,
		ProjectRepo:     projectRepo,
		CustomValueRepo: customValueRepo,
		Dispatcher:      dispatcher,
		ProductsField:   cfg.SLA.ProductsFieldName,
	})
	policyService := service.NewPolicyService(service.PolicyDependencies{
		PolicyRepo:   policyRepo,
		ProjectRepo:  projectRepo,
		SettingsRepo: settingsRepo,
		Logger:       logger,
	})
	breachService := service.NewBreachService(service.BreachDependencies{
		TicketRepo:      ticketRepo,
		NoteRepo:        noteRepo,
		PolicyRepo:      policyRepo,
		CustomValueRepo: customValueRepo,
		SettingsRepo:    settingsRepo,
		Catalog:         catalog,
		Metrics:         metrics,
		Logger:          logger,
		ProductsField:   cfg.SLA.ProductsFieldName,
	})

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokenManager)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Projects:       handlers.NewProjectsHandler(projectRepo),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Policies:       handlers.NewPoliciesHandler(policyService),
		Breaches:       handlers.NewBreachHandler(breachService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
