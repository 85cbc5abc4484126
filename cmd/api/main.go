package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meugestor/internal/assistant"
	"meugestor/internal/clock"
	"meugestor/internal/config"
	"meugestor/internal/database"
	"meugestor/internal/handlers"
	"meugestor/internal/integrations/dify"
	"meugestor/internal/integrations/evolution"
	"meugestor/internal/integrations/gemini"
	"meugestor/internal/lock"
	"meugestor/internal/logger"
	"meugestor/internal/middleware"
	"meugestor/internal/services"
	"meugestor/internal/validator"
)

// @title           Meu Gestor API
// @version         1.0
// @description     WhatsApp personal-finance assistant: Evolution webhook, maintenance trigger and the dashboard API.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token from /auth/verify.

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	clamp, err := clock.ParseClampPolicy(cfg.MonthDayClamp)
	if err != nil {
		return err
	}
	cal := clock.New(cfg.Location, clock.WithClamp(clamp))

	dbManager, err := database.NewManager(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() { _ = dbManager.Close() }()

	if err := dbManager.RunMigrations(database.DefaultMigrationsSource); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	if cfg.RedisAddr == "" {
		log.Warn("REDIS_ADDR not set, using in-memory claims (single instance only)")
	}
	lockCtx, cancelLock := context.WithTimeout(context.Background(), 5*time.Second)
	claimer, closeClaimer, err := lock.Open(lockCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	cancelLock()
	if err != nil {
		return err
	}
	defer closeClaimer()

	validator.Register()

	// Services
	db := dbManager.DB()
	mode := services.RecurringMode(cfg.RecurringMode)
	policy := services.FailurePolicy(cfg.NotifyFailurePolicy)
	gateway := evolution.NewClient(cfg.EvolutionAPIURL, cfg.EvolutionAPIKey, cfg.EvolutionInstanceName, cfg.HTTPClientTimeout)

	userService := services.NewUserService(db)
	categoryService := services.NewCategoryService(db)
	plannedService := services.NewPlannedExpenseService(db, cal, services.SubstringMatcher)
	expenseService := services.NewExpenseService(db, plannedService)
	incomeService := services.NewIncomeService(db)
	ledgerService := services.NewLedgerService(db)
	reminderService := services.NewReminderService(db, cal, mode)
	tokenService := services.NewAuthTokenService(db, cfg.AuthTokenTTL)
	auditService := services.NewAuditService(db)
	dashboardService := services.NewDashboardService(db, userService, categoryService, reminderService, plannedService)
	maintenanceService := services.NewMaintenanceService(claimer,
		services.NewRecurringEngine(mode, db, cal, gateway, policy),
		services.NewNotificationScheduler(db, cal, gateway, policy),
		services.DefaultMaintenanceLockTTL)

	// Assistant
	dispatcher := assistant.NewDispatcher(assistant.Services{
		Expenses:   expenseService,
		Incomes:    incomeService,
		Ledger:     ledgerService,
		Categories: categoryService,
		Planned:    plannedService,
		Reminders:  reminderService,
		Tokens:     tokenService,
	}, cal, cfg.DashboardURL)
	bot := assistant.New(userService, categoryService, newClassifier(cfg, cal), gateway, dispatcher, gateway, cal)

	// Handlers
	sessions := middleware.NewSessionSigner(cfg.JWTSecret, cfg.JWTExpirationDur)
	router := handlers.NewRouter(handlers.RouterConfig{
		Auth:              handlers.NewAuthHandler(tokenService, sessions),
		Dashboard:         handlers.NewDashboardHandler(dashboardService, ledgerService, cal),
		Expenses:          handlers.NewExpenseHandler(expenseService, incomeService, auditService, cal),
		Categories:        handlers.NewCategoryHandler(categoryService, auditService),
		Reminders:         handlers.NewReminderHandler(reminderService, auditService, cal),
		Planning:          handlers.NewPlanningHandler(plannedService, auditService),
		Webhook:           handlers.NewWebhookHandler(bot, claimer),
		Maintenance:       handlers.NewMaintenanceHandler(maintenanceService, cal),
		Sessions:          sessions,
		CronSecret:        cfg.CronSecret,
		MaintenanceAPIKey: cfg.MaintenanceAPIKey,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Meu Gestor API on port %s (timezone %s, recurring mode %s)", cfg.Port, cfg.Timezone, cfg.RecurringMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Infow("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// newClassifier picks the configured intent classifier.
func newClassifier(cfg *config.Config, cal *clock.Calendar) assistant.Classifier {
	if cfg.ClassifierProvider == config.ClassifierGemini {
		return gemini.NewClassifier(cfg.GeminiAPIKey, cfg.GeminiModel, cal)
	}
	return dify.NewClient(cfg.DifyAPIURL, cfg.DifyAPIKey, cfg.HTTPClientTimeout)
}
