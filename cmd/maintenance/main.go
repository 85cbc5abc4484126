// Command maintenance runs one maintenance tick and exits. Schedule it from
// cron as an alternative to the HTTP trigger.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"meugestor/internal/clock"
	"meugestor/internal/config"
	"meugestor/internal/database"
	"meugestor/internal/integrations/evolution"
	"meugestor/internal/lock"
	"meugestor/internal/logger"
	"meugestor/internal/services"
)

// tickTimeout bounds a single run.
const tickTimeout = 5 * time.Minute

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Maintenance error: %v", err)
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

	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	claimer, closeClaimer, err := lock.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer closeClaimer()

	db := dbManager.DB()
	mode := services.RecurringMode(cfg.RecurringMode)
	policy := services.FailurePolicy(cfg.NotifyFailurePolicy)
	gateway := evolution.NewClient(cfg.EvolutionAPIURL, cfg.EvolutionAPIKey, cfg.EvolutionInstanceName, cfg.HTTPClientTimeout)

	maintenance := services.NewMaintenanceService(claimer,
		services.NewRecurringEngine(mode, db, cal, gateway, policy),
		services.NewNotificationScheduler(db, cal, gateway, policy),
		services.DefaultMaintenanceLockTTL)

	report, err := maintenance.RunMaintenanceTick(ctx, cal.Now())
	if err != nil {
		return fmt.Errorf("maintenance tick failed: %w", err)
	}
	log.Infow("maintenance tick finished",
		"skipped", report.Skipped,
		"engine", report.Engine,
		"scheduler", report.Scheduler,
		"duration", report.Duration.String(),
	)
	return nil
}
