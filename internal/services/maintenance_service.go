package services

import (
	"context"
	"time"

	apperrors "meugestor/internal/errors"
	"meugestor/internal/lock"
	"meugestor/internal/logger"
)

// MaintenanceLockKey serializes maintenance ticks across instances.
const MaintenanceLockKey = "maintenance:tick"

// DefaultMaintenanceLockTTL bounds how long a crashed tick can block the next one.
const DefaultMaintenanceLockTTL = 5 * time.Minute

// maintenanceService runs one maintenance tick: recurring templates first,
// so occurrences they create are visible to the scheduler in the same tick.
type maintenanceService struct {
	claimer   lock.Claimer
	engine    RecurringEngine
	scheduler NotificationScheduler
	ttl       time.Duration
}

// NewMaintenanceService creates a new MaintenanceServicer.
func NewMaintenanceService(claimer lock.Claimer, engine RecurringEngine, scheduler NotificationScheduler, ttl time.Duration) MaintenanceServicer {
	if ttl <= 0 {
		ttl = DefaultMaintenanceLockTTL
	}
	return &maintenanceService{claimer: claimer, engine: engine, scheduler: scheduler, ttl: ttl}
}

// RunMaintenanceTick performs one tick at now. A tick that finds another
// one running returns a report with Skipped set and does nothing.
func (s *maintenanceService) RunMaintenanceTick(ctx context.Context, now time.Time) (*TickReport, error) {
	log := logger.Named("maintenance")

	token, claimed, err := s.claimer.Claim(ctx, MaintenanceLockKey, s.ttl)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !claimed {
		log.Infow("maintenance tick already running, skipping")
		return &TickReport{Skipped: true}, nil
	}
	defer func() {
		if err := s.claimer.Release(context.WithoutCancel(ctx), MaintenanceLockKey, token); err != nil {
			log.Errorw("failed to release maintenance lock", "error", err)
		}
	}()

	started := time.Now()
	report := &TickReport{
		Engine:    s.engine.Run(ctx, now),
		Scheduler: s.scheduler.Run(ctx, now),
	}
	report.Duration = time.Since(started)

	log.Infow("maintenance tick finished",
		"templates", report.Engine.Templates,
		"created", report.Engine.Created,
		"fired", report.Engine.Fired,
		"pre_notices", report.Scheduler.PreNotices,
		"exact", report.Scheduler.Exact,
		"failed", report.Engine.Failed+report.Scheduler.Failed,
		"duration", report.Duration,
	)
	return report, nil
}
