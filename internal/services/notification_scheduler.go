package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"meugestor/internal/clock"
	"meugestor/internal/logger"
	"meugestor/internal/models"
)

// notificationScheduler walks punctual reminders through
// not due -> pre-notice sent -> sent. Each transition is claimed with a
// conditional update before delivery, so concurrent ticks cannot both send.
type notificationScheduler struct {
	db       *gorm.DB
	cal      *clock.Calendar
	notifier Notifier
	policy   FailurePolicy
}

// NewNotificationScheduler creates a NotificationScheduler.
func NewNotificationScheduler(db *gorm.DB, cal *clock.Calendar, notifier Notifier, policy FailurePolicy) NotificationScheduler {
	return &notificationScheduler{db: db, cal: cal, notifier: notifier, policy: policy}
}

// Run sends due pre-notices, then exact-time notices.
func (s *notificationScheduler) Run(ctx context.Context, now time.Time) SchedulerReport {
	log := logger.Named("scheduler")
	var report SchedulerReport
	s.sendPreNotices(ctx, log, now, &report)
	s.sendDueNotices(ctx, log, now, &report)
	return report
}

func (s *notificationScheduler) sendPreNotices(ctx context.Context, log *zap.SugaredLogger, now time.Time, report *SchedulerReport) {
	var candidates []models.Reminder
	if err := s.db.Preload("User").
		Where("recurrence = ? AND is_sent = ? AND pre_reminder_sent = ? AND due_date > ?",
			models.RecurrenceNone, false, false, now.UTC()).
		Order("due_date ASC").Find(&candidates).Error; err != nil {
		log.Errorw("failed to load pre-notice candidates", "error", err)
		report.Failed++
		return
	}

	for i := range candidates {
		if ctx.Err() != nil {
			log.Warnw("pre-notice scan interrupted", "error", ctx.Err())
			return
		}
		r := &candidates[i]
		if now.Before(PreNoticeWindow(s.cal, *r.DueDate)) {
			continue
		}

		msg := PreNoticeMessage(s.cal, r.Description, *r.DueDate)
		switch s.transition(ctx, log, r, "pre_reminder_sent", msg) {
		case outcomeSent:
			report.PreNotices++
		case outcomeOrphaned:
			report.Orphaned++
		case outcomeFailed:
			report.Failed++
		}
	}
}

func (s *notificationScheduler) sendDueNotices(ctx context.Context, log *zap.SugaredLogger, now time.Time, report *SchedulerReport) {
	var due []models.Reminder
	if err := s.db.Preload("User").
		Where("recurrence = ? AND is_sent = ? AND due_date <= ?", models.RecurrenceNone, false, now.UTC()).
		Order("due_date ASC").Find(&due).Error; err != nil {
		log.Errorw("failed to load due reminders", "error", err)
		report.Failed++
		return
	}

	for i := range due {
		if ctx.Err() != nil {
			log.Warnw("due scan interrupted", "error", ctx.Err())
			return
		}
		r := &due[i]

		msg := DueNoticeMessage(s.cal, r.Description, *r.DueDate)
		switch s.transition(ctx, log, r, "is_sent", msg) {
		case outcomeSent:
			report.Exact++
		case outcomeOrphaned:
			report.Orphaned++
		case outcomeFailed:
			report.Failed++
		}
	}
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeSent
	outcomeOrphaned
	outcomeFailed
)

// transition flips flag from false to true, then delivers msg. Losing the
// flip means another tick owns the notice. A reminder whose user is gone
// keeps the flag set so it is not retried forever.
func (s *notificationScheduler) transition(ctx context.Context, log *zap.SugaredLogger, r *models.Reminder, flag, msg string) outcome {
	result := s.db.Model(&models.Reminder{}).
		Where("id = ? AND "+flag+" = ?", r.ID, false).
		Update(flag, true)
	if result.Error != nil {
		log.Errorw("failed to claim reminder", "reminder_id", r.ID, "flag", flag, "error", result.Error)
		return outcomeFailed
	}
	if result.RowsAffected == 0 {
		return outcomeSkipped
	}

	if r.User.ID == "" {
		log.Warnw("reminder owner not found, marking as sent", "reminder_id", r.ID, "user_id", r.UserID, "flag", flag)
		return outcomeOrphaned
	}

	if err := s.notifier.Deliver(ctx, r.User.PhoneNumber, msg); err != nil {
		log.Errorw("failed to deliver reminder", "reminder_id", r.ID, "flag", flag, "error", err)
		if s.policy != MarkSentOnFailure {
			if err := s.db.Model(&models.Reminder{}).Where("id = ?", r.ID).Update(flag, false).Error; err != nil {
				log.Errorw("failed to release reminder claim", "reminder_id", r.ID, "flag", flag, "error", err)
			}
		}
		return outcomeFailed
	}

	log.Infow("reminder notice sent", "reminder_id", r.ID, "flag", flag)
	return outcomeSent
}
