package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"meugestor/internal/clock"
	"meugestor/internal/logger"
	"meugestor/internal/models"
)

// errCursorMoved reports that another tick advanced the template first.
var errCursorMoved = errors.New("template cursor moved concurrently")

// NewRecurringEngine returns the engine for mode. The notifier and policy
// are only used by the direct-fire engine.
func NewRecurringEngine(mode RecurringMode, db *gorm.DB, cal *clock.Calendar, notifier Notifier, policy FailurePolicy) RecurringEngine {
	if mode == RecurringExpand {
		return &expansionEngine{db: db, cal: cal}
	}
	return &directFireEngine{db: db, cal: cal, notifier: notifier, policy: policy}
}

// TriggerDay is the civil day of (year, month) on which a direct-fire
// template notifies: day_of_month under the calendar's clamp policy, minus
// the lead offset, never before the 1st. Under OverflowIntoNextMonth a day
// the month lacks is kept as is, so the template stays silent that month.
func TriggerDay(cal *clock.Calendar, dayOfMonth, offset, year int, month time.Month) int {
	day := cal.ClampDay(year, month, dayOfMonth)
	if t := day - offset; t > 1 {
		return t
	}
	return 1
}

// directFireEngine notifies each monthly template once per civil month on
// its trigger day. (last_triggered_year, last_triggered_month) is the only
// state.
type directFireEngine struct {
	db       *gorm.DB
	cal      *clock.Calendar
	notifier Notifier
	policy   FailurePolicy
}

func (e *directFireEngine) Run(ctx context.Context, now time.Time) EngineReport {
	log := logger.Named("recurring.direct")
	var report EngineReport

	local := e.cal.Local(now)
	year, month, today := local.Year(), local.Month(), local.Day()

	var templates []models.Reminder
	if err := e.db.Preload("User").
		Where("recurrence = ? AND day_of_month IS NOT NULL", models.RecurrenceMonthly).
		Order("id ASC").Find(&templates).Error; err != nil {
		log.Errorw("failed to load recurring templates", "error", err)
		report.Failed++
		return report
	}
	report.Templates = len(templates)

	for i := range templates {
		if ctx.Err() != nil {
			log.Warnw("recurring scan interrupted", "error", ctx.Err())
			break
		}
		t := &templates[i]

		dueDay := TriggerDay(e.cal, *t.DayOfMonth, 0, year, month)
		if today != TriggerDay(e.cal, *t.DayOfMonth, t.NotificationDayOffset, year, month) || t.TriggeredIn(year, month) {
			report.Skipped++
			continue
		}

		claimed, err := e.claim(t.ID, year, month)
		if err != nil {
			log.Errorw("failed to stamp template", "template_id", t.ID, "error", err)
			report.Failed++
			continue
		}
		if !claimed {
			report.Skipped++
			continue
		}

		if t.User.ID == "" {
			log.Warnw("template owner not found, cycle stamped without notice", "template_id", t.ID, "user_id", t.UserID)
			report.Skipped++
			continue
		}

		msg := MonthlyNoticeMessage(t.Description, dueDay, t.NotificationDayOffset)
		if err := e.notifier.Deliver(ctx, t.User.PhoneNumber, msg); err != nil {
			log.Errorw("failed to deliver monthly notice", "template_id", t.ID, "error", err)
			report.Failed++
			if e.policy != MarkSentOnFailure {
				e.unclaim(t, year, month)
			}
			continue
		}

		log.Infow("monthly notice sent", "template_id", t.ID, "year", year, "month", int(month))
		report.Fired++
	}

	return report
}

// claim stamps the cycle only if no other tick already did, so at most
// one caller per (template, month) proceeds to deliver.
func (e *directFireEngine) claim(id string, year int, month time.Month) (bool, error) {
	result := e.db.Model(&models.Reminder{}).
		Where("id = ? AND (last_triggered_year IS NULL OR last_triggered_month IS NULL OR last_triggered_year <> ? OR last_triggered_month <> ?)",
			id, year, int(month)).
		Updates(map[string]interface{}{
			"last_triggered_year":  year,
			"last_triggered_month": int(month),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// unclaim restores the previous stamp after a failed delivery.
func (e *directFireEngine) unclaim(t *models.Reminder, year int, month time.Month) {
	var prevYear, prevMonth interface{}
	if t.LastTriggeredYear != nil {
		prevYear = *t.LastTriggeredYear
	}
	if t.LastTriggeredMonth != nil {
		prevMonth = *t.LastTriggeredMonth
	}
	err := e.db.Model(&models.Reminder{}).
		Where("id = ? AND last_triggered_year = ? AND last_triggered_month = ?", t.ID, year, int(month)).
		Updates(map[string]interface{}{
			"last_triggered_year":  prevYear,
			"last_triggered_month": prevMonth,
		}).Error
	if err != nil {
		logger.Named("recurring.direct").Errorw("failed to restore template stamp", "template_id", t.ID, "error", err)
	}
}

// expansionEngine spawns the next punctual occurrence of each monthly
// template once its cursor (due_date) has passed.
type expansionEngine struct {
	db  *gorm.DB
	cal *clock.Calendar
}

func (e *expansionEngine) Run(ctx context.Context, now time.Time) EngineReport {
	log := logger.Named("recurring.expand")
	var report EngineReport

	var templates []models.Reminder
	if err := e.db.Where("recurrence = ? AND due_date IS NOT NULL", models.RecurrenceMonthly).
		Order("id ASC").Find(&templates).Error; err != nil {
		log.Errorw("failed to load recurring templates", "error", err)
		report.Failed++
		return report
	}
	report.Templates = len(templates)

	for i := range templates {
		if ctx.Err() != nil {
			log.Warnw("recurring scan interrupted", "error", ctx.Err())
			break
		}
		t := &templates[i]

		// the current occurrence is still ahead; nothing to spawn yet
		if t.DueDate.After(now) {
			report.Skipped++
			continue
		}

		anchor := e.cal.Local(*t.DueDate).Day()
		if t.DayOfMonth != nil {
			anchor = *t.DayOfMonth
		}
		next := NextOccurrence(e.cal, *t.DueDate, anchor, now)

		created, err := e.expand(t, next)
		if err != nil {
			if errors.Is(err, errCursorMoved) {
				report.Skipped++
				continue
			}
			log.Errorw("failed to expand template", "template_id", t.ID, "error", err)
			report.Failed++
			continue
		}
		if created {
			log.Infow("created monthly occurrence", "template_id", t.ID, "due_date", next.UTC())
			report.Created++
		} else {
			report.Skipped++
		}
	}

	return report
}

// expand creates the occurrence for next unless the user already has a
// non-recurring reminder with the same description on that civil day, and
// moves the cursor to next either way. Deleted reminders count too, so an
// occurrence the user removed is not recreated. Both writes commit together.
func (e *expansionEngine) expand(t *models.Reminder, next time.Time) (bool, error) {
	dayStart := e.cal.StartOfDay(next)
	start, end := dayStart.UTC(), e.cal.AddDays(dayStart, 1).UTC()
	cursor := t.DueDate.UTC()
	nextUTC := next.UTC()

	created := false
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Unscoped().Model(&models.Reminder{}).
			Where("user_id = ? AND description = ? AND recurrence = ? AND due_date >= ? AND due_date < ?",
				t.UserID, t.Description, models.RecurrenceNone, start, end).
			Count(&existing).Error; err != nil {
			return err
		}

		if existing == 0 {
			due := nextUTC
			instance := &models.Reminder{UserID: t.UserID, Description: t.Description, DueDate: &due}
			if err := tx.Create(instance).Error; err != nil {
				return err
			}
			created = true
		}

		result := tx.Model(&models.Reminder{}).
			Where("id = ? AND due_date = ?", t.ID, cursor).
			Update("due_date", nextUTC)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errCursorMoved
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// NextOccurrence advances cursor by one civil month on anchorDay. When that
// is already past, it jumps to this month's anchor day at the cursor's wall
// clock, or the month after if that has passed too.
func NextOccurrence(cal *clock.Calendar, cursor time.Time, anchorDay int, now time.Time) time.Time {
	local := cal.Local(cursor)
	next := cal.AddMonths(local, 1, anchorDay)
	if !next.Before(now) {
		return next
	}
	n := cal.Local(now)
	next = cal.Date(n.Year(), n.Month(), anchorDay, local.Hour(), local.Minute())
	if next.Before(now) {
		next = cal.AddMonths(next, 1, anchorDay)
	}
	return next
}
