package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"meugestor/internal/clock"
	apperrors "meugestor/internal/errors"
	"meugestor/internal/models"
	"meugestor/internal/period"
)

// RecurringMode selects which recurring engine owns monthly templates.
type RecurringMode string

const (
	// RecurringDirect keeps templates cursor-free and notifies on the trigger day.
	RecurringDirect RecurringMode = "direct"
	// RecurringExpand spawns a punctual reminder for every monthly occurrence.
	RecurringExpand RecurringMode = "expand"
)

// maxNotificationDayOffset bounds how many days ahead a monthly notice may go.
const maxNotificationDayOffset = 30

// reminderService handles reminder-related business logic.
type reminderService struct {
	db   *gorm.DB
	cal  *clock.Calendar
	mode RecurringMode
}

// NewReminderService creates a new ReminderServicer. mode decides the shape
// of monthly reminders and must match the engine the maintenance tick runs.
func NewReminderService(db *gorm.DB, cal *clock.Calendar, mode RecurringMode) ReminderServicer {
	return &reminderService{db: db, cal: cal, mode: mode}
}

// CreateReminder stores a punctual reminder or a monthly template.
//
// In direct mode a monthly reminder is a single template carrying only
// day_of_month and the lead offset. In expand mode it is a template whose
// due_date is the expansion cursor, plus the first punctual occurrence.
func (s *reminderService) CreateReminder(userID string, in NewReminder) (*models.Reminder, error) {
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	if in.Due.IsZero() {
		return nil, apperrors.ErrInvalidDueDate
	}
	if in.NotificationDayOffset < 0 || in.NotificationDayOffset > maxNotificationDayOffset {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "notification day offset must be between 0 and 30")
	}

	due := in.Due.UTC()
	if !in.Monthly {
		reminder := &models.Reminder{UserID: userID, Description: description, DueDate: &due}
		if err := s.db.Create(reminder).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return reminder, nil
	}

	dayOfMonth := s.cal.Local(in.Due).Day()
	template := &models.Reminder{
		UserID:                userID,
		Description:           description,
		Recurrence:            models.RecurrenceMonthly,
		DayOfMonth:            &dayOfMonth,
		NotificationDayOffset: in.NotificationDayOffset,
	}

	if s.mode != RecurringExpand {
		if err := s.db.Create(template).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return template, nil
	}

	cursor := due
	template.DueDate = &cursor
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(template).Error; err != nil {
			return err
		}
		first := due
		return tx.Create(&models.Reminder{UserID: userID, Description: description, DueDate: &first}).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return template, nil
}

// GetRemindersInInterval lists punctual reminders due in iv, sent or not,
// soonest first.
func (s *reminderService) GetRemindersInInterval(userID string, iv period.Interval) ([]models.Reminder, error) {
	bounds := iv.UTC()
	var reminders []models.Reminder
	if err := s.db.Where("user_id = ? AND recurrence = ? AND due_date >= ? AND due_date < ?",
		userID, models.RecurrenceNone, bounds.Start, bounds.End).
		Order("due_date ASC").Find(&reminders).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return reminders, nil
}

// GetPendingReminders lists unsent punctual reminders, soonest first.
func (s *reminderService) GetPendingReminders(userID string) ([]models.Reminder, error) {
	var reminders []models.Reminder
	if err := s.db.Where("user_id = ? AND recurrence = ? AND is_sent = ?", userID, models.RecurrenceNone, false).
		Order("due_date ASC").Find(&reminders).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return reminders, nil
}

// UpdateReminder changes description and/or due date. Moving a punctual
// reminder re-arms both notices.
func (s *reminderService) UpdateReminder(userID, reminderID string, description *string, due *time.Time) (*models.Reminder, error) {
	var reminder models.Reminder
	if err := s.db.Where("id = ? AND user_id = ?", reminderID, userID).First(&reminder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrReminderNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if description != nil {
		d := strings.TrimSpace(*description)
		if d == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
		}
		reminder.Description = d
	}

	if due != nil {
		if due.IsZero() {
			return nil, apperrors.ErrInvalidDueDate
		}
		d := due.UTC()
		switch {
		case !reminder.IsTemplate():
			reminder.DueDate = &d
			reminder.IsSent = false
			reminder.PreReminderSent = false
		default:
			day := s.cal.Local(d).Day()
			reminder.DayOfMonth = &day
			if reminder.DueDate != nil {
				reminder.DueDate = &d
			}
		}
	}

	if err := s.db.Save(&reminder).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &reminder, nil
}

// DeleteReminder removes a reminder or template
func (s *reminderService) DeleteReminder(userID, reminderID string) error {
	result := s.db.Where("id = ? AND user_id = ?", reminderID, userID).Delete(&models.Reminder{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrReminderNotFound
	}
	return nil
}
