package models

import "time"

// Recurrence tags a reminder as a recurring template.
type Recurrence string

const (
	// RecurrenceNone marks a punctual reminder.
	RecurrenceNone Recurrence = ""
	// RecurrenceMonthly marks a monthly template.
	RecurrenceMonthly Recurrence = "monthly"
)

// Reminder covers both punctual reminders and monthly templates.
//
// Punctual reminders have DueDate set and Recurrence empty; the scheduler
// walks them through pre-notice (PreReminderSent) and exact-time (IsSent).
//
// Monthly templates have Recurrence=monthly and DayOfMonth set. The
// direct-fire engine stamps LastTriggeredYear/Month once per cycle; the
// expansion engine keeps the last generated occurrence in DueDate and spawns
// punctual instances from it.
type Reminder struct {
	Base
	UserID                string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Description           string     `gorm:"not null" json:"description"`
	DueDate               *time.Time `gorm:"index" json:"due_date,omitempty"`
	IsSent                bool       `gorm:"not null;default:false" json:"is_sent"`
	PreReminderSent       bool       `gorm:"not null;default:false" json:"pre_reminder_sent"`
	Recurrence            Recurrence `gorm:"size:16;not null;default:'';index" json:"recurrence,omitempty"`
	DayOfMonth            *int       `json:"day_of_month,omitempty"`
	NotificationDayOffset int        `gorm:"not null;default:0" json:"notification_day_offset"`
	LastTriggeredYear     *int       `json:"last_triggered_year,omitempty"`
	LastTriggeredMonth    *int       `json:"last_triggered_month,omitempty"`
	User                  User       `gorm:"foreignKey:UserID" json:"-"`
}

// IsTemplate reports whether r is a recurring template.
func (r *Reminder) IsTemplate() bool {
	return r.Recurrence != RecurrenceNone
}

// TriggeredIn reports whether the template already fired for (year, month).
func (r *Reminder) TriggeredIn(year int, month time.Month) bool {
	return r.LastTriggeredYear != nil && r.LastTriggeredMonth != nil &&
		*r.LastTriggeredYear == year && *r.LastTriggeredMonth == int(month)
}
