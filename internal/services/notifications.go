package services

import (
	"fmt"
	"time"

	"meugestor/internal/clock"
)

// FailurePolicy decides what a failed delivery does to the notice flag.
type FailurePolicy string

const (
	// RetryOnFailure clears the claim so the next tick tries again.
	RetryOnFailure FailurePolicy = "retry"
	// MarkSentOnFailure keeps the claim so a broken sink cannot cause repeats.
	MarkSentOnFailure FailurePolicy = "mark_sent"
)

const (
	morningCutoffHour  = 12
	eveningPreviewHour = 20
	sameDayPreviewHour = 9
	timeOfDayLayout    = "15:04"
)

// PreNoticeWindow returns when the lead notice for a reminder due at due
// may go out: 20:00 the evening before for morning appointments, 09:00 the
// same day otherwise.
func PreNoticeWindow(cal *clock.Calendar, due time.Time) time.Time {
	local := cal.Local(due)
	if local.Hour() < morningCutoffHour {
		prev := cal.AddDays(cal.StartOfDay(local), -1)
		return cal.Date(prev.Year(), prev.Month(), prev.Day(), eveningPreviewHour, 0)
	}
	return cal.Date(local.Year(), local.Month(), local.Day(), sameDayPreviewHour, 0)
}

// PreNoticeMessage renders the lead notice.
func PreNoticeMessage(cal *clock.Calendar, description string, due time.Time) string {
	local := cal.Local(due)
	if local.Hour() < morningCutoffHour {
		return fmt.Sprintf("👋 Olá! Só pra lembrar do seu compromisso amanhã de manhã: '%s' às %s.", description, local.Format(timeOfDayLayout))
	}
	return fmt.Sprintf("👋 Olá! Passando pra lembrar do seu compromisso de hoje: '%s' às %s.", description, local.Format(timeOfDayLayout))
}

// DueNoticeMessage renders the exact-time notice.
func DueNoticeMessage(cal *clock.Calendar, description string, due time.Time) string {
	return fmt.Sprintf("⏰ Lembrete: %s agora às %s.", description, cal.Local(due).Format(timeOfDayLayout))
}

// MonthlyNoticeMessage renders the direct-fire notice for a monthly template.
func MonthlyNoticeMessage(description string, dueDay, offset int) string {
	if offset == 0 {
		return fmt.Sprintf("🔔 Lembrete mensal: '%s' vence hoje (dia %d).", description, dueDay)
	}
	return fmt.Sprintf("🔔 Lembrete mensal: '%s' vence no dia %d.", description, dueDay)
}
