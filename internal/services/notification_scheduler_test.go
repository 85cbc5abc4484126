package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"meugestor/internal/clock"
	"meugestor/internal/testutil"
)

func TestPreNoticeWindow(t *testing.T) {
	loc := saoPaulo(t)
	cal := clock.New(loc)

	morning := time.Date(2025, 1, 1, 8, 0, 0, 0, loc)
	if got := PreNoticeWindow(cal, morning); !got.Equal(time.Date(2024, 12, 31, 20, 0, 0, 0, loc)) {
		t.Errorf("morning window = %v, want 20:00 the evening before", got)
	}
	noon := time.Date(2024, 5, 10, 12, 0, 0, 0, loc)
	if got := PreNoticeWindow(cal, noon); !got.Equal(time.Date(2024, 5, 10, 9, 0, 0, 0, loc)) {
		t.Errorf("afternoon window = %v, want 09:00 same day", got)
	}
}

func TestNotificationScheduler(t *testing.T) {
	loc := saoPaulo(t)
	cal := clock.New(loc)

	t.Run("morning_reminder_lifecycle", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		notifier := &fakeNotifier{}
		scheduler := NewNotificationScheduler(db, cal, notifier, RetryOnFailure)
		user := testutil.CreateTestUser(t, db)
		due := time.Date(2024, 5, 11, 8, 0, 0, 0, loc)
		r := testutil.CreateTestReminder(t, db, user.ID, "consulta", due)

		report := scheduler.Run(context.Background(), time.Date(2024, 5, 10, 19, 59, 0, 0, loc))
		if report.PreNotices != 0 || notifier.count() != 0 {
			t.Fatalf("expected nothing before 20:00, got %+v", report)
		}

		report = scheduler.Run(context.Background(), time.Date(2024, 5, 10, 20, 1, 0, 0, loc))
		if report.PreNotices != 1 || notifier.count() != 1 {
			t.Fatalf("expected one pre-notice at 20:01, got %+v", report)
		}
		if got := notifier.last().text; got != "👋 Olá! Só pra lembrar do seu compromisso amanhã de manhã: 'consulta' às 08:00." {
			t.Errorf("unexpected pre-notice %q", got)
		}

		report = scheduler.Run(context.Background(), time.Date(2024, 5, 10, 20, 30, 0, 0, loc))
		if report.PreNotices != 0 || notifier.count() != 1 {
			t.Fatalf("expected no repeat at 20:30, got %+v", report)
		}

		report = scheduler.Run(context.Background(), due)
		if report.Exact != 1 || notifier.count() != 2 {
			t.Fatalf("expected the exact notice at 08:00, got %+v", report)
		}
		if got := notifier.last().text; got != "⏰ Lembrete: consulta agora às 08:00." {
			t.Errorf("unexpected exact notice %q", got)
		}

		scheduler.Run(context.Background(), due.Add(5*time.Minute))
		if notifier.count() != 2 {
			t.Errorf("expected no further notices, got %d", notifier.count())
		}

		stored := reloadReminder(t, db, r.ID)
		if !stored.IsSent || !stored.PreReminderSent {
			t.Errorf("expected both flags set, got %+v", stored)
		}
	})

	t.Run("afternoon_reminder_same_day_preview", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		notifier := &fakeNotifier{}
		scheduler := NewNotificationScheduler(db, cal, notifier, RetryOnFailure)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestReminder(t, db, user.ID, "reunião", time.Date(2024, 5, 10, 15, 30, 0, 0, loc))

		scheduler.Run(context.Background(), time.Date(2024, 5, 10, 8, 59, 0, 0, loc))
		if notifier.count() != 0 {
			t.Fatal("expected nothing before 09:00")
		}
		scheduler.Run(context.Background(), time.Date(2024, 5, 10, 9, 0, 0, 0, loc))
		if notifier.count() != 1 || !strings.Contains(notifier.last().text, "compromisso de hoje: 'reunião' às 15:30") {
			t.Errorf("unexpected preview %+v", notifier.sent)
		}
	})

	t.Run("overdue_reminder_skips_pre_notice", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		notifier := &fakeNotifier{}
		scheduler := NewNotificationScheduler(db, cal, notifier, RetryOnFailure)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestReminder(t, db, user.ID, "atrasado", time.Date(2024, 5, 10, 9, 0, 0, 0, loc))

		report := scheduler.Run(context.Background(), time.Date(2024, 5, 10, 11, 0, 0, 0, loc))
		if report.PreNotices != 0 || report.Exact != 1 {
			t.Errorf("expected only the exact notice, got %+v", report)
		}
	})

	t.Run("retry_policy_rearms_flag", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		notifier := &fakeNotifier{failing: true}
		scheduler := NewNotificationScheduler(db, cal, notifier, RetryOnFailure)
		user := testutil.CreateTestUser(t, db)
		due := time.Date(2024, 5, 10, 9, 0, 0, 0, loc)
		r := testutil.CreateTestReminder(t, db, user.ID, "pagar boleto", due)
		db.Model(r).Update("pre_reminder_sent", true)

		report := scheduler.Run(context.Background(), due)
		if report.Failed != 1 {
			t.Fatalf("expected a failure, got %+v", report)
		}
		if stored := reloadReminder(t, db, r.ID); stored.IsSent {
			t.Fatal("expected is_sent to be cleared for retry")
		}

		notifier.failing = false
		report = scheduler.Run(context.Background(), due.Add(time.Minute))
		if report.Exact != 1 || notifier.count() != 1 {
			t.Errorf("expected the retry to deliver, got %+v", report)
		}
	})

	t.Run("mark_sent_policy_keeps_flag", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		notifier := &fakeNotifier{failing: true}
		scheduler := NewNotificationScheduler(db, cal, notifier, MarkSentOnFailure)
		user := testutil.CreateTestUser(t, db)
		due := time.Date(2024, 5, 10, 9, 0, 0, 0, loc)
		r := testutil.CreateTestReminder(t, db, user.ID, "pagar boleto", due)

		scheduler.Run(context.Background(), due)
		if stored := reloadReminder(t, db, r.ID); !stored.IsSent {
			t.Fatal("expected is_sent to stay set")
		}

		notifier.failing = false
		scheduler.Run(context.Background(), due.Add(time.Minute))
		if notifier.count() != 0 {
			t.Errorf("expected no repeat, got %d", notifier.count())
		}
	})

	t.Run("orphaned_reminder_is_marked", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		notifier := &fakeNotifier{}
		scheduler := NewNotificationScheduler(db, cal, notifier, RetryOnFailure)
		user := testutil.CreateTestUser(t, db)
		due := time.Date(2024, 5, 10, 9, 0, 0, 0, loc)
		r := testutil.CreateTestReminder(t, db, user.ID, "sem dono", due)
		db.Delete(user)

		report := scheduler.Run(context.Background(), due)
		if report.Orphaned != 1 || notifier.count() != 0 {
			t.Errorf("expected an orphan without delivery, got %+v", report)
		}
		if stored := reloadReminder(t, db, r.ID); !stored.IsSent {
			t.Error("expected orphaned reminder to be marked sent")
		}
	})

	t.Run("templates_are_never_notified", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		notifier := &fakeNotifier{}
		scheduler := NewNotificationScheduler(db, cal, notifier, RetryOnFailure)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestExpansionTemplate(t, db, user.ID, "mensal", 10, time.Date(2024, 5, 10, 9, 0, 0, 0, loc))

		report := scheduler.Run(context.Background(), time.Date(2024, 5, 10, 10, 0, 0, 0, loc))
		if report.Exact != 0 || report.PreNotices != 0 || notifier.count() != 0 {
			t.Errorf("expected templates to be ignored, got %+v", report)
		}
	})
}
