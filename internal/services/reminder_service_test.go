package services

import (
	"testing"
	"time"

	"meugestor/internal/clock"
	"meugestor/internal/models"
	"meugestor/internal/period"
	"meugestor/internal/testutil"
)

func TestCreateReminder(t *testing.T) {
	loc := saoPaulo(t)
	due := time.Date(2024, 5, 10, 9, 30, 0, 0, loc)

	t.Run("punctual_stored_in_utc", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReminderService(db, clock.New(loc), RecurringDirect)
		user := testutil.CreateTestUser(t, db)

		r, err := svc.CreateReminder(user.ID, NewReminder{Description: "dentista", Due: due})
		testutil.AssertNoError(t, err)

		if r.IsTemplate() {
			t.Error("punctual reminder flagged as template")
		}
		if r.DueDate == nil || !r.DueDate.Equal(due) || r.DueDate.Location() != time.UTC {
			t.Errorf("unexpected due date %v", r.DueDate)
		}
	})

	t.Run("monthly_direct_is_cursor_free", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReminderService(db, clock.New(loc), RecurringDirect)
		user := testutil.CreateTestUser(t, db)

		r, err := svc.CreateReminder(user.ID, NewReminder{Description: "aluguel", Due: due, Monthly: true, NotificationDayOffset: 3})
		testutil.AssertNoError(t, err)

		if !r.IsTemplate() || r.DueDate != nil {
			t.Errorf("expected cursor-free template, got %+v", r)
		}
		if r.DayOfMonth == nil || *r.DayOfMonth != 10 || r.NotificationDayOffset != 3 {
			t.Errorf("unexpected template fields %+v", r)
		}

		var count int64
		db.Model(&models.Reminder{}).Where("user_id = ?", user.ID).Count(&count)
		if count != 1 {
			t.Errorf("expected only the template, got %d rows", count)
		}
	})

	t.Run("monthly_expand_creates_first_occurrence", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReminderService(db, clock.New(loc), RecurringExpand)
		user := testutil.CreateTestUser(t, db)

		r, err := svc.CreateReminder(user.ID, NewReminder{Description: "aluguel", Due: due, Monthly: true})
		testutil.AssertNoError(t, err)

		if !r.IsTemplate() || r.DueDate == nil || !r.DueDate.Equal(due) {
			t.Errorf("expected template with cursor at due, got %+v", r)
		}

		var instances []models.Reminder
		db.Where("user_id = ? AND recurrence = ?", user.ID, models.RecurrenceNone).Find(&instances)
		if len(instances) != 1 || !instances[0].DueDate.Equal(due) {
			t.Errorf("expected one punctual occurrence at due, got %+v", instances)
		}
	})

	t.Run("validation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReminderService(db, clock.New(loc), RecurringDirect)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateReminder(user.ID, NewReminder{Description: "", Due: due})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
		_, err = svc.CreateReminder(user.ID, NewReminder{Description: "x"})
		testutil.AssertAppError(t, err, "INVALID_DUE_DATE")
		_, err = svc.CreateReminder(user.ID, NewReminder{Description: "x", Due: due, Monthly: true, NotificationDayOffset: 31})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetRemindersInInterval(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	loc := saoPaulo(t)
	cal := clock.New(loc)
	svc := NewReminderService(db, cal, RecurringExpand)
	user := testutil.CreateTestUser(t, db)

	now := time.Date(2024, 12, 31, 15, 0, 0, 0, loc)
	tomorrow, ok := period.NewResolver(cal).Resolve("amanhã", now, period.Reminders)
	if !ok {
		t.Fatal("expected tomorrow to resolve")
	}

	late := testutil.CreateTestReminder(t, db, user.ID, "jantar", time.Date(2025, 1, 1, 20, 0, 0, 0, loc))
	early := testutil.CreateTestReminder(t, db, user.ID, "café", time.Date(2025, 1, 1, 0, 0, 0, 0, loc))
	testutil.CreateTestReminder(t, db, user.ID, "next day midnight", time.Date(2025, 1, 2, 0, 0, 0, 0, loc))
	testutil.CreateTestExpansionTemplate(t, db, user.ID, "template", 1, time.Date(2025, 1, 1, 10, 0, 0, 0, loc))

	reminders, err := svc.GetRemindersInInterval(user.ID, tomorrow)
	testutil.AssertNoError(t, err)

	if len(reminders) != 2 {
		t.Fatalf("expected 2 reminders, got %d", len(reminders))
	}
	if reminders[0].ID != early.ID || reminders[1].ID != late.ID {
		t.Errorf("expected reminders soonest first")
	}
}

func TestUpdateReminder(t *testing.T) {
	loc := saoPaulo(t)

	t.Run("moving_rearms_notices", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReminderService(db, clock.New(loc), RecurringDirect)
		user := testutil.CreateTestUser(t, db)
		r := testutil.CreateTestReminder(t, db, user.ID, "médico", time.Date(2024, 5, 10, 9, 0, 0, 0, loc))
		db.Model(r).Updates(map[string]interface{}{"is_sent": true, "pre_reminder_sent": true})

		moved := time.Date(2024, 5, 20, 15, 0, 0, 0, loc)
		desc := "médico (remarcado)"
		updated, err := svc.UpdateReminder(user.ID, r.ID, &desc, &moved)
		testutil.AssertNoError(t, err)

		if updated.IsSent || updated.PreReminderSent {
			t.Error("expected notices to be re-armed")
		}
		if !updated.DueDate.Equal(moved) || updated.Description != desc {
			t.Errorf("unexpected update %+v", updated)
		}

		pending, err := svc.GetPendingReminders(user.ID)
		testutil.AssertNoError(t, err)
		if len(pending) != 1 {
			t.Errorf("expected the moved reminder to be pending again, got %d", len(pending))
		}
	})

	t.Run("template_due_moves_day_of_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReminderService(db, clock.New(loc), RecurringDirect)
		user := testutil.CreateTestUser(t, db)
		tpl := testutil.CreateTestDirectTemplate(t, db, user.ID, "aluguel", 10, 0)

		moved := time.Date(2024, 5, 15, 9, 0, 0, 0, loc)
		updated, err := svc.UpdateReminder(user.ID, tpl.ID, nil, &moved)
		testutil.AssertNoError(t, err)
		if *updated.DayOfMonth != 15 || updated.DueDate != nil {
			t.Errorf("unexpected template update %+v", updated)
		}
	})

	t.Run("not_found_and_delete", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReminderService(db, clock.New(loc), RecurringDirect)
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		r := testutil.CreateTestReminder(t, db, owner.ID, "x", time.Now().Add(time.Hour))

		desc := "y"
		_, err := svc.UpdateReminder(intruder.ID, r.ID, &desc, nil)
		testutil.AssertAppError(t, err, "REMINDER_NOT_FOUND")

		testutil.AssertAppError(t, svc.DeleteReminder(intruder.ID, r.ID), "REMINDER_NOT_FOUND")
		testutil.AssertNoError(t, svc.DeleteReminder(owner.ID, r.ID))
	})
}
