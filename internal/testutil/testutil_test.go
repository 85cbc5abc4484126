package testutil_test

import (
	"testing"
	"time"

	"meugestor/internal/errors"
	"meugestor/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "expenses", "incomes", "categories", "reminders", "planned_expenses", "auth_tokens", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, first)
	second := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, second)

	testutil.CreateTestUser(t, first)

	var count int64
	if err := second.Table("users").Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected isolated database, found %d users", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have an ID")
	}

	expense := testutil.CreateTestExpense(t, db, user.ID, "mercado", "12.34", "Alimentação", time.Now())
	if expense.Value.String() != "12.34" {
		t.Errorf("expected value 12.34, got %s", expense.Value)
	}

	planned := testutil.CreateTestPlannedExpense(t, db, user.ID, "Aluguel", 10)
	if planned.Statuses == nil {
		t.Error("expected non-nil statuses")
	}

	tmpl := testutil.CreateTestDirectTemplate(t, db, user.ID, "Pagar luz", 10, 5)
	if !tmpl.IsTemplate() {
		t.Error("expected template")
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrReminderNotFound, "custom message")
	testutil.AssertAppError(t, err, "REMINDER_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
