package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"meugestor/internal/pagination"
	"meugestor/internal/testutil"
)

func TestRegisterIncome(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIncomeService(db)
		user := testutil.CreateTestUser(t, db)

		income, err := svc.RegisterIncome(user.ID, "  salário ", decimal.RequireFromString("3500"), time.Now())
		testutil.AssertNoError(t, err)
		if income.Description != "salário" {
			t.Errorf("expected trimmed description, got %q", income.Description)
		}
		if income.TransactionDate.Location() != time.UTC {
			t.Errorf("expected UTC transaction date, got %v", income.TransactionDate.Location())
		}
	})

	t.Run("empty_description", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIncomeService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.RegisterIncome(user.ID, "   ", decimal.NewFromInt(10), time.Now())
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("negative_value", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIncomeService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.RegisterIncome(user.ID, "pix", decimal.NewFromInt(-5), time.Now())
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetUserIncomes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewIncomeService(db)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	testutil.CreateTestIncome(t, db, user.ID, "freela", "200", base)
	testutil.CreateTestIncome(t, db, user.ID, "salário", "3000", base.Add(48*time.Hour))
	testutil.CreateTestIncome(t, db, other.ID, "alheio", "1", base)

	page, err := svc.GetUserIncomes(user.ID, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if page.TotalItems != 2 || len(page.Data) != 2 {
		t.Fatalf("expected 2 incomes, got %d/%d", page.TotalItems, len(page.Data))
	}
	if page.Data[0].Description != "salário" {
		t.Errorf("expected newest first, got %q", page.Data[0].Description)
	}
}

func TestUpdateAndDeleteIncome(t *testing.T) {
	t.Run("update_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIncomeService(db)
		user := testutil.CreateTestUser(t, db)
		income := testutil.CreateTestIncome(t, db, user.ID, "freela", "200", time.Now())

		value := decimal.RequireFromString("250.50")
		updated, err := svc.UpdateIncome(user.ID, income.ID, nil, &value, nil)
		testutil.AssertNoError(t, err)
		if !updated.Value.Equal(value) || updated.Description != "freela" {
			t.Errorf("unexpected update result %+v", updated)
		}
	})

	t.Run("update_other_users_income", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIncomeService(db)
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		income := testutil.CreateTestIncome(t, db, owner.ID, "freela", "200", time.Now())

		desc := "meu"
		_, err := svc.UpdateIncome(intruder.ID, income.ID, &desc, nil, nil)
		testutil.AssertAppError(t, err, "INCOME_NOT_FOUND")
	})

	t.Run("delete_twice", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIncomeService(db)
		user := testutil.CreateTestUser(t, db)
		income := testutil.CreateTestIncome(t, db, user.ID, "freela", "200", time.Now())

		testutil.AssertNoError(t, svc.DeleteIncome(user.ID, income.ID))
		testutil.AssertAppError(t, svc.DeleteIncome(user.ID, income.ID), "INCOME_NOT_FOUND")
	})
}
