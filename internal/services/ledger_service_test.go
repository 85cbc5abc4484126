package services

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"

	"meugestor/internal/clock"
	"meugestor/internal/period"
	"meugestor/internal/testutil"
)

func saoPaulo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	return loc
}

func TestSummarize(t *testing.T) {
	loc := saoPaulo(t)
	resolver := period.NewResolver(clock.New(loc))
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, loc)
	month, ok := resolver.Resolve("este mês", now, period.Summary)
	if !ok {
		t.Fatal("expected month to resolve")
	}

	t.Run("half_open_boundaries", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewLedgerService(db)
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestExpense(t, db, user.ID, "at start", "10.00", "Lazer", month.Start)
		testutil.CreateTestExpense(t, db, user.ID, "before start", "99.00", "Lazer", month.Start.Add(-time.Second))
		testutil.CreateTestExpense(t, db, user.ID, "at end", "99.00", "Lazer", month.End)
		testutil.CreateTestExpense(t, db, user.ID, "just before end", "5.50", "Lazer", month.End.Add(-time.Second))

		summary, err := svc.Summarize(user.ID, month, KindExpense, "")
		testutil.AssertNoError(t, err)

		if len(summary.Entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(summary.Entries))
		}
		if summary.Entries[0].Description != "at start" || summary.Entries[1].Description != "just before end" {
			t.Errorf("unexpected order: %q, %q", summary.Entries[0].Description, summary.Entries[1].Description)
		}
		if !summary.Total.Equal(decimal.RequireFromString("15.50")) {
			t.Errorf("expected total 15.50, got %s", summary.Total)
		}
	})

	t.Run("exact_decimal_sum", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewLedgerService(db)
		user := testutil.CreateTestUser(t, db)

		at := month.Start.Add(time.Hour)
		for i := 0; i < 10; i++ {
			testutil.CreateTestExpense(t, db, user.ID, "café", "0.10", "Alimentação", at.Add(time.Duration(i)*time.Minute))
		}

		summary, err := svc.Summarize(user.ID, month, KindExpense, "")
		testutil.AssertNoError(t, err)
		if !summary.Total.Equal(decimal.RequireFromString("1.00")) {
			t.Errorf("expected exactly 1.00, got %s", summary.Total)
		}
	})

	t.Run("category_filter_case_insensitive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewLedgerService(db)
		user := testutil.CreateTestUser(t, db)

		at := month.Start.Add(2 * time.Hour)
		testutil.CreateTestExpense(t, db, user.ID, "uber", "23.40", "Transporte", at)
		testutil.CreateTestExpense(t, db, user.ID, "mercado", "120.00", "Alimentação", at)

		summary, err := svc.Summarize(user.ID, month, KindExpense, "transporte")
		testutil.AssertNoError(t, err)
		if len(summary.Entries) != 1 || summary.Entries[0].Description != "uber" {
			t.Fatalf("expected only the transport expense, got %+v", summary.Entries)
		}
	})

	t.Run("incomes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)

		testutil.CreateTestIncome(t, db, user.ID, "salário", "5000.00", month.Start.Add(3*time.Hour))
		testutil.CreateTestIncome(t, db, other.ID, "alheio", "1.00", month.Start.Add(3*time.Hour))

		summary, err := svc.Summarize(user.ID, month, KindIncome, "ignored")
		testutil.AssertNoError(t, err)
		if len(summary.Entries) != 1 || !summary.Total.Equal(decimal.NewFromInt(5000)) {
			t.Errorf("unexpected income summary %+v", summary)
		}
	})

	t.Run("empty_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewLedgerService(db)
		user := testutil.CreateTestUser(t, db)

		summary, err := svc.Summarize(user.ID, month, KindExpense, "")
		testutil.AssertNoError(t, err)
		if len(summary.Entries) != 0 || !summary.Total.IsZero() {
			t.Errorf("expected empty summary, got %+v", summary)
		}
	})

	t.Run("invalid_kind", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewLedgerService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.Summarize(user.ID, month, EntryKind("transfer"), "")
		testutil.AssertAppError(t, err, "INVALID_ENTRY_KIND")
	})

	t.Run("empty_interval", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewLedgerService(db)

		_, err := svc.Summarize("u", period.Interval{Start: month.Start, End: month.Start}, KindExpense, "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}
