package services

import (
	"testing"
	"time"

	"meugestor/internal/testutil"
)

func TestGetOrCreateByPhone(t *testing.T) {
	t.Run("creates_on_first_contact", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user, err := svc.GetOrCreateByPhone("5511988887777@s.whatsapp.net")
		testutil.AssertNoError(t, err)

		if user.ID == "" {
			t.Fatal("expected non-empty user ID")
		}
		if user.PhoneNumber != "5511988887777@s.whatsapp.net" {
			t.Errorf("expected JID to be stored as is, got %s", user.PhoneNumber)
		}
	})

	t.Run("returns_existing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		first, err := svc.GetOrCreateByPhone("5511911112222@s.whatsapp.net")
		testutil.AssertNoError(t, err)
		second, err := svc.GetOrCreateByPhone("5511911112222@s.whatsapp.net")
		testutil.AssertNoError(t, err)

		if first.ID != second.ID {
			t.Errorf("expected same user, got %s and %s", first.ID, second.ID)
		}
	})

	t.Run("empty_phone", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.GetOrCreateByPhone("")
		testutil.AssertAppError(t, err, "INVALID_PHONE")
	})
}

func TestGetUserByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)
	user := testutil.CreateTestUser(t, db)

	found, err := svc.GetUserByID(user.ID)
	testutil.AssertNoError(t, err)
	if found.PhoneNumber != user.PhoneNumber {
		t.Errorf("expected %s, got %s", user.PhoneNumber, found.PhoneNumber)
	}

	_, err = svc.GetUserByID("0190f0a0-0000-7000-8000-000000000000")
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")
}

func TestRecordActivity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)
	user := testutil.CreateTestUser(t, db)

	at := time.Date(2024, 3, 15, 13, 0, 0, 0, time.UTC)
	testutil.AssertNoError(t, svc.RecordActivity(user.ID, at))
	testutil.AssertNoError(t, svc.RecordActivity(user.ID, at.Add(time.Minute)))

	found, err := svc.GetUserByID(user.ID)
	testutil.AssertNoError(t, err)
	if found.MessageCount != 2 {
		t.Errorf("expected 2 messages, got %d", found.MessageCount)
	}
	if found.LastMessageAt == nil || !found.LastMessageAt.Equal(at.Add(time.Minute)) {
		t.Errorf("unexpected last message time %v", found.LastMessageAt)
	}

	err = svc.RecordActivity("0190f0a0-0000-7000-8000-000000000000", at)
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"(11) 98888-7777", "5511988887777@s.whatsapp.net"},
		{"5511988887777", "5511988887777@s.whatsapp.net"},
		{"+55 11 98888-7777", "5511988887777@s.whatsapp.net"},
		{"5511988887777@s.whatsapp.net", "5511988887777@s.whatsapp.net"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizePhone(tt.in)
			testutil.AssertNoError(t, err)
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	_, err := NormalizePhone("abc")
	testutil.AssertAppError(t, err, "INVALID_PHONE")

	if DisplayPhone("5511988887777@s.whatsapp.net") != "5511988887777" {
		t.Error("DisplayPhone should strip the JID suffix")
	}
}
