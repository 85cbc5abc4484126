package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"meugestor/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a unique WhatsApp JID.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithPhone(t, db, fmt.Sprintf("55119%08d@s.whatsapp.net", nextID()))
}

// CreateTestUserWithPhone creates a user with the given JID.
func CreateTestUserWithPhone(t *testing.T, db *gorm.DB, phone string) *models.User {
	t.Helper()

	user := &models.User{PhoneNumber: phone}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestExpense creates an expense; value is a decimal string like "12.50".
func CreateTestExpense(t *testing.T, db *gorm.DB, userID, description, value, category string, at time.Time) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		UserID:          userID,
		Description:     description,
		Value:           decimal.RequireFromString(value),
		Category:        category,
		TransactionDate: at.UTC(),
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}

// CreateTestIncome creates an income; value is a decimal string.
func CreateTestIncome(t *testing.T, db *gorm.DB, userID, description, value string, at time.Time) *models.Income {
	t.Helper()

	income := &models.Income{
		UserID:          userID,
		Description:     description,
		Value:           decimal.RequireFromString(value),
		TransactionDate: at.UTC(),
	}
	if err := db.Create(income).Error; err != nil {
		t.Fatalf("failed to create test income: %v", err)
	}
	return income
}

// CreateTestReminder creates a punctual reminder due at due.
func CreateTestReminder(t *testing.T, db *gorm.DB, userID, description string, due time.Time) *models.Reminder {
	t.Helper()

	d := due.UTC()
	reminder := &models.Reminder{
		UserID:      userID,
		Description: description,
		DueDate:     &d,
	}
	if err := db.Create(reminder).Error; err != nil {
		t.Fatalf("failed to create test reminder: %v", err)
	}
	return reminder
}

// CreateTestDirectTemplate creates a direct-fire monthly template.
func CreateTestDirectTemplate(t *testing.T, db *gorm.DB, userID, description string, dayOfMonth, offset int) *models.Reminder {
	t.Helper()

	reminder := &models.Reminder{
		UserID:                userID,
		Description:           description,
		Recurrence:            models.RecurrenceMonthly,
		DayOfMonth:            &dayOfMonth,
		NotificationDayOffset: offset,
	}
	if err := db.Create(reminder).Error; err != nil {
		t.Fatalf("failed to create test template: %v", err)
	}
	return reminder
}

// CreateTestExpansionTemplate creates a monthly template whose cursor is cursor.
func CreateTestExpansionTemplate(t *testing.T, db *gorm.DB, userID, description string, dayOfMonth int, cursor time.Time) *models.Reminder {
	t.Helper()

	c := cursor.UTC()
	reminder := &models.Reminder{
		UserID:      userID,
		Description: description,
		Recurrence:  models.RecurrenceMonthly,
		DayOfMonth:  &dayOfMonth,
		DueDate:     &c,
	}
	if err := db.Create(reminder).Error; err != nil {
		t.Fatalf("failed to create test template: %v", err)
	}
	return reminder
}

// CreateTestPlannedExpense creates a planned bill with empty statuses.
func CreateTestPlannedExpense(t *testing.T, db *gorm.DB, userID, name string, dueDay int) *models.PlannedExpense {
	t.Helper()

	planned := &models.PlannedExpense{
		UserID:   userID,
		Name:     name,
		DueDay:   dueDay,
		Statuses: map[string]string{},
	}
	if err := db.Create(planned).Error; err != nil {
		t.Fatalf("failed to create test planned expense: %v", err)
	}
	return planned
}

// CreateTestCategory creates a custom category with a unique name.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string) *models.Category {
	t.Helper()
	return CreateTestCategoryWithName(t, db, userID, fmt.Sprintf("Categoria %d", nextID()))
}

// CreateTestCategoryWithName creates a custom category with the given name.
func CreateTestCategoryWithName(t *testing.T, db *gorm.DB, userID, name string) *models.Category {
	t.Helper()

	category := &models.Category{UserID: userID, Name: name}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}
