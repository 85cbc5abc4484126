package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"meugestor/internal/models"
	"meugestor/internal/pagination"
	"meugestor/internal/period"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	GetOrCreateByPhone(phone string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	GetUserByPhone(phone string) (*models.User, error)
	RecordActivity(userID string, at time.Time) error
}

// EntryKind selects the ledger a summary reads from.
type EntryKind string

const (
	KindExpense EntryKind = "expense"
	KindIncome  EntryKind = "income"
)

// ParseEntryKind maps query input to an EntryKind; empty means expense.
func ParseEntryKind(s string) (EntryKind, bool) {
	switch EntryKind(s) {
	case "", KindExpense:
		return KindExpense, true
	case KindIncome:
		return KindIncome, true
	}
	return "", false
}

// LedgerEntry is one expense or income line in a summary.
type LedgerEntry struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Value       decimal.Decimal `json:"value"`
	Category    string          `json:"category,omitempty"`
	Date        time.Time       `json:"date"`
}

// LedgerSummary is the result of summarizing one ledger over an interval.
type LedgerSummary struct {
	Kind    EntryKind       `json:"kind"`
	Start   time.Time       `json:"start"`
	End     time.Time       `json:"end"`
	Entries []LedgerEntry   `json:"entries"`
	Total   decimal.Decimal `json:"total"`
}

// LedgerServicer aggregates expenses or incomes over a resolved period.
type LedgerServicer interface {
	Summarize(userID string, iv period.Interval, kind EntryKind, category string) (*LedgerSummary, error)
}

// ExpenseServicer defines the contract for expense-related business logic.
type ExpenseServicer interface {
	RegisterExpense(userID, description string, value decimal.Decimal, category string, at time.Time) (*models.Expense, error)
	GetUserExpenses(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error)
	GetExpenseByID(userID, expenseID string) (*models.Expense, error)
	UpdateExpense(userID, expenseID string, description *string, value *decimal.Decimal, category *string, date *time.Time) (*models.Expense, error)
	DeleteExpense(userID, expenseID string) error
	DeleteLastExpense(userID string) (*models.Expense, error)
	EditLastExpenseValue(userID string, value decimal.Decimal) (*models.Expense, error)
}

// IncomeServicer defines the contract for income-related business logic.
type IncomeServicer interface {
	RegisterIncome(userID, description string, value decimal.Decimal, at time.Time) (*models.Income, error)
	GetUserIncomes(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Income], error)
	UpdateIncome(userID, incomeID string, description *string, value *decimal.Decimal, date *time.Time) (*models.Income, error)
	DeleteIncome(userID, incomeID string) error
}

// CategoryView is a category as users see it: custom rows plus the built-in defaults.
type CategoryView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	ListCategories(userID string) ([]CategoryView, error)
	CreateCategory(userID, name string) (*models.Category, error)
	RenameCategory(userID, categoryID, name string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
	DeleteCategoryByName(userID, name string) (*models.Category, error)
}

// PlannedExpenseServicer defines the contract for planned bills and their monthly statuses.
type PlannedExpenseServicer interface {
	CreatePlannedExpense(userID, name string, dueDay int) (*models.PlannedExpense, error)
	GetUserPlannedExpenses(userID string) ([]models.PlannedExpense, error)
	UpdatePlannedExpense(userID, plannedID string, name *string, dueDay *int) (*models.PlannedExpense, error)
	DeletePlannedExpense(userID, plannedID string) error
	SetStatus(userID, plannedID, monthKey, status string) (*models.PlannedExpense, error)
	Reconcile(userID, description string, at time.Time) (*models.PlannedExpense, error)
}

// NewReminder describes a reminder requested by the user. Due is the civil
// instant of the (first) occurrence.
type NewReminder struct {
	Description           string
	Due                   time.Time
	Monthly               bool
	NotificationDayOffset int
}

// ReminderServicer defines the contract for reminder-related business logic.
type ReminderServicer interface {
	CreateReminder(userID string, in NewReminder) (*models.Reminder, error)
	GetRemindersInInterval(userID string, iv period.Interval) ([]models.Reminder, error)
	GetPendingReminders(userID string) ([]models.Reminder, error)
	UpdateReminder(userID, reminderID string, description *string, due *time.Time) (*models.Reminder, error)
	DeleteReminder(userID, reminderID string) error
}

// EngineReport counts what one recurring-engine pass did.
type EngineReport struct {
	Templates int `json:"templates"`
	Created   int `json:"created"`
	Fired     int `json:"fired"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// RecurringEngine advances monthly templates for one maintenance tick.
type RecurringEngine interface {
	Run(ctx context.Context, now time.Time) EngineReport
}

// SchedulerReport counts notices sent by one scheduler pass.
type SchedulerReport struct {
	PreNotices int `json:"pre_notices"`
	Exact      int `json:"exact"`
	Orphaned   int `json:"orphaned"`
	Failed     int `json:"failed"`
}

// NotificationScheduler delivers pre-notices and exact-time notices.
type NotificationScheduler interface {
	Run(ctx context.Context, now time.Time) SchedulerReport
}

// TickReport summarizes one maintenance tick.
type TickReport struct {
	Skipped   bool            `json:"skipped"`
	Engine    EngineReport    `json:"engine"`
	Scheduler SchedulerReport `json:"scheduler"`
	Duration  time.Duration   `json:"duration"`
}

// MaintenanceServicer runs the recurring engine followed by the scheduler.
type MaintenanceServicer interface {
	RunMaintenanceTick(ctx context.Context, now time.Time) (*TickReport, error)
}

// Notifier delivers a text message to a WhatsApp recipient.
type Notifier interface {
	Deliver(ctx context.Context, recipient, text string) error
}

// AuthTokenServicer issues and consumes single-use dashboard login tokens.
type AuthTokenServicer interface {
	IssueToken(userID string) (*models.AuthToken, error)
	VerifyToken(token string) (*models.User, error)
}

// DashboardData is everything the dashboard loads on start.
type DashboardData struct {
	UserID          string                  `json:"user_id"`
	PhoneNumber     string                  `json:"phone_number"`
	Expenses        []models.Expense        `json:"expenses"`
	Incomes         []models.Income         `json:"incomes"`
	Categories      []CategoryView          `json:"categories"`
	Reminders       []models.Reminder       `json:"reminders"`
	PlannedExpenses []models.PlannedExpense `json:"planned_expenses"`
}

// DashboardServicer assembles the dashboard snapshot.
type DashboardServicer interface {
	GetData(userID string) (*DashboardData, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
