package services

import (
	"gorm.io/gorm"

	apperrors "meugestor/internal/errors"
	"meugestor/internal/models"
)

// dashboardService assembles the full snapshot the dashboard loads on start.
type dashboardService struct {
	db         *gorm.DB
	users      UserServicer
	categories CategoryServicer
	reminders  ReminderServicer
	planned    PlannedExpenseServicer
}

// NewDashboardService creates a new DashboardServicer.
func NewDashboardService(db *gorm.DB, users UserServicer, categories CategoryServicer, reminders ReminderServicer, planned PlannedExpenseServicer) DashboardServicer {
	return &dashboardService{db: db, users: users, categories: categories, reminders: reminders, planned: planned}
}

// GetData returns every ledger entry newest first, categories, pending
// punctual reminders and planned bills.
func (s *dashboardService) GetData(userID string) (*DashboardData, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	data := &DashboardData{
		UserID:          user.ID,
		PhoneNumber:     user.PhoneNumber,
		Expenses:        []models.Expense{},
		Incomes:         []models.Income{},
		Reminders:       []models.Reminder{},
		PlannedExpenses: []models.PlannedExpense{},
	}

	if err := s.db.Where("user_id = ?", userID).Order("transaction_date DESC").Find(&data.Expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Where("user_id = ?", userID).Order("transaction_date DESC").Find(&data.Incomes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if data.Categories, err = s.categories.ListCategories(userID); err != nil {
		return nil, err
	}
	reminders, err := s.reminders.GetPendingReminders(userID)
	if err != nil {
		return nil, err
	}
	if len(reminders) > 0 {
		data.Reminders = reminders
	}
	planned, err := s.planned.GetUserPlannedExpenses(userID)
	if err != nil {
		return nil, err
	}
	if len(planned) > 0 {
		data.PlannedExpenses = planned
	}

	return data, nil
}
