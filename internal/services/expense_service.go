package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "meugestor/internal/errors"
	"meugestor/internal/logger"
	"meugestor/internal/models"
	"meugestor/internal/pagination"
)

// expenseService handles expense-related business logic.
type expenseService struct {
	db      *gorm.DB
	planned PlannedExpenseServicer
}

// NewExpenseService creates a new ExpenseServicer. Registered expenses are
// reconciled against planned; pass nil to skip reconciliation.
func NewExpenseService(db *gorm.DB, planned PlannedExpenseServicer) ExpenseServicer {
	return &expenseService{db: db, planned: planned}
}

// validateValue rejects non-positive amounts and rounds to cents.
func validateValue(value decimal.Decimal) (decimal.Decimal, error) {
	if !value.IsPositive() {
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrInvalidInput, "value must be positive")
	}
	return value.Round(2), nil
}

// RegisterExpense records an expense and then reconciles it against the
// user's planned bills. Reconciliation runs as its own unit: a failure there
// is logged and does not undo the expense.
func (s *expenseService) RegisterExpense(userID, description string, value decimal.Decimal, category string, at time.Time) (*models.Expense, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	value, err := validateValue(value)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		UserID:          userID,
		Description:     description,
		Value:           value,
		Category:        strings.TrimSpace(category),
		TransactionDate: at.UTC(),
	}
	if err := s.db.Create(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if s.planned != nil {
		if _, err := s.planned.Reconcile(userID, description, at); err != nil {
			logger.Get().Errorw("planned expense reconciliation failed",
				"error", err,
				"user_id", userID,
				"expense_id", expense.ID,
			)
		}
	}

	return expense, nil
}

// GetUserExpenses lists expenses newest first
func (s *expenseService) GetUserExpenses(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Expense{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	if err := base.Order("transaction_date DESC, id DESC").Scopes(pagination.Paginate(page)).Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(expenses, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetExpenseByID retrieves an expense owned by userID
func (s *expenseService) GetExpenseByID(userID, expenseID string) (*models.Expense, error) {
	var expense models.Expense
	if err := s.db.Where("id = ? AND user_id = ?", expenseID, userID).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

// UpdateExpense applies the non-nil fields
func (s *expenseService) UpdateExpense(userID, expenseID string, description *string, value *decimal.Decimal, category *string, date *time.Time) (*models.Expense, error) {
	expense, err := s.GetExpenseByID(userID, expenseID)
	if err != nil {
		return nil, err
	}

	if description != nil {
		d := strings.TrimSpace(*description)
		if d == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
		}
		expense.Description = d
	}
	if value != nil {
		v, err := validateValue(*value)
		if err != nil {
			return nil, err
		}
		expense.Value = v
	}
	if category != nil {
		expense.Category = strings.TrimSpace(*category)
	}
	if date != nil {
		expense.TransactionDate = date.UTC()
	}

	if err := s.db.Save(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expense, nil
}

// DeleteExpense removes an expense owned by userID
func (s *expenseService) DeleteExpense(userID, expenseID string) error {
	result := s.db.Where("id = ? AND user_id = ?", expenseID, userID).Delete(&models.Expense{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrExpenseNotFound
	}
	return nil
}

// DeleteLastExpense removes the most recently registered expense and returns it.
func (s *expenseService) DeleteLastExpense(userID string) (*models.Expense, error) {
	expense, err := s.lastExpense(userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Delete(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expense, nil
}

// EditLastExpenseValue corrects the value of the most recently registered expense.
func (s *expenseService) EditLastExpenseValue(userID string, value decimal.Decimal) (*models.Expense, error) {
	value, err := validateValue(value)
	if err != nil {
		return nil, err
	}
	expense, err := s.lastExpense(userID)
	if err != nil {
		return nil, err
	}
	expense.Value = value
	if err := s.db.Save(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expense, nil
}

// lastExpense orders by registration, not transaction date: "apaga a
// última" means the one the user just sent.
func (s *expenseService) lastExpense(userID string) (*models.Expense, error) {
	var expense models.Expense
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}
