package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "meugestor/internal/errors"
	"meugestor/internal/models"
	"meugestor/internal/pagination"
)

// incomeService handles income-related business logic.
type incomeService struct {
	db *gorm.DB
}

// NewIncomeService creates a new IncomeServicer.
func NewIncomeService(db *gorm.DB) IncomeServicer {
	return &incomeService{db: db}
}

// RegisterIncome records an income
func (s *incomeService) RegisterIncome(userID, description string, value decimal.Decimal, at time.Time) (*models.Income, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	value, err := validateValue(value)
	if err != nil {
		return nil, err
	}

	income := &models.Income{
		UserID:          userID,
		Description:     description,
		Value:           value,
		TransactionDate: at.UTC(),
	}
	if err := s.db.Create(income).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return income, nil
}

// GetUserIncomes lists incomes newest first
func (s *incomeService) GetUserIncomes(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Income], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Income{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var incomes []models.Income
	if err := base.Order("transaction_date DESC, id DESC").Scopes(pagination.Paginate(page)).Find(&incomes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(incomes, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateIncome applies the non-nil fields
func (s *incomeService) UpdateIncome(userID, incomeID string, description *string, value *decimal.Decimal, date *time.Time) (*models.Income, error) {
	var income models.Income
	if err := s.db.Where("id = ? AND user_id = ?", incomeID, userID).First(&income).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrIncomeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if description != nil {
		d := strings.TrimSpace(*description)
		if d == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
		}
		income.Description = d
	}
	if value != nil {
		v, err := validateValue(*value)
		if err != nil {
			return nil, err
		}
		income.Value = v
	}
	if date != nil {
		income.TransactionDate = date.UTC()
	}

	if err := s.db.Save(&income).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &income, nil
}

// DeleteIncome removes an income owned by userID
func (s *incomeService) DeleteIncome(userID, incomeID string) error {
	result := s.db.Where("id = ? AND user_id = ?", incomeID, userID).Delete(&models.Income{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrIncomeNotFound
	}
	return nil
}
