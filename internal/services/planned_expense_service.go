package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"meugestor/internal/clock"
	apperrors "meugestor/internal/errors"
	"meugestor/internal/logger"
	"meugestor/internal/models"
)

// PlannedExpenseMatcher decides whether an expense description pays the
// planned bill called name.
type PlannedExpenseMatcher func(description, name string) bool

// SubstringMatcher matches when the lower-cased name occurs anywhere in the
// lower-cased description. Blank names never match.
func SubstringMatcher(description, name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return false
	}
	return strings.Contains(strings.ToLower(description), name)
}

// plannedExpenseService handles planned bills and their monthly statuses.
type plannedExpenseService struct {
	db    *gorm.DB
	cal   *clock.Calendar
	match PlannedExpenseMatcher
}

// NewPlannedExpenseService creates a new PlannedExpenseServicer. A nil
// matcher falls back to SubstringMatcher.
func NewPlannedExpenseService(db *gorm.DB, cal *clock.Calendar, match PlannedExpenseMatcher) PlannedExpenseServicer {
	if match == nil {
		match = SubstringMatcher
	}
	return &plannedExpenseService{db: db, cal: cal, match: match}
}

// CreatePlannedExpense adds a bill due on dueDay every month
func (s *plannedExpenseService) CreatePlannedExpense(userID, name string, dueDay int) (*models.PlannedExpense, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}
	if dueDay < 1 || dueDay > 31 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "due day must be between 1 and 31")
	}

	planned := &models.PlannedExpense{
		UserID:   userID,
		Name:     name,
		DueDay:   dueDay,
		Statuses: map[string]string{},
	}
	if err := s.db.Create(planned).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return planned, nil
}

// GetUserPlannedExpenses lists a user's planned bills ordered by name
func (s *plannedExpenseService) GetUserPlannedExpenses(userID string) ([]models.PlannedExpense, error) {
	var planned []models.PlannedExpense
	if err := s.db.Where("user_id = ?", userID).Order("name ASC").Find(&planned).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range planned {
		if planned[i].Statuses == nil {
			planned[i].Statuses = map[string]string{}
		}
	}
	return planned, nil
}

// UpdatePlannedExpense changes name and/or due day
func (s *plannedExpenseService) UpdatePlannedExpense(userID, plannedID string, name *string, dueDay *int) (*models.PlannedExpense, error) {
	planned, err := s.getByID(s.db, userID, plannedID)
	if err != nil {
		return nil, err
	}

	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
		}
		planned.Name = n
	}
	if dueDay != nil {
		if *dueDay < 1 || *dueDay > 31 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "due day must be between 1 and 31")
		}
		planned.DueDay = *dueDay
	}

	if err := s.db.Save(planned).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return planned, nil
}

// DeletePlannedExpense removes a planned bill
func (s *plannedExpenseService) DeletePlannedExpense(userID, plannedID string) error {
	result := s.db.Where("id = ? AND user_id = ?", plannedID, userID).Delete(&models.PlannedExpense{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrPlannedExpenseNotFound
	}
	return nil
}

// SetStatus records status for monthKey (YYYY-MM). An empty status clears
// the month.
func (s *plannedExpenseService) SetStatus(userID, plannedID, monthKey, status string) (*models.PlannedExpense, error) {
	if _, err := time.Parse("2006-01", monthKey); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "month key must be YYYY-MM")
	}

	var planned *models.PlannedExpense
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		planned, err = s.getByID(tx, userID, plannedID)
		if err != nil {
			return err
		}
		if status == "" {
			delete(planned.Statuses, monthKey)
		} else {
			planned.Statuses[monthKey] = status
		}
		return tx.Save(planned).Error
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return planned, nil
}

// Reconcile marks the first planned bill whose name matches description as
// paid for the civil month of at. It returns the updated bill, or nil when
// nothing matched or the month was already paid.
func (s *plannedExpenseService) Reconcile(userID, description string, at time.Time) (*models.PlannedExpense, error) {
	monthKey := s.cal.MonthKey(at)

	var reconciled *models.PlannedExpense
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var planned []models.PlannedExpense
		if err := tx.Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&planned).Error; err != nil {
			return err
		}

		for i := range planned {
			item := &planned[i]
			if !s.match(description, item.Name) {
				continue
			}
			if item.Statuses == nil {
				item.Statuses = map[string]string{}
			}
			if item.Statuses[monthKey] == models.PlannedStatusPaid {
				return nil
			}
			item.Statuses[monthKey] = models.PlannedStatusPaid
			if err := tx.Save(item).Error; err != nil {
				return err
			}
			reconciled = item
			return nil
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if reconciled != nil {
		logger.Get().Infow("reconciled planned expense",
			"user_id", userID,
			"planned_expense_id", reconciled.ID,
			"name", reconciled.Name,
			"month", monthKey,
		)
	}
	return reconciled, nil
}

func (s *plannedExpenseService) getByID(db *gorm.DB, userID, plannedID string) (*models.PlannedExpense, error) {
	var planned models.PlannedExpense
	if err := db.Where("id = ? AND user_id = ?", plannedID, userID).First(&planned).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPlannedExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if planned.Statuses == nil {
		planned.Statuses = map[string]string{}
	}
	return &planned, nil
}
