package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	apperrors "meugestor/internal/errors"
	"meugestor/internal/models"
)

// defaultCategoryPrefix marks ids of the built-in categories.
const defaultCategoryPrefix = "default_"

// categoryService handles category-related business logic. Categories are
// two-tier: models.DefaultCategoryNames plus the user's own rows.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// DefaultCategories returns the built-in tier as views.
func DefaultCategories() []CategoryView {
	views := make([]CategoryView, len(models.DefaultCategoryNames))
	for i, name := range models.DefaultCategoryNames {
		views[i] = CategoryView{ID: fmt.Sprintf("%s%d", defaultCategoryPrefix, i), Name: name, IsDefault: true}
	}
	return views
}

// IsDefaultCategoryID reports whether id names a built-in category.
func IsDefaultCategoryID(id string) bool {
	return strings.HasPrefix(id, defaultCategoryPrefix)
}

// ListCategories returns custom categories ordered by name, then the defaults.
func (s *categoryService) ListCategories(userID string) ([]CategoryView, error) {
	custom, err := s.customCategories(userID)
	if err != nil {
		return nil, err
	}

	views := make([]CategoryView, 0, len(custom)+len(models.DefaultCategoryNames))
	for _, c := range custom {
		views = append(views, CategoryView{ID: c.ID, Name: c.Name})
	}
	return append(views, DefaultCategories()...), nil
}

// CreateCategory creates a custom category. Names are unique per user,
// case-insensitively, across both tiers.
func (s *categoryService) CreateCategory(userID, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	if err := s.ensureUnique(userID, name, ""); err != nil {
		return nil, err
	}

	category := &models.Category{UserID: userID, Name: name}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// RenameCategory renames a custom category
func (s *categoryService) RenameCategory(userID, categoryID, name string) (*models.Category, error) {
	if IsDefaultCategoryID(categoryID) {
		return nil, apperrors.ErrDefaultCategoryRead
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	category, err := s.getCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(userID, name, category.ID); err != nil {
		return nil, err
	}

	category.Name = name
	if err := s.db.Save(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// DeleteCategory deletes a custom category by id
func (s *categoryService) DeleteCategory(userID, categoryID string) error {
	if IsDefaultCategoryID(categoryID) {
		return apperrors.ErrDefaultCategoryRead
	}

	result := s.db.Where("id = ? AND user_id = ?", categoryID, userID).Delete(&models.Category{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}

// DeleteCategoryByName deletes the custom category whose name matches
// case-insensitively and returns it.
func (s *categoryService) DeleteCategoryByName(userID, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	for _, def := range models.DefaultCategoryNames {
		if strings.EqualFold(def, name) {
			return nil, apperrors.ErrDefaultCategoryRead
		}
	}

	custom, err := s.customCategories(userID)
	if err != nil {
		return nil, err
	}
	for i := range custom {
		if strings.EqualFold(custom[i].Name, name) {
			if err := s.db.Delete(&custom[i]).Error; err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return &custom[i], nil
		}
	}
	return nil, apperrors.ErrCategoryNotFound
}

func (s *categoryService) getCategoryByID(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

func (s *categoryService) customCategories(userID string) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.Where("user_id = ?", userID).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// ensureUnique compares in Go rather than with SQL LOWER, which does not
// fold non-ASCII letters on every backend ("SAÚDE").
func (s *categoryService) ensureUnique(userID, name, exceptID string) error {
	for _, def := range models.DefaultCategoryNames {
		if strings.EqualFold(def, name) {
			return apperrors.ErrDuplicateCategory
		}
	}
	custom, err := s.customCategories(userID)
	if err != nil {
		return err
	}
	for _, c := range custom {
		if c.ID != exceptID && strings.EqualFold(c.Name, name) {
			return apperrors.ErrDuplicateCategory
		}
	}
	return nil
}
