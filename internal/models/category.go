package models

// DefaultCategoriesVersion identifies the built-in category list below.
// Bump it when the list changes so clients can refresh cached copies.
const DefaultCategoriesVersion = 1

// DefaultCategoryNames are always available to every user. They live in code,
// not in the categories table, so the set can change without a data migration.
var DefaultCategoryNames = []string{
	"Alimentação",
	"Transporte",
	"Moradia",
	"Lazer",
	"Saúde",
	"Educação",
	"Outros",
}

// Category is a user-created expense label layered on top of the defaults.
type Category struct {
	Base
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	Name   string `gorm:"not null" json:"name"`
}
