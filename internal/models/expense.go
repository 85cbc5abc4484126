package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is money going out. TransactionDate is always stored in UTC.
type Expense struct {
	Base
	UserID          string          `gorm:"type:uuid;not null;index:idx_expenses_user_date,priority:1" json:"user_id"`
	Description     string          `gorm:"not null" json:"description"`
	Value           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"value"`
	Category        string          `gorm:"size:100" json:"category,omitempty"`
	TransactionDate time.Time       `gorm:"not null;index:idx_expenses_user_date,priority:2" json:"date"`
}
