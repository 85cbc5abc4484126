package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Income is money coming in ("crédito" in the chat replies).
type Income struct {
	Base
	UserID          string          `gorm:"type:uuid;not null;index:idx_incomes_user_date,priority:1" json:"user_id"`
	Description     string          `gorm:"not null" json:"description"`
	Value           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"value"`
	TransactionDate time.Time       `gorm:"not null;index:idx_incomes_user_date,priority:2" json:"date"`
}
