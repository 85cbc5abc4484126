package models

import "time"

// User is one WhatsApp sender. PhoneNumber holds the full JID
// (5511999999999@s.whatsapp.net) exactly as the gateway reports it.
type User struct {
	Base
	PhoneNumber     string           `gorm:"uniqueIndex;not null" json:"phone_number"`
	LastMessageAt   *time.Time       `json:"last_message_at,omitempty"`
	MessageCount    int64            `gorm:"default:0" json:"message_count"`
	Expenses        []Expense        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Incomes         []Income         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Reminders       []Reminder       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Categories      []Category       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	PlannedExpenses []PlannedExpense `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
