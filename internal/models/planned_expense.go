package models

// PlannedStatusPaid is the status reconciliation writes for a matched month.
const PlannedStatusPaid = "Pago"

// PlannedExpense is a named recurring bill due on DueDay every month.
// Statuses maps a civil month key (YYYY-MM) to a label such as "Pago".
type PlannedExpense struct {
	Base
	UserID   string            `gorm:"type:uuid;not null;index" json:"user_id"`
	Name     string            `gorm:"not null" json:"name"`
	DueDay   int               `gorm:"not null" json:"dueDay"`
	Statuses map[string]string `gorm:"serializer:json;type:text;not null" json:"statuses"`
}
