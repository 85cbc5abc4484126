package services

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "meugestor/internal/errors"
	"meugestor/internal/models"
	"meugestor/internal/period"
)

// ledgerService answers period summaries over expenses and incomes.
type ledgerService struct {
	db *gorm.DB
}

// NewLedgerService creates a new LedgerServicer.
func NewLedgerService(db *gorm.DB) LedgerServicer {
	return &ledgerService{db: db}
}

// Summarize returns the entries of kind with start <= date < end, oldest
// first, and their exact decimal total. category filters expenses
// case-insensitively and is ignored for incomes.
func (s *ledgerService) Summarize(userID string, iv period.Interval, kind EntryKind, category string) (*LedgerSummary, error) {
	if !iv.End.After(iv.Start) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "interval end must be after start")
	}
	bounds := iv.UTC()

	var entries []LedgerEntry
	switch kind {
	case KindExpense:
		q := s.db.Where("user_id = ? AND transaction_date >= ? AND transaction_date < ?", userID, bounds.Start, bounds.End)
		if c := strings.TrimSpace(category); c != "" {
			q = q.Where("LOWER(category) = ?", strings.ToLower(c))
		}
		var expenses []models.Expense
		if err := q.Order("transaction_date ASC").Find(&expenses).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		entries = make([]LedgerEntry, len(expenses))
		for i, e := range expenses {
			entries[i] = LedgerEntry{ID: e.ID, Description: e.Description, Value: e.Value, Category: e.Category, Date: e.TransactionDate}
		}
	case KindIncome:
		var incomes []models.Income
		if err := s.db.Where("user_id = ? AND transaction_date >= ? AND transaction_date < ?", userID, bounds.Start, bounds.End).
			Order("transaction_date ASC").Find(&incomes).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		entries = make([]LedgerEntry, len(incomes))
		for i, in := range incomes {
			entries[i] = LedgerEntry{ID: in.ID, Description: in.Description, Value: in.Value, Date: in.TransactionDate}
		}
	default:
		return nil, apperrors.ErrInvalidEntryKind
	}

	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Value)
	}

	return &LedgerSummary{
		Kind:    kind,
		Start:   bounds.Start,
		End:     bounds.End,
		Entries: entries,
		Total:   total,
	}, nil
}
