// Package assistant turns classified WhatsApp messages into ledger,
// reminder and category operations and renders the pt-BR replies.
package assistant

import "strings"

// Action is the closed set of operations the classifier may request.
type Action string

const (
	ActionRegisterExpense      Action = "register_expense"
	ActionRegisterIncome       Action = "register_income"
	ActionCreateReminder       Action = "create_reminder"
	ActionAddPlannedExpense    Action = "add_planned_expense"
	ActionGetDashboardLink     Action = "get_dashboard_link"
	ActionGetSummary           Action = "get_summary"
	ActionGetReminders         Action = "get_reminders"
	ActionCreateCategory       Action = "create_category"
	ActionListCategories       Action = "list_categories"
	ActionDeleteCategory       Action = "delete_category"
	ActionDeleteLastExpense    Action = "delete_last_expense"
	ActionEditLastExpenseValue Action = "edit_last_expense_value"
	ActionNotUnderstood        Action = "not_understood"

	// ActionUnrecognized stands for any tag outside the set above.
	ActionUnrecognized Action = "unrecognized"
)

var knownActions = map[Action]struct{}{
	ActionRegisterExpense:      {},
	ActionRegisterIncome:       {},
	ActionCreateReminder:       {},
	ActionAddPlannedExpense:    {},
	ActionGetDashboardLink:     {},
	ActionGetSummary:           {},
	ActionGetReminders:         {},
	ActionCreateCategory:       {},
	ActionListCategories:       {},
	ActionDeleteCategory:       {},
	ActionDeleteLastExpense:    {},
	ActionEditLastExpenseValue: {},
	ActionNotUnderstood:        {},
}

// ParseAction maps the classifier's tag to an Action. Unknown tags become
// ActionUnrecognized here so nothing downstream sees a free-form string.
func ParseAction(tag string) Action {
	a := Action(strings.ToLower(strings.TrimSpace(tag)))
	if _, ok := knownActions[a]; ok {
		return a
	}
	return ActionUnrecognized
}
