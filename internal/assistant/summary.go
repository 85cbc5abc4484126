package assistant

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"meugestor/internal/clock"
	"meugestor/internal/models"
	"meugestor/internal/period"
	"meugestor/internal/services"
)

const uncategorized = "Outros"

var categoryEmojis = map[string]string{
	"Alimentação": "🍽️",
	"Transporte":  "🚗",
	"Moradia":     "🏠",
	"Lazer":       "🎉",
	"Saúde":       "❤️‍🩹",
	"Educação":    "🎓",
	"Outros":      "🛒",
}

func categoryEmoji(name string) string {
	if e, ok := categoryEmojis[name]; ok {
		return e
	}
	return "🛒"
}

// brl formats v with two decimals and a comma separator ("1234,50").
func brl(v decimal.Decimal) string {
	return strings.Replace(v.StringFixed(2), ".", ",", 1)
}

type categoryGroup struct {
	name    string
	entries []services.LedgerEntry
	total   decimal.Decimal
}

// groupByCategory buckets expenses by category, largest total first.
// Ties keep first-appearance order.
func groupByCategory(entries []services.LedgerEntry) []*categoryGroup {
	var groups []*categoryGroup
	index := make(map[string]*categoryGroup)
	for _, e := range entries {
		name := e.Category
		if name == "" {
			name = uncategorized
		}
		g, ok := index[name]
		if !ok {
			g = &categoryGroup{name: name}
			index[name] = g
			groups = append(groups, g)
		}
		g.entries = append(g.entries, e)
		g.total = g.total.Add(e.Value)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].total.GreaterThan(groups[j].total)
	})
	return groups
}

// RenderSummary renders the balance message for iv. link, when not empty,
// is appended as the dashboard shortcut.
func RenderSummary(cal *clock.Calendar, iv period.Interval, expenses, incomes *services.LedgerSummary, link string) string {
	var sb strings.Builder
	day := func(e services.LedgerEntry) string { return cal.Local(e.Date).Format("02/01/2006") }

	fmt.Fprintf(&sb, "Vamos lá! No período de %s a %s, este é o seu balanço:\n\n",
		cal.Local(iv.Start).Format("02/01/2006"),
		cal.AddDays(iv.End, -1).Format("02/01/2006"))

	fmt.Fprintf(&sb, "💰 *Créditos: R$ %s*\n", brl(incomes.Total))
	if len(incomes.Entries) == 0 {
		sb.WriteString("- Nenhum crédito no período.\n")
	}
	for _, e := range incomes.Entries {
		fmt.Fprintf(&sb, "- %s: %s - R$ %s\n", day(e), e.Description, brl(e.Value))
	}
	sb.WriteString("\n")

	sb.WriteString("💸 *Despesas*\n")
	if len(expenses.Entries) == 0 {
		sb.WriteString("- Nenhuma despesa no período. 🎉\n")
	}
	for _, g := range groupByCategory(expenses.Entries) {
		fmt.Fprintf(&sb, "\n%s *%s*\n", categoryEmoji(g.name), g.name)
		for _, e := range g.entries {
			fmt.Fprintf(&sb, "- %s: %s - R$ %s\n", day(e), e.Description, brl(e.Value))
		}
		fmt.Fprintf(&sb, "*Subtotal %s: R$ %s*\n", g.name, brl(g.total))
	}

	balance := incomes.Total.Sub(expenses.Total)
	trend := "📈"
	if balance.IsNegative() {
		trend = "📉"
	}
	sb.WriteString("\n--------------------\n")
	fmt.Fprintf(&sb, "%s *Balanço Final: R$ %s*\n\n", trend, brl(balance))

	if link != "" {
		fmt.Fprintf(&sb, "Para mais detalhes, acesse seu painel: %s 😉", link)
	}
	return sb.String()
}

// RenderReminders renders the reminder listing for the period the user named.
func RenderReminders(cal *clock.Calendar, text string, reminders []models.Reminder) string {
	name := text
	if period.IsLiteralDate(text) {
		name = "o dia " + text
	}
	if len(reminders) == 0 {
		return fmt.Sprintf("Você não tem nenhum compromisso agendado para %s! 👍", name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🗓️ Você tem %d compromisso(s) para %s!\n\n", len(reminders), name)
	for _, r := range reminders {
		at := ""
		if r.DueDate != nil {
			at = cal.Local(*r.DueDate).Format("15:04")
		}
		fmt.Fprintf(&sb, "• %s às %s horas.\n", r.Description, at)
	}
	sb.WriteString("\nNão se preocupe, estarei aqui para te lembrar se precisar! 😉")
	return sb.String()
}
