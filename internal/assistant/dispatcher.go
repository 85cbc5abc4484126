package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"meugestor/internal/clock"
	apperrors "meugestor/internal/errors"
	"meugestor/internal/logger"
	"meugestor/internal/models"
	"meugestor/internal/period"
	"meugestor/internal/services"
)

// Replies shared by several handlers.
const (
	MsgInternalError = "❌ Ocorreu um erro interno ao processar seu pedido."
	MsgFallback      = "Não entendi. Tente de novo. Ex: 'gastei 50 no mercado', 'recebi 1000 de salário', 'resumo do mês'."
)

// Services are the collaborators a Dispatcher drives.
type Services struct {
	Expenses   services.ExpenseServicer
	Incomes    services.IncomeServicer
	Ledger     services.LedgerServicer
	Categories services.CategoryServicer
	Planned    services.PlannedExpenseServicer
	Reminders  services.ReminderServicer
	Tokens     services.AuthTokenServicer
}

type handlerFunc func(d *Dispatcher, user *models.User, in Intent) (string, error)

// handlers has one entry per Action except ActionNotUnderstood and
// ActionUnrecognized, which share the fallback reply.
var handlers = map[Action]handlerFunc{
	ActionRegisterExpense:      (*Dispatcher).registerExpense,
	ActionRegisterIncome:       (*Dispatcher).registerIncome,
	ActionCreateReminder:       (*Dispatcher).createReminder,
	ActionAddPlannedExpense:    (*Dispatcher).addPlannedExpense,
	ActionGetDashboardLink:     (*Dispatcher).dashboardLink,
	ActionGetSummary:           (*Dispatcher).summary,
	ActionGetReminders:         (*Dispatcher).listReminders,
	ActionCreateCategory:       (*Dispatcher).createCategory,
	ActionListCategories:       (*Dispatcher).listCategories,
	ActionDeleteCategory:       (*Dispatcher).deleteCategory,
	ActionDeleteLastExpense:    (*Dispatcher).deleteLastExpense,
	ActionEditLastExpenseValue: (*Dispatcher).editLastExpenseValue,
}

// Dispatcher executes intents and renders the reply for each.
type Dispatcher struct {
	svc          Services
	cal          *clock.Calendar
	resolver     *period.Resolver
	dashboardURL string
}

// NewDispatcher creates a Dispatcher. An empty dashboardURL disables links.
func NewDispatcher(svc Services, cal *clock.Calendar, dashboardURL string) *Dispatcher {
	return &Dispatcher{
		svc:          svc,
		cal:          cal,
		resolver:     period.NewResolver(cal),
		dashboardURL: strings.TrimSpace(dashboardURL),
	}
}

// Reply executes in for user and returns the message to send back.
// Collaborator failures are logged and answered with MsgInternalError.
func (d *Dispatcher) Reply(ctx context.Context, user *models.User, in Intent) string {
	h, ok := handlers[in.Action]
	if !ok {
		if in.Action == ActionUnrecognized {
			logger.Get().Infow("unrecognized classifier action", "action", in.RawAction, "user_id", user.ID)
		}
		if in.RawResponse != "" {
			return in.RawResponse
		}
		return MsgFallback
	}

	reply, err := h(d, user, in)
	if err != nil {
		logger.Get().Errorw("failed to handle assistant action",
			"action", in.Action,
			"user_id", user.ID,
			"error", err,
		)
		return MsgInternalError
	}
	return reply
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func (d *Dispatcher) registerExpense(user *models.User, in Intent) (string, error) {
	description := orNA(in.Description)
	expense, err := d.svc.Expenses.RegisterExpense(user.ID, description, in.Value, in.Category, d.cal.Now())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Despesa de R$ %s (%s) registrada com sucesso!", expense.Value.StringFixed(2), description), nil
}

func (d *Dispatcher) registerIncome(user *models.User, in Intent) (string, error) {
	description := orNA(in.Description)
	income, err := d.svc.Incomes.RegisterIncome(user.ID, description, in.Value, d.cal.Now())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("💰 Crédito de R$ %s (%s) registrado com sucesso!", income.Value.StringFixed(2), description), nil
}

// localLayouts are the zone-less shapes classifiers produce for due dates.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseDueDate reads the classifier's due date as civil-local wall clock.
// An explicit offset is ignored: the wall clock is what the user said.
func (d *Dispatcher) parseDueDate(raw string) (time.Time, error) {
	for _, layout := range localLayouts {
		if t, err := d.cal.ParseLocal(layout, raw); err == nil {
			return t, nil
		}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, d.cal.Location()), nil
}

func (d *Dispatcher) createReminder(user *models.User, in Intent) (string, error) {
	if in.DueDate == "" {
		return "Não consegui identificar a data do lembrete.", nil
	}
	const badDate = "Houve um problema ao agendar seu lembrete. Verifique a data e hora."

	due, err := d.parseDueDate(in.DueDate)
	if err != nil {
		return badDate, nil
	}

	description := orNA(in.Description)
	_, err = d.svc.Reminders.CreateReminder(user.ID, services.NewReminder{
		Description:           description,
		Due:                   due,
		Monthly:               in.Monthly(),
		NotificationDayOffset: in.NotificationDayOffset,
	})
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.StatusCode < 500 {
		return badDate, nil
	}
	if err != nil {
		return "", err
	}

	msg := fmt.Sprintf("🗓️ Lembrete agendado: '%s' para %s.", description, d.cal.Local(due).Format("02/01/2006 às 15:04"))
	if in.Monthly() {
		msg += " Este lembrete se repetirá mensalmente."
	}
	return msg, nil
}

func (d *Dispatcher) addPlannedExpense(user *models.User, in Intent) (string, error) {
	if in.Name == "" || in.DueDay < 1 || in.DueDay > 31 {
		return "🤔 Não consegui identificar o nome e o dia de vencimento da conta para o planejamento.", nil
	}
	planned, err := d.svc.Planned.CreatePlannedExpense(user.ID, in.Name, in.DueDay)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("📅 Nova conta adicionada ao seu planejamento: '%s', com vencimento todo dia %d.", planned.Name, planned.DueDay), nil
}

// loginLink issues a one-time token; "" when no dashboard is configured.
func (d *Dispatcher) loginLink(user *models.User) (string, error) {
	if d.dashboardURL == "" {
		return "", nil
	}
	token, err := d.svc.Tokens.IssueToken(user.ID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s?token=%s", d.dashboardURL, token.Token), nil
}

func (d *Dispatcher) dashboardLink(user *models.User, _ Intent) (string, error) {
	if d.dashboardURL == "" {
		return "Desculpe, a funcionalidade de link para o painel não está configurada.", nil
	}
	link, err := d.loginLink(user)
	if err != nil {
		return "", err
	}
	return "Olá! Acesse seu painel de controle pessoal aqui: " + link, nil
}

func (d *Dispatcher) summary(user *models.User, in Intent) (string, error) {
	text := in.Period
	if text == "" {
		text = "período não identificado"
	}
	iv, ok := d.resolver.Resolve(text, d.cal.Now(), period.Summary)
	if !ok {
		return fmt.Sprintf("Não consegui entender o período '%s'. Tente 'hoje', 'ontem', 'este mês', ou 'últimos X dias'.", text), nil
	}

	expenses, err := d.svc.Ledger.Summarize(user.ID, iv, services.KindExpense, in.Category)
	if err != nil {
		return "", err
	}
	incomes, err := d.svc.Ledger.Summarize(user.ID, iv, services.KindIncome, "")
	if err != nil {
		return "", err
	}
	link, err := d.loginLink(user)
	if err != nil {
		return "", err
	}
	return RenderSummary(d.cal, iv, expenses, incomes, link), nil
}

func (d *Dispatcher) listReminders(user *models.User, in Intent) (string, error) {
	text := in.Period
	if text == "" {
		text = "hoje"
	}
	iv, ok := d.resolver.Resolve(text, d.cal.Now(), period.Reminders)
	if !ok {
		return fmt.Sprintf("Não consegui entender o período '%s' para os lembretes.", text), nil
	}

	reminders, err := d.svc.Reminders.GetRemindersInInterval(user.ID, iv)
	if err != nil {
		return "", err
	}
	return RenderReminders(d.cal, text, reminders), nil
}

func (d *Dispatcher) createCategory(user *models.User, in Intent) (string, error) {
	if in.CategoryName == "" {
		return "🤔 Não consegui identificar o nome da categoria.", nil
	}
	_, err := d.svc.Categories.CreateCategory(user.ID, in.CategoryName)
	if errors.Is(err, apperrors.ErrDuplicateCategory) {
		return fmt.Sprintf("🤔 A categoria '%s' já existe.", in.CategoryName), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Categoria '%s' criada com sucesso!", in.CategoryName), nil
}

func (d *Dispatcher) listCategories(user *models.User, _ Intent) (string, error) {
	categories, err := d.svc.Categories.ListCategories(user.ID)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("📋 *Suas Categorias:*\n\n")
	for _, c := range categories {
		fmt.Fprintf(&sb, "• %s\n", c.Name)
	}
	return sb.String(), nil
}

func (d *Dispatcher) deleteCategory(user *models.User, in Intent) (string, error) {
	if in.CategoryName == "" {
		return "🤔 Não consegui identificar o nome da categoria para apagar.", nil
	}
	_, err := d.svc.Categories.DeleteCategoryByName(user.ID, in.CategoryName)
	if errors.Is(err, apperrors.ErrCategoryNotFound) || errors.Is(err, apperrors.ErrDefaultCategoryRead) {
		return fmt.Sprintf("🤔 Não encontrei a categoria '%s'.", in.CategoryName), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("🗑️ Categoria '%s' apagada com sucesso.", in.CategoryName), nil
}

func (d *Dispatcher) deleteLastExpense(user *models.User, _ Intent) (string, error) {
	expense, err := d.svc.Expenses.DeleteLastExpense(user.ID)
	if errors.Is(err, apperrors.ErrExpenseNotFound) {
		return "🤔 Não encontrei nenhuma despesa para apagar.", nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("🗑️ Despesa anterior ('%s' de R$ %s) foi removida.", expense.Description, expense.Value.StringFixed(2)), nil
}

func (d *Dispatcher) editLastExpenseValue(user *models.User, in Intent) (string, error) {
	if !in.NewValue.IsPositive() {
		return "🤔 Não consegui identificar o novo valor da despesa.", nil
	}
	expense, err := d.svc.Expenses.EditLastExpenseValue(user.ID, in.NewValue)
	if errors.Is(err, apperrors.ErrExpenseNotFound) {
		return "🤔 Não encontrei nenhuma despesa para editar.", nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✏️ Valor da despesa '%s' corrigido para *R$ %s*.", expense.Description, expense.Value.StringFixed(2)), nil
}
