package assistant

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"meugestor/internal/clock"
	"meugestor/internal/models"
	"meugestor/internal/services"
	"meugestor/internal/testutil"
)

type dispatcherFixture struct {
	db   *gorm.DB
	cal  *clock.Calendar
	svc  Services
	user *models.User
}

// newDispatcherFixture wires real services over sqlite with the clock
// frozen at 2024-03-15 10:00 São Paulo.
func newDispatcherFixture(t *testing.T) *dispatcherFixture {
	t.Helper()
	loc := saoPaulo(t)
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, loc)
	cal := clock.New(loc, clock.WithNow(func() time.Time { return now }))

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	planned := services.NewPlannedExpenseService(db, cal, nil)
	return &dispatcherFixture{
		db:  db,
		cal: cal,
		svc: Services{
			Expenses:   services.NewExpenseService(db, planned),
			Incomes:    services.NewIncomeService(db),
			Ledger:     services.NewLedgerService(db),
			Categories: services.NewCategoryService(db),
			Planned:    planned,
			Reminders:  services.NewReminderService(db, cal, services.RecurringDirect),
			Tokens:     services.NewAuthTokenService(db, 5*time.Minute),
		},
		user: testutil.CreateTestUser(t, db),
	}
}

func (f *dispatcherFixture) reply(d *Dispatcher, answer string) string {
	return d.Reply(context.Background(), f.user, ParseAnswer(answer))
}

func TestDispatcher_Ledger(t *testing.T) {
	f := newDispatcherFixture(t)
	d := NewDispatcher(f.svc, f.cal, "")

	got := f.reply(d, `{"action":"register_expense","description":"mercado","value":50,"category":"Alimentação"}`)
	if got != "✅ Despesa de R$ 50.00 (mercado) registrada com sucesso!" {
		t.Errorf("unexpected expense reply %q", got)
	}
	got = f.reply(d, `{"action":"register_income","description":"salário","value":"1000,00"}`)
	if got != "💰 Crédito de R$ 1000.00 (salário) registrado com sucesso!" {
		t.Errorf("unexpected income reply %q", got)
	}

	summary := f.reply(d, `{"action":"get_summary","period":"este mês"}`)
	for _, want := range []string{
		"No período de 01/03/2024 a 15/03/2024",
		"💰 *Créditos: R$ 1000,00*",
		"- 15/03/2024: mercado - R$ 50,00",
		"📈 *Balanço Final: R$ 950,00*",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
	if strings.Contains(summary, "painel") {
		t.Error("summary must not link a dashboard that is not configured")
	}

	got = f.reply(d, `{"action":"get_summary","period":"ano passado"}`)
	if !strings.HasPrefix(got, "Não consegui entender o período 'ano passado'.") {
		t.Errorf("unexpected unresolved reply %q", got)
	}
	got = f.reply(d, `{"action":"get_summary"}`)
	if !strings.Contains(got, "'período não identificado'") {
		t.Errorf("unexpected default period reply %q", got)
	}
}

func TestDispatcher_LastExpense(t *testing.T) {
	f := newDispatcherFixture(t)
	d := NewDispatcher(f.svc, f.cal, "")

	if got := f.reply(d, `{"action":"delete_last_expense"}`); got != "🤔 Não encontrei nenhuma despesa para apagar." {
		t.Errorf("unexpected reply %q", got)
	}
	if got := f.reply(d, `{"action":"edit_last_expense_value","new_value":10}`); got != "🤔 Não encontrei nenhuma despesa para editar." {
		t.Errorf("unexpected reply %q", got)
	}

	testutil.CreateTestExpense(t, f.db, f.user.ID, "farmácia", "30.00", "Saúde", f.cal.Now())

	if got := f.reply(d, `{"action":"edit_last_expense_value","new_value":"abc"}`); got != "🤔 Não consegui identificar o novo valor da despesa." {
		t.Errorf("unexpected reply %q", got)
	}
	if got := f.reply(d, `{"action":"edit_last_expense_value","new_value":"42,9"}`); got != "✏️ Valor da despesa 'farmácia' corrigido para *R$ 42.90*." {
		t.Errorf("unexpected reply %q", got)
	}
	if got := f.reply(d, `{"action":"delete_last_expense"}`); got != "🗑️ Despesa anterior ('farmácia' de R$ 42.90) foi removida." {
		t.Errorf("unexpected reply %q", got)
	}
}

func TestDispatcher_Reminders(t *testing.T) {
	f := newDispatcherFixture(t)
	d := NewDispatcher(f.svc, f.cal, "")

	tests := []struct {
		name   string
		answer string
		want   string
	}{
		{
			name:   "punctual",
			answer: `{"action":"create_reminder","description":"dentista","due_date":"2024-03-16T09:30:00"}`,
			want:   "🗓️ Lembrete agendado: 'dentista' para 16/03/2024 às 09:30.",
		},
		{
			name:   "offset_is_ignored",
			answer: `{"action":"create_reminder","description":"reunião","due_date":"2024-03-16T14:00:00-07:00"}`,
			want:   "🗓️ Lembrete agendado: 'reunião' para 16/03/2024 às 14:00.",
		},
		{
			name:   "monthly",
			answer: `{"action":"create_reminder","description":"aluguel","due_date":"2024-03-31 08:00","recurrence":"monthly"}`,
			want:   "🗓️ Lembrete agendado: 'aluguel' para 31/03/2024 às 08:00. Este lembrete se repetirá mensalmente.",
		},
		{
			name:   "missing_date",
			answer: `{"action":"create_reminder","description":"x"}`,
			want:   "Não consegui identificar a data do lembrete.",
		},
		{
			name:   "bad_date",
			answer: `{"action":"create_reminder","description":"x","due_date":"amanhã cedo"}`,
			want:   "Houve um problema ao agendar seu lembrete. Verifique a data e hora.",
		},
		{
			name:   "bad_offset",
			answer: `{"action":"create_reminder","description":"x","due_date":"2024-04-01","recurrence":"monthly","notification_day_offset":90}`,
			want:   "Houve um problema ao agendar seu lembrete. Verifique a data e hora.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.reply(d, tt.answer); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("listing", func(t *testing.T) {
		got := f.reply(d, `{"action":"get_reminders","period":"amanhã"}`)
		want := "🗓️ Você tem 2 compromisso(s) para amanhã!\n\n" +
			"• dentista às 09:30 horas.\n" +
			"• reunião às 14:00 horas.\n" +
			"\nNão se preocupe, estarei aqui para te lembrar se precisar! 😉"
		if got != want {
			t.Errorf("got %q", got)
		}
		if got := f.reply(d, `{"action":"get_reminders"}`); got != "Você não tem nenhum compromisso agendado para hoje! 👍" {
			t.Errorf("got %q", got)
		}
		if got := f.reply(d, `{"action":"get_reminders","period":"semestre"}`); got != "Não consegui entender o período 'semestre' para os lembretes." {
			t.Errorf("got %q", got)
		}
	})
}

func TestDispatcher_Categories(t *testing.T) {
	f := newDispatcherFixture(t)
	d := NewDispatcher(f.svc, f.cal, "")

	steps := []struct {
		answer string
		want   string
	}{
		{`{"action":"create_category","category_name":"Pets"}`, "✅ Categoria 'Pets' criada com sucesso!"},
		{`{"action":"create_category","category_name":"pets"}`, "🤔 A categoria 'pets' já existe."},
		{`{"action":"create_category"}`, "🤔 Não consegui identificar o nome da categoria."},
		{`{"action":"delete_category","category_name":"Lazer"}`, "🤔 Não encontrei a categoria 'Lazer'."},
		{`{"action":"delete_category","category_name":"Viagem"}`, "🤔 Não encontrei a categoria 'Viagem'."},
		{`{"action":"delete_category"}`, "🤔 Não consegui identificar o nome da categoria para apagar."},
	}
	for _, s := range steps {
		if got := f.reply(d, s.answer); got != s.want {
			t.Errorf("%s: got %q, want %q", s.answer, got, s.want)
		}
	}

	list := f.reply(d, `{"action":"list_categories"}`)
	if !strings.HasPrefix(list, "📋 *Suas Categorias:*\n\n• Pets\n• Alimentação\n") || !strings.HasSuffix(list, "• Outros\n") {
		t.Errorf("unexpected listing %q", list)
	}

	if got := f.reply(d, `{"action":"delete_category","category_name":"PETS"}`); got != "🗑️ Categoria 'PETS' apagada com sucesso." {
		t.Errorf("unexpected reply %q", got)
	}
}

func TestDispatcher_PlannedAndLinks(t *testing.T) {
	f := newDispatcherFixture(t)

	t.Run("planned_expense", func(t *testing.T) {
		d := NewDispatcher(f.svc, f.cal, "")
		if got := f.reply(d, `{"action":"add_planned_expense","name":"Aluguel","due_day":10}`); got != "📅 Nova conta adicionada ao seu planejamento: 'Aluguel', com vencimento todo dia 10." {
			t.Errorf("unexpected reply %q", got)
		}
		missing := "🤔 Não consegui identificar o nome e o dia de vencimento da conta para o planejamento."
		for _, answer := range []string{
			`{"action":"add_planned_expense","name":"Luz"}`,
			`{"action":"add_planned_expense","due_day":5}`,
			`{"action":"add_planned_expense","name":"Luz","due_day":32}`,
		} {
			if got := f.reply(d, answer); got != missing {
				t.Errorf("%s: got %q", answer, got)
			}
		}

		// Paying the bill marks the current month.
		f.reply(d, `{"action":"register_expense","description":"paguei o aluguel","value":1500}`)
		plans, err := f.svc.Planned.GetUserPlannedExpenses(f.user.ID)
		testutil.AssertNoError(t, err)
		if len(plans) != 1 || plans[0].Statuses["2024-03"] != models.PlannedStatusPaid {
			t.Errorf("expected 2024-03 paid, got %+v", plans)
		}
	})

	t.Run("dashboard_link_not_configured", func(t *testing.T) {
		d := NewDispatcher(f.svc, f.cal, "  ")
		if got := f.reply(d, `{"action":"get_dashboard_link"}`); got != "Desculpe, a funcionalidade de link para o painel não está configurada." {
			t.Errorf("unexpected reply %q", got)
		}
	})

	t.Run("dashboard_link", func(t *testing.T) {
		d := NewDispatcher(f.svc, f.cal, "https://painel.example/login")
		got := f.reply(d, `{"action":"get_dashboard_link"}`)
		prefix := "Olá! Acesse seu painel de controle pessoal aqui: https://painel.example/login?token="
		if !strings.HasPrefix(got, prefix) || len(strings.TrimPrefix(got, prefix)) != 22 {
			t.Fatalf("unexpected reply %q", got)
		}
		var count int64
		testutil.AssertNoError(t, f.db.Model(&models.AuthToken{}).Where("user_id = ?", f.user.ID).Count(&count).Error)
		if count != 1 {
			t.Errorf("expected one issued token, got %d", count)
		}

		summary := f.reply(d, `{"action":"get_summary","period":"hoje"}`)
		if !strings.Contains(summary, "Para mais detalhes, acesse seu painel: https://painel.example/login?token=") {
			t.Errorf("summary missing dashboard link:\n%s", summary)
		}
	})
}

func TestDispatcher_Fallbacks(t *testing.T) {
	f := newDispatcherFixture(t)
	d := NewDispatcher(f.svc, f.cal, "")

	if got := f.reply(d, `{"action":"launch_rocket"}`); got != MsgFallback {
		t.Errorf("unrecognized action: got %q", got)
	}
	if got := f.reply(d, `{"action":"not_understood"}`); got != MsgFallback {
		t.Errorf("not_understood: got %q", got)
	}
	if got := f.reply(d, "Oi! Tudo bem?"); got != "Oi! Tudo bem?" {
		t.Errorf("raw response: got %q", got)
	}

	t.Run("collaborator_failure", func(t *testing.T) {
		sqlDB, err := f.db.DB()
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, sqlDB.Close())

		in := Intent{Action: ActionRegisterExpense, Description: "mercado", Value: decimal.NewFromInt(10)}
		if got := d.Reply(context.Background(), f.user, in); got != MsgInternalError {
			t.Errorf("got %q, want apology", got)
		}
	})
}
