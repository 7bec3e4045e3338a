package monitor

import (
	"context"
	"math"
	"time"

	"github.com/jinzhu/now"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/devbrain-cz/finance-keeper/internal/entity/alert"
	"github.com/devbrain-cz/finance-keeper/internal/entity/budget"
	"github.com/devbrain-cz/finance-keeper/internal/entity/ledger"
	"github.com/devbrain-cz/finance-keeper/internal/entity/session"
)

// spending at or above this share of the limit is already worth a warning
var nearLimitRatio = decimal.New(9, -1)

const deadlineWarningDays = 7

type expensesStorage interface {
	SumExpenses(ctx context.Context, from, to time.Time, category string) (decimal.Decimal, error)
}

type budgetStorage interface {
	ListBudgets(ctx context.Context, year int, month time.Month) ([]budget.Definition, error)
}

type goalStorage interface {
	ListGoalsByUser(ctx context.Context, userID int64) ([]budget.Goal, error)
}

// Monitor classifies current ledger state against budget limits and goal
// deadlines. It only ever reads; callers decide what to do with the alerts.
type Monitor struct {
	expenses expensesStorage
	budgets  budgetStorage
	goals    goalStorage
}

func New(expenses expensesStorage, budgets budgetStorage, goals goalStorage) *Monitor {
	return &Monitor{
		expenses: expenses,
		budgets:  budgets,
		goals:    goals,
	}
}

// CheckBudgets sums period-to-date spending per budgeted category in the
// calendar month containing period and classifies it against the limit.
// Exactly 90% of the limit is already near-limit; exactly 100% is exceeded,
// not reported twice.
func (m *Monitor) CheckBudgets(ctx context.Context, period time.Time) ([]alert.Alert, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "checkBudgets")
	defer span.Finish()

	defs, err := m.budgets.ListBudgets(ctx, period.Year(), period.Month())
	if err != nil {
		return nil, errors.Wrap(err, "check budgets")
	}

	window := now.New(ledger.DateOf(period))
	from, to := window.BeginningOfMonth(), window.EndOfMonth()

	alerts := make([]alert.Alert, 0)
	for _, def := range defs {
		sum, err := m.expenses.SumExpenses(ctx, from, to, def.Category)
		if err != nil {
			return nil, errors.Wrap(err, "check budgets")
		}
		spent := sum.Neg()

		switch {
		case spent.GreaterThanOrEqual(def.Limit):
			alerts = append(alerts, alert.NewBudgetExceeded(def.Category, def.Limit, spent, period))
		case spent.GreaterThanOrEqual(def.Limit.Mul(nearLimitRatio)):
			alerts = append(alerts, alert.NewBudgetNearLimit(def.Category, def.Limit, spent, period))
		}
	}
	return alerts, nil
}

// CheckGoals inspects the session user's goals against today. Goals without
// a deadline never alert; without a session user there is nothing to check.
func (m *Monitor) CheckGoals(ctx context.Context, today time.Time) ([]alert.Alert, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "checkGoals")
	defer span.Finish()

	userID, ok := session.UserID(ctx)
	if !ok {
		return nil, nil
	}

	goals, err := m.goals.ListGoalsByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "check goals")
	}

	today = ledger.DateOf(today)
	alerts := make([]alert.Alert, 0)
	for _, g := range goals {
		if g.Deadline == nil {
			continue
		}
		daysLeft := g.Deadline.Sub(today).Hours() / 24

		switch {
		case daysLeft <= 0:
			alerts = append(alerts, alert.NewGoalExpired(g.Name, today))
		case daysLeft <= deadlineWarningDays:
			alerts = append(alerts, alert.NewGoalDeadline(g.Name, int(math.Round(daysLeft)), today))
		}
	}
	return alerts, nil
}
