package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devbrain-cz/finance-keeper/internal/entity/alert"
	"github.com/devbrain-cz/finance-keeper/internal/entity/budget"
	"github.com/devbrain-cz/finance-keeper/internal/entity/ledger"
	"github.com/devbrain-cz/finance-keeper/internal/entity/session"
	"github.com/devbrain-cz/finance-keeper/internal/model/storage"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func expense(t *testing.T, store *storage.InMemStorage, date time.Time, category string, amount int64) {
	t.Helper()
	entry := ledger.NewEntry(date, decimal.NewFromInt(-amount), "spend", category, "CZK", decimal.NewFromInt(1))
	require.NoError(t, store.AppendEntry(context.Background(), entry))
}

func foodBudget(t *testing.T, store *storage.InMemStorage, limit int64) {
	t.Helper()
	require.NoError(t, store.UpsertBudget(context.Background(), budget.Definition{
		Year:     2025,
		Month:    time.March,
		Category: "Food",
		Limit:    decimal.NewFromInt(limit),
	}))
}

func Test_CheckBudgets_ShouldRaiseNothingBelowNinetyPercent(t *testing.T) {
	store := storage.NewInMemStorage()
	foodBudget(t, store, 1000)
	almost := ledger.NewEntry(day(2025, time.March, 10), decimal.RequireFromString("-899.99"),
		"spend", "Food", "CZK", decimal.NewFromInt(1))
	require.NoError(t, store.AppendEntry(context.Background(), almost))

	alerts, err := New(store, store, store).CheckBudgets(context.Background(), day(2025, time.March, 15))

	assert.NoError(t, err)
	assert.Empty(t, alerts)
}

func Test_CheckBudgets_ShouldWarnAtExactlyNinetyPercent(t *testing.T) {
	store := storage.NewInMemStorage()
	foodBudget(t, store, 1000)
	expense(t, store, day(2025, time.March, 10), "Food", 900)

	alerts, err := New(store, store, store).CheckBudgets(context.Background(), day(2025, time.March, 15))

	assert.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, alert.BudgetNearLimit, alerts[0].Kind)
	assert.Equal(t, alert.Warning, alerts[0].Severity)
	assert.Equal(t, "Food", alerts[0].Category)
}

func Test_CheckBudgets_ShouldEscalateAtExactlyTheLimit(t *testing.T) {
	store := storage.NewInMemStorage()
	foodBudget(t, store, 1000)
	expense(t, store, day(2025, time.March, 10), "Food", 400)
	expense(t, store, day(2025, time.March, 20), "Food", 600)

	alerts, err := New(store, store, store).CheckBudgets(context.Background(), day(2025, time.March, 25))

	assert.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, alert.BudgetExceeded, alerts[0].Kind)
	assert.Equal(t, alert.Critical, alerts[0].Severity)
	assert.True(t, alerts[0].Spent.Equal(decimal.NewFromInt(1000)))
}

func Test_CheckBudgets_ShouldIgnoreSpendingOutsideTheMonth(t *testing.T) {
	store := storage.NewInMemStorage()
	foodBudget(t, store, 1000)
	expense(t, store, day(2025, time.February, 28), "Food", 5000)
	expense(t, store, day(2025, time.April, 1), "Food", 5000)
	expense(t, store, day(2025, time.March, 10), "Food", 100)

	alerts, err := New(store, store, store).CheckBudgets(context.Background(), day(2025, time.March, 15))

	assert.NoError(t, err)
	assert.Empty(t, alerts)
}

func Test_CheckBudgets_ShouldIgnoreIncomeAndOtherCategories(t *testing.T) {
	store := storage.NewInMemStorage()
	foodBudget(t, store, 1000)
	expense(t, store, day(2025, time.March, 10), "Housing", 2000)
	salary := ledger.NewEntry(day(2025, time.March, 5), decimal.NewFromInt(50000), "salary", "Food", "CZK", decimal.NewFromInt(1))
	require.NoError(t, store.AppendEntry(context.Background(), salary))

	alerts, err := New(store, store, store).CheckBudgets(context.Background(), day(2025, time.March, 15))

	assert.NoError(t, err)
	assert.Empty(t, alerts)
}

func goalWithDeadline(userID int64, name string, deadline time.Time) budget.Goal {
	return budget.Goal{
		UserID:       userID,
		Name:         name,
		TargetAmount: decimal.NewFromInt(100000),
		Deadline:     &deadline,
	}
}

func Test_CheckGoals_ShouldWarnWithinSevenDaysOfDeadline(t *testing.T) {
	store := storage.NewInMemStorage()
	require.NoError(t, store.AppendGoal(context.Background(), goalWithDeadline(1, "Vacation", day(2025, time.January, 8))))

	ctx := session.WithUser(context.Background(), 1)
	alerts, err := New(store, store, store).CheckGoals(ctx, day(2025, time.January, 1))

	assert.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, alert.GoalDeadline, alerts[0].Kind)
	assert.Equal(t, 7, alerts[0].DaysLeft)
}

func Test_CheckGoals_ShouldStaySilentEightDaysOut(t *testing.T) {
	store := storage.NewInMemStorage()
	require.NoError(t, store.AppendGoal(context.Background(), goalWithDeadline(1, "Vacation", day(2025, time.January, 9))))

	ctx := session.WithUser(context.Background(), 1)
	alerts, err := New(store, store, store).CheckGoals(ctx, day(2025, time.January, 1))

	assert.NoError(t, err)
	assert.Empty(t, alerts)
}

func Test_CheckGoals_ShouldExpireOnTheDeadlineDay(t *testing.T) {
	store := storage.NewInMemStorage()
	require.NoError(t, store.AppendGoal(context.Background(), goalWithDeadline(1, "Vacation", day(2025, time.January, 1))))

	ctx := session.WithUser(context.Background(), 1)
	alerts, err := New(store, store, store).CheckGoals(ctx, day(2025, time.January, 1))

	assert.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, alert.GoalExpired, alerts[0].Kind)
	assert.Equal(t, alert.Critical, alerts[0].Severity)
}

func Test_CheckGoals_ShouldSkipGoalsWithoutDeadline(t *testing.T) {
	store := storage.NewInMemStorage()
	require.NoError(t, store.AppendGoal(context.Background(), budget.Goal{UserID: 1, Name: "Rainy day"}))

	ctx := session.WithUser(context.Background(), 1)
	alerts, err := New(store, store, store).CheckGoals(ctx, day(2025, time.January, 1))

	assert.NoError(t, err)
	assert.Empty(t, alerts)
}

func Test_CheckGoals_ShouldSeeOnlyTheSessionUsersGoals(t *testing.T) {
	store := storage.NewInMemStorage()
	require.NoError(t, store.AppendGoal(context.Background(), goalWithDeadline(2, "NotMine", day(2025, time.January, 2))))

	ctx := session.WithUser(context.Background(), 1)
	alerts, err := New(store, store, store).CheckGoals(ctx, day(2025, time.January, 1))

	assert.NoError(t, err)
	assert.Empty(t, alerts)
}

func Test_CheckGoals_ShouldDoNothingWithoutSessionUser(t *testing.T) {
	store := storage.NewInMemStorage()
	require.NoError(t, store.AppendGoal(context.Background(), goalWithDeadline(1, "Vacation", day(2025, time.January, 1))))

	alerts, err := New(store, store, store).CheckGoals(context.Background(), day(2025, time.January, 1))

	assert.NoError(t, err)
	assert.Nil(t, alerts)
}
