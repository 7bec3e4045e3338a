package reports

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/jinzhu/now"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/devbrain-cz/finance-keeper/internal/entity/ledger"
	"github.com/devbrain-cz/finance-keeper/internal/logger"
)

const periodKeyLayout = "2006-01"

type entriesStorage interface {
	ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error)
}

type reportsCache interface {
	CacheReport(userID int64, option string, report string) error
	GetReport(userID int64, option string) (string, error)
	InvalidateCache(userID int64, options []string) error
}

// CategoryTotal is one line of a summary: total spending per category,
// expressed positive.
type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// Summary is the monthly report: overall income, expense and balance in base
// currency plus per-category expense totals, largest first.
type Summary struct {
	Year     int             `json:"year"`
	Month    time.Month      `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
	Balance  decimal.Decimal `json:"balance"`
	Expenses []CategoryTotal `json:"expenses"`
}

// Generator builds monthly summaries from the ledger, with a best-effort
// cache in front. A nil cache disables caching.
type Generator struct {
	storage entriesStorage
	cache   reportsCache
}

func NewGenerator(storage entriesStorage, cache reportsCache) *Generator {
	return &Generator{
		storage: storage,
		cache:   cache,
	}
}

// MonthlySummary computes (or fetches from cache) the summary for the
// calendar month containing period.
func (g *Generator) MonthlySummary(ctx context.Context, userID int64, period time.Time) (*Summary, error) {
	key := period.Format(periodKeyLayout)

	if g.cache != nil {
		if cached, err := g.cache.GetReport(userID, key); err == nil {
			var s Summary
			if err = json.Unmarshal([]byte(cached), &s); err == nil {
				return &s, nil
			}
			logger.Warn("dropping unreadable cached report", zap.String("period", key))
		}
	}

	window := now.New(ledger.DateOf(period))
	entries, err := g.storage.ListEntries(ctx, ledger.Filter{
		From: window.BeginningOfMonth(),
		To:   window.EndOfMonth(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "monthly summary")
	}

	s := summarize(entries, period)

	if g.cache != nil {
		raw, err := json.Marshal(s)
		if err == nil {
			if err = g.cache.CacheReport(userID, key, string(raw)); err != nil {
				logger.Warn("failed to cache report", zap.Error(err))
			}
		}
	}
	return s, nil
}

// Invalidate drops the current month's cached summary for the user. Older
// cached periods age out on their own.
func (g *Generator) Invalidate(userID int64) error {
	if g.cache == nil {
		return nil
	}
	key := time.Now().Format(periodKeyLayout)
	return g.cache.InvalidateCache(userID, []string{key})
}

func summarize(entries []ledger.Entry, period time.Time) *Summary {
	s := &Summary{
		Year:     period.Year(),
		Month:    period.Month(),
		Income:   decimal.Zero,
		Expense:  decimal.Zero,
		Balance:  decimal.Zero,
		Expenses: make([]CategoryTotal, 0),
	}

	byCategory := make(map[string]decimal.Decimal)
	for _, e := range entries {
		amount := e.BaseAmount()
		if amount.IsPositive() {
			s.Income = s.Income.Add(amount)
		} else {
			s.Expense = s.Expense.Add(amount.Neg())
			byCategory[e.Category] = byCategory[e.Category].Add(amount.Neg())
		}
	}
	s.Balance = s.Income.Sub(s.Expense)

	for cat, amount := range byCategory {
		s.Expenses = append(s.Expenses, CategoryTotal{Category: cat, Amount: amount})
	}
	sort.Slice(s.Expenses, func(i, j int) bool {
		return s.Expenses[i].Amount.GreaterThan(s.Expenses[j].Amount)
	})
	return s
}
