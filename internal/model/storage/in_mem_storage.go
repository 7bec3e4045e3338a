package storage

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/devbrain-cz/finance-keeper/internal/entity/budget"
	"github.com/devbrain-cz/finance-keeper/internal/entity/ledger"
)

type budgetKey struct {
	year     int
	month    time.Month
	category string
}

type auditRecord struct {
	Ts      time.Time `json:"ts"`
	UserID  int64     `json:"userID"`
	Action  string    `json:"action"`
	Details string    `json:"details"`
}

// InMemStorage keeps everything in process memory. It serves local runs
// without a database and doubles as the storage fake in tests.
type InMemStorage struct {
	mu      sync.RWMutex
	entries []ledger.Entry
	rules   []ledger.RecurrenceRule
	budgets map[budgetKey]budget.Definition
	goals   []budget.Goal
	audits  []auditRecord
}

func NewInMemStorage() *InMemStorage {
	return &InMemStorage{
		budgets: make(map[budgetKey]budget.Definition),
	}
}

func (s *InMemStorage) AppendEntry(_ context.Context, e ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *InMemStorage) LastEntryOn(_ context.Context, category, description string, amount decimal.Decimal) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last time.Time
	found := false
	for _, e := range s.entries {
		if e.Category == category && e.Description == description && e.Amount.Equal(amount) {
			if !found || e.Date.After(last) {
				last = e.Date
				found = true
			}
		}
	}
	return last, found, nil
}

func (s *InMemStorage) HasEntryOn(_ context.Context, date time.Time, category, description string, amount decimal.Decimal) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.SameOccurrence(date, category, description, amount) {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemStorage) ListEntries(_ context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]ledger.Entry, 0)
	for _, e := range s.entries {
		if !filter.From.IsZero() && e.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && e.Date.After(filter.To) {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if filter.Sign == ledger.Expenses && !e.Amount.IsNegative() {
			continue
		}
		if filter.Sign == ledger.Income && !e.Amount.IsPositive() {
			continue
		}
		res = append(res, e)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Date.After(res[j].Date)
	})
	return res, nil
}

func (s *InMemStorage) SumExpenses(_ context.Context, from, to time.Time, category string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := decimal.Zero
	for _, e := range s.entries {
		if e.Category != category || !e.Amount.IsNegative() {
			continue
		}
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		sum = sum.Add(e.Amount)
	}
	return sum, nil
}

func (s *InMemStorage) AppendRule(_ context.Context, r ledger.RecurrenceRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, r)
	return nil
}

func (s *InMemStorage) ListRules(_ context.Context) ([]ledger.RecurrenceRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]ledger.RecurrenceRule, len(s.rules))
	copy(res, s.rules)
	return res, nil
}

func (s *InMemStorage) UpsertBudget(_ context.Context, b budget.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[budgetKey{b.Year, b.Month, b.Category}] = b
	return nil
}

func (s *InMemStorage) ListBudgets(_ context.Context, year int, month time.Month) ([]budget.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]budget.Definition, 0)
	for key, b := range s.budgets {
		if key.year == year && key.month == month {
			res = append(res, b)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Category < res[j].Category
	})
	return res, nil
}

func (s *InMemStorage) AppendGoal(_ context.Context, g budget.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals = append(s.goals, g)
	return nil
}

func (s *InMemStorage) ListGoalsByUser(_ context.Context, userID int64) ([]budget.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]budget.Goal, 0)
	for _, g := range s.goals {
		if g.UserID == userID {
			res = append(res, g)
		}
	}
	return res, nil
}

func (s *InMemStorage) AppendAudit(_ context.Context, userID int64, action, details string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits = append(s.audits, auditRecord{Ts: time.Now(), UserID: userID, Action: action, Details: details})
	return nil
}

func (s *InMemStorage) Dump(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	budgets := make([]budget.Definition, 0, len(s.budgets))
	for _, b := range s.budgets {
		budgets = append(budgets, b)
	}

	return json.Marshal(struct {
		TakenAt time.Time               `json:"takenAt"`
		Entries []ledger.Entry          `json:"entries"`
		Rules   []ledger.RecurrenceRule `json:"rules"`
		Budgets []budget.Definition     `json:"budgets"`
		Goals   []budget.Goal           `json:"goals"`
	}{time.Now(), s.entries, s.rules, budgets, s.goals})
}
