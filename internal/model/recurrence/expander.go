package recurrence

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/devbrain-cz/finance-keeper/internal/entity/currency"
	"github.com/devbrain-cz/finance-keeper/internal/entity/ledger"
	"github.com/devbrain-cz/finance-keeper/internal/logger"
)

type ledgerStorage interface {
	LastEntryOn(ctx context.Context, category, description string, amount decimal.Decimal) (time.Time, bool, error)
	HasEntryOn(ctx context.Context, date time.Time, category, description string, amount decimal.Decimal) (bool, error)
	AppendEntry(ctx context.Context, e ledger.Entry) error
}

type ruleStorage interface {
	ListRules(ctx context.Context) ([]ledger.RecurrenceRule, error)
}

type config interface {
	BaseCurrency() string
}

// Expander materializes recurrence rules into concrete ledger entries.
//
// Expansion is idempotent: an occurrence is identified by its
// (date, category, description, amount) key, and an entry is appended only
// when no entry with that key exists yet. Running Expand any number of times
// over the same inputs therefore yields the same ledger.
type Expander struct {
	ledger       ledgerStorage
	rules        ruleStorage
	baseCurrency string
}

func NewExpander(config config, ledgerStorage ledgerStorage, ruleStorage ruleStorage) *Expander {
	return &Expander{
		ledger:       ledgerStorage,
		rules:        ruleStorage,
		baseCurrency: config.BaseCurrency(),
	}
}

// Expand materializes every not-yet-persisted occurrence dated at or before
// asOf, for every rule. A failure while expanding one rule aborts that rule
// only; the remaining rules still run. Returns the number of entries created.
func (e *Expander) Expand(ctx context.Context, asOf time.Time) (int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "expandRules")
	defer span.Finish()

	start := time.Now()
	defer func() {
		expansionDuration.Observe(time.Since(start).Seconds())
	}()

	rules, err := e.rules.ListRules(ctx)
	if err != nil {
		ext.Error.Set(span, true)
		return 0, errors.Wrap(err, "expand")
	}

	asOf = ledger.DateOf(asOf)
	total := 0
	for _, rule := range rules {
		created, err := e.expandRule(ctx, rule, asOf)
		total += created
		if err != nil {
			// n.b. the next run retries naturally via the idempotent re-scan
			rulesFailed.Inc()
			logger.Error("rule expansion aborted",
				zap.Error(err),
				zap.String("rule", rule.ID.String()),
				zap.String("category", rule.Category),
			)
		}
	}

	entriesMaterialized.Add(float64(total))
	if total > 0 {
		logger.Info("materialized recurring entries", zap.Int("count", total))
	}
	return total, nil
}

func (e *Expander) expandRule(ctx context.Context, rule ledger.RecurrenceRule, asOf time.Time) (int, error) {
	cursor, found, err := e.ledger.LastEntryOn(ctx, rule.Category, rule.Description, rule.Amount)
	if err != nil {
		return 0, errors.Wrap(err, "expand rule")
	}
	if !found {
		cursor = rule.StartDate
	}

	created := 0
	for {
		candidate := nextOccurrence(rule, cursor)
		if candidate.After(asOf) {
			return created, nil
		}

		exists, err := e.ledger.HasEntryOn(ctx, candidate, rule.Category, rule.Description, rule.Amount)
		if err != nil {
			return created, errors.Wrap(err, "expand rule")
		}
		if !exists {
			entry := ledger.NewEntry(candidate, rule.Amount, rule.Description, rule.Category,
				e.baseCurrency, currency.One)
			// persisted one by one: a crash mid-rule leaves a shorter but
			// valid ledger and the next run resumes behind the last commit
			if err = e.ledger.AppendEntry(ctx, entry); err != nil {
				return created, errors.Wrap(err, "expand rule")
			}
			created++
		}

		cursor = candidate.Add(rule.Step())
	}
}

// nextOccurrence re-anchors the candidate date from the cursor on every
// iteration. Monthly rules recompute the day-of-month from the cursor
// rather than trusting the coarse 30-day step, so the anchor day never
// drifts off its calendar day even when the step lands mid-month.
func nextOccurrence(rule ledger.RecurrenceRule, cursor time.Time) time.Time {
	switch {
	case rule.Frequency == ledger.Monthly && rule.DayOfMonth != nil:
		// day is capped at 28, so every month of the year can hold it
		candidate := time.Date(cursor.Year(), cursor.Month(), *rule.DayOfMonth, 0, 0, 0, 0, time.UTC)
		if candidate.Before(cursor) {
			candidate = candidate.AddDate(0, 1, 0)
		}
		return candidate

	case rule.Frequency == ledger.Weekly && rule.DayOfWeek != nil:
		days := (int(*rule.DayOfWeek) - int(cursor.Weekday()) + 7) % 7
		candidate := cursor.AddDate(0, 0, days)
		if candidate.Before(cursor) {
			candidate = candidate.AddDate(0, 0, 7)
		}
		return candidate

	default:
		return cursor
	}
}
