package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entry is a single dated money movement. Negative amounts are expenses,
// positive amounts are income. Entries are append-only: nothing in the
// application mutates one after it has been persisted.
type Entry struct {
	ID           uuid.UUID
	Date         time.Time
	Amount       decimal.Decimal
	Description  string
	Category     string
	CurrencyCode string
	ExchangeRate decimal.Decimal
}

// NewEntry builds an entry in the given currency. The rate is the fixed
// multiplier to the base currency; base-currency entries carry rate 1.
func NewEntry(date time.Time, amount decimal.Decimal, description, category, currencyCode string, rate decimal.Decimal) Entry {
	return Entry{
		ID:           uuid.New(),
		Date:         DateOf(date),
		Amount:       amount,
		Description:  description,
		Category:     category,
		CurrencyCode: currencyCode,
		ExchangeRate: rate,
	}
}

// SameOccurrence reports whether the entry matches the
// (date, category, description, amount) occurrence key.
func (e Entry) SameOccurrence(date time.Time, category, description string, amount decimal.Decimal) bool {
	return e.Date.Equal(DateOf(date)) &&
		e.Category == category &&
		e.Description == description &&
		e.Amount.Equal(amount)
}

// BaseAmount converts the entry amount to the base currency.
func (e Entry) BaseAmount() decimal.Decimal {
	if e.ExchangeRate.IsZero() {
		return e.Amount
	}
	return e.Amount.Mul(e.ExchangeRate)
}

// DateOf truncates a timestamp to its calendar day in UTC. All ledger dates
// are stored this way so occurrence keys compare exactly.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Filter narrows an entries query. Zero-valued fields are ignored.
type Filter struct {
	From     time.Time
	To       time.Time
	Category string
	Sign     Sign
}

// Sign selects entries by the sign of their amount.
type Sign int

const (
	AnySign  Sign = 0
	Expenses Sign = -1
	Income   Sign = 1
)
