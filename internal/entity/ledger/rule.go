package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Frequency of a recurrence rule.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// Day-of-month anchors stop at 28 so every month can hold the occurrence and
// shorter months never need special-casing.
const (
	MinDayOfMonth = 1
	MaxDayOfMonth = 28
)

// RecurrenceRule declares a repeating payment. Rules are immutable once
// created; the expansion engine reads them and never writes them back.
//
// At most one anchor is meaningful: DayOfMonth for monthly rules, DayOfWeek
// for weekly rules. Daily rules ignore both.
type RecurrenceRule struct {
	ID          uuid.UUID
	StartDate   time.Time
	Amount      decimal.Decimal
	Description string
	Category    string
	Frequency   Frequency
	DayOfMonth  *int
	DayOfWeek   *time.Weekday
}

// NewRecurrenceRule is the single constructor for recurrence rules. Adapters
// collect the fields however they like (interactively or not) and hand them
// over fully populated; validation happens here, at the creation boundary.
func NewRecurrenceRule(start time.Time, amount decimal.Decimal, description, category string,
	freq Frequency, dayOfMonth *int, dayOfWeek *time.Weekday) (RecurrenceRule, error) {

	if category == "" {
		return RecurrenceRule{}, fmt.Errorf("rule category is required")
	}

	switch freq {
	case Monthly:
		if dayOfMonth != nil && (*dayOfMonth < MinDayOfMonth || *dayOfMonth > MaxDayOfMonth) {
			return RecurrenceRule{}, fmt.Errorf("day of month %d out of range %d-%d",
				*dayOfMonth, MinDayOfMonth, MaxDayOfMonth)
		}
		dayOfWeek = nil
	case Weekly:
		if dayOfWeek != nil && (*dayOfWeek < time.Sunday || *dayOfWeek > time.Saturday) {
			return RecurrenceRule{}, fmt.Errorf("day of week %d out of range 0-6", *dayOfWeek)
		}
		dayOfMonth = nil
	case Daily:
		dayOfMonth, dayOfWeek = nil, nil
	default:
		return RecurrenceRule{}, fmt.Errorf("unknown frequency %q", freq)
	}

	return RecurrenceRule{
		ID:          uuid.New(),
		StartDate:   DateOf(start),
		Amount:      amount,
		Description: description,
		Category:    category,
		Frequency:   freq,
		DayOfMonth:  dayOfMonth,
		DayOfWeek:   dayOfWeek,
	}, nil
}

// Step is the coarse cursor advance applied after an occurrence is handled.
// The exact occurrence day is re-anchored from the new cursor afterwards.
func (r RecurrenceRule) Step() time.Duration {
	switch r.Frequency {
	case Monthly:
		return 30 * 24 * time.Hour
	case Weekly:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}
