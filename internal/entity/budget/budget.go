package budget

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Definition is a per-calendar-month spending ceiling for one category.
// (Year, Month, Category) identify it; storage upserts on that key.
type Definition struct {
	Year     int
	Month    time.Month
	Category string
	Limit    decimal.Decimal
}

// Goal is a savings target owned by one user. Deadline is optional; goals
// without one never raise deadline alerts.
type Goal struct {
	ID            uuid.UUID
	UserID        int64
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Deadline      *time.Time
}

// Remaining is how much is still missing to reach the target.
func (g Goal) Remaining() decimal.Decimal {
	return g.TargetAmount.Sub(g.CurrentAmount)
}
