package alert

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind names what an alert is about.
type Kind string

const (
	BudgetNearLimit Kind = "budget_near_limit"
	BudgetExceeded  Kind = "budget_exceeded"
	GoalDeadline    Kind = "goal_deadline"
	GoalExpired     Kind = "goal_expired"
)

// Severity of an alert.
type Severity string

const (
	Warning  Severity = "warning"
	Critical Severity = "critical"
)

// Alert is the structured value produced by the threshold monitor. Rendering
// (console, Telegram, log) happens downstream; the monitor only builds these.
type Alert struct {
	Kind     Kind            `json:"kind"`
	Severity Severity        `json:"severity"`
	Category string          `json:"category,omitempty"`
	GoalName string          `json:"goal,omitempty"`
	Limit    decimal.Decimal `json:"limit,omitempty"`
	Spent    decimal.Decimal `json:"spent,omitempty"`
	DaysLeft int             `json:"daysLeft,omitempty"`
	Message  string          `json:"message"`
	RaisedAt time.Time       `json:"raisedAt"`
}

func NewBudgetNearLimit(category string, limit, spent decimal.Decimal, at time.Time) Alert {
	return Alert{
		Kind:     BudgetNearLimit,
		Severity: Warning,
		Category: category,
		Limit:    limit,
		Spent:    spent,
		Message:  fmt.Sprintf("spending in category %s reached 90%% of the %s limit", category, limit),
		RaisedAt: at,
	}
}

func NewBudgetExceeded(category string, limit, spent decimal.Decimal, at time.Time) Alert {
	return Alert{
		Kind:     BudgetExceeded,
		Severity: Critical,
		Category: category,
		Limit:    limit,
		Spent:    spent,
		Message:  fmt.Sprintf("budget exceeded in category %s: spent %s of %s", category, spent, limit),
		RaisedAt: at,
	}
}

func NewGoalDeadline(name string, daysLeft int, at time.Time) Alert {
	return Alert{
		Kind:     GoalDeadline,
		Severity: Warning,
		GoalName: name,
		DaysLeft: daysLeft,
		Message:  fmt.Sprintf("goal %q deadline is in %d days", name, daysLeft),
		RaisedAt: at,
	}
}

func NewGoalExpired(name string, at time.Time) Alert {
	return Alert{
		Kind:     GoalExpired,
		Severity: Critical,
		GoalName: name,
		Message:  fmt.Sprintf("goal %q deadline has passed", name),
		RaisedAt: at,
	}
}
