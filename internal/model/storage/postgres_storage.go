package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	// postgres driver
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/devbrain-cz/finance-keeper/internal/entity/budget"
	"github.com/devbrain-cz/finance-keeper/internal/entity/ledger"
	"github.com/devbrain-cz/finance-keeper/internal/logger"
)

const dsnTemplate = "user=%s password=%s host=%s dbname=%s sslmode=disable"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type config interface {
	Host() string
	Username() string
	Password() string
	Database() string
}

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(config config) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", fmt.Sprintf(dsnTemplate,
		config.Username(),
		config.Password(),
		config.Host(),
		config.Database()))
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to database")
	}
	if err = db.Ping(); err != nil {
		return nil, errors.Wrap(err, "cannot connect to database")
	}
	return &PostgresStorage{db}, nil
}

func (s *PostgresStorage) DB() *sql.DB {
	return s.db
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// AppendEntry persists one ledger entry in its own transaction. The expansion
// engine relies on this granularity: a crash between two occurrences leaves
// every already-committed entry intact and re-expansion picks up from there.
func (s *PostgresStorage) AppendEntry(ctx context.Context, e ledger.Entry) error {
	query := psql.Insert("entries").
		Columns("id", "entry_date", "amount", "description", "category", "currency", "exchange_rate", "created_at").
		Values(e.ID, e.Date, e.Amount, e.Description, e.Category, e.CurrencyCode, e.ExchangeRate, time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "append entry")
	}
	defer func() {
		txErr := tx.Rollback()
		if txErr != nil && !errors.Is(txErr, sql.ErrTxDone) {
			logger.Error("error when transaction rollback")
		}
	}()

	_, err = query.RunWith(tx).ExecContext(ctx)
	if err != nil {
		return errors.Wrap(err, "append entry")
	}
	return tx.Commit()
}

// LastEntryOn finds the date of the most recent entry matching the
// (category, description, amount) triple. The second result is false when no
// such entry exists.
func (s *PostgresStorage) LastEntryOn(ctx context.Context, category, description string, amount decimal.Decimal) (time.Time, bool, error) {
	query := psql.Select("entry_date").
		From("entries").
		Where(sq.Eq{"category": category, "description": description, "amount": amount}).
		OrderBy("entry_date DESC").
		Limit(1)

	var date time.Time
	err := query.RunWith(s.db).QueryRowContext(ctx).Scan(&date)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, errors.Wrap(err, "last entry on")
	}
	return ledger.DateOf(date), true, nil
}

// HasEntryOn reports whether an entry with the full occurrence key already
// exists on the given date.
func (s *PostgresStorage) HasEntryOn(ctx context.Context, date time.Time, category, description string, amount decimal.Decimal) (bool, error) {
	query := psql.Select("1").
		From("entries").
		Where(sq.Eq{
			"entry_date":  ledger.DateOf(date),
			"category":    category,
			"description": description,
			"amount":      amount,
		}).
		Limit(1)

	var one int
	err := query.RunWith(s.db).QueryRowContext(ctx).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "has entry on")
	}
	return true, nil
}

func (s *PostgresStorage) ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	query := psql.Select("id", "entry_date", "amount", "description", "category", "currency", "exchange_rate").
		From("entries").
		OrderBy("entry_date DESC")

	if !filter.From.IsZero() {
		query = query.Where(sq.GtOrEq{"entry_date": filter.From})
	}
	if !filter.To.IsZero() {
		query = query.Where(sq.LtOrEq{"entry_date": filter.To})
	}
	if filter.Category != "" {
		query = query.Where(sq.Eq{"category": filter.Category})
	}
	switch filter.Sign {
	case ledger.Expenses:
		query = query.Where(sq.Lt{"amount": 0})
	case ledger.Income:
		query = query.Where(sq.Gt{"amount": 0})
	}

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list entries")
	}
	defer func() {
		rowErr := rows.Close()
		if rowErr != nil {
			logger.Error("error closing rows")
		}
	}()

	entries := make([]ledger.Entry, 0)
	for rows.Next() {
		var e ledger.Entry
		err = rows.Scan(&e.ID, &e.Date, &e.Amount, &e.Description, &e.Category, &e.CurrencyCode, &e.ExchangeRate)
		if err != nil {
			return nil, errors.Wrap(err, "list entries")
		}
		e.Date = ledger.DateOf(e.Date)
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list entries")
	}
	return entries, nil
}

// SumExpenses totals negative amounts in [from, to] for one category.
// The result is the raw (negative or zero) sum.
func (s *PostgresStorage) SumExpenses(ctx context.Context, from, to time.Time, category string) (decimal.Decimal, error) {
	query := psql.Select("COALESCE(SUM(amount), 0)").
		From("entries").
		Where(sq.GtOrEq{"entry_date": from}).
		Where(sq.LtOrEq{"entry_date": to}).
		Where(sq.Eq{"category": category}).
		Where(sq.Lt{"amount": 0})

	var sum decimal.Decimal
	err := query.RunWith(s.db).QueryRowContext(ctx).Scan(&sum)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "sum expenses")
	}
	return sum, nil
}

func (s *PostgresStorage) AppendRule(ctx context.Context, r ledger.RecurrenceRule) error {
	var dayOfMonth, dayOfWeek sql.NullInt64
	if r.DayOfMonth != nil {
		dayOfMonth = sql.NullInt64{Int64: int64(*r.DayOfMonth), Valid: true}
	}
	if r.DayOfWeek != nil {
		dayOfWeek = sql.NullInt64{Int64: int64(*r.DayOfWeek), Valid: true}
	}

	query := psql.Insert("recurrence_rules").
		Columns("id", "start_date", "amount", "description", "category", "frequency", "day_of_month", "day_of_week", "created_at").
		Values(r.ID, r.StartDate, r.Amount, r.Description, r.Category, string(r.Frequency), dayOfMonth, dayOfWeek, time.Now())

	_, err := query.RunWith(s.db).ExecContext(ctx)
	return errors.Wrap(err, "append rule")
}

func (s *PostgresStorage) ListRules(ctx context.Context) ([]ledger.RecurrenceRule, error) {
	query := psql.Select("id", "start_date", "amount", "description", "category", "frequency", "day_of_month", "day_of_week").
		From("recurrence_rules").
		OrderBy("created_at")

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list rules")
	}
	defer func() {
		rowErr := rows.Close()
		if rowErr != nil {
			logger.Error("error closing rows")
		}
	}()

	rules := make([]ledger.RecurrenceRule, 0)
	for rows.Next() {
		var r ledger.RecurrenceRule
		var freq string
		var dayOfMonth, dayOfWeek sql.NullInt64
		err = rows.Scan(&r.ID, &r.StartDate, &r.Amount, &r.Description, &r.Category, &freq, &dayOfMonth, &dayOfWeek)
		if err != nil {
			return nil, errors.Wrap(err, "list rules")
		}
		r.StartDate = ledger.DateOf(r.StartDate)
		r.Frequency = ledger.Frequency(freq)
		if dayOfMonth.Valid {
			d := int(dayOfMonth.Int64)
			r.DayOfMonth = &d
		}
		if dayOfWeek.Valid {
			w := time.Weekday(dayOfWeek.Int64)
			r.DayOfWeek = &w
		}
		rules = append(rules, r)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list rules")
	}
	return rules, nil
}

func (s *PostgresStorage) UpsertBudget(ctx context.Context, b budget.Definition) error {
	query := psql.Insert("budgets").
		Columns("budget_year", "budget_month", "category", "month_limit").
		Values(b.Year, int(b.Month), b.Category, b.Limit).
		Suffix("ON CONFLICT(budget_year, budget_month, category) DO UPDATE SET month_limit = ?", b.Limit)

	_, err := query.RunWith(s.db).ExecContext(ctx)
	return errors.Wrap(err, "upsert budget")
}

func (s *PostgresStorage) ListBudgets(ctx context.Context, year int, month time.Month) ([]budget.Definition, error) {
	query := psql.Select("budget_year", "budget_month", "category", "month_limit").
		From("budgets").
		Where(sq.Eq{"budget_year": year, "budget_month": int(month)})

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list budgets")
	}
	defer func() {
		rowErr := rows.Close()
		if rowErr != nil {
			logger.Error("error closing rows")
		}
	}()

	budgets := make([]budget.Definition, 0)
	for rows.Next() {
		var b budget.Definition
		var m int
		err = rows.Scan(&b.Year, &m, &b.Category, &b.Limit)
		if err != nil {
			return nil, errors.Wrap(err, "list budgets")
		}
		b.Month = time.Month(m)
		budgets = append(budgets, b)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list budgets")
	}
	return budgets, nil
}

func (s *PostgresStorage) AppendGoal(ctx context.Context, g budget.Goal) error {
	var deadline sql.NullTime
	if g.Deadline != nil {
		deadline = sql.NullTime{Time: *g.Deadline, Valid: true}
	}

	query := psql.Insert("goals").
		Columns("id", "user_id", "name", "target_amount", "current_amount", "deadline").
		Values(g.ID, g.UserID, g.Name, g.TargetAmount, g.CurrentAmount, deadline)

	_, err := query.RunWith(s.db).ExecContext(ctx)
	return errors.Wrap(err, "append goal")
}

func (s *PostgresStorage) ListGoalsByUser(ctx context.Context, userID int64) ([]budget.Goal, error) {
	query := psql.Select("id", "user_id", "name", "target_amount", "current_amount", "deadline").
		From("goals").
		Where(sq.Eq{"user_id": userID})

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list goals")
	}
	defer func() {
		rowErr := rows.Close()
		if rowErr != nil {
			logger.Error("error closing rows")
		}
	}()

	goals := make([]budget.Goal, 0)
	for rows.Next() {
		var g budget.Goal
		var deadline sql.NullTime
		err = rows.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &deadline)
		if err != nil {
			return nil, errors.Wrap(err, "list goals")
		}
		if deadline.Valid {
			d := ledger.DateOf(deadline.Time)
			g.Deadline = &d
		}
		goals = append(goals, g)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list goals")
	}
	return goals, nil
}

func (s *PostgresStorage) AppendAudit(ctx context.Context, userID int64, action, details string) error {
	query := psql.Insert("audit_log").
		Columns("ts", "user_id", "action", "details").
		Values(time.Now(), userID, action, details)

	_, err := query.RunWith(s.db).ExecContext(ctx)
	return errors.Wrap(err, "append audit")
}

type dump struct {
	TakenAt time.Time               `json:"takenAt"`
	Entries []ledger.Entry          `json:"entries"`
	Rules   []ledger.RecurrenceRule `json:"rules"`
	Budgets []budget.Definition     `json:"budgets"`
	Goals   []budget.Goal           `json:"goals"`
}

// Dump serializes the persisted state for the backup timer. Each table is
// read in its own statement, so the snapshot reflects some consistent prior
// state rather than necessarily the very latest writes.
func (s *PostgresStorage) Dump(ctx context.Context) ([]byte, error) {
	entries, err := s.ListEntries(ctx, ledger.Filter{})
	if err != nil {
		return nil, errors.Wrap(err, "dump")
	}
	rules, err := s.ListRules(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "dump")
	}

	d := dump{
		TakenAt: time.Now(),
		Entries: entries,
		Rules:   rules,
		Budgets: make([]budget.Definition, 0),
		Goals:   make([]budget.Goal, 0),
	}

	if err = s.dumpBudgets(ctx, &d); err != nil {
		return nil, errors.Wrap(err, "dump")
	}
	if err = s.dumpGoals(ctx, &d); err != nil {
		return nil, errors.Wrap(err, "dump")
	}
	return json.Marshal(d)
}

func (s *PostgresStorage) dumpBudgets(ctx context.Context, d *dump) error {
	rows, err := psql.Select("budget_year", "budget_month", "category", "month_limit").
		From("budgets").RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var b budget.Definition
		var m int
		if err = rows.Scan(&b.Year, &m, &b.Category, &b.Limit); err != nil {
			return err
		}
		b.Month = time.Month(m)
		d.Budgets = append(d.Budgets, b)
	}
	return rows.Err()
}

func (s *PostgresStorage) dumpGoals(ctx context.Context, d *dump) error {
	rows, err := psql.Select("id", "user_id", "name", "target_amount", "current_amount", "deadline").
		From("goals").RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var g budget.Goal
		var id uuid.UUID
		var deadline sql.NullTime
		if err = rows.Scan(&id, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &deadline); err != nil {
			return err
		}
		g.ID = id
		if deadline.Valid {
			t := deadline.Time
			g.Deadline = &t
		}
		d.Goals = append(d.Goals, g)
	}
	return rows.Err()
}
