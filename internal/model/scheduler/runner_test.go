package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/devbrain-cz/finance-keeper/internal/entity/alert"
	"github.com/devbrain-cz/finance-keeper/internal/entity/session"
)

type testConfig struct{}

func (testConfig) IntervalMinutes() int64 {
	return 60
}

type fakeExpander struct {
	created int
	err     error
	calls   int
}

func (f *fakeExpander) Expand(context.Context, time.Time) (int, error) {
	f.calls++
	return f.created, f.err
}

type fakeMonitor struct {
	budgetAlerts []alert.Alert
	goalAlerts   []alert.Alert
	budgetErr    error
}

func (f *fakeMonitor) CheckBudgets(context.Context, time.Time) ([]alert.Alert, error) {
	return f.budgetAlerts, f.budgetErr
}

func (f *fakeMonitor) CheckGoals(context.Context, time.Time) ([]alert.Alert, error) {
	return f.goalAlerts, nil
}

type recordingSink struct {
	published []alert.Alert
}

func (r *recordingSink) PublishAlert(_ context.Context, a alert.Alert) error {
	r.published = append(r.published, a)
	return nil
}

type recordingInvalidator struct {
	users []int64
}

func (r *recordingInvalidator) Invalidate(userID int64) error {
	r.users = append(r.users, userID)
	return nil
}

type recordingAudit struct {
	actions []string
	details []string
}

func (r *recordingAudit) Record(_ context.Context, action, details string) error {
	r.actions = append(r.actions, action)
	r.details = append(r.details, details)
	return nil
}

func newTestRunner(e *fakeExpander, m *fakeMonitor) (*Runner, *recordingSink, *recordingInvalidator, *recordingAudit) {
	sink := &recordingSink{}
	inv := &recordingInvalidator{}
	audit := &recordingAudit{}
	r := NewRunner(testConfig{}, e, m, sink, inv, audit)
	r.nowFn = func() time.Time {
		return time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	}
	return r, sink, inv, audit
}

func Test_RunOnce_ShouldPublishBudgetThenGoalAlerts(t *testing.T) {
	budgetAlert := alert.NewBudgetExceeded("Food", decimal.NewFromInt(1000), decimal.NewFromInt(1200), time.Now())
	goalAlert := alert.NewGoalDeadline("Vacation", 3, time.Now())
	runner, sink, _, audit := newTestRunner(
		&fakeExpander{created: 2},
		&fakeMonitor{budgetAlerts: []alert.Alert{budgetAlert}, goalAlerts: []alert.Alert{goalAlert}},
	)

	runner.RunOnce(context.Background())

	assert.Equal(t, []alert.Alert{budgetAlert, goalAlert}, sink.published)
	assert.Equal(t, []string{"AlertRaised", "AlertRaised", "LedgerRun"}, audit.actions)
	assert.Equal(t, "entries: 2, alerts: 2", audit.details[2])
}

func Test_RunOnce_ShouldInvalidateReportsOnlyWhenEntriesWereCreated(t *testing.T) {
	runner, _, inv, _ := newTestRunner(&fakeExpander{created: 1}, &fakeMonitor{})
	ctx := session.WithUser(context.Background(), 42)

	runner.RunOnce(ctx)
	assert.Equal(t, []int64{42}, inv.users)

	quietRunner, _, quietInv, _ := newTestRunner(&fakeExpander{created: 0}, &fakeMonitor{})
	quietRunner.RunOnce(ctx)
	assert.Empty(t, quietInv.users)
}

func Test_RunOnce_ShouldSurviveFailedChecks(t *testing.T) {
	goalAlert := alert.NewGoalExpired("Vacation", time.Now())
	runner, sink, _, audit := newTestRunner(
		&fakeExpander{err: assert.AnError},
		&fakeMonitor{budgetErr: assert.AnError, goalAlerts: []alert.Alert{goalAlert}},
	)

	runner.RunOnce(context.Background())

	// goal alerts still flow when expansion and budget checks fail
	assert.Equal(t, []alert.Alert{goalAlert}, sink.published)
	assert.Equal(t, "entries: 0, alerts: 1", audit.details[len(audit.details)-1])
}

func Test_Run_ShouldFireImmediatelyAndStopOnCancel(t *testing.T) {
	expander := &fakeExpander{}
	runner, _, _, _ := newTestRunner(expander, &fakeMonitor{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runner.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return expander.calls >= 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop on context cancel")
	}
}
