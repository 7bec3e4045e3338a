package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"go.uber.org/zap"

	"github.com/devbrain-cz/finance-keeper/internal/entity/alert"
	"github.com/devbrain-cz/finance-keeper/internal/entity/session"
	"github.com/devbrain-cz/finance-keeper/internal/logger"
)

type expander interface {
	Expand(ctx context.Context, asOf time.Time) (int, error)
}

type thresholdMonitor interface {
	CheckBudgets(ctx context.Context, period time.Time) ([]alert.Alert, error)
	CheckGoals(ctx context.Context, today time.Time) ([]alert.Alert, error)
}

type alertSink interface {
	PublishAlert(ctx context.Context, a alert.Alert) error
}

type reportInvalidator interface {
	Invalidate(userID int64) error
}

type auditRecorder interface {
	Record(ctx context.Context, action, details string) error
}

type config interface {
	IntervalMinutes() int64
}

// Runner drives one full pass over the ledger: expansion first (the only
// write path), then the read-only threshold checks over the updated state.
// It fires once at startup and then on every timer tick.
type Runner struct {
	expander    expander
	monitor     thresholdMonitor
	sink        alertSink
	invalidator reportInvalidator
	audit       auditRecorder
	interval    int64

	nowFn func() time.Time
}

func NewRunner(config config, expander expander, monitor thresholdMonitor,
	sink alertSink, invalidator reportInvalidator, audit auditRecorder) *Runner {
	return &Runner{
		expander:    expander,
		monitor:     monitor,
		sink:        sink,
		invalidator: invalidator,
		audit:       audit,
		interval:    config.IntervalMinutes(),
		nowFn:       time.Now,
	}
}

func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(r.interval) * time.Minute)
	defer ticker.Stop()
	firstTick := make(chan struct{}, 1)
	firstTick <- struct{}{}

	logger.Info("Start ledger runs")
	for {
		select {
		case <-ctx.Done():
			logger.Info("Stop ledger runs")
			return
		// fake first tick to run immediately at startup
		case <-firstTick:
			r.RunOnce(ctx)
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single expansion-then-check pass as of "now".
func (r *Runner) RunOnce(ctx context.Context) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ledgerRun")
	defer span.Finish()

	asOf := r.nowFn()
	logger.Info("Ledger run - start", zap.Time("asOf", asOf))

	created, err := r.expander.Expand(ctx, asOf)
	if err != nil {
		ext.Error.Set(span, true)
		logger.Error("expansion failed", zap.Error(err))
	}
	if created > 0 {
		r.invalidateReports(ctx)
	}

	alerts := r.collectAlerts(ctx, asOf)
	for _, a := range alerts {
		r.publish(ctx, a)
	}

	r.recordAudit(ctx, created, len(alerts))
	logger.Info("Ledger run - end", zap.Int("entries", created), zap.Int("alerts", len(alerts)))
}

func (r *Runner) collectAlerts(ctx context.Context, asOf time.Time) []alert.Alert {
	alerts := make([]alert.Alert, 0)

	budgetAlerts, err := r.monitor.CheckBudgets(ctx, asOf)
	if err != nil {
		logger.Error("budget check failed", zap.Error(err))
	}
	alerts = append(alerts, budgetAlerts...)

	goalAlerts, err := r.monitor.CheckGoals(ctx, asOf)
	if err != nil {
		logger.Error("goal check failed", zap.Error(err))
	}
	alerts = append(alerts, goalAlerts...)

	return alerts
}

func (r *Runner) publish(ctx context.Context, a alert.Alert) {
	alertsRaised.WithLabelValues(string(a.Kind)).Inc()
	logger.Warn("alert raised",
		zap.String("kind", string(a.Kind)),
		zap.String("severity", string(a.Severity)),
		zap.String("message", a.Message),
	)
	if err := r.sink.PublishAlert(ctx, a); err != nil {
		logger.Error("failed to publish alert", zap.Error(err))
		return
	}
	if err := r.audit.Record(ctx, "AlertRaised", a.Message); err != nil {
		logger.Error("failed to append audit record", zap.Error(err))
	}
}

func (r *Runner) invalidateReports(ctx context.Context) {
	userID, ok := session.UserID(ctx)
	if !ok {
		return
	}
	if err := r.invalidator.Invalidate(userID); err != nil {
		logger.Error("failed to invalidate report cache", zap.Error(err))
	}
}

func (r *Runner) recordAudit(ctx context.Context, entries, alerts int) {
	err := r.audit.Record(ctx, "LedgerRun",
		fmt.Sprintf("entries: %d, alerts: %d", entries, alerts))
	if err != nil {
		logger.Error("failed to append audit record", zap.Error(err))
	}
}
