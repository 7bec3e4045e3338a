package recurrence

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var entriesMaterialized = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "financekeeper",
		Subsystem: "recurrence",
		Name:      "entries_materialized_total",
	},
)

var rulesFailed = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "financekeeper",
		Subsystem: "recurrence",
		Name:      "rules_failed_total",
	},
)

var expansionDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "financekeeper",
		Subsystem: "recurrence",
		Name:      "expansion_duration_seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	},
)
