package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var alertsRaised = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "financekeeper",
		Subsystem: "monitor",
		Name:      "alerts_raised_total",
	},
	[]string{"kind"},
)
