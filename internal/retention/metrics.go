package retention

import "github.com/prometheus/client_golang/prometheus"

var (
	runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatlog",
		Subsystem: "retention",
		Name:      "runs_total",
		Help:      "Retention runs by outcome.",
	}, []string{"outcome"})

	lastRunDropped = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "chatlog",
		Subsystem: "retention",
		Name:      "last_run_dropped_records",
		Help:      "Records dropped (or planned to drop) by the last completed run.",
	})
)

func init() {
	prometheus.MustRegister(runsTotal, lastRunDropped)
}
