package ingest

import "github.com/prometheus/client_golang/prometheus"

var (
	updatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatlog",
		Subsystem: "ingest",
		Name:      "updates_total",
		Help:      "Business updates handled, by kind and outcome.",
	}, []string{"kind", "outcome"})

	pruneOnAppendErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chatlog",
		Subsystem: "ingest",
		Name:      "prune_on_append_errors_total",
		Help:      "Prunes after an append that failed.",
	})
)

func init() {
	prometheus.MustRegister(updatesTotal, pruneOnAppendErrors)
}
