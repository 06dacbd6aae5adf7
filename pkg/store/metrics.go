package store

import "github.com/prometheus/client_golang/prometheus"

var (
	appendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatlog",
			Subsystem: "store",
			Name:      "appends_total",
			Help:      "Records appended to chat logs, by event.",
		},
		[]string{"event"},
	)

	skippedLinesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatlog",
			Subsystem: "store",
			Name:      "skipped_lines_total",
			Help:      "Log lines skipped while reading because they did not parse.",
		},
	)

	pruneRewritesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatlog",
			Subsystem: "store",
			Name:      "prune_rewrites_total",
			Help:      "Chat logs rewritten by prune.",
		},
	)

	prunedRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatlog",
			Subsystem: "store",
			Name:      "pruned_records_total",
			Help:      "Raw log records dropped by prune rewrites.",
		},
	)

	searchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatlog",
			Subsystem: "store",
			Name:      "searches_total",
			Help:      "Searches executed, by scope.",
		},
		[]string{"scope"},
	)
)

func init() {
	prometheus.MustRegister(appendsTotal)
	prometheus.MustRegister(skippedLinesTotal)
	prometheus.MustRegister(pruneRewritesTotal)
	prometheus.MustRegister(prunedRecordsTotal)
	prometheus.MustRegister(searchesTotal)
}
