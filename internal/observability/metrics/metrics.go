// Package metrics exposes Prometheus instrumentation for the quoting
// engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuotesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cotiza",
		Name:      "quotes_created_total",
		Help:      "Quote requests priced end to end.",
	})

	CombinationsEvaluated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cotiza",
		Name:      "combinations_evaluated_total",
		Help:      "Insurer/product combinations by terminal status.",
	}, []string{"status"})

	EvaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cotiza",
		Name:      "quote_evaluation_seconds",
		Help:      "Wall time to evaluate all combinations of one quote.",
		Buckets:   prometheus.DefBuckets,
	})

	FoliosAllocated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cotiza",
		Name:      "folios_allocated_total",
		Help:      "Sequential quote folios handed out.",
	})
)
