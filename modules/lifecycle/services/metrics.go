package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lifecycleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lifecycle",
		Subsystem: "workflow",
		Name:      "transitions_total",
		Help:      "Workflow transition attempts broken down by kind, action and outcome.",
	}, []string{"kind", "action", "outcome"})

	lifecycleConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lifecycle",
		Subsystem: "workflow",
		Name:      "conflicts_total",
		Help:      "Optimistic concurrency conflicts broken down by kind.",
	}, []string{"kind"})

	lifecycleApplies = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lifecycle",
		Subsystem: "applier",
		Name:      "applies_total",
		Help:      "Change application attempts broken down by kind and result.",
	}, []string{"kind", "result"})

	lifecycleSweepRuns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lifecycle",
		Subsystem: "scheduler",
		Name:      "sweep_runs_total",
		Help:      "Completed sweep passes.",
	})

	lifecycleSweepDue = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "lifecycle",
		Subsystem: "scheduler",
		Name:      "sweep_due_requests",
		Help:      "Due requests found per sweep pass.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
)

func recordTransition(kind, action, outcome string) {
	lifecycleTransitions.WithLabelValues(kind, action, outcome).Inc()
}

func recordTransitionConflict(kind string) {
	if kind == "" {
		kind = "other"
	}
	lifecycleConflicts.WithLabelValues(kind).Inc()
}

func recordApply(kind, result string) {
	lifecycleApplies.WithLabelValues(kind, result).Inc()
}
