package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ValidationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "surveyflow_validation_runs_total",
		Help: "Total number of structural validator runs, labelled by strictness.",
	}, []string{"strictness"})

	Diagnostics = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "surveyflow_diagnostics_total",
		Help: "Total number of diagnostics reported, labelled by kind and severity.",
	}, []string{"kind", "severity"})

	ValidationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "surveyflow_validation_duration_ms",
		Help:    "Structural validator latency in milliseconds.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
	})

	GraphMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "surveyflow_graph_mutations_total",
		Help: "Total number of editor mutations, labelled by operation and status.",
	}, []string{"operation", "status"})

	ExportsBlocked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surveyflow_exports_blocked_total",
		Help: "Total number of exports refused because the full validator reported errors.",
	})

	ExportsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surveyflow_exports_completed_total",
		Help: "Total number of documents exported.",
	})

	NavigationSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "surveyflow_navigation_steps_total",
		Help: "Total number of respondent steps, labelled by the rule that chose the next question.",
	}, []string{"rule"})

	AnswersRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surveyflow_answers_rejected_total",
		Help: "Total number of answers that failed question validation.",
	})

	ActiveRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "surveyflow_active_runs",
		Help: "Current number of respondent runs held in memory.",
	})
)
