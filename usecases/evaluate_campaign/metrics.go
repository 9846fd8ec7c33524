package evaluate_campaign

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	evaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_evaluations_total",
			Help: "Number of campaign evaluations",
		},
		[]string{"policy", "outcome"},
	)

	effectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_effects_total",
			Help: "Number of dispatched effects by terminal status",
		},
		[]string{"effect_type", "status"},
	)

	evaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campaign_evaluation_duration_seconds",
			Help:    "Duration of campaign evaluations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"policy"},
	)
)
