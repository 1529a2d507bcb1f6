package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScoringRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_requests_total",
			Help: "Total number of scoring requests by outcome kind",
		},
		[]string{"outcome"},
	)

	ModelCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_model_calls_total",
			Help: "Total number of model calls by engine and result",
		},
		[]string{"engine", "result"},
	)

	ScoringDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scoring_duration_seconds",
			Help:    "Duration of a scoring request in seconds, retries included",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 45, 60, 90},
		},
		[]string{"engine"},
	)

	ScoringRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scoring_retries_total",
			Help: "Total number of corrective model calls",
		},
	)
)
