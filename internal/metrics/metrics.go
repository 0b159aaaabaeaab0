package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OptimizationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_optimizations_total",
			Help: "Total number of optimize calls by algorithm and outcome",
		},
		[]string{"algorithm", "outcome"},
	)

	OptimizationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planner_optimization_duration_seconds",
			Help:    "Duration of optimize calls in seconds",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"algorithm"},
	)

	EstimatorCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_estimator_cache_lookups_total",
			Help: "Estimator cache lookups by tier and result",
		},
		[]string{"tier", "result"},
	)

	EstimatorCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "planner_estimator_cache_evictions_total",
			Help: "Entries evicted from the in-memory estimate cache",
		},
	)

	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_provider_calls_total",
			Help: "Routing provider calls by kind (single, matrix) and outcome",
		},
		[]string{"kind", "outcome"},
	)

	FallbackEstimates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "planner_fallback_estimates_total",
			Help: "Travel estimates produced by the fallback model",
		},
	)

	GeneticGenerations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "planner_genetic_generations",
			Help:    "Generations run per genetic optimization",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		},
	)

	GeneticFailedEvaluations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "planner_genetic_failed_evaluations_total",
			Help: "Fitness evaluations that errored and were floored",
		},
	)
)
