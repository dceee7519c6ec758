package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sprint_planner_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sprint_planner_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	PlansGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sprint_planner_plans_generated_total",
			Help: "Total number of sprint plans generated",
		},
	)

	RecommendedPoints = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sprint_planner_recommended_points",
			Help:    "Distribution of recommended story points",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34, 55, 89},
		},
	)

	StorageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sprint_planner_storage_errors_total",
			Help: "Total number of storage operation failures",
		},
		[]string{"operation"},
	)
)
