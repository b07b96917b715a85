package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalysesTotal counts debt analyses performed per organization
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chreos_analyses_total",
			Help: "Total number of technical debt analyses performed",
		},
		[]string{"organization"},
	)

	// AnalysisDuration tracks how long an organization-wide analysis takes
	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chreos_analysis_duration_seconds",
			Help:    "Duration of organization-wide debt analyses in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// NotificationsTotal counts notification attempts by outcome
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chreos_notifications_total",
			Help: "Total number of notification attempts",
		},
		[]string{"outcome"},
	)

	// CacheRequestsTotal counts analytics cache lookups by result
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chreos_cache_requests_total",
			Help: "Total number of analytics cache lookups",
		},
		[]string{"result"},
	)
)
