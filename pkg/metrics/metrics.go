package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hotelpulse_build_info",
			Help: "Build information of hotelpulse",
		},
		[]string{"version", "commit", "date"},
	)

	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotelpulse_sync_runs_total",
			Help: "Total number of spreadsheet syncs",
		},
		[]string{"status"},
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hotelpulse_sync_duration_seconds",
			Help:    "Duration of spreadsheet syncs",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	SyncRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hotelpulse_sync_rows",
			Help: "Number of snapshot rows written by the last successful sync",
		},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hotelpulse_pipeline_stage_duration_seconds",
			Help:    "Duration of question pipeline stages",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
		[]string{"stage"},
	)

	PipelineRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotelpulse_pipeline_requests_total",
			Help: "Total number of questions answered, by outcome",
		},
		[]string{"outcome"},
	)

	DashboardCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotelpulse_dashboard_cache_total",
			Help: "Dashboard aggregate cache lookups",
		},
		[]string{"kind", "result"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotelpulse_http_requests_total",
			Help: "Total number of HTTP API requests",
		},
		[]string{"route", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hotelpulse_http_request_duration_seconds",
			Help:    "Duration of HTTP API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)
