package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts readings API requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensor_api_requests_total",
			Help: "Total number of readings API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration readings API latency
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sensor_api_request_duration_seconds",
			Help:    "Readings API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ReadingsExtracted readings kept after the day filter
	ReadingsExtracted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "etl_readings_extracted_total",
			Help: "Total number of raw readings extracted",
		},
	)

	// ExtractionFailures source failures absorbed as empty days
	ExtractionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_extraction_failures_total",
			Help: "Total number of extraction failures by kind",
		},
		[]string{"kind"},
	)

	// AggregatesComputed one per window and signal
	AggregatesComputed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "etl_aggregates_computed_total",
			Help: "Total number of window aggregates computed",
		},
	)

	// RowsWritten narrow rows persisted to the target
	RowsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "etl_rows_written_total",
			Help: "Total number of statistic rows written to the target",
		},
	)

	// RunsTotal finished runs by outcome
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_runs_total",
			Help: "Total number of ETL runs by outcome",
		},
		[]string{"outcome"},
	)

	// RunDuration end-to-end time of one day
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "etl_run_duration_seconds",
			Help:    "ETL run duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// WebsocketClients connected live feed clients
	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sensor_ws_clients",
			Help: "Number of connected websocket clients",
		},
	)
)
