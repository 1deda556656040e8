package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds the Prometheus counters, histograms, and gauges for one sync
// run. The process is run-to-completion, so values reach a scraper through a
// Pushgateway rather than a /metrics endpoint.
type Metrics struct {
	// HTTP metrics, labeled by endpoint={listing,data}.
	HTTPRequests        *prometheus.CounterVec // labels: endpoint, outcome={success,transient,error}
	HTTPRetries         *prometheus.CounterVec // labels: endpoint
	HTTPRequestDuration *prometheus.HistogramVec

	// Row accounting across decode and build.
	RowsDecoded   prometheus.Counter
	RowsSkipped   prometheus.Counter
	FeaturesBuilt prometheus.Counter

	// Whole-run outcome.
	RunDuration  prometheus.Histogram
	RunSuccess   prometheus.Gauge
	LastRunEpoch prometheus.Gauge
}

// NewMetrics creates and registers all sync metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kobo_etl",
			Name:      "http_requests_total",
			Help:      "Kobo API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		HTTPRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kobo_etl",
			Name:      "http_retries_total",
			Help:      "Retries performed after transient Kobo failures.",
		}, []string{"endpoint"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kobo_etl",
			Name:      "http_request_duration_seconds",
			Help:      "Kobo API request duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 240},
		}, []string{"endpoint"}),
		RowsDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kobo_etl",
			Name:      "rows_decoded_total",
			Help:      "Submission rows decoded from the export.",
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kobo_etl",
			Name:      "rows_skipped_total",
			Help:      "Rows dropped for lacking a resolvable location.",
		}),
		FeaturesBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kobo_etl",
			Name:      "features_built_total",
			Help:      "GeoJSON features written to the portal documents.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kobo_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-decode-build-write run.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		RunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kobo_etl",
			Name:      "run_success",
			Help:      "1 when the last run completed, 0 when it failed.",
		}),
		LastRunEpoch: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kobo_etl",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed run.",
		}),
	}

	prometheus.MustRegister(
		m.HTTPRequests,
		m.HTTPRetries,
		m.HTTPRequestDuration,
		m.RowsDecoded,
		m.RowsSkipped,
		m.FeaturesBuilt,
		m.RunDuration,
		m.RunSuccess,
		m.LastRunEpoch,
	)

	return m
}

// NewMetricsForTesting creates Metrics with no registration to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		HTTPRequests:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "kobo_etl", Name: "http_requests_total"}, []string{"endpoint", "outcome"}),
		HTTPRetries:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "kobo_etl", Name: "http_retries_total"}, []string{"endpoint"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "kobo_etl", Name: "http_request_duration_seconds"}, []string{"endpoint"}),
		RowsDecoded:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "kobo_etl", Name: "rows_decoded_total"}),
		RowsSkipped:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "kobo_etl", Name: "rows_skipped_total"}),
		FeaturesBuilt:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "kobo_etl", Name: "features_built_total"}),
		RunDuration:         prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "kobo_etl", Name: "run_duration_seconds"}),
		RunSuccess:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "kobo_etl", Name: "run_success"}),
		LastRunEpoch:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "kobo_etl", Name: "last_run_timestamp_seconds"}),
	}
}

// PushMetrics delivers everything in the default registry to a Pushgateway
// under the given job name, replacing the job's previous metric group.
func PushMetrics(ctx context.Context, url, job string) error {
	return push.New(url, job).Gatherer(prometheus.DefaultGatherer).PushContext(ctx)
}
