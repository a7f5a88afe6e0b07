package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "campcast"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// forecast service and its request pipeline.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Upstream KMA metrics.
	FetchRequests *prometheus.CounterVec   // labels: source, outcome={success,empty,error}
	FetchDuration *prometheus.HistogramVec // labels: source
	FetchRetries  *prometheus.CounterVec   // labels: source
	SlotFallbacks *prometheus.CounterVec   // labels: source
	CacheLookups  *prometheus.CounterVec   // labels: source, result={hit,miss}

	// Fusion metrics.
	ForecastDays         *prometheus.CounterVec // labels: resolution={hourly,outlook,none}
	ForecastsUnavailable prometheus.Counter
	RefreshRuns          *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.FetchRequests,
		m.FetchDuration,
		m.FetchRetries,
		m.SlotFallbacks,
		m.CacheLookups,
		m.ForecastDays,
		m.ForecastsUnavailable,
		m.RefreshRuns,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      help("Total forecast requests read from the source topic."),
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      help("Total forecasts written to the sink topic."),
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      help("Total requests that could not be turned into a forecast."),
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      help("1 when the request pipeline is active, 0 when shut down."),
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      help("Number of requests per batch extracted from Kafka."),
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      help("Duration of a complete batch extract-forecast-load cycle."),
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kma_requests_total",
			Help:      help("KMA API requests by source and outcome."),
		}, []string{"source", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kma_request_duration_seconds",
			Help:      help("KMA API request duration in seconds."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15, 30},
		}, []string{"source"}),
		FetchRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kma_retries_total",
			Help:      help("Retried KMA requests by source."),
		}, []string{"source"}),
		SlotFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_fallbacks_total",
			Help:      help("Queries repeated against an older broadcast slot."),
		}, []string{"source"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      help("Read-through cache lookups by source and result."),
		}, []string{"source", "result"}),
		ForecastDays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_days_total",
			Help:      help("Fused daily records by resolution."),
		}, []string{"resolution"}),
		ForecastsUnavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecasts_unavailable_total",
			Help:      help("Requests for which no source produced data."),
		}),
		RefreshRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_runs_total",
			Help:      help("Scheduled cache refreshes by outcome."),
		}, []string{"outcome"}),
	}
}
