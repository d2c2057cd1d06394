package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "work_orders"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Weather batch metrics.
	WeatherBatches       prometheus.Counter
	WeatherBatchSize     prometheus.Histogram
	WeatherBatchDuration prometheus.Histogram
	ZipOutcomes          *prometheus.CounterVec // labels: outcome={alerts,no_alerts,unresolved,alert_error}

	// Coordinate cache metrics.
	CoordinateCache     *prometheus.CounterVec // labels: result={hit,miss,error}
	CoordinateMemo      *prometheus.CounterVec // labels: result={hit,miss}
	CoordinateFillError prometheus.Counter

	// Weather service metrics.
	WeatherRequests    *prometheus.CounterVec   // labels: method={geocode,alerts}, outcome={success,error}
	WeatherAPIDuration *prometheus.HistogramVec // labels: method={geocode,alerts}
	WeatherBreakerOpen prometheus.Gauge

	// Result publishing metrics.
	ResultsPublished prometheus.Counter
	PublishErrors    prometheus.Counter

	// Work order metrics.
	WorkOrderOps *prometheus.CounterVec // labels: op={create,get,update,delete,list}, outcome={success,error}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		WeatherBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_batches_total",
			Help:      "Total weather alert batch requests aggregated.",
		}),
		WeatherBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weather_batch_size",
			Help:      "Number of zip codes per weather alert batch.",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100, 250},
		}),
		WeatherBatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weather_batch_duration_seconds",
			Help:      "Duration of a complete weather alert batch.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ZipOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_zip_outcomes_total",
			Help:      "Per-zip aggregation outcomes.",
		}, []string{"outcome"}),
		CoordinateCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coordinate_cache_total",
			Help:      "Coordinate cache lookups by result.",
		}, []string{"result"}),
		CoordinateMemo: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coordinate_memo_total",
			Help:      "In-process coordinate memo lookups by result.",
		}, []string{"result"}),
		CoordinateFillError: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coordinate_fill_errors_total",
			Help:      "Resolved coordinates that could not be written to the cache.",
		}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_requests_total",
			Help:      "Weather service requests by method and outcome.",
		}, []string{"method", "outcome"}),
		WeatherAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weather_api_duration_seconds",
			Help:      "Weather service request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		WeatherBreakerOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "weather_breaker_open",
			Help:      "1 when the weather service circuit breaker is open, 0 otherwise.",
		}),
		ResultsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_results_published_total",
			Help:      "Per-zip alert results published to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_publish_errors_total",
			Help:      "Batch result publish failures.",
		}),
		WorkOrderOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "work_order_operations_total",
			Help:      "Work order operations by type and outcome.",
		}, []string{"op", "outcome"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.WeatherBatches,
		m.WeatherBatchSize,
		m.WeatherBatchDuration,
		m.ZipOutcomes,
		m.CoordinateCache,
		m.CoordinateMemo,
		m.CoordinateFillError,
		m.WeatherRequests,
		m.WeatherAPIDuration,
		m.WeatherBreakerOpen,
		m.ResultsPublished,
		m.PublishErrors,
		m.WorkOrderOps,
	}
}
