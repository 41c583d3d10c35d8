package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Attribution computation metrics
	ComputationsTotal      *prometheus.CounterVec
	ComputationDuration    *prometheus.HistogramVec
	ComputationsInFlight   prometheus.Gauge
	TouchpointsPerJourney  prometheus.Histogram
	ModelFallbacksTotal    *prometheus.CounterVec
	ZeroCreditAnomalies    prometheus.Counter

	// Batch recalculation metrics
	RecalculationsTotal       *prometheus.CounterVec
	RecalculationDuration     *prometheus.HistogramVec
	RecalculatedConversions   *prometheus.CounterVec

	// Result query / export metrics
	ResultQueriesTotal *prometheus.CounterVec
	SinkCallsTotal     *prometheus.CounterVec
	SinkCallDuration   *prometheus.HistogramVec
	SinkFailuresTotal  *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		ComputationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attribution_computations_total",
				Help: "Total number of attribution computations",
			},
			[]string{"model", "status"},
		),

		ComputationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "attribution_computation_duration_seconds",
				Help:    "Attribution computation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model"},
		),

		ComputationsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "attribution_computations_in_flight",
				Help: "Number of attribution computations currently running",
			},
		),

		TouchpointsPerJourney: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "attribution_touchpoints_per_journey",
				Help:    "Number of touchpoints selected per conversion journey",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
			},
		),

		ModelFallbacksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attribution_model_fallbacks_total",
				Help: "Computations where an unimplemented model fell back to last_touch",
			},
			[]string{"requested_model"},
		),

		ZeroCreditAnomalies: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "attribution_zero_credit_anomalies_total",
				Help: "Results where all channel weights resolved to zero",
			},
		),

		RecalculationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attribution_recalculations_total",
				Help: "Total number of batch recalculation runs",
			},
			[]string{"status"},
		),

		RecalculationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "attribution_recalculation_duration_seconds",
				Help:    "Batch recalculation duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"status"},
		),

		RecalculatedConversions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attribution_recalculated_conversions_total",
				Help: "Conversions processed by batch recalculation",
			},
			[]string{"status"},
		),

		ResultQueriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attribution_result_queries_total",
				Help: "Total number of attribution result queries",
			},
			[]string{"kind"},
		),

		SinkCallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attribution_sink_calls_total",
				Help: "Total number of export sink calls",
			},
			[]string{"status"},
		),

		SinkCallDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "attribution_sink_call_duration_seconds",
				Help:    "Export sink call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),

		SinkFailuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attribution_sink_failures_total",
				Help: "Total number of export sink failures",
			},
			[]string{"error_type"},
		),
	}
}

// HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// Attribution computation metrics
func (m *Metrics) RecordComputation(model, status string, duration time.Duration) {
	m.ComputationsTotal.WithLabelValues(model, status).Inc()
	m.ComputationDuration.WithLabelValues(model).Observe(duration.Seconds())
}

func (m *Metrics) IncComputationsInFlight() {
	m.ComputationsInFlight.Inc()
}

func (m *Metrics) DecComputationsInFlight() {
	m.ComputationsInFlight.Dec()
}

func (m *Metrics) RecordTouchpointsSelected(count int) {
	m.TouchpointsPerJourney.Observe(float64(count))
}

func (m *Metrics) RecordModelFallback(requestedModel string) {
	m.ModelFallbacksTotal.WithLabelValues(requestedModel).Inc()
}

func (m *Metrics) RecordZeroCreditAnomaly() {
	m.ZeroCreditAnomalies.Inc()
}

// Batch recalculation metrics
func (m *Metrics) RecordRecalculation(status string, duration time.Duration) {
	m.RecalculationsTotal.WithLabelValues(status).Inc()
	m.RecalculationDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (m *Metrics) RecordRecalculatedConversions(status string, count int) {
	m.RecalculatedConversions.WithLabelValues(status).Add(float64(count))
}

// Result query metrics
func (m *Metrics) RecordResultQuery(kind string) {
	m.ResultQueriesTotal.WithLabelValues(kind).Inc()
}

// Export sink metrics
func (m *Metrics) RecordSinkCall(status string, duration time.Duration) {
	m.SinkCallsTotal.WithLabelValues(status).Inc()
	m.SinkCallDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (m *Metrics) RecordSinkFailure(errorType string) {
	m.SinkFailuresTotal.WithLabelValues(errorType).Inc()
}
