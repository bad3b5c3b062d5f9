package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the voice bridge
type Metrics struct {
	// Pipeline metrics
	RequestsTotal   *prometheus.CounterVec
	Failures        *prometheus.CounterVec
	PipelineLatency prometheus.Histogram
	InFlight        prometheus.Gauge

	// Stage metrics
	StageDuration *prometheus.HistogramVec
	Substitutions prometheus.Counter

	// Audio metrics
	InputBytes  prometheus.Histogram
	OutputBytes *prometheus.HistogramVec

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates all metrics and registers them with reg.
// A nil reg means prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicebridge_pipeline_requests_total",
			Help: "Total number of pipeline runs by source container and outcome",
		}, []string{"source", "outcome"}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicebridge_pipeline_failures_total",
			Help: "Total number of failed pipeline runs by stage and kind",
		}, []string{"stage", "kind"}),
		PipelineLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicebridge_pipeline_duration_seconds",
			Help:    "End to end duration of pipeline runs",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1 minute
		}),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voicebridge_pipeline_in_flight",
			Help: "Current number of pipeline runs in progress",
		}),

		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voicebridge_stage_duration_seconds",
			Help:    "Duration of individual pipeline stages",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		}, []string{"stage", "provider"}),
		Substitutions: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicebridge_transcript_substitutions_total",
			Help: "Total number of failed transcriptions replaced by the placeholder",
		}),

		InputBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicebridge_input_bytes",
			Help:    "Size of inbound audio payloads in bytes",
			Buckets: prometheus.ExponentialBuckets(4096, 2, 10), // 4KB to ~2MB
		}),
		OutputBytes: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voicebridge_output_bytes",
			Help:    "Size of synthesized audio responses in bytes",
			Buckets: prometheus.ExponentialBuckets(4096, 2, 10),
		}, []string{"container"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicebridge_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voicebridge_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}
}

// RecordRequest records a pipeline run with its outcome
func (m *Metrics) RecordRequest(source, outcome string, durationSeconds float64) {
	m.RequestsTotal.WithLabelValues(source, outcome).Inc()
	m.PipelineLatency.Observe(durationSeconds)
}

// RecordFailure increments the failure counter for a stage and kind
func (m *Metrics) RecordFailure(stage, kind string) {
	m.Failures.WithLabelValues(stage, kind).Inc()
}

// RecordStage records how long a stage took
func (m *Metrics) RecordStage(stage, provider string, durationSeconds float64) {
	m.StageDuration.WithLabelValues(stage, provider).Observe(durationSeconds)
}

// RecordSubstitution increments the placeholder substitution counter
func (m *Metrics) RecordSubstitution() {
	m.Substitutions.Inc()
}

// RecordInput records the size of an inbound payload
func (m *Metrics) RecordInput(sizeBytes int) {
	m.InputBytes.Observe(float64(sizeBytes))
}

// RecordOutput records the size of a response body
func (m *Metrics) RecordOutput(container string, sizeBytes int) {
	m.OutputBytes.WithLabelValues(container).Observe(float64(sizeBytes))
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}
