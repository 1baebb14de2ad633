package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "scribe"

// Metrics holds the Prometheus collectors for the transcription pipeline and
// the HTTP front end. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Pipeline
	TranscriptionsStarted  prometheus.Counter
	TranscriptionsFinished *prometheus.CounterVec
	AudioSeconds           prometheus.Counter
	CostUSD                prometheus.Counter
	ChunksSubmitted        prometheus.Counter
	ChunkFailures          prometheus.Counter
	ChunkDuration          prometheus.Histogram
	SplitDuration          prometheus.Histogram

	// Jobs
	ActiveJobs prometheus.Gauge

	// HTTP API
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates all collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TranscriptionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcriptions_started_total",
			Help:      "Total number of transcription requests started",
		}),
		TranscriptionsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcriptions_finished_total",
			Help:      "Total number of transcription requests finished, by outcome",
		}, []string{"status"}),
		AudioSeconds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_seconds_total",
			Help:      "Seconds of audio accepted for transcription",
		}),
		CostUSD: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "estimated_cost_usd_total",
			Help:      "Estimated API spend in USD",
		}),
		ChunksSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_submitted_total",
			Help:      "Total number of chunks sent to the remote API",
		}),
		ChunkFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_failures_total",
			Help:      "Total number of failed remote chunk calls",
		}),
		ChunkDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_request_duration_seconds",
			Help:      "Latency of a single remote chunk call",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4 minutes
		}),
		SplitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "split_duration_seconds",
			Help:      "Time spent encoding chunks",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		ActiveJobs: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_jobs",
			Help:      "Transcription jobs currently running in the server",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}
}

// RecordStart counts a started transcription and its estimated size.
func (m *Metrics) RecordStart(audioSeconds, costUSD float64) {
	if m == nil {
		return
	}
	m.TranscriptionsStarted.Inc()
	m.AudioSeconds.Add(audioSeconds)
	m.CostUSD.Add(costUSD)
}

// RecordFinish counts a finished transcription by outcome.
func (m *Metrics) RecordFinish(status string) {
	if m == nil {
		return
	}
	m.TranscriptionsFinished.WithLabelValues(status).Inc()
}

// RecordChunk records one remote chunk call.
func (m *Metrics) RecordChunk(seconds float64, err error) {
	if m == nil {
		return
	}
	m.ChunksSubmitted.Inc()
	m.ChunkDuration.Observe(seconds)
	if err != nil {
		m.ChunkFailures.Inc()
	}
}

// RecordSplit records the time spent encoding chunks.
func (m *Metrics) RecordSplit(seconds float64) {
	if m == nil {
		return
	}
	m.SplitDuration.Observe(seconds)
}

// JobStarted increments the active job gauge.
func (m *Metrics) JobStarted() {
	if m == nil {
		return
	}
	m.ActiveJobs.Inc()
}

// JobDone decrements the active job gauge.
func (m *Metrics) JobDone() {
	if m == nil {
		return
	}
	m.ActiveJobs.Dec()
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}
