// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors on a private registry. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	registry *prometheus.Registry

	// Pipeline metrics
	Analyses          *prometheus.CounterVec
	Transcriptions    *prometheus.CounterVec
	InferenceDuration prometheus.Histogram
	InferenceFailures *prometheus.CounterVec

	// Notification metrics
	Notifications *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Analyses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fraudshield_analyses_total",
			Help: "Completed call analyses by classification",
		}, []string{"classification"}),
		Transcriptions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fraudshield_transcriptions_total",
			Help: "Transcription requests by outcome",
		}, []string{"outcome"}),
		InferenceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fraudshield_inference_duration_seconds",
			Help:    "Time from upload to generated text",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4 minutes
		}),
		InferenceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fraudshield_inference_failures_total",
			Help: "Inference failures by pipeline stage",
		}, []string{"stage"}),

		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fraudshield_notifications_total",
			Help: "Emails sent by kind and outcome",
		}, []string{"kind", "outcome"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fraudshield_http_requests_total",
			Help: "HTTP requests by method and status code",
		}, []string{"method", "status"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecordAnalysis(classification string) {
	if m == nil {
		return
	}
	m.Analyses.WithLabelValues(classification).Inc()
}

func (m *Metrics) RecordTranscription(outcome string) {
	if m == nil {
		return
	}
	m.Transcriptions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveInference(d time.Duration) {
	if m == nil {
		return
	}
	m.InferenceDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordInferenceFailure(stage string) {
	if m == nil {
		return
	}
	m.InferenceFailures.WithLabelValues(stage).Inc()
}

func (m *Metrics) RecordNotification(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.Notifications.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) RecordHTTPRequest(method string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
