// Package metrics provides Prometheus-based metrics recording for LLM operations.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder implements the Recorder interface using Prometheus metrics.
type PrometheusRecorder struct {
	requestsTotal   *prometheus.CounterVec
	tokensTotal     *prometheus.CounterVec
	costsTotal      *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

//nolint:gochecknoglobals // promauto registers in the default registry once
var (
	defaultRecorder     *PrometheusRecorder
	defaultRecorderOnce sync.Once
)

// Default returns the process-wide Prometheus recorder. Metrics register in
// the default registry, so a singleton avoids duplicate registration panics.
func Default() *PrometheusRecorder {
	defaultRecorderOnce.Do(func() {
		defaultRecorder = newPrometheusRecorder()
	})
	return defaultRecorder
}

func newPrometheusRecorder() *PrometheusRecorder {
	return &PrometheusRecorder{
		requestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total number of LLM requests by model, pipeline, agent, and status",
			},
			[]string{"model", "pipeline", "agent", "status", "error_type"},
		),
		tokensTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Total number of tokens used in LLM requests",
			},
			[]string{"model", "pipeline", "agent", "type"},
		),
		costsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_costs_total",
				Help: "Total cost in USD for LLM requests",
			},
			[]string{"model", "pipeline", "agent"},
		),
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_request_duration_seconds",
				Help:    "Duration of LLM requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model", "pipeline", "agent"},
		),
	}
}

// ObserveRequest records metrics for a completed LLM request.
func (p *PrometheusRecorder) ObserveRequest(
	model, pipeline, agent string,
	promptTokens, completionTokens int,
	cost float64,
	success bool,
	errorType string,
	duration time.Duration,
) {
	status := "success"
	if !success {
		status = "error"
	}

	p.requestsTotal.WithLabelValues(model, pipeline, agent, status, errorType).Inc()

	if success {
		p.tokensTotal.WithLabelValues(model, pipeline, agent, "prompt").Add(float64(promptTokens))
		p.tokensTotal.WithLabelValues(model, pipeline, agent, "completion").Add(float64(completionTokens))
		p.costsTotal.WithLabelValues(model, pipeline, agent).Add(cost)
	}

	p.requestDuration.WithLabelValues(model, pipeline, agent).Observe(duration.Seconds())
}
