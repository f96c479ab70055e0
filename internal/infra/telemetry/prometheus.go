package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"bolagsverket-mcp/internal/domain"
)

type PrometheusMetrics struct {
	toolCalls      *prometheus.CounterVec
	toolDuration   *prometheus.HistogramVec
	tokenFetches   *prometheus.CounterVec
	tokenDuration  *prometheus.HistogramVec
	remoteRequests *prometheus.CounterVec
	remoteDuration *prometheus.HistogramVec
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		toolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bolagsverket_tool_calls_total",
				Help: "Total number of tool calls by tool, outcome and error code",
			},
			[]string{"tool", "outcome", "code"},
		),
		toolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bolagsverket_tool_call_duration_seconds",
				Help:    "Duration of tool calls in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"tool", "outcome"},
		),
		tokenFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bolagsverket_token_fetches_total",
				Help: "Total number of bearer tokens handed out, by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		tokenDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bolagsverket_token_fetch_duration_seconds",
				Help:    "Duration of token endpoint round trips in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 15},
			},
			[]string{"outcome"},
		),
		remoteRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bolagsverket_remote_requests_total",
				Help: "Total number of registry API requests by operation and HTTP status",
			},
			[]string{"operation", "status"},
		),
		remoteDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bolagsverket_remote_request_duration_seconds",
				Help:    "Duration of registry API requests in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),
	}
}

func (p *PrometheusMetrics) ObserveToolCall(metric domain.ToolCallMetric) {
	outcome := string(metric.Outcome)
	if outcome == "" {
		outcome = string(domain.OutcomeSuccess)
	}
	p.toolCalls.WithLabelValues(metric.Tool, outcome, string(metric.Code)).Inc()
	p.toolDuration.WithLabelValues(metric.Tool, outcome).Observe(metric.Duration.Seconds())
}

func (p *PrometheusMetrics) ObserveTokenFetch(source domain.TokenFetchSource, duration time.Duration, err error) {
	outcome := string(domain.OutcomeOf(err))
	p.tokenFetches.WithLabelValues(string(source), outcome).Inc()
	if source == domain.TokenSourceNetwork {
		p.tokenDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	}
}

// ObserveRemoteRequest records a registry call. Status 0 means no response was received.
func (p *PrometheusMetrics) ObserveRemoteRequest(operation string, status int, duration time.Duration) {
	label := "none"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	p.remoteRequests.WithLabelValues(operation, label).Inc()
	p.remoteDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
