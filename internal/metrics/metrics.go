package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vietddude/llmclient/internal/core/domain"
	"github.com/vietddude/llmclient/internal/infra/llm"
)

var (
	// AttemptsTotal tracks transport attempts per provider and loop decision
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llmclient_attempts_total",
			Help: "Total number of completion attempts",
		},
		[]string{"provider", "action", "status"},
	)

	// AttemptLatency tracks the duration of single transport calls
	AttemptLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llmclient_attempt_latency_seconds",
			Help:    "Completion attempt latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)

	// BackoffSecondsTotal accumulates time spent waiting between attempts
	BackoffSecondsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llmclient_backoff_seconds_total",
			Help: "Total time spent in retry backoff",
		},
		[]string{"provider"},
	)

	// RequestsTotal tracks finished Send calls by result
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llmclient_requests_total",
			Help: "Total number of completion requests",
		},
		[]string{"provider", "result"},
	)

	// TokensTotal tracks reported token usage
	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llmclient_tokens_total",
			Help: "Total tokens reported by the provider",
		},
		[]string{"provider", "kind"},
	)
)

// Observer records executor events into the package-level collectors.
type Observer struct{}

var _ llm.Observer = Observer{}

func (Observer) ObserveAttempt(a llm.Attempt) {
	status := "none"
	if a.StatusCode != 0 {
		status = strconv.Itoa(a.StatusCode)
	}
	AttemptsTotal.WithLabelValues(a.Provider, a.Action, status).Inc()
	AttemptLatency.WithLabelValues(a.Provider).Observe(a.Latency.Seconds())
}

func (Observer) ObserveBackoff(provider string, delay time.Duration) {
	// Counters panic on negative increments.
	if delay <= 0 {
		return
	}
	BackoffSecondsTotal.WithLabelValues(provider).Add(delay.Seconds())
}

func (Observer) ObserveResult(provider string, res *domain.Result, err error) {
	RequestsTotal.WithLabelValues(provider, resultLabel(err)).Inc()
	if res == nil {
		return
	}
	TokensTotal.WithLabelValues(provider, "prompt").Add(float64(res.TokenUsage.Prompt))
	TokensTotal.WithLabelValues(provider, "completion").Add(float64(res.TokenUsage.Completion))
}

func resultLabel(err error) string {
	if err == nil {
		return "success"
	}
	if _, ok := llm.AsFailure(err); ok {
		return "failure"
	}
	return "cancelled"
}
