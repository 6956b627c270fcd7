package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vietddude/llmclient/internal/core/domain"
	"github.com/vietddude/llmclient/internal/infra/llm"
	"github.com/vietddude/llmclient/internal/infra/llm/retry"
)

func TestObserver_Attempt(t *testing.T) {
	o := Observer{}
	before := testutil.ToFloat64(AttemptsTotal.WithLabelValues("metrics-attempt", "retry", "503"))

	o.ObserveAttempt(llm.Attempt{Provider: "metrics-attempt", Number: 1, StatusCode: 503, Action: "retry", Latency: time.Second})

	after := testutil.ToFloat64(AttemptsTotal.WithLabelValues("metrics-attempt", "retry", "503"))
	if after-before != 1 {
		t.Errorf("expected attempts counter to grow by 1, got %v", after-before)
	}
}

func TestObserver_TransportAttemptHasNoStatus(t *testing.T) {
	o := Observer{}
	o.ObserveAttempt(llm.Attempt{Provider: "metrics-transport", Action: "retry"})

	if got := testutil.ToFloat64(AttemptsTotal.WithLabelValues("metrics-transport", "retry", "none")); got != 1 {
		t.Errorf("expected 1 attempt with status none, got %v", got)
	}
}

func TestObserver_BackoffAndTokens(t *testing.T) {
	o := Observer{}
	o.ObserveBackoff("metrics-tokens", 1500*time.Millisecond)
	o.ObserveResult("metrics-tokens", &domain.Result{
		TokenUsage: domain.TokenUsage{Prompt: 10, Completion: 5, Total: 15},
	}, nil)

	if got := testutil.ToFloat64(BackoffSecondsTotal.WithLabelValues("metrics-tokens")); got != 1.5 {
		t.Errorf("expected 1.5s backoff, got %v", got)
	}
	if got := testutil.ToFloat64(TokensTotal.WithLabelValues("metrics-tokens", "prompt")); got != 10 {
		t.Errorf("expected 10 prompt tokens, got %v", got)
	}
	if got := testutil.ToFloat64(RequestsTotal.WithLabelValues("metrics-tokens", "success")); got != 1 {
		t.Errorf("expected 1 success, got %v", got)
	}
}

func TestObserver_NonPositiveBackoffIgnored(t *testing.T) {
	o := Observer{}
	o.ObserveBackoff("metrics-zero-backoff", 0)
	o.ObserveBackoff("metrics-zero-backoff", -time.Second)

	if got := testutil.ToFloat64(BackoffSecondsTotal.WithLabelValues("metrics-zero-backoff")); got != 0 {
		t.Errorf("expected no backoff recorded, got %v", got)
	}
}

func TestObserver_ZeroBaseDelayExecutorDoesNotPanic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := llm.Config{
		Provider: "metrics-zero-base",
		Model:    "gpt-4",
		Endpoint: srv.URL,
		Retry:    retry.Policy{MaxRetries: 3, BaseDelay: 0, BackoffMultiplier: 1e200},
	}
	e, err := llm.NewExecutor(cfg, srv.Client(), nil, llm.WithObserver(Observer{}))
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}

	_, err = e.Send(context.Background(), domain.Request{Prompt: "x"})
	f, ok := llm.AsFailure(err)
	if !ok {
		t.Fatalf("expected *llm.Failure, got %v", err)
	}
	if f.Attempts != 4 {
		t.Errorf("expected 4 attempts, got %d", f.Attempts)
	}
	if got := testutil.ToFloat64(BackoffSecondsTotal.WithLabelValues("metrics-zero-base")); got != 0 {
		t.Errorf("expected zero backoff seconds, got %v", got)
	}
	if got := testutil.ToFloat64(AttemptsTotal.WithLabelValues("metrics-zero-base", "retry", "503")); got != 4 {
		t.Errorf("expected 4 retry attempts, got %v", got)
	}
}

func TestResultLabel(t *testing.T) {
	tests := []struct {
		err    error
		expect string
	}{
		{nil, "success"},
		{&llm.Failure{Attempts: 1}, "failure"},
		{fmt.Errorf("wrapped: %w", &llm.Failure{Attempts: 4}), "failure"},
		{fmt.Errorf("%w: %w", llm.ErrCancelled, context.Canceled), "cancelled"},
		{errors.New("other"), "cancelled"},
	}

	for _, tt := range tests {
		if got := resultLabel(tt.err); got != tt.expect {
			t.Errorf("resultLabel(%v) = %q, want %q", tt.err, got, tt.expect)
		}
	}
}
