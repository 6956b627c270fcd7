// Package retry holds the retry policy and status classification used by the
// completion executor.
package retry

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"
)

// ErrInvalidPolicy is returned by Validate for out-of-range policies.
var ErrInvalidPolicy = errors.New("invalid retry policy")

// Policy defines retry behavior for one executor.
type Policy struct {
	MaxRetries        int           `yaml:"max_retries"`
	BaseDelay         time.Duration `yaml:"base_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// DefaultPolicy mirrors the provider defaults: 3 retries, 1s base, doubling.
var DefaultPolicy = Policy{
	MaxRetries:        3,
	BaseDelay:         1 * time.Second,
	BackoffMultiplier: 2.0,
}

// Validate checks MaxRetries >= 0, BaseDelay >= 0 and a finite BackoffMultiplier >= 1.
func (p Policy) Validate() error {
	if p.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries %d < 0", ErrInvalidPolicy, p.MaxRetries)
	}
	if p.BaseDelay < 0 {
		return fmt.Errorf("%w: base delay %v < 0", ErrInvalidPolicy, p.BaseDelay)
	}
	if math.IsNaN(p.BackoffMultiplier) || math.IsInf(p.BackoffMultiplier, 0) || p.BackoffMultiplier < 1 {
		return fmt.Errorf("%w: backoff multiplier %v < 1", ErrInvalidPolicy, p.BackoffMultiplier)
	}
	return nil
}

// Attempts returns the total number of attempts the policy allows.
func (p Policy) Attempts() int {
	return p.MaxRetries + 1
}

// Backoff returns the delay to wait before the given zero-based attempt.
// The first attempt is never delayed, and a zero base delay stays zero.
// Delays that do not fit in a Duration saturate at its maximum.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt <= 0 || p.BaseDelay <= 0 {
		return 0
	}
	delay := float64(p.BaseDelay) * math.Pow(p.BackoffMultiplier, float64(attempt-1))
	if delay >= float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}

// Action is the loop decision for a single attempt.
type Action int

const (
	ActionSuccess Action = iota
	ActionRetry
	ActionAbort
)

func (a Action) String() string {
	switch a {
	case ActionSuccess:
		return "success"
	case ActionRetry:
		return "retry"
	case ActionAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// IsSuccessStatus reports whether code is in [200,300).
func IsSuccessStatus(code int) bool {
	return code >= 200 && code < 300
}

// IsRetryableStatus reports whether a non-success status is worth replaying.
// 429 and 5xx are transient; every other 4xx will fail the same way again.
func IsRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// ClassifyStatus maps an HTTP status code to the loop action.
func ClassifyStatus(code int) Action {
	if IsSuccessStatus(code) {
		return ActionSuccess
	}
	if IsRetryableStatus(code) {
		return ActionRetry
	}
	return ActionAbort
}

// ClassifyTransportError handles failures that produced no status code.
// Network blips are assumed transient.
func ClassifyTransportError(err error) Action {
	return ActionRetry
}
