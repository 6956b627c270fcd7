package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned by NewExecutor for an unusable Config.
	ErrInvalidConfig = errors.New("invalid executor config")

	// ErrCancelled is returned when the caller's context ends mid-send.
	// It is never wrapped in a *Failure.
	ErrCancelled = errors.New("llm request cancelled")
)

// Failure is the only error a completed Send reports.
// StatusCode is 0 when the failure happened below HTTP (connection refused, reset, ...).
type Failure struct {
	Message    string
	StatusCode int
	Attempts   int
	Provider   string
	Retryable  bool

	// Err is the underlying cause, if any.
	Err error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// HasStatusCode reports whether the failure carries an HTTP status.
func (f *Failure) HasStatusCode() bool {
	return f.StatusCode != 0
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

func statusFailure(provider string, code int, body string) *Failure {
	return &Failure{
		Message:    fmt.Sprintf("API returned %d: %s", code, body),
		StatusCode: code,
		Provider:   provider,
	}
}

func transportFailure(provider string, err error) *Failure {
	return &Failure{
		Message:  err.Error(),
		Provider: provider,
		Err:      err,
	}
}

// exhausted wraps the last per-attempt failure once the budget is spent.
// Exhaustion is terminal regardless of how the last attempt was classified.
func exhausted(provider string, attempts int, last *Failure) *Failure {
	f := &Failure{
		Message:   fmt.Sprintf("llm request failed after %d attempts", attempts),
		Attempts:  attempts,
		Provider:  provider,
		Retryable: false,
	}
	if last != nil {
		f.Message = fmt.Sprintf("%s: %s", f.Message, last.Message)
		f.StatusCode = last.StatusCode
		f.Err = last
	}
	return f
}
