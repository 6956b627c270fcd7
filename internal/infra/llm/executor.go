// Package llm implements a retrying client for chat-completions endpoints.
//
// This package contains:
//   - Executor: the bounded attempt loop with exponential backoff
//   - Failure: the single structured error surfaced to callers
//   - Translate: tolerant mapping of a 2xx body into a Result
//   - Doer / Sleeper: the transport and delay ports injected at construction
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vietddude/llmclient/internal/core/domain"
	"github.com/vietddude/llmclient/internal/infra/llm/retry"
)

// Config is the immutable configuration of one Executor.
type Config struct {
	Provider string
	Model    string
	Endpoint string
	APIKey   string
	Retry    retry.Policy
}

// Option customizes an Executor.
type Option func(*Executor)

// WithLogger sets the logger used for attempt and retry logs.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver attaches an Observer (e.g. prometheus metrics).
func WithObserver(o Observer) Option {
	return func(e *Executor) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithClock replaces time.Now for elapsed-time measurement.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

// Executor sends completion requests with bounded retry.
// It holds only immutable configuration and is safe for concurrent use.
type Executor struct {
	cfg      Config
	doer     Doer
	sleep    Sleeper
	now      func() time.Time
	logger   *slog.Logger
	observer Observer
}

// NewExecutor validates cfg and builds an Executor around the given ports.
// A nil sleep falls back to the wall-clock Sleep.
func NewExecutor(cfg Config, doer Doer, sleep Sleeper, opts ...Option) (*Executor, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint is required", ErrInvalidConfig)
	}
	if cfg.Provider == "" {
		return nil, fmt.Errorf("%w: provider is required", ErrInvalidConfig)
	}
	if doer == nil {
		return nil, fmt.Errorf("%w: transport is required", ErrInvalidConfig)
	}
	if err := cfg.Retry.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if sleep == nil {
		sleep = Sleep
	}

	e := &Executor{
		cfg:      cfg,
		doer:     doer,
		sleep:    sleep,
		now:      time.Now,
		logger:   slog.Default(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ProviderName returns the configured provider label.
func (e *Executor) ProviderName() string {
	return e.cfg.Provider
}

// DefaultModel returns the model sent with every request.
func (e *Executor) DefaultModel() string {
	return e.cfg.Model
}

// attemptOutcome is the decision taken after a single attempt.
// Exactly one of result or failure is set, matching action.
type attemptOutcome struct {
	action  retry.Action
	result  *domain.Result
	failure *Failure
}

// Send performs one logical completion, retrying transient failures.
//
// The returned error is either a *Failure or, when ctx ends first, an error
// wrapping ErrCancelled.
func (e *Executor) Send(ctx context.Context, req domain.Request) (*domain.Result, error) {
	log := e.logger.With("request_id", uuid.NewString(), "provider", e.cfg.Provider)

	body, err := buildBody(e.cfg.Model, req)
	if err != nil {
		f := &Failure{Message: err.Error(), Attempts: 1, Provider: e.cfg.Provider, Err: err}
		return e.finish(log, nil, f)
	}

	attempts := e.cfg.Retry.Attempts()
	var last *Failure

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := e.cfg.Retry.Backoff(attempt)
			log.Warn("Retrying completion",
				"attempt", attempt+1,
				"max_attempts", attempts,
				"delay", delay,
				"last_error", last.Message,
			)
			e.observer.ObserveBackoff(e.cfg.Provider, delay)
			if err := e.sleep(ctx, delay); err != nil {
				return e.finish(log, nil, cancelled(err))
			}
		}

		out, err := e.attempt(ctx, log, body, attempt+1)
		if err != nil {
			return e.finish(log, nil, cancelled(err))
		}

		switch out.action {
		case retry.ActionSuccess:
			return e.finish(log, out.result, nil)
		case retry.ActionAbort:
			out.failure.Attempts = attempt + 1
			out.failure.Retryable = false
			return e.finish(log, nil, out.failure)
		default:
			last = out.failure
		}
	}

	return e.finish(log, nil, exhausted(e.cfg.Provider, attempts, last))
}

// attempt performs one transport call and classifies it.
// A non-nil error means the caller's context ended and the loop must stop.
func (e *Executor) attempt(
	ctx context.Context,
	log *slog.Logger,
	body []byte,
	number int,
) (attemptOutcome, error) {
	httpReq, err := e.newHTTPRequest(ctx, body)
	if err != nil {
		return attemptOutcome{
			action:  retry.ActionAbort,
			failure: &Failure{Message: err.Error(), Provider: e.cfg.Provider, Err: err},
		}, nil
	}

	start := e.now()
	resp, err := e.doer.Do(httpReq)
	latency := e.now().Sub(start)
	if latency < 0 {
		latency = 0
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return attemptOutcome{}, ctxErr
		}
		out := attemptOutcome{
			action:  retry.ClassifyTransportError(err),
			failure: transportFailure(e.cfg.Provider, fmt.Errorf("request failed: %w", err)),
		}
		e.report(log, number, 0, out.action, latency, err)
		return out, nil
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	action := retry.ClassifyStatus(resp.StatusCode)

	if action != retry.ActionSuccess {
		// Body text is best-effort context for the failure message.
		out := attemptOutcome{
			action:  action,
			failure: statusFailure(e.cfg.Provider, resp.StatusCode, string(data)),
		}
		e.report(log, number, resp.StatusCode, action, latency, nil)
		return out, nil
	}

	if readErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return attemptOutcome{}, ctxErr
		}
		err := fmt.Errorf("read response: %w", readErr)
		e.report(log, number, resp.StatusCode, retry.ActionRetry, latency, err)
		return attemptOutcome{action: retry.ActionRetry, failure: transportFailure(e.cfg.Provider, err)}, nil
	}

	result, err := Translate(data, latency)
	if err != nil {
		e.report(log, number, resp.StatusCode, retry.ActionRetry, latency, err)
		return attemptOutcome{action: retry.ActionRetry, failure: transportFailure(e.cfg.Provider, err)}, nil
	}

	e.report(log, number, resp.StatusCode, retry.ActionSuccess, latency, nil)
	return attemptOutcome{action: retry.ActionSuccess, result: result}, nil
}

func (e *Executor) report(
	log *slog.Logger,
	number, status int,
	action retry.Action,
	latency time.Duration,
	err error,
) {
	e.observer.ObserveAttempt(Attempt{
		Provider:   e.cfg.Provider,
		Number:     number,
		StatusCode: status,
		Action:     action.String(),
		Latency:    latency,
	})

	attrs := []any{"attempt", number, "status", status, "action", action.String(), "latency", latency}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	log.Debug("Completion attempt finished", attrs...)
}

func (e *Executor) finish(log *slog.Logger, res *domain.Result, err error) (*domain.Result, error) {
	e.observer.ObserveResult(e.cfg.Provider, res, err)

	if err == nil {
		log.Debug("Completion succeeded",
			"elapsed", res.Elapsed,
			"total_tokens", res.TokenUsage.Total,
		)
		return res, nil
	}

	if f, ok := AsFailure(err); ok {
		log.Error("Completion failed",
			"error", f.Message,
			"status", f.StatusCode,
			"attempts", f.Attempts,
		)
	} else {
		log.Warn("Completion cancelled", "error", err)
	}
	return nil, err
}

func cancelled(err error) error {
	if errors.Is(err, ErrCancelled) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrCancelled, err)
}
