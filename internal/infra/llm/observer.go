package llm

import (
	"time"

	"github.com/vietddude/llmclient/internal/core/domain"
)

// Attempt describes one finished transport call.
type Attempt struct {
	Provider   string
	Number     int // 1-based
	StatusCode int // 0 for transport-level failures
	Action     string
	Latency    time.Duration
}

// Observer receives per-attempt and per-send notifications.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveAttempt(a Attempt)
	ObserveBackoff(provider string, delay time.Duration)
	ObserveResult(provider string, res *domain.Result, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveAttempt(Attempt)                      {}
func (nopObserver) ObserveBackoff(string, time.Duration)        {}
func (nopObserver) ObserveResult(string, *domain.Result, error) {}
