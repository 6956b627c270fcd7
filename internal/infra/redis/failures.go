package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vietddude/llmclient/internal/core/domain"
	"github.com/vietddude/llmclient/internal/infra/llm"
)

// DefaultFailureCap bounds how many failures are kept per provider.
const DefaultFailureCap = 500

// FailureLog keeps the most recent terminal completion failures in a capped list.
type FailureLog struct {
	rdb      *redis.Client
	provider string
	capacity int64
	ttl      time.Duration
}

// NewFailureLog creates a Redis-backed failure log for one provider.
func NewFailureLog(client *Client, provider string) *FailureLog {
	return &FailureLog{
		rdb:      client.rdb,
		provider: provider,
		capacity: DefaultFailureCap,
		ttl:      7 * 24 * time.Hour,
	}
}

func failuresKey(provider string) string {
	return fmt.Sprintf("llm_failures:%s", provider)
}

// NewFailureRecord builds a record from a Failure returned by Send.
func NewFailureRecord(f *llm.Failure, model string, now time.Time) *domain.FailureRecord {
	return &domain.FailureRecord{
		ID:         uuid.NewString(),
		Provider:   f.Provider,
		Model:      model,
		Message:    f.Message,
		StatusCode: f.StatusCode,
		Attempts:   f.Attempts,
		Retryable:  f.Retryable,
		CreatedAt:  now.Unix(),
	}
}

// Record appends a failure, trimming the list to capacity.
func (l *FailureLog) Record(ctx context.Context, rec *domain.FailureRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal failure record: %w", err)
	}

	key := failuresKey(l.provider)
	pipe := l.rdb.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, l.capacity-1)
	pipe.Expire(ctx, key, l.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record failure: %w", err)
	}
	return nil
}

// Recent returns up to n failures, newest first.
func (l *FailureLog) Recent(ctx context.Context, n int) ([]*domain.FailureRecord, error) {
	if n <= 0 {
		return nil, nil
	}

	items, err := l.rdb.LRange(ctx, failuresKey(l.provider), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange failed: %w", err)
	}

	out := make([]*domain.FailureRecord, 0, len(items))
	for _, item := range items {
		rec, err := decodeFailureRecord(item)
		if err != nil {
			slog.Warn("Skipping corrupt failure record", "provider", l.provider, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Count returns the number of stored failures.
func (l *FailureLog) Count(ctx context.Context) (int64, error) {
	return l.rdb.LLen(ctx, failuresKey(l.provider)).Result()
}

// Clear removes all stored failures for the provider.
func (l *FailureLog) Clear(ctx context.Context) error {
	return l.rdb.Del(ctx, failuresKey(l.provider)).Err()
}

func decodeFailureRecord(s string) (*domain.FailureRecord, error) {
	var rec domain.FailureRecord
	if err := json.Unmarshal([]byte(s), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal failure record: %w", err)
	}
	return &rec, nil
}
