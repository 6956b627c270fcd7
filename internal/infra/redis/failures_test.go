package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/llmclient/internal/infra/llm"
)

func TestFailuresKey(t *testing.T) {
	if got := failuresKey("openai"); got != "llm_failures:openai" {
		t.Errorf("unexpected key %s", got)
	}
}

func TestNewFailureRecord(t *testing.T) {
	f := &llm.Failure{
		Message:    "llm request failed after 4 attempts: API returned 503: down",
		StatusCode: 503,
		Attempts:   4,
		Provider:   "openai",
	}
	now := time.Unix(1700000000, 0)

	rec := NewFailureRecord(f, "gpt-4", now)
	if rec.ID == "" {
		t.Error("expected generated id")
	}
	if rec.Provider != "openai" || rec.Model != "gpt-4" || rec.StatusCode != 503 || rec.Attempts != 4 {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.CreatedAt != 1700000000 {
		t.Errorf("expected created_at 1700000000, got %d", rec.CreatedAt)
	}
}

func TestDecodeFailureRecord(t *testing.T) {
	rec := NewFailureRecord(&llm.Failure{Message: "boom", Attempts: 1, Provider: "p"}, "m", time.Now())
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := decodeFailureRecord(string(data))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if *got != *rec {
		t.Errorf("expected %+v, got %+v", rec, got)
	}

	if _, err := decodeFailureRecord("{not json"); err == nil {
		t.Error("expected error for corrupt record")
	}
}

func TestConfigEnabled(t *testing.T) {
	if (Config{}).Enabled() {
		t.Error("empty config should be disabled")
	}
	if !(Config{URL: "redis://localhost:6379/0"}).Enabled() {
		t.Error("config with url should be enabled")
	}
}

func newTestFailureLog(t *testing.T) *FailureLog {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("Skipping redis test. Set REDIS_TEST_URL=redis://localhost:6379/15 to run.")
	}

	client, err := NewClient(Config{URL: url})
	if err != nil {
		t.Fatalf("Failed to connect to redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	l := NewFailureLog(client, "test-"+uuid.NewString())
	t.Cleanup(func() { _ = l.Clear(context.Background()) })
	return l
}

func TestFailureLog_RecordRecentCap(t *testing.T) {
	l := newTestFailureLog(t)
	l.capacity = 3
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		rec := NewFailureRecord(&llm.Failure{
			Message:  fmt.Sprintf("failure %d", i),
			Attempts: i,
			Provider: l.provider,
		}, "gpt-4", time.Unix(int64(1700000000+i), 0))
		if err := l.Record(ctx, rec); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	count, err := l.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected list capped at 3, got %d", count)
	}

	recs, err := l.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	want := []string{"failure 5", "failure 4", "failure 3"}
	if len(recs) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(recs))
	}
	for i, msg := range want {
		if recs[i].Message != msg {
			t.Errorf("record %d: expected %q, got %q", i, msg, recs[i].Message)
		}
	}

	recs, err = l.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recs) != 1 || recs[0].Message != "failure 5" {
		t.Errorf("expected newest record only, got %+v", recs)
	}
}

func TestFailureLog_SkipsCorruptAndClears(t *testing.T) {
	l := newTestFailureLog(t)
	ctx := context.Background()

	good := NewFailureRecord(&llm.Failure{Message: "ok", Attempts: 1, Provider: l.provider}, "gpt-4", time.Now())
	if err := l.Record(ctx, good); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := l.rdb.LPush(ctx, failuresKey(l.provider), "{not json").Err(); err != nil {
		t.Fatalf("LPush failed: %v", err)
	}

	recs, err := l.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != good.ID {
		t.Errorf("expected only the valid record, got %+v", recs)
	}

	if err := l.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	count, err := l.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty log after Clear, got %d", count)
	}
}
