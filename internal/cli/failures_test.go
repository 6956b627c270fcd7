package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vietddude/llmclient/internal/core/domain"
)

func TestPrintFailures(t *testing.T) {
	records := []*domain.FailureRecord{
		{Model: "gpt-4", StatusCode: 503, Attempts: 4, Message: "API returned 503: down", CreatedAt: 1700000000},
		{Model: "gpt-4", Attempts: 2, Message: "connection reset", CreatedAt: 1700000060},
	}

	var buf bytes.Buffer
	if err := printFailures(&buf, records, 7); err != nil {
		t.Fatalf("printFailures failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"TIME", "MESSAGE",
		"2023-11-14T22:13:20Z", "503", "API returned 503: down",
		"2023-11-14T22:14:20Z", "connection reset",
		"Showing 2 of 7 stored failures",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 3 {
		t.Fatalf("expected header and two rows, got %d lines", len(lines))
	}
	cells := strings.Split(lines[2], "|")
	if len(cells) < 3 || strings.TrimSpace(cells[2]) != "-" {
		t.Errorf("expected missing status rendered as '-', got %q", lines[2])
	}
}

func TestPrintFailures_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := printFailures(&buf, nil, 0); err != nil {
		t.Fatalf("printFailures failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Showing 0 of 0 stored failures") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}
