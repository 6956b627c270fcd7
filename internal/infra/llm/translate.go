package llm

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vietddude/llmclient/internal/core/domain"
)

// Translate maps a 2xx chat-completions body into a Result.
//
// Every field is optional: a missing or malformed choices[0].message.content
// yields "", and each usage counter independently falls back to 0. Only a body
// that is not a JSON object is rejected.
func Translate(body []byte, elapsed time.Duration) (*domain.Result, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if elapsed < 0 {
		elapsed = 0
	}

	usage := object(root["usage"])
	return &domain.Result{
		Content: firstChoiceContent(root["choices"]),
		TokenUsage: domain.TokenUsage{
			Prompt:     count(usage["prompt_tokens"]),
			Completion: count(usage["completion_tokens"]),
			Total:      count(usage["total_tokens"]),
		},
		Elapsed: elapsed,
	}, nil
}

func firstChoiceContent(raw json.RawMessage) string {
	var choices []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &choices) != nil || len(choices) == 0 {
		return ""
	}
	message := object(object(choices[0])["message"])

	var content string
	if json.Unmarshal(message["content"], &content) != nil {
		return ""
	}
	return content
}

// object decodes raw as a JSON object, returning nil when it is anything else.
func object(raw json.RawMessage) map[string]json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]json.RawMessage
	if json.Unmarshal(raw, &m) != nil {
		return nil
	}
	return m
}

// count decodes a non-negative token counter, defaulting to 0.
func count(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if json.Unmarshal(raw, &n) != nil || n < 0 {
		return 0
	}
	return int(n)
}
