package domain

import "time"

// Request is a single completion request.
// Zero values mean "not set": an empty SystemPrompt is not sent, MaxTokens <= 0
// omits max_tokens, and a nil Temperature omits temperature.
type Request struct {
	Prompt       string   `json:"prompt"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
	MaxTokens    int      `json:"max_tokens,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
}

// TokenUsage holds the provider-reported token accounting.
type TokenUsage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// Result is the caller-facing outcome of a successful completion.
type Result struct {
	Content    string        `json:"content"`
	TokenUsage TokenUsage    `json:"token_usage"`
	Elapsed    time.Duration `json:"-"`
}

// ElapsedMillis returns the duration of the successful transport call in milliseconds.
func (r *Result) ElapsedMillis() int64 {
	return r.Elapsed.Milliseconds()
}
