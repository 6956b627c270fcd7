package domain

// FailureRecord is a terminal completion failure kept for later inspection.
type FailureRecord struct {
	ID         string `json:"id"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
	Attempts   int    `json:"attempts"`
	Retryable  bool   `json:"retryable"`
	CreatedAt  int64  `json:"created_at"`
}
