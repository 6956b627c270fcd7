package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

const (
	envKeyAPIKey     = "LLM_API_KEY"
	envKeyEndpoint   = "LLM_ENDPOINT"
	envKeyModel      = "LLM_MODEL"
	envKeyProvider   = "LLM_PROVIDER"
	envKeyMaxRetries = "LLM_MAX_RETRIES"
)

// Load reads configuration from a YAML file on top of Default.
// An empty path skips the file. LLM_* environment variables override the result.
func Load(path string) (*AppConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Expand environment variables in the YAML content
		expandedData := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if err := cfg.LLM.Retry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid llm.retry: %w", err)
	}

	return &cfg, nil
}

func applyEnv(cfg *AppConfig) {
	if v := os.Getenv(envKeyAPIKey); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv(envKeyEndpoint); v != "" {
		cfg.LLM.Endpoint = v
	}
	if v := os.Getenv(envKeyModel); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv(envKeyProvider); v != "" {
		cfg.LLM.Provider = v
	}
	// Non-numeric or negative values are ignored.
	if v := os.Getenv(envKeyMaxRetries); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.LLM.Retry.MaxRetries = n
		}
	}
}
