package config

import (
	"time"

	"github.com/vietddude/llmclient/internal/infra/llm"
	"github.com/vietddude/llmclient/internal/infra/llm/retry"
	redisclient "github.com/vietddude/llmclient/internal/infra/redis"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server  ServerConfig       `yaml:"server"`
	LLM     LLMConfig          `yaml:"llm"`
	Redis   redisclient.Config `yaml:"redis"`
	Logging LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// LLMConfig holds settings for the completion endpoint.
type LLMConfig struct {
	Provider string        `yaml:"provider"`
	Model    string        `yaml:"model"`
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"` // per attempt; 0 = no client timeout
	Retry    retry.Policy  `yaml:"retry"`
}

// Executor converts the settings into an executor configuration.
func (c LLMConfig) Executor() llm.Config {
	return llm.Config{
		Provider: c.Provider,
		Model:    c.Model,
		Endpoint: c.Endpoint,
		APIKey:   c.APIKey,
		Retry:    c.Retry,
	}
}

// Default returns the configuration used when nothing else is supplied.
func Default() AppConfig {
	return AppConfig{
		Server: ServerConfig{Port: 8080},
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4",
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Timeout:  60 * time.Second,
			Retry:    retry.DefaultPolicy,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
