package cli

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/llmclient/internal/core/config"
	"github.com/vietddude/llmclient/internal/infra/llm"
	redisclient "github.com/vietddude/llmclient/internal/infra/redis"
	"github.com/vietddude/llmclient/internal/metrics"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "llmclient",
	Short: "Resilient LLM completion client",
	Long: `llmclient sends chat-completion requests to an OpenAI-compatible endpoint
with bounded retry and exponential backoff.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (defaults and LLM_* env when empty)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

// loadConfig reads .env, the config file and sets up logging.
func loadConfig() (*config.AppConfig, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		return nil, err
	}

	stylelog.InitDefault(&tint.Options{
		Level:      logLevel(cfg.Logging.Level),
		TimeFormat: time.RFC3339,
	})
	return cfg, nil
}

func logLevel(level string) slog.Level {
	if isDebug {
		return slog.LevelDebug
	}
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newExecutor(cfg *config.AppConfig) (*llm.Executor, error) {
	return llm.NewExecutor(
		cfg.LLM.Executor(),
		llm.NewHTTPDoer(cfg.LLM.Timeout),
		llm.Sleep,
		llm.WithLogger(slog.Default()),
		llm.WithObserver(metrics.Observer{}),
	)
}

// openFailureLog returns nil when Redis is not configured.
func openFailureLog(cfg *config.AppConfig) (*redisclient.FailureLog, func(), error) {
	if !cfg.Redis.Enabled() {
		return nil, func() {}, nil
	}
	client, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		_ = client.Close()
	}
	return redisclient.NewFailureLog(client, cfg.LLM.Provider), closeFn, nil
}
