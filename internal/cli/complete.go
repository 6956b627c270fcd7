package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/llmclient/internal/core/config"
	"github.com/vietddude/llmclient/internal/core/domain"
	"github.com/vietddude/llmclient/internal/infra/llm"
	redisclient "github.com/vietddude/llmclient/internal/infra/redis"
)

var (
	promptFlag      string
	systemFlag      string
	maxTokensFlag   int
	temperatureFlag float64
	jsonOutput      bool
)

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Send a single completion request",
	Example: `  llmclient complete --prompt "Say hello"
  llmclient complete --prompt "Summarize" --system "Be terse" --max-tokens 200 --temperature 0.2`,
	RunE: runComplete,
}

func init() {
	completeCmd.Flags().StringVarP(&promptFlag, "prompt", "p", "", "user prompt (required)")
	completeCmd.Flags().StringVarP(&systemFlag, "system", "s", "", "system prompt")
	completeCmd.Flags().IntVar(&maxTokensFlag, "max-tokens", 0, "max tokens to generate (0 = provider default)")
	completeCmd.Flags().Float64Var(&temperatureFlag, "temperature", 0, "sampling temperature")
	completeCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the full result as JSON")
	_ = completeCmd.MarkFlagRequired("prompt")
	rootCmd.AddCommand(completeCmd)
}

func runComplete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	exec, err := newExecutor(cfg)
	if err != nil {
		return err
	}

	req := domain.Request{
		Prompt:       promptFlag,
		SystemPrompt: systemFlag,
		MaxTokens:    maxTokensFlag,
	}
	if cmd.Flags().Changed("temperature") {
		t := temperatureFlag
		req.Temperature = &t
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := exec.Send(ctx, req)
	if err != nil {
		if f, ok := llm.AsFailure(err); ok {
			recordFailure(cfg, f)
		}
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*domain.Result
			ElapsedMs int64 `json:"elapsed_ms"`
		}{res, res.ElapsedMillis()})
	}

	_, _ = fmt.Fprintln(out, res.Content)
	slog.Info("Completion finished",
		"prompt_tokens", res.TokenUsage.Prompt,
		"completion_tokens", res.TokenUsage.Completion,
		"total_tokens", res.TokenUsage.Total,
		"elapsed_ms", res.ElapsedMillis(),
	)
	return nil
}

func recordFailure(cfg *config.AppConfig, f *llm.Failure) {
	failureLog, closeFn, err := openFailureLog(cfg)
	if err != nil {
		slog.Warn("Failure log unavailable", "error", err)
		return
	}
	defer closeFn()
	if failureLog == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := failureLog.Record(ctx, redisclient.NewFailureRecord(f, cfg.LLM.Model, time.Now())); err != nil {
		slog.Warn("Failed to record completion failure", "error", err)
	}
}
