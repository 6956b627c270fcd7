package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/llmclient/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve completions, health and metrics over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	exec, err := newExecutor(cfg)
	if err != nil {
		return err
	}

	failureLog, closeFn, err := openFailureLog(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	var recorder server.FailureRecorder
	if failureLog != nil {
		recorder = failureLog
	}
	srv := server.New(exec, recorder, cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	slog.Info("Server started",
		"port", cfg.Server.Port,
		"provider", exec.ProviderName(),
		"model", exec.DefaultModel(),
		"failure_log", failureLog != nil,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	slog.Info("Server stopped gracefully")
	return nil
}
