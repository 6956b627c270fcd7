package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/llmclient/internal/core/domain"
)

var (
	failuresLimit int
	failuresClear bool
)

var failuresCmd = &cobra.Command{
	Use:   "failures",
	Short: "List recent terminal completion failures stored in Redis",
	RunE:  runFailures,
}

func init() {
	failuresCmd.Flags().IntVarP(&failuresLimit, "limit", "n", 20, "number of failures to show")
	failuresCmd.Flags().BoolVar(&failuresClear, "clear", false, "delete stored failures")
	rootCmd.AddCommand(failuresCmd)
}

func runFailures(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	failureLog, closeFn, err := openFailureLog(cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	if failureLog == nil {
		return errors.New("redis.url is not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if failuresClear {
		if err := failureLog.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear failures: %w", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cleared failures for %s\n", cfg.LLM.Provider)
		return nil
	}

	records, err := failureLog.Recent(ctx, failuresLimit)
	if err != nil {
		return err
	}
	total, err := failureLog.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count failures: %w", err)
	}

	return printFailures(cmd.OutOrStdout(), records, total)
}

func printFailures(out io.Writer, records []*domain.FailureRecord, total int64) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "TIME\tMODEL\tSTATUS\tATTEMPTS\tMESSAGE")
	for _, r := range records {
		status := "-"
		if r.StatusCode != 0 {
			status = fmt.Sprint(r.StatusCode)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			time.Unix(r.CreatedAt, 0).UTC().Format(time.RFC3339), r.Model, status, r.Attempts, r.Message)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\nShowing %d of %d stored failures\n", len(records), total)
	return err
}
