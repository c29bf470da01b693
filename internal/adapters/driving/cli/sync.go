package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sheetsync/internal/core/ports/driving"
)

var syncDryRun bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync of the configured sheets",
	Long: `Fetches the configured sheets and applies the resulting upserts and
deletes to the destination, then commits a checkpoint.

The first run (and any run whose checkpoint is older than seven days)
is a full sync with delete detection; runs in between fetch only rows
modified since the last checkpoint.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false,
		"Preview the run against an in-memory destination; nothing is persisted")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	env, err := buildEnv(ctx, syncDryRun)
	if err != nil {
		return err
	}
	defer env.cleanup() //nolint:errcheck // Best-effort close on exit

	if syncDryRun {
		cmd.Println("Dry run: no changes will be persisted.")
	}
	cmd.Printf("Syncing %d sheet(s)...\n", len(env.sheets))

	report, err := syncWithProgress(ctx, cmd, env.runner)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	cmd.Printf("Sync complete (%s): %d upserts, %d deletes across %d sheet(s).\n",
		report.Mode, report.Upserts, report.Deletes, report.SheetsSynced)
	if report.SheetsFailed > 0 {
		cmd.Printf("Warning: %d sheet(s) failed and will be retried next run.\n", report.SheetsFailed)
	}
	if report.RowsSkipped > 0 {
		cmd.Printf("Warning: %d malformed row(s) skipped.\n", report.RowsSkipped)
	}

	return nil
}

// syncWithProgress runs the sync while displaying progress updates.
func syncWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	runner driving.SyncRunner,
) (*driving.RunReport, error) {
	type result struct {
		report *driving.RunReport
		err    error
	}
	resCh := make(chan result, 1)
	go func() {
		report, err := runner.Run(ctx)
		resCh <- result{report, err}
	}()

	// Poll status every 500ms
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case res := <-resCh:
			if lastCount > 0 {
				cmd.Printf("\rProcessed %d rows            \n", lastCount)
			}
			return res.report, res.err
		case <-ticker.C:
			status := runner.Status()
			if status != nil && status.RowsProcessed > lastCount {
				cmd.Printf("\rProcessing... %d rows", status.RowsProcessed)
				lastCount = status.RowsProcessed
			}
		}
	}
}
