// Package cli implements the sheetsync command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sheetsync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sheetsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sheetsync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sheetsync/internal/connectors/smartsheet"
	"github.com/custodia-labs/sheetsync/internal/core/ports/driven"
	"github.com/custodia-labs/sheetsync/internal/core/services"
	"github.com/custodia-labs/sheetsync/internal/logger"
	"github.com/custodia-labs/sheetsync/internal/normalisers"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

// configDir and dataDir are overridable for tests; empty means the
// defaults under the user's home directory.
var (
	configDir string
	dataDir   string
)

var rootCmd = &cobra.Command{
	Use:   "sheetsync",
	Short: "Sync spreadsheet data into a local destination",
	Long: `sheetsync pulls rows from configured Smartsheet sheets and keeps a
local destination in step with them: one table per sheet, one record
per row, with deletions detected on full syncs.

Run 'sheetsync configure' first to set your API token and sheet IDs.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runtimeEnv bundles the wired dependencies behind one cleanup handle.
type runtimeEnv struct {
	config  driven.ConfigStore
	sheets  []string
	runner  *services.SyncRunner
	cleanup func() error
}

// openConfig opens the TOML config store.
func openConfig() (driven.ConfigStore, error) {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	return store, nil
}

// buildEnv wires a sync runner from the current configuration. With
// dryRun set, writes go to an in-memory destination while the sync
// state is still read from the persistent store, so the run previews
// exactly what a real run would do.
func buildEnv(ctx context.Context, dryRun bool) (*runtimeEnv, error) {
	store, err := openConfig()
	if err != nil {
		return nil, err
	}

	cfg, err := smartsheet.ParseConfig(store)
	if err != nil {
		if errors.Is(err, smartsheet.ErrMissingToken) || errors.Is(err, smartsheet.ErrMissingSheetIDs) {
			return nil, fmt.Errorf("%w (run 'sheetsync configure' first)", err)
		}
		return nil, err
	}

	db, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open destination: %w", err)
	}

	var dest driven.Destination = db
	if dryRun {
		dest = memory.NewDestination()
	}

	connector := smartsheet.New(ctx, cfg)
	runner := services.NewSyncRunner(connector, normalisers.New(), dest, db, cfg.SheetIDs)

	return &runtimeEnv{
		config:  store,
		sheets:  cfg.SheetIDs,
		runner:  runner,
		cleanup: db.Close,
	}, nil
}
