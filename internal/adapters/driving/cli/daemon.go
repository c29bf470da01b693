package cli

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sheetsync/internal/core/services"
	"github.com/custodia-labs/sheetsync/internal/logger"
)

var daemonInterval time.Duration

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Sync continuously on an interval",
	Long: `Runs sync on a fixed interval until interrupted. Edits to the config
file are picked up between runs, so sheets can be added or removed
without restarting the daemon.`,
	RunE: runDaemon,
}

func init() {
	daemonCmd.Flags().DurationVar(&daemonInterval, "interval", services.DefaultSyncInterval,
		"Time between sync runs")
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Validate the configuration up front so a broken setup fails fast
	// instead of on the first scheduled run.
	env, err := buildEnv(ctx, false)
	if err != nil {
		return err
	}

	reload, closeWatcher, err := watchConfig(env.config.Path())
	if err != nil {
		logger.Warn("Config watch unavailable: %v", err)
		reload = nil
	} else {
		defer closeWatcher() //nolint:errcheck // Best-effort close on exit
	}

	cmd.Printf("Syncing %d sheet(s) every %s. Press Ctrl+C to stop.\n",
		len(env.sheets), daemonInterval)

	for {
		scheduler := services.NewScheduler(env.runner, daemonInterval)

		done := make(chan error, 1)
		go func() { done <- scheduler.Start(ctx) }()

		select {
		case <-ctx.Done():
			_ = scheduler.Stop()
			<-done
			_ = env.cleanup()
			cmd.Println("Daemon stopped.")
			return nil

		case err := <-done:
			_ = env.cleanup()
			return err

		case <-reload:
			if err := scheduler.Stop(); err != nil {
				logger.Warn("Scheduler stop failed: %v", err)
			}
			<-done
			_ = env.cleanup()

			fresh, err := buildEnv(ctx, false)
			if err != nil {
				return fmt.Errorf("reload configuration: %w", err)
			}
			env = fresh
			cmd.Printf("Configuration reloaded: now syncing %d sheet(s).\n", len(env.sheets))
		}
	}
}

// watchConfig signals on the returned channel whenever the config file
// is rewritten. Editors and the configure command replace the file, so
// create events count as changes too.
func watchConfig(configPath string) (<-chan struct{}, func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}

	// Watch the directory: the file itself disappears on atomic saves.
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		_ = watcher.Close()
		return nil, nil, err
	}

	changes := make(chan struct{}, 1)
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != configPath {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				logger.Debug("config change detected: %s", event)
				select {
				case changes <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Config watch error: %v", err)
			}
		}
	}()

	return changes, watcher.Close, nil
}
