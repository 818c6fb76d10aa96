package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/adapters/driving/watch"
)

var watchDir string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a directory and import changed files",
	Long: `Watches a directory and imports every created or modified file
under its content-addressed identifier. Runs until interrupted.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchDir, "dir", "", "directory to watch (default from config)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	dir := watchDir
	if dir == "" {
		dir = cfg.WatchDir
	}
	if dir == "" {
		return errors.New("no watch directory configured (use --dir or watch_dir in config)")
	}

	svc, err := retrievalProvider.Get(cmd.Context())
	if err != nil {
		return err
	}

	watcher, err := watch.New(svc, dir)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}

	return watcher.Run(cmd.Context())
}
