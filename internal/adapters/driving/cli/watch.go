package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the source and process changes continuously",
	Long: `Runs the watch tick on its configured interval until interrupted.

With watch.notify enabled on a filesystem source, change notifications
trigger a tick immediately instead of waiting for the next interval.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if err := requireEngine(scheduler != nil); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if changeNotifier != nil {
		hints := changeNotifier.Watch(ctx)
		go func() {
			for range hints {
				logger.Debug("change notification, nudging watch task")
				scheduler.Nudge()
			}
		}()
	}

	cmd.Println("Watching for changes. Press Ctrl+C to stop.")
	err := scheduler.Start(ctx)
	if stopErr := scheduler.Stop(); err == nil {
		err = stopErr
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	cmd.Println("Stopped.")
	return err
}
