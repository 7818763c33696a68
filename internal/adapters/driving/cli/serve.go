package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background scheduler",
	Long: `Runs the scheduler in the foreground until interrupted. Each tenant
gets a periodic registry sync and a daily obsolescence audit.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if schedulerSvc == nil {
		return errors.New("scheduler not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Println("Scheduler running. Press Ctrl+C to stop.")

	// A signal cancels the context; that is a clean shutdown, not a
	// scheduler failure.
	if err := schedulerSvc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scheduler failed: %w", err)
	}

	cmd.Println("Scheduler stopped.")
	return nil
}
