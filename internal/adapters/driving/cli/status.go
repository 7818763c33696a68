package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Show the status of a synchronisation run",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	runID := args[0]
	ctx := context.Background()

	run, err := syncService.Status(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}

	cmd.Printf("Run: %s\n\n", run.ID)
	cmd.Printf("  Tenant:   %s\n", run.TenantID)
	cmd.Printf("  Folder:   %s\n", run.FolderID)
	cmd.Printf("  State:    %s\n", run.State)
	cmd.Printf("  Started:  %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if !run.FinishedAt.IsZero() {
		cmd.Printf("  Finished: %s\n", run.FinishedAt.Format("2006-01-02 15:04:05"))
	}

	if run.Result != nil {
		cmd.Println("\n  Result:")
		cmd.Printf("    Processed: %d (%d created, %d updated, %d unchanged)\n",
			run.Result.Processed, run.Result.Created, run.Result.Updated, run.Result.Skipped)
		cmd.Printf("    Failed:    %d\n", run.Result.Failed)
		for _, syncErr := range run.Result.Errors {
			cmd.Printf("    [%s] %s\n", syncErr.Code, syncErr.Message)
		}
	}

	return nil
}
