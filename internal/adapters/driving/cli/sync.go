package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/veritrail/regsync/internal/core/domain"
)

var syncFolderID string

var syncCmd = &cobra.Command{
	Use:   "sync [tenant-id]",
	Short: "Synchronise a tenant's document registry",
	Long: `Triggers a registry synchronisation run for the tenant.
The tenant's cloud folder is traversed, documents matching the filename
convention are registered or updated, and superseded revisions are
marked obsolete. Use --folder to synchronise a subtree instead of the
tenant's root folder.`,
	Args: cobra.ExactArgs(1),
	RunE: runSyncCmd,
}

func init() {
	syncCmd.Flags().StringVarP(&syncFolderID, "folder", "f", "", "Folder ID to synchronise (defaults to the tenant root)")
	rootCmd.AddCommand(syncCmd)
}

func runSyncCmd(cmd *cobra.Command, args []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	tenantID := args[0]
	ctx := context.Background()

	cmd.Printf("Synchronising tenant: %s...\n", tenantID)

	result, err := syncWithProgress(ctx, cmd, tenantID, syncFolderID)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	printSyncResult(cmd, result)
	return nil
}

// syncWithProgress triggers a run and polls its status until it
// finishes, printing progress along the way.
func syncWithProgress(ctx context.Context, cmd *cobra.Command, tenantID, folderID string) (*domain.SyncResult, error) {
	runID, err := syncService.Trigger(ctx, tenantID, folderID)
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastState := domain.RunState("")
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			run, statusErr := syncService.Status(ctx, runID)
			if statusErr != nil || run == nil {
				continue
			}
			if run.State != lastState && !run.State.Finished() {
				cmd.Printf("  %s...\n", run.State)
				lastState = run.State
			}
			if run.State.Finished() {
				if run.Result == nil {
					return nil, fmt.Errorf("run %s finished without a result", runID)
				}
				return run.Result, nil
			}
		}
	}
}

func printSyncResult(cmd *cobra.Command, result *domain.SyncResult) {
	cmd.Printf("\nProcessed %d documents (%d created, %d updated, %d unchanged)\n",
		result.Processed, result.Created, result.Updated, result.Skipped)

	if result.Failed > 0 {
		cmd.Printf("Failed: %d\n", result.Failed)
	}
	for _, syncErr := range result.Errors {
		cmd.Printf("  [%s] %s\n", syncErr.Code, syncErr.Message)
	}

	if result.Success {
		cmd.Println("Synchronisation completed successfully.")
	} else {
		cmd.Println("Synchronisation completed with errors.")
	}
}
