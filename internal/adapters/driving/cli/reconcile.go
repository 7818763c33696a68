package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile [tenant-id]",
	Short: "Mark superseded document revisions obsolete",
	Long: `Runs the obsolescence pass for a tenant without a full synchronisation:
for every document lineage, all revisions below the highest active one
are marked obsolete.`,
	Args: cobra.ExactArgs(1),
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	tenantID := args[0]
	ctx := context.Background()

	demoted, err := syncService.Reconcile(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}

	if demoted == 0 {
		cmd.Println("No superseded revisions found.")
		return nil
	}

	cmd.Printf("Marked %d superseded revisions obsolete.\n", demoted)
	return nil
}
