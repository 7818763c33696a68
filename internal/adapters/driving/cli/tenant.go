package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veritrail/regsync/internal/core/domain"
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage tenant registrations",
	Long:  `Register, list, or remove tenants and inspect their recent runs.`,
}

var tenantAddCmd = &cobra.Command{
	Use:   "add [tenant-id]",
	Short: "Register a tenant",
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantAdd,
}

var tenantListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered tenants",
	RunE:  runTenantList,
}

var tenantRemoveCmd = &cobra.Command{
	Use:   "remove [tenant-id]",
	Short: "Remove a tenant registration",
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantRemove,
}

var tenantRunsCmd = &cobra.Command{
	Use:   "runs [tenant-id]",
	Short: "List recent runs for a tenant",
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantRuns,
}

// Flags for tenant add.
var (
	tenantName       string
	tenantRootFolder string
	tenantOwner      string
)

// Flag for tenant runs.
var tenantRunsLimit int

func init() {
	tenantAddCmd.Flags().StringVarP(&tenantName, "name", "n", "", "Human-readable tenant name")
	tenantAddCmd.Flags().StringVarP(&tenantRootFolder, "root-folder", "r", "", "Root folder ID in the cloud store")
	tenantAddCmd.Flags().StringVarP(&tenantOwner, "owner", "o", "", "Owner user ID")
	tenantRunsCmd.Flags().IntVarP(&tenantRunsLimit, "limit", "l", 10, "Maximum number of runs to show")

	tenantCmd.AddCommand(tenantAddCmd)
	tenantCmd.AddCommand(tenantListCmd)
	tenantCmd.AddCommand(tenantRemoveCmd)
	tenantCmd.AddCommand(tenantRunsCmd)
	rootCmd.AddCommand(tenantCmd)
}

func runTenantAdd(cmd *cobra.Command, args []string) error {
	if tenantStore == nil {
		return errors.New("tenant store not configured")
	}

	tenantID := args[0]
	if tenantRootFolder == "" {
		return errors.New("--root-folder is required")
	}

	name := tenantName
	if name == "" {
		name = tenantID
	}

	ctx := context.Background()
	tenant := domain.Tenant{
		ID:           tenantID,
		Name:         name,
		RootFolderID: tenantRootFolder,
		OwnerID:      tenantOwner,
	}

	if err := tenantStore.SaveTenant(ctx, tenant); err != nil {
		return fmt.Errorf("failed to register tenant: %w", err)
	}

	cmd.Printf("Tenant %s registered.\n", tenantID)
	return nil
}

func runTenantList(cmd *cobra.Command, _ []string) error {
	if tenantStore == nil {
		return errors.New("tenant store not configured")
	}

	ctx := context.Background()

	tenants, err := tenantStore.ListTenants(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tenants: %w", err)
	}

	if len(tenants) == 0 {
		cmd.Println("No tenants registered.")
		return nil
	}

	cmd.Println("Registered tenants:")
	cmd.Println()
	for i := range tenants {
		cmd.Printf("  %s\n", tenants[i].ID)
		cmd.Printf("    Name: %s\n", tenants[i].Name)
		cmd.Printf("    Root folder: %s\n", tenants[i].RootFolderID)
		if tenants[i].OwnerID != "" {
			cmd.Printf("    Owner: %s\n", tenants[i].OwnerID)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d tenants\n", len(tenants))
	return nil
}

func runTenantRemove(cmd *cobra.Command, args []string) error {
	if tenantStore == nil {
		return errors.New("tenant store not configured")
	}

	tenantID := args[0]
	ctx := context.Background()

	if err := tenantStore.DeleteTenant(ctx, tenantID); err != nil {
		return fmt.Errorf("failed to remove tenant: %w", err)
	}

	cmd.Printf("Tenant %s removed.\n", tenantID)
	return nil
}

func runTenantRuns(cmd *cobra.Command, args []string) error {
	if runStore == nil {
		return errors.New("run store not configured")
	}

	tenantID := args[0]
	ctx := context.Background()

	runs, err := runStore.ListRunsByTenant(ctx, tenantID, tenantRunsLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		cmd.Printf("No runs found for tenant: %s\n", tenantID)
		return nil
	}

	cmd.Printf("Recent runs for tenant %s:\n\n", tenantID)
	for i := range runs {
		cmd.Printf("  %s\n", runs[i].ID)
		cmd.Printf("    State: %s\n", runs[i].State)
		cmd.Printf("    Started: %s\n", runs[i].StartedAt.Format("2006-01-02 15:04:05"))
		if runs[i].Result != nil {
			cmd.Printf("    Processed: %d, Failed: %d\n", runs[i].Result.Processed, runs[i].Result.Failed)
		}
		cmd.Println()
	}

	return nil
}
