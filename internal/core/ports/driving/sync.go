package driving

import (
	"context"

	"github.com/veritrail/regsync/internal/core/domain"
)

// SyncService is the public trigger surface for reconciliation runs.
type SyncService interface {
	// Trigger accepts a run for the tenant and returns its run ID
	// immediately; the run proceeds asynchronously. Returns
	// domain.ErrSyncInProgress when a run is already active for the
	// tenant, and domain.ErrTenantNotFound for an unknown tenant.
	Trigger(ctx context.Context, tenantID, folderID string) (string, error)

	// Run executes a reconciliation run synchronously and returns its
	// result. Used by the scheduler and the CLI's wait mode.
	Run(ctx context.Context, tenantID, folderID string) (*domain.SyncResult, error)

	// Status returns the persisted record for a run ID.
	Status(ctx context.Context, runID string) (*domain.SyncRun, error)

	// Reconcile runs the obsolescence pass standalone for a tenant,
	// returning how many records were demoted.
	Reconcile(ctx context.Context, tenantID string) (int, error)
}
