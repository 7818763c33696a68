package driven

import (
	"context"

	"github.com/veritrail/regsync/internal/core/domain"
)

// DocumentRegistry persists document records. The sync engine performs
// idempotent upserts keyed by (lineage, revision) and never hard-deletes.
type DocumentRegistry interface {
	// FindByLineageAndRevision looks up the record for one revision of
	// a lineage. Returns domain.ErrNotFound when absent.
	FindByLineageAndRevision(ctx context.Context, key domain.LineageKey, revision int) (*domain.DocumentRecord, error)

	// Create inserts a new record.
	Create(ctx context.Context, record *domain.DocumentRecord) error

	// Update rewrites the mutable fields of an existing record
	// (content hash, expiry, alert status, obsolete flag, UpdatedAt).
	Update(ctx context.Context, record *domain.DocumentRecord) error

	// ListActiveByTenant returns every non-obsolete record for a tenant.
	ListActiveByTenant(ctx context.Context, tenantID string) ([]domain.DocumentRecord, error)

	// MarkObsolete flips a record's obsolete flag on.
	MarkObsolete(ctx context.Context, id string) error
}

// TenantStore resolves the acting tenant for a run and holds tenant
// registrations.
type TenantStore interface {
	// GetTenant retrieves a tenant by ID. Returns domain.ErrNotFound
	// when absent.
	GetTenant(ctx context.Context, id string) (*domain.Tenant, error)

	// ListTenants returns all registered tenants.
	ListTenants(ctx context.Context) ([]domain.Tenant, error)

	// SaveTenant registers or updates a tenant.
	SaveTenant(ctx context.Context, tenant domain.Tenant) error

	// DeleteTenant removes a tenant registration. Returns
	// domain.ErrNotFound when absent.
	DeleteTenant(ctx context.Context, id string) error
}

// RunStore persists sync-run status records so callers can poll the
// outcome of an asynchronously triggered run.
type RunStore interface {
	// SaveRun creates or updates a run record.
	SaveRun(ctx context.Context, run *domain.SyncRun) error

	// GetRun retrieves a run by ID. Returns domain.ErrNotFound when absent.
	GetRun(ctx context.Context, id string) (*domain.SyncRun, error)

	// ListRunsByTenant returns recent runs for a tenant, most recent
	// first, limited to limit entries.
	ListRunsByTenant(ctx context.Context, tenantID string, limit int) ([]domain.SyncRun, error)
}
