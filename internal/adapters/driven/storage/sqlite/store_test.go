package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritrail/regsync/internal/core/domain"
)

// setupTestStore creates a store in a temporary directory.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store, func() { _ = store.Close() }
}

func testKey() domain.LineageKey {
	return domain.LineageKey{TenantID: "t1", PathCode: "4.2", Title: "Data Retention"}
}

// ==================== DocumentRegistry Tests ====================

func TestDocumentRegistry_CreateAndFind(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	registry := store.DocumentRegistry()

	expiry := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC().Truncate(time.Second)
	record := &domain.DocumentRecord{
		ID:             "doc-1",
		Lineage:        testKey(),
		Revision:       2,
		ExpiryDate:     &expiry,
		AlertStatus:    domain.AlertWarning,
		ContentHash:    "abc123",
		ExternalFileID: "drive-file-1",
		Extension:      "pdf",
		OwnerID:        "owner-1",
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	require.NoError(t, registry.Create(ctx, record))

	found, err := registry.FindByLineageAndRevision(ctx, testKey(), 2)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", found.ID)
	assert.Equal(t, testKey(), found.Lineage)
	assert.Equal(t, domain.AlertWarning, found.AlertStatus)
	assert.Equal(t, "abc123", found.ContentHash)
	require.NotNil(t, found.ExpiryDate)
	assert.True(t, expiry.Equal(*found.ExpiryDate))
	assert.WithinDuration(t, now, found.CreatedAt, time.Second)
}

func TestDocumentRegistry_FindNotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	registry := store.DocumentRegistry()

	_, err := registry.FindByLineageAndRevision(context.Background(), testKey(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentRegistry_DuplicateLineageRevision(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	registry := store.DocumentRegistry()
	now := time.Now().UTC()

	first := &domain.DocumentRecord{ID: "doc-1", Lineage: testKey(), Revision: 1, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, registry.Create(ctx, first))

	// Same (lineage, revision) under a different ID violates uniqueness.
	second := &domain.DocumentRecord{ID: "doc-2", Lineage: testKey(), Revision: 1, CreatedAt: now, UpdatedAt: now}
	assert.ErrorIs(t, registry.Create(ctx, second), domain.ErrAlreadyExists)
}

func TestDocumentRegistry_Update(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	registry := store.DocumentRegistry()
	now := time.Now().UTC().Truncate(time.Second)

	record := &domain.DocumentRecord{
		ID: "doc-1", Lineage: testKey(), Revision: 1,
		ContentHash: "old", AlertStatus: domain.AlertNone,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, registry.Create(ctx, record))

	record.ContentHash = "new"
	record.AlertStatus = domain.AlertExpired
	record.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, registry.Update(ctx, record))

	found, err := registry.FindByLineageAndRevision(ctx, testKey(), 1)
	require.NoError(t, err)
	assert.Equal(t, "new", found.ContentHash)
	assert.Equal(t, domain.AlertExpired, found.AlertStatus)

	missing := &domain.DocumentRecord{ID: "missing", UpdatedAt: now}
	assert.ErrorIs(t, registry.Update(ctx, missing), domain.ErrNotFound)
}

func TestDocumentRegistry_ListActiveAndMarkObsolete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	registry := store.DocumentRegistry()
	now := time.Now().UTC()

	key := testKey()
	for i, id := range []string{"doc-1", "doc-2"} {
		require.NoError(t, registry.Create(ctx, &domain.DocumentRecord{
			ID: id, Lineage: key, Revision: i + 1, CreatedAt: now, UpdatedAt: now,
		}))
	}

	active, err := registry.ListActiveByTenant(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, active, 2)

	require.NoError(t, registry.MarkObsolete(ctx, "doc-1"))

	active, err = registry.ListActiveByTenant(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "doc-2", active[0].ID)

	assert.ErrorIs(t, registry.MarkObsolete(ctx, "missing"), domain.ErrNotFound)
}

func TestDocumentRegistry_LegacyRecordNullHash(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	registry := store.DocumentRegistry()
	now := time.Now().UTC()

	// No content hash stored: round-trips as the empty string.
	require.NoError(t, registry.Create(ctx, &domain.DocumentRecord{
		ID: "legacy", Lineage: testKey(), Revision: 1, CreatedAt: now, UpdatedAt: now,
	}))

	found, err := registry.FindByLineageAndRevision(ctx, testKey(), 1)
	require.NoError(t, err)
	assert.False(t, found.HasContentHash())
	assert.True(t, found.ContentChanged("anything"))
}

// ==================== TenantStore Tests ====================

func TestTenantStore_SaveGetList(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	tenants := store.TenantStore()

	require.NoError(t, tenants.SaveTenant(ctx, domain.Tenant{
		ID: "t1", Name: "Acme", RootFolderID: "root-1", OwnerID: "owner-1",
	}))
	require.NoError(t, tenants.SaveTenant(ctx, domain.Tenant{
		ID: "t2", Name: "Birchwood", RootFolderID: "root-2",
	}))

	tenant, err := tenants.GetTenant(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", tenant.Name)
	assert.Equal(t, "root-1", tenant.RootFolderID)
	assert.False(t, tenant.CreatedAt.IsZero())

	_, err = tenants.GetTenant(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := tenants.ListTenants(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Acme", all[0].Name)
}

func TestTenantStore_SaveUpdates(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	tenants := store.TenantStore()

	require.NoError(t, tenants.SaveTenant(ctx, domain.Tenant{ID: "t1", Name: "Acme", RootFolderID: "root-1"}))
	require.NoError(t, tenants.SaveTenant(ctx, domain.Tenant{ID: "t1", Name: "Acme Ltd", RootFolderID: "root-9"}))

	tenant, err := tenants.GetTenant(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", tenant.Name)
	assert.Equal(t, "root-9", tenant.RootFolderID)
}

func TestTenantStore_DeleteTenant(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	tenants := store.TenantStore()

	require.NoError(t, tenants.SaveTenant(ctx, domain.Tenant{ID: "t1", RootFolderID: "root-1"}))
	require.NoError(t, tenants.DeleteTenant(ctx, "t1"))

	_, err := tenants.GetTenant(ctx, "t1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, tenants.DeleteTenant(ctx, "t1"), domain.ErrNotFound)
}

// ==================== RunStore Tests ====================

func TestRunStore_SaveGetRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	runs := store.RunStore()
	started := time.Now().UTC().Truncate(time.Second)

	run := &domain.SyncRun{
		ID:        "run-1",
		TenantID:  "t1",
		FolderID:  "root-1",
		State:     domain.RunListing,
		StartedAt: started,
	}
	require.NoError(t, runs.SaveRun(ctx, run))

	// Run finishes with a result containing an error entry.
	run.State = domain.RunDone
	run.FinishedAt = started.Add(time.Minute)
	run.Result = &domain.SyncResult{
		Success:   false,
		Processed: 9,
		Failed:    1,
		Created:   3,
		Updated:   2,
		Skipped:   4,
		Errors: []*domain.SyncError{
			{Message: "download interrupted", Code: domain.CodeDownloadFailed, Retryable: true},
		},
		Duration: time.Minute,
	}
	require.NoError(t, runs.SaveRun(ctx, run))

	found, err := runs.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunDone, found.State)
	assert.WithinDuration(t, started, found.StartedAt, time.Second)
	assert.WithinDuration(t, run.FinishedAt, found.FinishedAt, time.Second)
	require.NotNil(t, found.Result)
	assert.Equal(t, 9, found.Result.Processed)
	require.Len(t, found.Result.Errors, 1)
	assert.Equal(t, domain.CodeDownloadFailed, found.Result.Errors[0].Code)

	_, err = runs.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunStore_ListRunsByTenant(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	runs := store.RunStore()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, runs.SaveRun(ctx, &domain.SyncRun{
			ID: id, TenantID: "t1", State: domain.RunDone,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, runs.SaveRun(ctx, &domain.SyncRun{
		ID: "other", TenantID: "t2", State: domain.RunDone, StartedAt: base,
	}))

	list, err := runs.ListRunsByTenant(ctx, "t1", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "r3", list[0].ID)
	assert.Equal(t, "r2", list[1].ID)
}

func TestStore_MigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening must not re-run applied migrations.
	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.TenantStore().SaveTenant(context.Background(),
		domain.Tenant{ID: "t1", Name: "Acme", RootFolderID: "root"}))
}
