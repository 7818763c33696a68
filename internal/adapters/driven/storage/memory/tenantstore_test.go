package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritrail/regsync/internal/core/domain"
)

func TestTenantStore_SaveAndGet(t *testing.T) {
	store := NewTenantStore()
	ctx := context.Background()

	require.NoError(t, store.SaveTenant(ctx, domain.Tenant{ID: "t1", Name: "Acme", RootFolderID: "root-1"}))

	tenant, err := store.GetTenant(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", tenant.Name)

	_, err = store.GetTenant(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTenantStore_ListTenants(t *testing.T) {
	store := NewTenantStore()
	ctx := context.Background()

	_ = store.SaveTenant(ctx, domain.Tenant{ID: "t1"})
	_ = store.SaveTenant(ctx, domain.Tenant{ID: "t2"})

	tenants, err := store.ListTenants(ctx)
	require.NoError(t, err)
	assert.Len(t, tenants, 2)
}

func TestTenantStore_DeleteTenant(t *testing.T) {
	store := NewTenantStore()
	ctx := context.Background()

	require.NoError(t, store.SaveTenant(ctx, domain.Tenant{ID: "t1", RootFolderID: "root-1"}))
	require.NoError(t, store.DeleteTenant(ctx, "t1"))

	_, err := store.GetTenant(ctx, "t1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, store.DeleteTenant(ctx, "t1"), domain.ErrNotFound)
}
