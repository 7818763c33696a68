package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritrail/regsync/internal/core/domain"
)

func TestRunStore_SaveAndGet(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	run := &domain.SyncRun{ID: "run-1", TenantID: "t1", State: domain.RunListing}
	require.NoError(t, store.SaveRun(ctx, run))

	run.State = domain.RunDone
	require.NoError(t, store.SaveRun(ctx, run))

	found, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunDone, found.State)

	_, err = store.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunStore_ListRunsByTenant(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	_ = store.SaveRun(ctx, &domain.SyncRun{ID: "r1", TenantID: "t1", StartedAt: base})
	_ = store.SaveRun(ctx, &domain.SyncRun{ID: "r2", TenantID: "t1", StartedAt: base.Add(time.Hour)})
	_ = store.SaveRun(ctx, &domain.SyncRun{ID: "r3", TenantID: "t2", StartedAt: base})

	runs, err := store.ListRunsByTenant(ctx, "t1", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r2", runs[0].ID)

	limited, err := store.ListRunsByTenant(ctx, "t1", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "r2", limited[0].ID)
}
