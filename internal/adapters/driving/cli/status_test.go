package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/veritrail/regsync/internal/core/domain"
)

func TestStatusCmd_Use(t *testing.T) {
	assert.Equal(t, "status [run-id]", statusCmd.Use)
}

func TestStatusCmd_ShowsRun(t *testing.T) {
	started := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	mock := &cliMockSyncService{
		statusRun: &domain.SyncRun{
			ID:         "run-42",
			TenantID:   "t1",
			FolderID:   "root",
			State:      domain.RunDone,
			StartedAt:  started,
			FinishedAt: started.Add(time.Minute),
			Result: &domain.SyncResult{
				Success:   true,
				Processed: 5,
				Created:   5,
			},
		},
	}
	cleanup := setupSyncTest(mock)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"status", "run-42"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Run: run-42")
	assert.Contains(t, buf.String(), "State:    done")
	assert.Contains(t, buf.String(), "Processed: 5 (5 created, 0 updated, 0 unchanged)")
}

func TestStatusCmd_RunNotFound(t *testing.T) {
	mock := &cliMockSyncService{statusErr: domain.ErrNotFound}
	cleanup := setupSyncTest(mock)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"status", "missing"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get run status")
}
