package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veritrail/regsync/internal/core/domain"
)

// cliMockSyncService implements driving.SyncService for testing.
type cliMockSyncService struct {
	triggerErr    error
	runResult     *domain.SyncResult
	reconciled    int
	reconcileErr  error
	statusRun     *domain.SyncRun
	statusErr     error
	lastTenantID  string
	lastFolderID  string
	reconcileArgs []string
}

func (m *cliMockSyncService) Trigger(_ context.Context, tenantID, folderID string) (string, error) {
	m.lastTenantID = tenantID
	m.lastFolderID = folderID
	if m.triggerErr != nil {
		return "", m.triggerErr
	}
	return "run-1", nil
}

func (m *cliMockSyncService) Run(_ context.Context, tenantID, folderID string) (*domain.SyncResult, error) {
	m.lastTenantID = tenantID
	m.lastFolderID = folderID
	return m.runResult, nil
}

func (m *cliMockSyncService) Status(_ context.Context, _ string) (*domain.SyncRun, error) {
	return m.statusRun, m.statusErr
}

func (m *cliMockSyncService) Reconcile(_ context.Context, tenantID string) (int, error) {
	m.reconcileArgs = append(m.reconcileArgs, tenantID)
	return m.reconciled, m.reconcileErr
}

func setupSyncTest(mock *cliMockSyncService) func() {
	oldSync := syncService
	syncService = mock
	return func() {
		syncService = oldSync
	}
}

func doneRun(result *domain.SyncResult) *domain.SyncRun {
	return &domain.SyncRun{
		ID:       "run-1",
		TenantID: "t1",
		FolderID: "root",
		State:    domain.RunDone,
		Result:   result,
	}
}

func TestSyncCmd_Use(t *testing.T) {
	assert.Equal(t, "sync [tenant-id]", syncCmd.Use)
}

func TestSyncCmd_Short(t *testing.T) {
	assert.Equal(t, "Synchronise a tenant's document registry", syncCmd.Short)
}

func TestSyncCmd_Executes(t *testing.T) {
	mock := &cliMockSyncService{
		statusRun: doneRun(&domain.SyncResult{
			Success:   true,
			Processed: 3,
			Created:   2,
			Updated:   1,
		}),
	}
	cleanup := setupSyncTest(mock)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"sync", "t1"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Equal(t, "t1", mock.lastTenantID)
	assert.Contains(t, buf.String(), "Synchronising tenant: t1")
	assert.Contains(t, buf.String(), "Processed 3 documents (2 created, 1 updated, 0 unchanged)")
	assert.Contains(t, buf.String(), "completed successfully")
}

func TestSyncCmd_FolderFlag(t *testing.T) {
	mock := &cliMockSyncService{
		statusRun: doneRun(&domain.SyncResult{Success: true}),
	}
	cleanup := setupSyncTest(mock)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"sync", "t1", "--folder", "sub-folder"})
	defer func() {
		rootCmd.SetArgs(nil)
		syncFolderID = ""
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Equal(t, "sub-folder", mock.lastFolderID)
}

func TestSyncCmd_ReportsFailures(t *testing.T) {
	mock := &cliMockSyncService{
		statusRun: doneRun(&domain.SyncResult{
			Success:   false,
			Processed: 1,
			Failed:    1,
			Errors: []*domain.SyncError{
				{Code: domain.CodeDownloadFailed, Message: "boom"},
			},
		}),
	}
	cleanup := setupSyncTest(mock)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"sync", "t1"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Failed: 1")
	assert.Contains(t, buf.String(), "[DOWNLOAD_FAILED] boom")
	assert.Contains(t, buf.String(), "completed with errors")
}

func TestSyncCmd_TenantNotFound(t *testing.T) {
	mock := &cliMockSyncService{triggerErr: domain.ErrTenantNotFound}
	cleanup := setupSyncTest(mock)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"sync", "missing"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sync failed")
}

func TestSyncCmd_ServiceNotConfigured(t *testing.T) {
	oldSync := syncService
	syncService = nil
	defer func() {
		syncService = oldSync
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"sync", "t1"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sync service not configured")
}
