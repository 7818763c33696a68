package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritrail/regsync/internal/adapters/driven/storage/memory"
	"github.com/veritrail/regsync/internal/core/domain"
	"github.com/veritrail/regsync/internal/core/ports/driven"
	"github.com/veritrail/regsync/internal/core/ports/driving"
)

// --- Mock implementations for scheduler testing ---

// mockSchedulerStore implements driven.SchedulerStore for testing.
type mockSchedulerStore struct {
	mu      sync.RWMutex
	tasks   map[string]*domain.ScheduledTask
	results map[string][]domain.TaskResult
}

func newMockSchedulerStore() *mockSchedulerStore {
	return &mockSchedulerStore{
		tasks:   make(map[string]*domain.ScheduledTask),
		results: make(map[string][]domain.TaskResult),
	}
}

func (m *mockSchedulerStore) GetTask(_ context.Context, taskID string) (*domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, exists := m.tasks[taskID]
	if !exists {
		return nil, nil
	}
	// Return a copy
	taskCopy := *task
	return &taskCopy, nil
}

func (m *mockSchedulerStore) ListTasks(_ context.Context) ([]domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tasks := make([]domain.ScheduledTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, *t)
	}
	return tasks, nil
}

func (m *mockSchedulerStore) SaveTask(_ context.Context, task *domain.ScheduledTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if task == nil {
		return domain.ErrInvalidInput
	}
	taskCopy := *task
	m.tasks[task.ID] = &taskCopy
	return nil
}

func (m *mockSchedulerStore) DeleteTask(_ context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, taskID)
	return nil
}

func (m *mockSchedulerStore) RecordResult(_ context.Context, result *domain.TaskResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if result == nil {
		return domain.ErrInvalidInput
	}
	m.results[result.TaskID] = append(m.results[result.TaskID], *result)
	return nil
}

func (m *mockSchedulerStore) GetTaskHistory(_ context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := m.results[taskID]
	if len(results) > limit {
		results = results[len(results)-limit:]
	}
	return results, nil
}

func (m *mockSchedulerStore) PruneHistory(_ context.Context, _ int) error {
	return nil
}

// mockSyncService implements driving.SyncService for testing.
type mockSyncService struct {
	mu             sync.Mutex
	runCalls       []string
	reconcileCalls []string
	runErr         error
	runResult      *domain.SyncResult
}

func (m *mockSyncService) Trigger(_ context.Context, _, _ string) (string, error) {
	return "run-1", nil
}

func (m *mockSyncService) Run(_ context.Context, tenantID, _ string) (*domain.SyncResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runCalls = append(m.runCalls, tenantID)
	if m.runErr != nil {
		return nil, m.runErr
	}
	if m.runResult != nil {
		return m.runResult, nil
	}
	return &domain.SyncResult{Success: true}, nil
}

func (m *mockSyncService) Status(_ context.Context, _ string) (*domain.SyncRun, error) {
	return &domain.SyncRun{}, nil
}

func (m *mockSyncService) Reconcile(_ context.Context, tenantID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconcileCalls = append(m.reconcileCalls, tenantID)
	return 0, nil
}

// Ensure mocks implement interfaces
var _ driven.SchedulerStore = (*mockSchedulerStore)(nil)
var _ driving.SyncService = (*mockSyncService)(nil)

func schedulerTenants(t *testing.T, ids ...string) *memory.TenantStore {
	t.Helper()
	store := memory.NewTenantStore()
	for _, id := range ids {
		require.NoError(t, store.SaveTenant(context.Background(), domain.Tenant{ID: id, Name: "Tenant " + id}))
	}
	return store
}

// ==================== Scheduler Tests ====================

func TestNewScheduler(t *testing.T) {
	config := domain.DefaultSchedulerConfig()
	store := newMockSchedulerStore()

	scheduler := NewScheduler(config, store, schedulerTenants(t, "t1"), &mockSyncService{})

	require.NotNil(t, scheduler)
	assert.Equal(t, config.Enabled, scheduler.config.Enabled)
}

func TestScheduler_StartStop(t *testing.T) {
	config := domain.DefaultSchedulerConfig()
	store := newMockSchedulerStore()

	scheduler := NewScheduler(config, store, schedulerTenants(t, "t1"), &mockSyncService{})

	ctx, cancel := context.WithCancel(context.Background())

	// Start scheduler in goroutine
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = scheduler.Start(ctx)
	}()

	// Give it time to start
	time.Sleep(50 * time.Millisecond)

	// Stop scheduler
	cancel()
	err := scheduler.Stop()
	require.NoError(t, err)

	wg.Wait()
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), schedulerTenants(t), &mockSyncService{})

	// Stop without starting should be safe
	err := scheduler.Stop()
	require.NoError(t, err)
}

func TestScheduler_InitialiseTasks(t *testing.T) {
	config := domain.DefaultSchedulerConfig()
	store := newMockSchedulerStore()

	scheduler := NewScheduler(config, store, schedulerTenants(t, "t1", "t2"), &mockSyncService{})

	ctx := context.Background()
	err := scheduler.initialiseTasks(ctx)
	require.NoError(t, err)

	// Both kinds exist for both tenants
	for _, tenantID := range []string{"t1", "t2"} {
		syncTask, err := store.GetTask(ctx, taskID(domain.TaskIDRegistrySync, tenantID))
		require.NoError(t, err)
		require.NotNil(t, syncTask)
		assert.Equal(t, tenantID, syncTask.TenantID)
		assert.True(t, syncTask.Enabled)

		auditTask, err := store.GetTask(ctx, taskID(domain.TaskIDObsolescenceAudit, tenantID))
		require.NoError(t, err)
		require.NotNil(t, auditTask)
		assert.Equal(t, domain.TaskIDObsolescenceAudit, auditTask.Kind)
	}
}

func TestScheduler_EnsureTask_UpdateInterval(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), schedulerTenants(t), &mockSyncService{})
	ctx := context.Background()

	// Create initial task
	taskCfg := domain.TaskConfig{
		Enabled:  true,
		Interval: 1 * time.Hour,
	}
	err := scheduler.ensureTask(ctx, domain.TaskIDRegistrySync, "t1", "Test Task", taskCfg)
	require.NoError(t, err)

	// Update with new interval
	taskCfg.Interval = 2 * time.Hour
	err = scheduler.ensureTask(ctx, domain.TaskIDRegistrySync, "t1", "Test Task", taskCfg)
	require.NoError(t, err)

	// Verify interval was updated
	task, err := scheduler.store.GetTask(ctx, taskID(domain.TaskIDRegistrySync, "t1"))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, task.Interval)
}

func TestScheduler_RunsDueTasks(t *testing.T) {
	store := newMockSchedulerStore()
	syncSvc := &mockSyncService{runResult: &domain.SyncResult{Success: true, Processed: 3}}
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, schedulerTenants(t, "t1"), syncSvc)
	ctx := context.Background()

	// A sync task already past its next-run time.
	id := taskID(domain.TaskIDRegistrySync, "t1")
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       id,
		TenantID: "t1",
		Kind:     domain.TaskIDRegistrySync,
		Interval: time.Hour,
		Enabled:  true,
		NextRun:  time.Now().Add(-time.Minute),
	}))

	scheduler.checkAndRunDueTasks(ctx)
	scheduler.wg.Wait()

	syncSvc.mu.Lock()
	assert.Equal(t, []string{"t1"}, syncSvc.runCalls)
	syncSvc.mu.Unlock()

	task, err := store.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, task.LastError)
	assert.True(t, task.NextRun.After(time.Now()))

	history, err := store.GetTaskHistory(ctx, id, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
	assert.Equal(t, 3, history[0].ItemsProcessed)
}

func TestScheduler_SkipsDisabledTasks(t *testing.T) {
	store := newMockSchedulerStore()
	syncSvc := &mockSyncService{}
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, schedulerTenants(t, "t1"), syncSvc)
	ctx := context.Background()

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       taskID(domain.TaskIDRegistrySync, "t1"),
		TenantID: "t1",
		Kind:     domain.TaskIDRegistrySync,
		Interval: time.Hour,
		Enabled:  false,
		NextRun:  time.Now().Add(-time.Minute),
	}))

	scheduler.checkAndRunDueTasks(ctx)
	scheduler.wg.Wait()

	syncSvc.mu.Lock()
	assert.Empty(t, syncSvc.runCalls)
	syncSvc.mu.Unlock()
}

func TestScheduler_InFlightRunIsNotAnError(t *testing.T) {
	store := newMockSchedulerStore()
	syncSvc := &mockSyncService{runErr: domain.ErrSyncInProgress}
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, schedulerTenants(t, "t1"), syncSvc)
	ctx := context.Background()

	id := taskID(domain.TaskIDRegistrySync, "t1")
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       id,
		TenantID: "t1",
		Kind:     domain.TaskIDRegistrySync,
		Interval: time.Hour,
		Enabled:  true,
		NextRun:  time.Now().Add(-time.Minute),
	}))

	scheduler.checkAndRunDueTasks(ctx)
	scheduler.wg.Wait()

	task, err := store.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, task.LastError)
}
