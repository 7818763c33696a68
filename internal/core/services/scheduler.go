package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/veritrail/regsync/internal/core/domain"
	"github.com/veritrail/regsync/internal/core/ports/driven"
	"github.com/veritrail/regsync/internal/core/ports/driving"
)

// Scheduler manages background task execution. It owns one task per
// tenant and kind: a periodic registry sync and a daily obsolescence
// audit. It is a pure core service with no external control API.
type Scheduler struct {
	config  domain.SchedulerConfig
	store   driven.SchedulerStore
	tenants driven.TenantStore
	syncSvc driving.SyncService

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	tenants driven.TenantStore,
	syncSvc driving.SyncService,
) *Scheduler {
	return &Scheduler{
		config:  config,
		store:   store,
		tenants: tenants,
		syncSvc: syncSvc,
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	// Initialise tasks in store
	if err := s.initialiseTasks(ctx); err != nil {
		log.Printf("scheduler: failed to initialise tasks: %v", err)
	}

	// Run the main scheduler loop
	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for running tasks to complete
	s.wg.Wait()

	return nil
}

// taskID builds the store key for a (kind, tenant) pair.
func taskID(kind, tenantID string) string {
	return kind + ":" + tenantID
}

// initialiseTasks ensures every enabled task kind exists in the store
// for every registered tenant. Tenants registered while the scheduler
// is running are picked up on the next restart.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	tenants, err := s.tenants.ListTenants(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}

	for _, tenant := range tenants {
		if cfg := s.config.GetTaskConfig(domain.TaskIDRegistrySync); cfg.Enabled {
			name := fmt.Sprintf("Registry Sync (%s)", tenant.Name)
			if err := s.ensureTask(ctx, domain.TaskIDRegistrySync, tenant.ID, name, cfg); err != nil {
				return err
			}
		}
		if cfg := s.config.GetTaskConfig(domain.TaskIDObsolescenceAudit); cfg.Enabled {
			name := fmt.Sprintf("Obsolescence Audit (%s)", tenant.Name)
			if err := s.ensureTask(ctx, domain.TaskIDObsolescenceAudit, tenant.ID, name, cfg); err != nil {
				return err
			}
		}
	}

	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, kind, tenantID, name string, cfg domain.TaskConfig) error {
	id := taskID(kind, tenantID)
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		// Create new task
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			TenantID: tenantID,
			Kind:     kind,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  time.Now().Add(cfg.Interval),
		}
	} else {
		// Update interval if changed
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			// Recalculate next run from now
			task.NextRun = time.Now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	// Check for due tasks immediately on startup
	s.checkAndRunDueTasks(ctx)

	// Use a 1-minute ticker to check for due tasks
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		log.Printf("scheduler: failed to list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		task := &tasks[i]
		if !task.Enabled {
			continue
		}
		if task.NextRun.IsZero() || task.NextRun.Before(now) || task.NextRun.Equal(now) {
			s.runTask(ctx, task)
		}
	}
}

// runTask executes a single task.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: time.Now(),
		}

		var err error
		switch task.Kind {
		case domain.TaskIDRegistrySync:
			result.ItemsProcessed, err = s.runRegistrySync(ctx, task.TenantID)
		case domain.TaskIDObsolescenceAudit:
			result.ItemsProcessed, err = s.syncSvc.Reconcile(ctx, task.TenantID)
		default:
			log.Printf("scheduler: unknown task kind: %s", task.Kind)
			return
		}

		result.EndedAt = time.Now()
		if err != nil {
			result.Success = false
			result.Error = err.Error()
			task.LastError = err.Error()
		} else {
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		}

		// Update task state
		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)

		if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
			log.Printf("scheduler: failed to save task %s: %v", task.ID, saveErr)
		}

		// Record result for history
		if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
			log.Printf("scheduler: failed to record result for %s: %v", task.ID, recordErr)
		}

		// Prune old history (keep last 100 results per task)
		if pruneErr := s.store.PruneHistory(ctx, 100); pruneErr != nil {
			log.Printf("scheduler: failed to prune history: %v", pruneErr)
		}
	}()
}

// runRegistrySync runs a full reconciliation pass for one tenant.
// A run already in flight for the tenant is not an error; the task
// simply yields until its next tick.
func (s *Scheduler) runRegistrySync(ctx context.Context, tenantID string) (int, error) {
	res, err := s.syncSvc.Run(ctx, tenantID, "")
	if err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			return 0, nil
		}
		return 0, err
	}
	return res.Processed, nil
}
