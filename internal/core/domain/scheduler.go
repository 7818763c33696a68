package domain

import "time"

// ScheduledTask represents a recurring background task. Sync tasks are
// per-tenant: the supervisor owns one task per tenant rather than a
// process-wide timer map.
type ScheduledTask struct {
	// ID is the unique identifier for the task.
	ID string

	// Name is a human-readable name for the task.
	Name string

	// TenantID scopes the task to a tenant. Empty for global tasks.
	TenantID string

	// Kind identifies what the task does (one of the TaskID constants).
	Kind string

	// Interval defines how often the task should run.
	Interval time.Duration

	// LastRun is when the task last ran.
	LastRun time.Time

	// NextRun is when the task should run next.
	NextRun time.Time

	// LastError contains the last error message, if any.
	LastError string

	// LastSuccess is when the task last completed successfully.
	LastSuccess time.Time

	// Enabled indicates whether the task is active.
	Enabled bool
}

// TaskResult represents the outcome of a task execution.
type TaskResult struct {
	// TaskID identifies which task was run.
	TaskID string

	// StartedAt is when the task started.
	StartedAt time.Time

	// EndedAt is when the task completed.
	EndedAt time.Time

	// Success indicates whether the task completed without error.
	Success bool

	// Error contains the error message if Success is false.
	Error string

	// ItemsProcessed counts items handled (documents synced or records
	// reconciled).
	ItemsProcessed int
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// Enabled is the master switch for the scheduler.
	Enabled bool

	// TaskConfigs holds per-task configuration keyed by task kind.
	TaskConfigs map[string]TaskConfig
}

// TaskConfig holds configuration for a single task kind.
type TaskConfig struct {
	// Enabled indicates whether this task should run.
	Enabled bool

	// Interval defines how often the task should run.
	Interval time.Duration
}

// GetTaskConfig returns the configuration for a specific task kind.
// Returns a zero TaskConfig if the task is not configured.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig returns sensible defaults for the scheduler.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]TaskConfig{
			TaskIDRegistrySync: {
				Enabled:  true,
				Interval: 1 * time.Hour,
			},
			TaskIDObsolescenceAudit: {
				Enabled:  true,
				Interval: 24 * time.Hour,
			},
		},
	}
}

// Task kinds for built-in tasks.
const (
	// TaskIDRegistrySync runs a reconciliation pass per tenant.
	TaskIDRegistrySync = "registry-sync"

	// TaskIDObsolescenceAudit runs the obsolescence pass standalone to
	// correct drift from manual registry edits.
	TaskIDObsolescenceAudit = "obsolescence-audit"
)
