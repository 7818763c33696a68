package domain

import (
	"fmt"
	"time"
)

// Error codes attached to SyncError values. A curated subset of these
// (the terminal ones) is forwarded to the operator notifier.
const (
	// CodeUserNotFound means the acting tenant or user does not exist.
	// Non-retryable and terminal for the run.
	CodeUserNotFound = "USER_NOT_FOUND"

	// CodeConnectionFailed means the folder store could not be reached
	// after retries. Retryable (a later run may succeed) but terminal
	// for this run.
	CodeConnectionFailed = "DRIVE_CONNECTION_FAILED"

	// CodeListFailed means a folder listing failed after retries.
	CodeListFailed = "LIST_FAILED"

	// CodeDownloadFailed means file content could not be fetched.
	CodeDownloadFailed = "DOWNLOAD_FAILED"

	// CodeAnalyzeFailed means tabular content analysis failed.
	CodeAnalyzeFailed = "ANALYZE_FAILED"

	// CodeUpsertFailed means the registry write failed.
	CodeUpsertFailed = "UPSERT_FAILED"

	// CodeRunFailed means the run aborted for a reason not tied to a
	// single file.
	CodeRunFailed = "SYNC_RUN_FAILED"
)

// SyncError describes one failing operation during a run. File-level
// errors are aggregated into the SyncResult, never propagated across
// file boundaries.
type SyncError struct {
	// Message is the underlying error text. The original cause is
	// preserved verbatim.
	Message string

	// Code is one of the Code* constants.
	Code string

	// Retryable indicates a future run might succeed.
	Retryable bool

	// Context carries operation details (file ID, operation name,
	// attempt counts).
	Context map[string]string
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Terminal reports whether this error class aborts the whole run.
func (e *SyncError) Terminal() bool {
	switch e.Code {
	case CodeUserNotFound, CodeConnectionFailed, CodeRunFailed:
		return true
	default:
		return false
	}
}

// RunState is the lifecycle state of a sync run.
type RunState string

// Run states, in order of progression.
const (
	RunIdle        RunState = "idle"
	RunListing     RunState = "listing"
	RunDispatching RunState = "dispatching"
	RunReconciling RunState = "reconciling"
	RunDone        RunState = "done"
	RunFailed      RunState = "failed"
)

// Finished reports whether the state is terminal.
func (s RunState) Finished() bool {
	return s == RunDone || s == RunFailed
}

// SyncResult summarises one orchestrator run. Success is false if any
// file-level or connection-level error occurred, even when some files
// were processed.
type SyncResult struct {
	// Success is true only when every file succeeded and no
	// connection-level error occurred.
	Success bool

	// Processed counts files that completed the full pipeline
	// (including skips where content was unchanged).
	Processed int

	// Failed counts files whose task raised an error.
	Failed int

	// Created, Updated and Skipped break Processed down by the upsert
	// decision taken.
	Created int
	Updated int
	Skipped int

	// Errors holds every captured SyncError, file-level and terminal.
	Errors []*SyncError

	// Duration is the wall-clock length of the run.
	Duration time.Duration
}

// SyncRun is the persisted status record for a triggered run. The
// trigger surface returns its ID immediately; callers poll it for the
// eventual outcome.
type SyncRun struct {
	// ID is the unique run identifier.
	ID string

	// TenantID is the tenant the run acts for.
	TenantID string

	// FolderID is the traversal root in the folder store.
	FolderID string

	// State is the current lifecycle state.
	State RunState

	// Result is populated once the run finishes.
	Result *SyncResult

	// StartedAt is when the run was accepted.
	StartedAt time.Time

	// FinishedAt is when the run reached a terminal state.
	FinishedAt time.Time
}
