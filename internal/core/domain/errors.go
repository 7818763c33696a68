package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTenantNotFound indicates the acting tenant does not exist.
	// Terminal for a sync run and never retried.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrSyncInProgress indicates a run is already active for the
	// tenant. Two runs for the same tenant must never interleave.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrConnectionFailed indicates the folder store could not be
	// reached after retries were exhausted.
	ErrConnectionFailed = errors.New("folder store connection failed")

	// ErrRunCancelled indicates the run was cancelled between batches.
	ErrRunCancelled = errors.New("sync run cancelled")

	// ErrRateLimited indicates the folder-store API rate limit was
	// exceeded.
	ErrRateLimited = errors.New("rate limited")
)
