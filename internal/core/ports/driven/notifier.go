package driven

import (
	"context"

	"github.com/veritrail/regsync/internal/core/domain"
)

// NotificationContext accompanies an operator notification.
type NotificationContext struct {
	// TenantID is the tenant the failing run acted for.
	TenantID string

	// FolderID is the traversal root of the failing run.
	FolderID string

	// Processed and Failed are the run's counters at failure time.
	Processed int
	Failed    int

	// Duration is how long the run lasted.
	Duration string
}

// OperatorNotifier delivers terminal-failure notifications to
// operators. Delivery (email, paging) is an external collaborator;
// only a curated subset of terminal error codes is forwarded here,
// never routine file-level failures.
type OperatorNotifier interface {
	// NotifyFailure reports terminal errors for a run.
	NotifyFailure(ctx context.Context, errs []*domain.SyncError, nc NotificationContext) error
}
