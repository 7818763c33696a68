// Package log provides an OperatorNotifier that records terminal run
// failures in the application log. Deployments with a paging or email
// channel replace this adapter; the sync engine only sees the port.
package log

import (
	"context"

	"github.com/veritrail/regsync/internal/core/domain"
	"github.com/veritrail/regsync/internal/core/ports/driven"
	"github.com/veritrail/regsync/internal/logger"
)

// Ensure Notifier implements the interface.
var _ driven.OperatorNotifier = (*Notifier)(nil)

// Notifier is a log-backed implementation of driven.OperatorNotifier.
type Notifier struct{}

// New creates a log-backed notifier.
func New() *Notifier {
	return &Notifier{}
}

// NotifyFailure writes one warning line per terminal error.
func (n *Notifier) NotifyFailure(_ context.Context, errs []*domain.SyncError, nc driven.NotificationContext) error {
	for _, se := range errs {
		logger.Warn("Sync failure for tenant %s (folder %s, processed %d, failed %d, took %s): %s",
			nc.TenantID, nc.FolderID, nc.Processed, nc.Failed, nc.Duration, se.Error())
	}
	return nil
}
