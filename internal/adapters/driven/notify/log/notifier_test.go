package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veritrail/regsync/internal/core/domain"
	"github.com/veritrail/regsync/internal/core/ports/driven"
)

func TestNotifier_NotifyFailure(t *testing.T) {
	n := New()

	err := n.NotifyFailure(context.Background(), []*domain.SyncError{
		{Message: "token refresh failed", Code: domain.CodeConnectionFailed, Retryable: true},
	}, driven.NotificationContext{TenantID: "t1", FolderID: "root", Duration: "3s"})
	require.NoError(t, err)

	// Empty error lists are a no-op.
	require.NoError(t, n.NotifyFailure(context.Background(), nil, driven.NotificationContext{}))
}
