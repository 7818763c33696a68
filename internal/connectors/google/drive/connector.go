package drive

import (
	"context"
	"fmt"

	"github.com/veritrail/regsync/internal/connectors/google"
	"github.com/veritrail/regsync/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.FolderStoreConnector = (*Connector)(nil)

// Connector opens authenticated Drive stores per tenant.
type Connector struct {
	tokens driven.TokenProvider
	cfg    *Config
}

// NewConnector creates a Drive connector using the token collaborator.
func NewConnector(tokens driven.TokenProvider, cfg *Config) *Connector {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Connector{tokens: tokens, cfg: cfg}
}

// Connect builds a Drive service for the tenant and verifies it with a
// lightweight About call before handing the store out.
func (c *Connector) Connect(ctx context.Context, tenantID string) (driven.FolderStore, error) {
	ts := google.NewTokenSource(ctx, c.tokens, tenantID)

	svc, err := google.NewDriveService(ctx, ts)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	if _, err := svc.About.Get().Fields("user").Context(ctx).Do(); err != nil {
		return nil, fmt.Errorf("verify drive session: %w", google.WrapError(err))
	}

	return NewStore(svc, c.cfg), nil
}
