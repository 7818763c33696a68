package driven

import "context"

// TokenProvider supplies OAuth access tokens for a tenant's
// folder-store account. Session and credential management is an
// external collaborator; the sync engine only consumes tokens.
type TokenProvider interface {
	// GetToken returns a valid access token for the tenant.
	GetToken(ctx context.Context, tenantID string) (string, error)
}
