package google

import (
	"context"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/veritrail/regsync/internal/core/ports/driven"
)

// NewDriveService creates a Google Drive API service using the provided
// TokenSource.
func NewDriveService(ctx context.Context, ts oauth2.TokenSource) (*drive.Service, error) {
	return drive.NewService(ctx, option.WithTokenSource(ts))
}

// TokenSourceAdapter adapts the TokenProvider port to oauth2.TokenSource
// so Drive API clients can use the external credential collaborator.
type TokenSourceAdapter struct {
	provider driven.TokenProvider
	tenantID string
	ctx      context.Context
}

// NewTokenSource creates an oauth2.TokenSource bound to a tenant.
// The returned TokenSource can be used with option.WithTokenSource()
// when creating Drive API services.
func NewTokenSource(ctx context.Context, provider driven.TokenProvider, tenantID string) oauth2.TokenSource {
	return &TokenSourceAdapter{
		provider: provider,
		tenantID: tenantID,
		ctx:      ctx,
	}
}

// Token implements oauth2.TokenSource.
// Called by Drive API clients when they need an access token.
func (t *TokenSourceAdapter) Token() (*oauth2.Token, error) {
	accessToken, err := t.provider.GetToken(t.ctx, t.tenantID)
	if err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}, nil
}
