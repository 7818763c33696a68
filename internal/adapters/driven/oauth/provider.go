package oauth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/veritrail/regsync/internal/adapters/driven/config/file"
	"github.com/veritrail/regsync/internal/core/ports/driven"
)

// expiryMargin is how long before nominal expiry a cached token is
// treated as stale.
const expiryMargin = time.Minute

// Ensure TokenProvider implements the interface.
var _ driven.TokenProvider = (*TokenProvider)(nil)

// TokenProvider implements driven.TokenProvider over the config store.
// Each tenant's refresh token lives under "tenant.<id>.refresh_token";
// access tokens are cached in memory until shortly before expiry.
type TokenProvider struct {
	cfg      driven.ConfigStore
	tokenURL string

	mu    sync.Mutex
	cache map[string]cachedToken
}

type cachedToken struct {
	token  string
	expiry time.Time
}

// NewTokenProvider creates a token provider backed by configuration.
func NewTokenProvider(cfg driven.ConfigStore) *TokenProvider {
	tokenURL := cfg.GetString(file.KeyGoogleTokenURL)
	if tokenURL == "" {
		tokenURL = googleTokenURL
	}
	return &TokenProvider{
		cfg:      cfg,
		tokenURL: tokenURL,
		cache:    make(map[string]cachedToken),
	}
}

// GetToken returns a valid access token for the tenant, refreshing it
// through the token endpoint when the cached one is stale.
func (p *TokenProvider) GetToken(ctx context.Context, tenantID string) (string, error) {
	p.mu.Lock()
	cached, ok := p.cache[tenantID]
	p.mu.Unlock()
	if ok && time.Now().Before(cached.expiry.Add(-expiryMargin)) {
		return cached.token, nil
	}

	refreshToken := p.cfg.GetString(file.TenantRefreshTokenKey(tenantID))
	if refreshToken == "" {
		return "", fmt.Errorf("no credentials configured for tenant %s", tenantID)
	}

	clientID := p.cfg.GetString(file.KeyGoogleClientID)
	clientSecret := p.cfg.GetString(file.KeyGoogleClientSecret)
	if clientID == "" || clientSecret == "" {
		return "", fmt.Errorf("google client credentials not configured")
	}

	resp, err := RefreshAccessToken(ctx, p.tokenURL, clientID, clientSecret, refreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh token for tenant %s: %w", tenantID, err)
	}

	p.mu.Lock()
	p.cache[tenantID] = cachedToken{token: resp.AccessToken, expiry: resp.Expiry}
	p.mu.Unlock()

	return resp.AccessToken, nil
}
