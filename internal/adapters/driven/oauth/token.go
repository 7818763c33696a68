// Package oauth supplies per-tenant OAuth access tokens for the folder
// store. Refresh tokens are provisioned out of band and read from
// configuration; this adapter only performs the refresh-grant exchange.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// googleTokenURL is the default token endpoint.
const googleTokenURL = "https://oauth2.googleapis.com/token" //nolint:gosec // endpoint URL, not a credential

// tokenClient is shared across refresh calls. Token endpoints answer
// quickly; a stuck exchange should not hold a sync run hostage.
var tokenClient = &http.Client{Timeout: 30 * time.Second}

// TokenResponse holds the response from a token exchange.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	Expiry      time.Time `json:"-"`
}

// RefreshAccessToken exchanges a refresh token for a fresh access token
// using the OAuth 2.0 refresh grant.
func RefreshAccessToken(
	ctx context.Context,
	tokenURL, clientID, clientSecret, refreshToken string,
) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
		"refresh_token": {refreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := tokenClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, grantError(resp.StatusCode, body)
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if token.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}
	return &token, nil
}

// grantError surfaces the OAuth error code when the endpoint sent one.
// Google reports revoked refresh tokens as "invalid_grant", which the
// operator needs to see verbatim to re-provision the tenant.
func grantError(status int, body []byte) error {
	var oauthErr struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &oauthErr); err == nil && oauthErr.Error != "" {
		return fmt.Errorf("token error: %s - %s", oauthErr.Error, oauthErr.Description)
	}
	return fmt.Errorf("token request failed with status %d", status)
}
