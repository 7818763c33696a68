// Package google provides shared infrastructure for the Google Drive
// folder-store adapter:
//
//   - TokenSource adapter bridging the TokenProvider port to oauth2.TokenSource
//   - Drive service construction
//   - Error handling and classification for common API errors (401, 403, 404, 429)
//   - Rate limiting to respect Drive API quotas
//
// # OAuth2 Scopes
//
// The Drive adapter uses these scopes:
//   - https://www.googleapis.com/auth/userinfo.email (non-sensitive)
//   - https://www.googleapis.com/auth/drive.readonly (restricted)
//
// For user-created internal apps, restricted scopes don't require verification.
package google
