// Package file persists configuration as a TOML file, by default at
// ~/.regsync/config.toml. Keys are addressed in dot notation
// ("google.client_id", "tenant.<id>.refresh_token") and written to
// disk as nested tables. The file holds OAuth client credentials and
// per-tenant refresh tokens, so it is created with 0600 permissions.
package file
