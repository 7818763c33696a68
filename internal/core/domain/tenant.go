package domain

import "time"

// Tenant is a client organisation whose documents are tracked in the
// registry. Each tenant owns one folder-store root.
type Tenant struct {
	// ID is the unique tenant identifier.
	ID string

	// Name is the human-readable tenant name.
	Name string

	// RootFolderID is the default folder-store root for this tenant.
	RootFolderID string

	// OwnerID is the user account responsible for the tenant.
	OwnerID string

	// CreatedAt is when the tenant was registered.
	CreatedAt time.Time

	// UpdatedAt is when the tenant was last modified.
	UpdatedAt time.Time
}
