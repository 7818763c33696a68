package domain

import (
	"fmt"
	"time"
)

// AlertStatus classifies the urgency of a document's expiry date.
// It is derived from ExpiryDate and the current time, never authoritative.
type AlertStatus string

// Available alert statuses.
const (
	// AlertNone means the document has no expiry or it is comfortably in the future.
	AlertNone AlertStatus = "none"

	// AlertWarning means the expiry date falls within the warning window.
	AlertWarning AlertStatus = "warning"

	// AlertExpired means the expiry date has passed.
	AlertExpired AlertStatus = "expired"
)

// IsValid returns true if the alert status is recognised.
func (s AlertStatus) IsValid() bool {
	switch s {
	case AlertNone, AlertWarning, AlertExpired:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s AlertStatus) String() string {
	return string(s)
}

// LineageKey identifies "the same document across revisions".
// Two records with equal lineage keys are revisions of one document.
type LineageKey struct {
	// TenantID scopes the lineage to a tenant.
	TenantID string

	// PathCode is the hierarchical code, optionally prefixed with the
	// folder path the file was found under (e.g. "Policies/3.2.1").
	PathCode string

	// Title is the document title extracted from the filename.
	Title string
}

// String returns a stable composite form, usable as a map key.
func (k LineageKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.TenantID, k.PathCode, k.Title)
}

// DocumentRecord is the registry's unit of truth: one record per
// revision of a document lineage.
type DocumentRecord struct {
	// ID is the unique identifier for the record.
	ID string

	// Lineage identifies the document across revisions.
	Lineage LineageKey

	// Revision is the positive integer revision marker within the lineage.
	Revision int

	// ExpiryDate is the optional expiry date driving AlertStatus.
	ExpiryDate *time.Time

	// AlertStatus is derived from ExpiryDate and the current time.
	AlertStatus AlertStatus

	// ContentHash is the hex digest of the file bytes. Empty for legacy
	// records, which must always be treated as changed.
	ContentHash string

	// ExternalFileID is the folder-store identifier, unique when present.
	ExternalFileID string

	// Extension is the lower-cased file extension.
	Extension string

	// Obsolete is true for every revision of a lineage except the
	// currently-highest. Obsolete records are retained, never deleted.
	Obsolete bool

	// OwnerID is the user who owns the document.
	OwnerID string

	// CreatedAt is when the record was first created by a sync run.
	CreatedAt time.Time

	// UpdatedAt is when the record content or alert data last changed.
	UpdatedAt time.Time
}

// HasContentHash reports whether the record carries a content hash.
// Legacy records migrated before hashing existed have none.
func (r *DocumentRecord) HasContentHash() bool {
	return r.ContentHash != ""
}

// ContentChanged reports whether newHash should be considered a content
// change. A record without a hash always counts as changed.
func (r *DocumentRecord) ContentChanged(newHash string) bool {
	return !r.HasContentHash() || r.ContentHash != newHash
}
