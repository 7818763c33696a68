package domain

// RemoteFile is an ephemeral descriptor of a non-folder file discovered
// in the external folder store. It is produced by the traverser and
// never persisted.
type RemoteFile struct {
	// ID is the folder-store identifier for the file.
	ID string

	// Name is the raw filename, expected to follow the naming convention.
	Name string

	// ParentID is the folder-store identifier of the containing folder.
	ParentID string

	// FolderPath is the slash-joined path of folder names beneath the
	// traversal root (empty for files directly under the root).
	FolderPath string

	// MIMEType is the content type hint from the folder store.
	MIMEType string

	// Size is the file size in bytes when the store reports one.
	Size int64
}

// FolderEntry is a single child returned from a folder listing.
type FolderEntry struct {
	// ID is the folder-store identifier.
	ID string

	// Name is the entry name.
	Name string

	// MIMEType distinguishes folders from files.
	MIMEType string

	// Trashed marks entries in the store's trash; these are skipped.
	Trashed bool

	// Size is the reported size in bytes, zero when unknown.
	Size int64
}

// FolderPage is one page of a folder listing.
type FolderPage struct {
	// Entries are the immediate children on this page.
	Entries []FolderEntry

	// NextPageToken is non-empty while further pages remain.
	NextPageToken string
}
