package driven

import (
	"context"

	"github.com/veritrail/regsync/internal/core/domain"
)

// FolderStore is the narrow interface to the external cloud folder
// store. The production adapter wraps the Google Drive v3 API; tests
// use in-memory fakes.
//
// Every method represents a remote call: implementations are expected
// to honour context deadlines, and callers wrap each call with the
// retry policy.
type FolderStore interface {
	// ListChildren returns one page of a folder's immediate children.
	// pageToken is empty for the first page; the returned page carries
	// the token for the next one until exhausted.
	ListChildren(ctx context.Context, folderID, pageToken string) (*domain.FolderPage, error)

	// GetMetadata fetches name and MIME type for a single entry.
	GetMetadata(ctx context.Context, fileID string) (*domain.FolderEntry, error)

	// DownloadContent fetches the raw bytes of a stored file.
	DownloadContent(ctx context.Context, fileID string) ([]byte, error)

	// ExportContent converts a native-format document (e.g. a Google
	// Sheet) to targetMime and returns the bytes.
	ExportContent(ctx context.Context, fileID, targetMime string) ([]byte, error)

	// IsFolder reports whether a MIME type denotes a folder.
	IsFolder(mimeType string) bool

	// NativeExportMime returns the export target for a native-format
	// document MIME type (e.g. Google Sheet -> text/csv), and false
	// for files that download as-is.
	NativeExportMime(mimeType string) (string, bool)

	// IsSpreadsheet reports whether a MIME type denotes tabular
	// content subject to expiry analysis.
	IsSpreadsheet(mimeType string) bool
}

// FolderStoreConnector opens an authenticated FolderStore for a tenant.
// Obtaining the session is itself a remote call and is retried; a
// persistent failure is terminal for the run (DRIVE_CONNECTION_FAILED).
type FolderStoreConnector interface {
	// Connect returns an authenticated store for the tenant.
	Connect(ctx context.Context, tenantID string) (FolderStore, error)
}
