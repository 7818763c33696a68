package drive

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/veritrail/regsync/internal/connectors/google"
	"github.com/veritrail/regsync/internal/core/domain"
	"github.com/veritrail/regsync/internal/core/ports/driven"
)

// Google Workspace MIME types.
const (
	MimeTypeFolder      = "application/vnd.google-apps.folder"
	MimeTypeGoogleDoc   = "application/vnd.google-apps.document"
	MimeTypeGoogleSheet = "application/vnd.google-apps.spreadsheet"
)

// Export formats for Google Workspace files.
const (
	ExportMimeText = "text/plain"
	ExportMimeCSV  = "text/csv"
)

// Spreadsheet MIME types subject to expiry analysis.
const (
	MimeTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeTypeXLS  = "application/vnd.ms-excel"
	MimeTypeCSV  = "text/csv"
)

// MaxContentSize is the maximum size for downloaded or exported content (20MB).
const MaxContentSize = 20 * 1024 * 1024

// listFields limits listing responses to the fields the traverser needs.
const listFields = "nextPageToken, files(id, name, mimeType, trashed, size)"

// Ensure Store implements the interface.
var _ driven.FolderStore = (*Store)(nil)

// Store implements the FolderStore port over the Drive v3 API.
// Every call waits on the shared rate limiter before going out.
type Store struct {
	svc      *drive.Service
	limiter  *google.RateLimiter
	pageSize int64
}

// NewStore creates a Store around an authenticated Drive service.
func NewStore(svc *drive.Service, cfg *Config) *Store {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Store{
		svc:      svc,
		limiter:  google.NewRateLimiter(cfg.RateLimit),
		pageSize: cfg.PageSize,
	}
}

// ListChildren returns one page of a folder's immediate children.
func (s *Store) ListChildren(ctx context.Context, folderID, pageToken string) (*domain.FolderPage, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	call := s.svc.Files.List().
		Q(fmt.Sprintf("'%s' in parents", folderID)).
		Fields(googleapi.Field(listFields)).
		PageSize(s.pageSize).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		s.recordRateLimit(err)
		return nil, fmt.Errorf("list children of %s: %w", folderID, google.WrapError(err))
	}

	page := &domain.FolderPage{
		Entries:       make([]domain.FolderEntry, 0, len(resp.Files)),
		NextPageToken: resp.NextPageToken,
	}
	for _, f := range resp.Files {
		page.Entries = append(page.Entries, domain.FolderEntry{
			ID:       f.Id,
			Name:     f.Name,
			MIMEType: f.MimeType,
			Trashed:  f.Trashed,
			Size:     f.Size,
		})
	}
	return page, nil
}

// GetMetadata fetches name and MIME type for a single entry.
func (s *Store) GetMetadata(ctx context.Context, fileID string) (*domain.FolderEntry, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	f, err := s.svc.Files.Get(fileID).
		Fields("id, name, mimeType, trashed, size").
		Context(ctx).
		Do()
	if err != nil {
		s.recordRateLimit(err)
		return nil, fmt.Errorf("get metadata for %s: %w", fileID, google.WrapError(err))
	}

	return &domain.FolderEntry{
		ID:       f.Id,
		Name:     f.Name,
		MIMEType: f.MimeType,
		Trashed:  f.Trashed,
		Size:     f.Size,
	}, nil
}

// DownloadContent fetches the raw bytes of a stored file.
func (s *Store) DownloadContent(ctx context.Context, fileID string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := s.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		s.recordRateLimit(err)
		return nil, fmt.Errorf("download %s: %w", fileID, google.WrapError(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxContentSize))
	if err != nil {
		return nil, fmt.Errorf("read content of %s: %w", fileID, err)
	}
	return data, nil
}

// ExportContent converts a native-format document to targetMime.
func (s *Store) ExportContent(ctx context.Context, fileID, targetMime string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := s.svc.Files.Export(fileID, targetMime).Context(ctx).Download()
	if err != nil {
		s.recordRateLimit(err)
		return nil, fmt.Errorf("export %s as %s: %w", fileID, targetMime, google.WrapError(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxContentSize))
	if err != nil {
		return nil, fmt.Errorf("read export of %s: %w", fileID, err)
	}
	return data, nil
}

// IsFolder reports whether a MIME type denotes a folder.
func (s *Store) IsFolder(mimeType string) bool {
	return mimeType == MimeTypeFolder
}

// NativeExportMime returns the export target for native Google formats.
func (s *Store) NativeExportMime(mimeType string) (string, bool) {
	switch mimeType {
	case MimeTypeGoogleSheet:
		return ExportMimeCSV, true
	case MimeTypeGoogleDoc:
		return ExportMimeText, true
	default:
		return "", false
	}
}

// IsSpreadsheet reports whether a MIME type denotes tabular content.
func (s *Store) IsSpreadsheet(mimeType string) bool {
	switch mimeType {
	case MimeTypeGoogleSheet, MimeTypeXLSX, MimeTypeXLS, MimeTypeCSV:
		return true
	default:
		return false
	}
}

// recordRateLimit feeds 429 responses back into the limiter so the
// backoff window is respected by all subsequent calls.
func (s *Store) recordRateLimit(err error) {
	if google.IsRateLimited(err) {
		s.limiter.Backoff(google.RetryAfter(err))
	}
}
