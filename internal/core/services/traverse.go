package services

import (
	"context"
	"errors"

	"github.com/veritrail/regsync/internal/core/domain"
	"github.com/veritrail/regsync/internal/core/ports/driven"
	"github.com/veritrail/regsync/internal/logger"
	"github.com/veritrail/regsync/internal/retry"
)

// Traverser enumerates every non-folder file reachable from a root
// folder by breadth-first descent, following page tokens until each
// folder is exhausted.
type Traverser struct {
	store  driven.FolderStore
	policy retry.Policy
}

// NewTraverser creates a traverser over an authenticated folder store.
// Each page fetch is wrapped with the retry policy.
func NewTraverser(store driven.FolderStore, policy retry.Policy) *Traverser {
	return &Traverser{store: store, policy: policy}
}

// folderItem is one pending folder on the BFS queue.
type folderItem struct {
	id   string
	path string
}

// Traverse walks the tree under rootID and returns every non-folder,
// non-trashed file together with the listing failures encountered.
//
// A listing failure on one folder abandons that branch and is recorded;
// sibling branches continue. If the root is not a folder the result is
// empty rather than an error. Folder IDs are visited at most once, so
// duplicate parent/child edges or cycles from the remote API cannot
// loop the walk.
func (t *Traverser) Traverse(ctx context.Context, rootID string) ([]domain.RemoteFile, []*domain.SyncError) {
	root, err := retry.Do(ctx, t.policy, "get-root-metadata", func(ctx context.Context) (*domain.FolderEntry, error) {
		return t.store.GetMetadata(ctx, rootID)
	})
	if err != nil {
		logger.Warn("Failed to resolve root folder %s: %v", rootID, err)
		return nil, []*domain.SyncError{listError(rootID, err)}
	}
	if !t.store.IsFolder(root.MIMEType) {
		logger.Debug("Root %s is not a folder, nothing to traverse", rootID)
		return nil, nil
	}

	var files []domain.RemoteFile
	var listErrs []*domain.SyncError

	visited := map[string]bool{rootID: true}
	queue := []folderItem{{id: rootID}}

	for len(queue) > 0 {
		folder := queue[0]
		queue = queue[1:]

		pageToken := ""
		for {
			token := pageToken
			page, err := retry.Do(ctx, t.policy, "list-children", func(ctx context.Context) (*domain.FolderPage, error) {
				return t.store.ListChildren(ctx, folder.id, token)
			})
			if err != nil {
				// Abandon this branch, keep walking the others.
				logger.Warn("Listing failed for folder %s, abandoning branch: %v", folder.id, err)
				listErrs = append(listErrs, listError(folder.id, err))
				break
			}

			for _, entry := range page.Entries {
				if entry.Trashed {
					continue
				}
				if t.store.IsFolder(entry.MIMEType) {
					if visited[entry.ID] {
						continue
					}
					visited[entry.ID] = true
					queue = append(queue, folderItem{id: entry.ID, path: joinPath(folder.path, entry.Name)})
					continue
				}
				files = append(files, domain.RemoteFile{
					ID:         entry.ID,
					Name:       entry.Name,
					ParentID:   folder.id,
					FolderPath: folder.path,
					MIMEType:   entry.MIMEType,
					Size:       entry.Size,
				})
			}

			pageToken = page.NextPageToken
			if pageToken == "" {
				break
			}
		}
	}

	return files, listErrs
}

// listError converts a traversal failure into an aggregatable SyncError.
func listError(folderID string, err error) *domain.SyncError {
	se := &domain.SyncError{
		Message:   err.Error(),
		Code:      domain.CodeListFailed,
		Retryable: true,
		Context:   map[string]string{"folderId": folderID},
	}

	var rerr *retry.Error
	if errors.As(err, &rerr) {
		se.Retryable = rerr.Retryable
		for k, v := range rerr.Context() {
			se.Context[k] = v
		}
	}
	return se
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}
