package memory

import (
	"context"
	"sync"

	"github.com/veritrail/regsync/internal/core/domain"
	"github.com/veritrail/regsync/internal/core/ports/driven"
)

// Ensure DocumentRegistry implements the interface.
var _ driven.DocumentRegistry = (*DocumentRegistry)(nil)

// DocumentRegistry is an in-memory implementation of
// driven.DocumentRegistry, used in tests.
type DocumentRegistry struct {
	mu      sync.RWMutex
	records map[string]domain.DocumentRecord
}

// NewDocumentRegistry creates a new in-memory document registry.
func NewDocumentRegistry() *DocumentRegistry {
	return &DocumentRegistry{
		records: make(map[string]domain.DocumentRecord),
	}
}

// FindByLineageAndRevision looks up the record for one revision of a
// lineage.
func (r *DocumentRegistry) FindByLineageAndRevision(_ context.Context, key domain.LineageKey, revision int) (*domain.DocumentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.records {
		if rec.Lineage == key && rec.Revision == revision {
			return &rec, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Create inserts a new record.
func (r *DocumentRegistry) Create(_ context.Context, record *domain.DocumentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[record.ID]; ok {
		return domain.ErrAlreadyExists
	}
	r.records[record.ID] = *record
	return nil
}

// Update rewrites an existing record.
func (r *DocumentRegistry) Update(_ context.Context, record *domain.DocumentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[record.ID]; !ok {
		return domain.ErrNotFound
	}
	r.records[record.ID] = *record
	return nil
}

// ListActiveByTenant returns every non-obsolete record for a tenant.
func (r *DocumentRegistry) ListActiveByTenant(_ context.Context, tenantID string) ([]domain.DocumentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.DocumentRecord, 0)
	for _, rec := range r.records {
		if rec.Lineage.TenantID == tenantID && !rec.Obsolete {
			result = append(result, rec)
		}
	}
	return result, nil
}

// MarkObsolete flips a record's obsolete flag on.
func (r *DocumentRegistry) MarkObsolete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Obsolete = true
	r.records[id] = rec
	return nil
}

// Get retrieves a record by ID, for test assertions.
func (r *DocumentRegistry) Get(_ context.Context, id string) (*domain.DocumentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}
