package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/veritrail/regsync/internal/core/domain"
	"github.com/veritrail/regsync/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]domain.SyncRun
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]domain.SyncRun),
	}
}

// SaveRun creates or updates a run record.
func (s *RunStore) SaveRun(_ context.Context, run *domain.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = *run
	return nil
}

// GetRun retrieves a run by ID.
func (s *RunStore) GetRun(_ context.Context, id string) (*domain.SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &run, nil
}

// ListRunsByTenant returns recent runs for a tenant, most recent first.
func (s *RunStore) ListRunsByTenant(_ context.Context, tenantID string, limit int) ([]domain.SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.SyncRun, 0)
	for _, run := range s.runs {
		if run.TenantID == tenantID {
			result = append(result, run)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
