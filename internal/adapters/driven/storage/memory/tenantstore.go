package memory

import (
	"context"
	"sync"

	"github.com/veritrail/regsync/internal/core/domain"
	"github.com/veritrail/regsync/internal/core/ports/driven"
)

// Ensure TenantStore implements the interface.
var _ driven.TenantStore = (*TenantStore)(nil)

// TenantStore is an in-memory implementation of driven.TenantStore.
type TenantStore struct {
	mu      sync.RWMutex
	tenants map[string]domain.Tenant
}

// NewTenantStore creates a new in-memory tenant store.
func NewTenantStore() *TenantStore {
	return &TenantStore{
		tenants: make(map[string]domain.Tenant),
	}
}

// SaveTenant stores or updates a tenant.
func (s *TenantStore) SaveTenant(_ context.Context, tenant domain.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[tenant.ID] = tenant
	return nil
}

// GetTenant retrieves a tenant by ID.
func (s *TenantStore) GetTenant(_ context.Context, id string) (*domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tenant, ok := s.tenants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &tenant, nil
}

// DeleteTenant removes a tenant registration.
func (s *TenantStore) DeleteTenant(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.tenants, id)
	return nil
}

// ListTenants returns all registered tenants.
func (s *TenantStore) ListTenants(_ context.Context) ([]domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Tenant, 0, len(s.tenants))
	for _, tenant := range s.tenants {
		result = append(result, tenant)
	}
	return result, nil
}
