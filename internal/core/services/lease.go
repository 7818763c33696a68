package services

import "sync"

// TenantLease serialises reconciliation runs per tenant: two runs for
// the same tenant must never interleave. This is an in-memory lease for
// a single-process deployment; a multi-instance deployment would back
// it with a database lease instead.
type TenantLease struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewTenantLease creates an empty lease table.
func NewTenantLease() *TenantLease {
	return &TenantLease{held: make(map[string]bool)}
}

// TryAcquire takes the lease for a tenant. Returns false when a run
// already holds it.
func (l *TenantLease) TryAcquire(tenantID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[tenantID] {
		return false
	}
	l.held[tenantID] = true
	return true
}

// Release frees the lease for a tenant.
func (l *TenantLease) Release(tenantID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, tenantID)
}

// Held reports whether a run currently holds the tenant's lease.
func (l *TenantLease) Held(tenantID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[tenantID]
}
