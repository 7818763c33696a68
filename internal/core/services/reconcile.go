package services

import (
	"context"
	"fmt"

	"github.com/veritrail/regsync/internal/core/domain"
	"github.com/veritrail/regsync/internal/core/ports/driven"
	"github.com/veritrail/regsync/internal/logger"
)

// Reconciler enforces the revision-obsolescence invariant: for every
// lineage, at most one record is active at the end of a pass.
type Reconciler struct {
	registry driven.DocumentRegistry
}

// NewReconciler creates a reconciler over the registry.
func NewReconciler(registry driven.DocumentRegistry) *Reconciler {
	return &Reconciler{registry: registry}
}

// Reconcile groups a tenant's active records by lineage and, within
// each group of more than one, keeps the numerically highest revision
// active and marks all others obsolete. Ties on revision are broken by
// the most recent successful write. Re-running with no new data writes
// nothing.
//
// Returns the number of records demoted.
func (r *Reconciler) Reconcile(ctx context.Context, tenantID string) (int, error) {
	records, err := r.registry.ListActiveByTenant(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("list active records: %w", err)
	}

	groups := make(map[string][]domain.DocumentRecord)
	for _, rec := range records {
		key := rec.Lineage.String()
		groups[key] = append(groups[key], rec)
	}

	demoted := 0
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}

		winner := 0
		for i := 1; i < len(group); i++ {
			if supersedes(&group[i], &group[winner]) {
				winner = i
			}
		}

		for i := range group {
			if i == winner {
				continue
			}
			if err := r.registry.MarkObsolete(ctx, group[i].ID); err != nil {
				return demoted, fmt.Errorf("mark obsolete %s: %w", group[i].ID, err)
			}
			demoted++
		}
	}

	if demoted > 0 {
		logger.Info("Obsolescence pass for tenant %s demoted %d records", tenantID, demoted)
	}
	return demoted, nil
}

// supersedes reports whether a should stay active in preference to b.
func supersedes(a, b *domain.DocumentRecord) bool {
	if a.Revision != b.Revision {
		return a.Revision > b.Revision
	}
	return a.UpdatedAt.After(b.UpdatedAt)
}
