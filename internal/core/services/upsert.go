package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/veritrail/regsync/internal/core/domain"
	"github.com/veritrail/regsync/internal/core/ports/driven"
	"github.com/veritrail/regsync/internal/logger"
)

// UpsertDecision is the outcome of a change-detection pass for one file.
type UpsertDecision string

// Possible decisions.
const (
	// DecisionCreated means no record existed for (lineage, revision).
	DecisionCreated UpsertDecision = "created"

	// DecisionUpdated means the content hash or derived fields changed.
	DecisionUpdated UpsertDecision = "updated"

	// DecisionSkipped means the record is unchanged; nothing was written.
	DecisionSkipped UpsertDecision = "skipped"
)

// UpsertInput carries everything the change detector needs for one file.
type UpsertInput struct {
	Lineage        domain.LineageKey
	Revision       int
	ContentHash    string
	ExpiryDate     *time.Time
	AlertStatus    domain.AlertStatus
	ExternalFileID string
	Extension      string
	OwnerID        string
}

// Upserter applies content-hash change detection against the registry.
type Upserter struct {
	registry driven.DocumentRegistry
	now      func() time.Time
}

// NewUpserter creates an upserter. now may be nil for the wall clock.
func NewUpserter(registry driven.DocumentRegistry, now func() time.Time) *Upserter {
	if now == nil {
		now = time.Now
	}
	return &Upserter{registry: registry, now: now}
}

// Upsert decides create/update/skip for one parsed file and applies the
// decision. Re-running with unchanged content writes nothing, keyed by
// (lineage, revision), which makes a whole run idempotent.
func (u *Upserter) Upsert(ctx context.Context, in UpsertInput) (UpsertDecision, error) {
	existing, err := u.registry.FindByLineageAndRevision(ctx, in.Lineage, in.Revision)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("find record: %w", err)
	}

	now := u.now().UTC()

	if existing == nil {
		record := &domain.DocumentRecord{
			ID:             uuid.NewString(),
			Lineage:        in.Lineage,
			Revision:       in.Revision,
			ExpiryDate:     in.ExpiryDate,
			AlertStatus:    in.AlertStatus,
			ContentHash:    in.ContentHash,
			ExternalFileID: in.ExternalFileID,
			Extension:      in.Extension,
			OwnerID:        in.OwnerID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := u.registry.Create(ctx, record); err != nil {
			return "", fmt.Errorf("create record: %w", err)
		}
		logger.Debug("Created record %s rev %d (%s)", in.Lineage, in.Revision, record.ID)
		return DecisionCreated, nil
	}

	// A legacy record without a hash always counts as changed.
	if !existing.ContentChanged(in.ContentHash) && existing.AlertStatus == in.AlertStatus {
		return DecisionSkipped, nil
	}

	existing.ContentHash = in.ContentHash
	existing.ExpiryDate = in.ExpiryDate
	existing.AlertStatus = in.AlertStatus
	existing.ExternalFileID = in.ExternalFileID
	existing.Extension = in.Extension
	existing.UpdatedAt = now

	if err := u.registry.Update(ctx, existing); err != nil {
		return "", fmt.Errorf("update record: %w", err)
	}
	logger.Debug("Updated record %s rev %d", in.Lineage, in.Revision)
	return DecisionUpdated, nil
}
