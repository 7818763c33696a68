package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veritrail/regsync/internal/core/domain"
	"github.com/veritrail/regsync/internal/core/ports/driven"
	"github.com/veritrail/regsync/internal/core/ports/driving"
	"github.com/veritrail/regsync/internal/logger"
	"github.com/veritrail/regsync/internal/retry"
	"github.com/veritrail/regsync/internal/tabular"
)

// Tabular content formats the expiry analysis understands: CSV is
// scanned as text, OOXML workbooks are opened so cells arrive typed.
const (
	mimeCSV  = "text/csv"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// SyncConfig tunes a reconciliation run.
type SyncConfig struct {
	// BatchSize is how many files are dispatched per batch.
	// Cancellation is only checked between batches.
	BatchSize int

	// LightConcurrency bounds simple download/hash tasks.
	LightConcurrency int

	// HeavyConcurrency bounds tabular-analysis tasks, which carry an
	// extra export and parse.
	HeavyConcurrency int

	// CallTimeout applies to each remote call attempt. It must stay
	// shorter than the retry policy's maximum delay.
	CallTimeout time.Duration

	// WarningWindow is how far ahead of expiry documents are flagged.
	WarningWindow time.Duration

	// DateFormats is the ordered cascade for string expiry values.
	DateFormats []string

	// Retry wraps every remote call.
	Retry retry.Policy
}

// Standard tuning values, applied wherever a config leaves them unset.
const (
	defaultBatchSize        = 50
	defaultLightConcurrency = 8
	defaultHeavyConcurrency = 2
	defaultCallTimeout      = 30 * time.Second
)

// DefaultSyncConfig returns the standard tuning with the given error
// classifier wired into the retry policy.
func DefaultSyncConfig(classify retry.Classifier) SyncConfig {
	return SyncConfig{
		BatchSize:        defaultBatchSize,
		LightConcurrency: defaultLightConcurrency,
		HeavyConcurrency: defaultHeavyConcurrency,
		CallTimeout:      defaultCallTimeout,
		WarningWindow:    domain.DefaultWarningWindow,
		DateFormats:      domain.DefaultDateFormats,
		Retry:            retry.DefaultPolicy(classify),
	}
}

// sanitised replaces non-positive tuning values with their defaults.
// A zero BatchSize would stall dispatch and a zero-capacity semaphore
// would deadlock every task, so the orchestrator never trusts callers
// to have filled these in.
func (c SyncConfig) sanitised() SyncConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.LightConcurrency <= 0 {
		c.LightConcurrency = defaultLightConcurrency
	}
	if c.HeavyConcurrency <= 0 {
		c.HeavyConcurrency = defaultHeavyConcurrency
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = defaultCallTimeout
	}
	return c
}

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncService = (*SyncOrchestrator)(nil)

// SyncOrchestrator coordinates reconciliation runs between the folder
// store and the document registry.
type SyncOrchestrator struct {
	tenants   driven.TenantStore
	registry  driven.DocumentRegistry
	runs      driven.RunStore
	connector driven.FolderStoreConnector
	notifier  driven.OperatorNotifier
	cfg       SyncConfig

	lease    *TenantLease
	upserter *Upserter
	now      func() time.Time
}

// NewSyncOrchestrator creates a sync orchestrator. The notifier is
// optional - if nil, terminal failures are only logged.
func NewSyncOrchestrator(
	tenants driven.TenantStore,
	registry driven.DocumentRegistry,
	runs driven.RunStore,
	connector driven.FolderStoreConnector,
	notifier driven.OperatorNotifier,
	cfg SyncConfig,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		tenants:   tenants,
		registry:  registry,
		runs:      runs,
		connector: connector,
		notifier:  notifier,
		cfg:       cfg.sanitised(),
		lease:     NewTenantLease(),
		upserter:  NewUpserter(registry, nil),
		now:       time.Now,
	}
}

// Trigger accepts a run and returns its ID immediately; the run itself
// proceeds on a background context so it outlives the request.
func (o *SyncOrchestrator) Trigger(ctx context.Context, tenantID, folderID string) (string, error) {
	run, err := o.acceptRun(ctx, tenantID, folderID)
	if err != nil {
		return "", err
	}

	go func() {
		defer o.lease.Release(run.TenantID)
		o.execute(context.Background(), run)
	}()

	return run.ID, nil
}

// Run executes a reconciliation run synchronously.
func (o *SyncOrchestrator) Run(ctx context.Context, tenantID, folderID string) (*domain.SyncResult, error) {
	run, err := o.acceptRun(ctx, tenantID, folderID)
	if err != nil {
		return nil, err
	}
	defer o.lease.Release(run.TenantID)

	return o.execute(ctx, run), nil
}

// Status returns the persisted record for a run ID.
func (o *SyncOrchestrator) Status(ctx context.Context, runID string) (*domain.SyncRun, error) {
	return o.runs.GetRun(ctx, runID)
}

// Reconcile runs the obsolescence pass standalone for a tenant.
func (o *SyncOrchestrator) Reconcile(ctx context.Context, tenantID string) (int, error) {
	if _, err := o.tenants.GetTenant(ctx, tenantID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrTenantNotFound
		}
		return 0, fmt.Errorf("get tenant: %w", err)
	}
	return NewReconciler(o.registry).Reconcile(ctx, tenantID)
}

// acceptRun validates the tenant, takes its lease and persists the
// initial run record.
func (o *SyncOrchestrator) acceptRun(ctx context.Context, tenantID, folderID string) (*domain.SyncRun, error) {
	tenant, err := o.tenants.GetTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}

	if folderID == "" {
		folderID = tenant.RootFolderID
	}

	if !o.lease.TryAcquire(tenantID) {
		return nil, domain.ErrSyncInProgress
	}

	run := &domain.SyncRun{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		FolderID:  folderID,
		State:     domain.RunIdle,
		StartedAt: o.now(),
	}
	if err := o.runs.SaveRun(ctx, run); err != nil {
		o.lease.Release(tenantID)
		return nil, fmt.Errorf("save run: %w", err)
	}
	return run, nil
}

// execute drives the run state machine:
// Idle -> Listing -> Dispatching -> Reconciling -> Done|Failed.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (o *SyncOrchestrator) execute(ctx context.Context, run *domain.SyncRun) *domain.SyncResult {
	start := o.now()
	res := &domain.SyncResult{}

	logger.Info("Starting sync run %s for tenant %s (folder %s)", run.ID, run.TenantID, run.FolderID)

	// 1. Resolve tenant. Absent is terminal and never retried.
	tenant, err := o.tenants.GetTenant(ctx, run.TenantID)
	if err != nil {
		return o.terminate(ctx, run, res, start, &domain.SyncError{
			Message:   err.Error(),
			Code:      domain.CodeUserNotFound,
			Retryable: false,
			Context:   map[string]string{"tenantId": run.TenantID},
		})
	}

	// 2. Open an authenticated session to the folder store.
	o.setState(ctx, run, domain.RunListing)
	store, err := retry.Do(ctx, o.cfg.Retry, "connect-folder-store", func(ctx context.Context) (driven.FolderStore, error) {
		cctx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
		defer cancel()
		return o.connector.Connect(cctx, tenant.ID)
	})
	if err != nil {
		// Retryable in the sense that a later run may succeed, but
		// terminal for this one.
		connErr := fmt.Errorf("%w: %v", domain.ErrConnectionFailed, err)
		return o.terminate(ctx, run, res, start, &domain.SyncError{
			Message:   connErr.Error(),
			Code:      domain.CodeConnectionFailed,
			Retryable: true,
			Context:   retryContext(err, map[string]string{"tenantId": tenant.ID}),
		})
	}

	// 3. Enumerate files. Branch failures are recorded, not fatal.
	files, listErrs := NewTraverser(store, o.cfg.Retry).Traverse(ctx, run.FolderID)
	res.Errors = append(res.Errors, listErrs...)
	logger.Info("Traversal found %d files under %s", len(files), run.FolderID)

	// 4. Dispatch batches under the two concurrency ceilings.
	o.setState(ctx, run, domain.RunDispatching)
	cancelled := o.dispatch(ctx, store, tenant, files, res)
	if cancelled {
		return o.terminate(ctx, run, res, start, &domain.SyncError{
			Message:   domain.ErrRunCancelled.Error(),
			Code:      domain.CodeRunFailed,
			Retryable: true,
			Context:   map[string]string{"tenantId": tenant.ID},
		})
	}

	// 5. Reconcile obsolescence only when something changed.
	if res.Created+res.Updated > 0 {
		o.setState(ctx, run, domain.RunReconciling)
		if _, err := NewReconciler(o.registry).Reconcile(ctx, tenant.ID); err != nil {
			return o.terminate(ctx, run, res, start, &domain.SyncError{
				Message:   err.Error(),
				Code:      domain.CodeRunFailed,
				Retryable: true,
				Context:   map[string]string{"tenantId": tenant.ID},
			})
		}
	}

	// 6. Aggregate.
	res.Success = res.Failed == 0 && len(res.Errors) == 0
	res.Duration = o.now().Sub(start)
	o.finish(ctx, run, res, domain.RunDone)

	logger.Info("Sync run %s finished: %d processed (%d created, %d updated, %d skipped), %d failed",
		run.ID, res.Processed, res.Created, res.Updated, res.Skipped, res.Failed)
	return res
}

// dispatch processes files in fixed-size batches. Within a batch each
// file runs as its own task bounded by the light or heavy semaphore.
// Aggregates are mutated only at task-completion boundaries, under mu.
// Returns true when the context was cancelled between batches.
func (o *SyncOrchestrator) dispatch(
	ctx context.Context,
	store driven.FolderStore,
	tenant *domain.Tenant,
	files []domain.RemoteFile,
	res *domain.SyncResult,
) bool {
	lightSem := make(chan struct{}, o.cfg.LightConcurrency)
	heavySem := make(chan struct{}, o.cfg.HeavyConcurrency)

	var mu sync.Mutex

	for batchStart := 0; batchStart < len(files); batchStart += o.cfg.BatchSize {
		// Cancellation is checked between batches, never mid-batch.
		if ctx.Err() != nil {
			return true
		}

		batch := files[batchStart:min(batchStart+o.cfg.BatchSize, len(files))]

		var wg sync.WaitGroup
		for _, f := range batch {
			sem := lightSem
			if store.IsSpreadsheet(f.MIMEType) {
				sem = heavySem
			}

			wg.Add(1)
			go func(f domain.RemoteFile) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				decision, se := o.processFile(ctx, store, tenant, f)

				mu.Lock()
				defer mu.Unlock()
				switch {
				case se != nil:
					res.Failed++
					res.Errors = append(res.Errors, se)
				case decision == "":
					// Filename outside the convention: excluded silently.
				default:
					res.Processed++
					switch decision {
					case DecisionCreated:
						res.Created++
					case DecisionUpdated:
						res.Updated++
					case DecisionSkipped:
						res.Skipped++
					}
				}
			}(f)
		}
		wg.Wait()
	}

	return false
}

// processFile runs the per-file pipeline: parse identity, fetch and
// hash content, analyse tabular expiry, upsert. All failures are
// converted to a SyncError; none escape the file boundary.
func (o *SyncOrchestrator) processFile(
	ctx context.Context,
	store driven.FolderStore,
	tenant *domain.Tenant,
	f domain.RemoteFile,
) (UpsertDecision, *domain.SyncError) {
	identity := domain.ParseFilename(f.Name)
	if identity == nil {
		logger.Debug("Skipping %s: filename outside convention", f.Name)
		return "", nil
	}

	exportMime, native := store.NativeExportMime(f.MIMEType)
	content, err := retry.Do(ctx, o.cfg.Retry, "fetch-content", func(ctx context.Context) ([]byte, error) {
		cctx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
		defer cancel()
		if native {
			return store.ExportContent(cctx, f.ID, exportMime)
		}
		return store.DownloadContent(cctx, f.ID)
	})
	if err != nil {
		return "", fileError(domain.CodeDownloadFailed, f, err)
	}

	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	assessment := domain.ExpiryAssessment{Status: domain.AlertNone}
	if store.IsSpreadsheet(f.MIMEType) {
		if value, found := expiryCellValue(f, content, exportMime, native); found {
			assessment = domain.AnalyzeExpiry(value, o.now(), o.cfg.WarningWindow, o.cfg.DateFormats)
		}
	}

	decision, err := o.upserter.Upsert(ctx, UpsertInput{
		Lineage:        identity.LineageKey(tenant.ID, f.FolderPath),
		Revision:       identity.Revision,
		ContentHash:    hash,
		ExpiryDate:     assessment.ExpiryDate,
		AlertStatus:    assessment.Status,
		ExternalFileID: f.ID,
		Extension:      identity.Extension,
		OwnerID:        tenant.OwnerID,
	})
	if err != nil {
		return "", fileError(domain.CodeUpsertFailed, f, err)
	}
	return decision, nil
}

// expiryCellValue extracts the expiry cell from spreadsheet content.
// Native sheets exported as CSV and plain CSV downloads are scanned as
// text; xlsx workbooks are opened so numeric day serials and date cells
// reach the analyzer typed. Legacy binary workbooks (.xls) are hashed
// but not analysed.
func expiryCellValue(f domain.RemoteFile, content []byte, exportMime string, native bool) (any, bool) {
	mime := f.MIMEType
	if native {
		mime = exportMime
	}

	switch mime {
	case mimeCSV:
		if v, ok := domain.ExtractExpiryCell(content); ok {
			return v, true
		}
	case mimeXLSX:
		return tabular.WorkbookExpiryCell(content)
	}
	return nil, false
}

// terminate records a run-terminal error, finishes the run as failed
// and notifies operators.
func (o *SyncOrchestrator) terminate(
	ctx context.Context,
	run *domain.SyncRun,
	res *domain.SyncResult,
	start time.Time,
	se *domain.SyncError,
) *domain.SyncResult {
	logger.Warn("Sync run %s aborted: %s", run.ID, se.Error())
	res.Errors = append(res.Errors, se)
	res.Success = false
	res.Duration = o.now().Sub(start)
	o.finish(ctx, run, res, domain.RunFailed)
	return res
}

// finish persists the terminal run state and forwards curated terminal
// errors to the operator notifier.
func (o *SyncOrchestrator) finish(ctx context.Context, run *domain.SyncRun, res *domain.SyncResult, state domain.RunState) {
	run.State = state
	run.Result = res
	run.FinishedAt = o.now()
	if err := o.runs.SaveRun(ctx, run); err != nil {
		logger.Warn("Failed to persist run %s: %v", run.ID, err)
	}

	var terminal []*domain.SyncError
	for _, se := range res.Errors {
		if se.Terminal() {
			terminal = append(terminal, se)
		}
	}
	if len(terminal) == 0 || o.notifier == nil {
		return
	}

	nc := driven.NotificationContext{
		TenantID:  run.TenantID,
		FolderID:  run.FolderID,
		Processed: res.Processed,
		Failed:    res.Failed,
		Duration:  res.Duration.String(),
	}
	if err := o.notifier.NotifyFailure(ctx, terminal, nc); err != nil {
		logger.Warn("Operator notification failed for run %s: %v", run.ID, err)
	}
}

// setState advances the run state machine and persists the transition.
func (o *SyncOrchestrator) setState(ctx context.Context, run *domain.SyncRun, state domain.RunState) {
	run.State = state
	if err := o.runs.SaveRun(ctx, run); err != nil {
		logger.Warn("Failed to persist state %s for run %s: %v", state, run.ID, err)
	}
}

// fileError converts a per-file failure into an aggregatable SyncError,
// preserving the retry layer's classification when present.
func fileError(code string, f domain.RemoteFile, err error) *domain.SyncError {
	se := &domain.SyncError{
		Message:   err.Error(),
		Code:      code,
		Retryable: true,
		Context: map[string]string{
			"fileId":   f.ID,
			"fileName": f.Name,
		},
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

// retryContext merges retry annotations into a context map.
func retryContext(err error, base map[string]string) map[string]string {
	var rerr *retry.Error
	if errors.As(err, &rerr) {
		for k, v := range rerr.Context() {
			base[k] = v
		}
	}
	return base
}
