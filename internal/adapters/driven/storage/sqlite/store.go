package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/veritrail/regsync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/veritrail/regsync/internal/core/domain"
	"github.com/veritrail/regsync/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all registry store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.regsync/data/registry.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".regsync", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "registry.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentRegistry returns a DocumentRegistry interface backed by this store.
func (s *Store) DocumentRegistry() driven.DocumentRegistry {
	return &documentRegistry{store: s}
}

// TenantStore returns a TenantStore interface backed by this store.
func (s *Store) TenantStore() driven.TenantStore {
	return &tenantStore{store: s}
}

// RunStore returns a RunStore interface backed by this store.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{store: s}
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Registry ====================

// documentRegistry implements driven.DocumentRegistry.
type documentRegistry struct {
	store *Store
}

var _ driven.DocumentRegistry = (*documentRegistry)(nil)

const documentColumns = `id, tenant_id, path_code, title, revision, expiry_date,
	alert_status, content_hash, external_file_id, extension, obsolete, owner_id,
	created_at, updated_at`

// FindByLineageAndRevision looks up the record for one revision of a lineage.
func (r *documentRegistry) FindByLineageAndRevision(ctx context.Context, key domain.LineageKey, revision int) (*domain.DocumentRecord, error) {
	row := r.store.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE tenant_id = ? AND path_code = ? AND title = ? AND revision = ?
	`, key.TenantID, key.PathCode, key.Title, revision)

	return scanDocument(row)
}

// Create inserts a new record.
func (r *documentRegistry) Create(ctx context.Context, record *domain.DocumentRecord) error {
	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.Lineage.TenantID, record.Lineage.PathCode, record.Lineage.Title,
		record.Revision, formatNullableDate(record.ExpiryDate), string(record.AlertStatus),
		nullString(record.ContentHash), nullString(record.ExternalFileID),
		nullString(record.Extension), boolToInt(record.Obsolete), nullString(record.OwnerID),
		record.CreatedAt.Format(time.RFC3339), record.UpdatedAt.Format(time.RFC3339))

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of an existing record.
func (r *documentRegistry) Update(ctx context.Context, record *domain.DocumentRecord) error {
	res, err := r.store.db.ExecContext(ctx, `
		UPDATE documents SET
			expiry_date = ?,
			alert_status = ?,
			content_hash = ?,
			external_file_id = ?,
			extension = ?,
			obsolete = ?,
			updated_at = ?
		WHERE id = ?
	`, formatNullableDate(record.ExpiryDate), string(record.AlertStatus),
		nullString(record.ContentHash), nullString(record.ExternalFileID),
		nullString(record.Extension), boolToInt(record.Obsolete),
		record.UpdatedAt.Format(time.RFC3339), record.ID)

	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	return ensureRowAffected(res)
}

// ListActiveByTenant returns every non-obsolete record for a tenant.
func (r *documentRegistry) ListActiveByTenant(ctx context.Context, tenantID string) ([]domain.DocumentRecord, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE tenant_id = ? AND obsolete = 0
		ORDER BY path_code, title, revision
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var records []domain.DocumentRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		record, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return records, nil
}

// MarkObsolete flips a record's obsolete flag on.
func (r *documentRegistry) MarkObsolete(ctx context.Context, id string) error {
	res, err := r.store.db.ExecContext(ctx, `
		UPDATE documents SET obsolete = 1, updated_at = ? WHERE id = ?
	`, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("marking document obsolete: %w", err)
	}
	return ensureRowAffected(res)
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.DocumentRecord, error) {
	var record domain.DocumentRecord
	var expiryDate, contentHash, externalFileID, extension, ownerID sql.NullString
	var alertStatus, createdAt, updatedAt string
	var obsolete int

	if err := row.Scan(&record.ID, &record.Lineage.TenantID, &record.Lineage.PathCode,
		&record.Lineage.Title, &record.Revision, &expiryDate, &alertStatus,
		&contentHash, &externalFileID, &extension, &obsolete, &ownerID,
		&createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	applyDocumentFields(&record, expiryDate, alertStatus, contentHash,
		externalFileID, extension, obsolete, ownerID, createdAt, updatedAt)
	return &record, nil
}

// scanDocumentRows scans a document from *sql.Rows.
func scanDocumentRows(rows *sql.Rows) (*domain.DocumentRecord, error) {
	var record domain.DocumentRecord
	var expiryDate, contentHash, externalFileID, extension, ownerID sql.NullString
	var alertStatus, createdAt, updatedAt string
	var obsolete int

	if err := rows.Scan(&record.ID, &record.Lineage.TenantID, &record.Lineage.PathCode,
		&record.Lineage.Title, &record.Revision, &expiryDate, &alertStatus,
		&contentHash, &externalFileID, &extension, &obsolete, &ownerID,
		&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	applyDocumentFields(&record, expiryDate, alertStatus, contentHash,
		externalFileID, extension, obsolete, ownerID, createdAt, updatedAt)
	return &record, nil
}

// applyDocumentFields decodes nullable columns into a record.
func applyDocumentFields(record *domain.DocumentRecord,
	expiryDate sql.NullString, alertStatus string,
	contentHash, externalFileID, extension sql.NullString, obsolete int,
	ownerID sql.NullString, createdAt, updatedAt string,
) {
	record.AlertStatus = domain.AlertStatus(alertStatus)
	record.ContentHash = contentHash.String
	record.ExternalFileID = externalFileID.String
	record.Extension = extension.String
	record.Obsolete = obsolete == 1
	record.OwnerID = ownerID.String

	if expiryDate.Valid {
		if t, err := time.Parse(time.RFC3339, expiryDate.String); err == nil {
			record.ExpiryDate = &t
		}
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		record.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		record.UpdatedAt = t
	}
}

// ==================== Tenant Store ====================

// tenantStore implements driven.TenantStore.
type tenantStore struct {
	store *Store
}

var _ driven.TenantStore = (*tenantStore)(nil)

// SaveTenant stores or updates a tenant.
func (s *tenantStore) SaveTenant(ctx context.Context, tenant domain.Tenant) error {
	now := time.Now().UTC()
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = now
	}
	tenant.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO tenants (id, name, root_folder_id, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			root_folder_id = excluded.root_folder_id,
			owner_id = excluded.owner_id,
			updated_at = excluded.updated_at
	`, tenant.ID, tenant.Name, tenant.RootFolderID, nullString(tenant.OwnerID),
		tenant.CreatedAt.Format(time.RFC3339), tenant.UpdatedAt.Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("saving tenant: %w", err)
	}
	return nil
}

// GetTenant retrieves a tenant by ID.
func (s *tenantStore) GetTenant(ctx context.Context, id string) (*domain.Tenant, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, root_folder_id, owner_id, created_at, updated_at
		FROM tenants WHERE id = ?
	`, id)

	tenant, err := scanTenant(row)
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

// ListTenants returns all registered tenants.
func (s *tenantStore) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, root_folder_id, owner_id, created_at, updated_at
		FROM tenants ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying tenants: %w", err)
	}
	defer rows.Close()

	var tenants []domain.Tenant //nolint:prealloc // size unknown from query
	for rows.Next() {
		var tenant domain.Tenant
		var ownerID sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&tenant.ID, &tenant.Name, &tenant.RootFolderID,
			&ownerID, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning tenant: %w", err)
		}
		tenant.OwnerID = ownerID.String
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			tenant.CreatedAt = t
		}
		if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			tenant.UpdatedAt = t
		}
		tenants = append(tenants, tenant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tenants: %w", err)
	}

	return tenants, nil
}

// DeleteTenant removes a tenant registration.
func (s *tenantStore) DeleteTenant(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM tenants WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting tenant: %w", err)
	}
	return ensureRowAffected(res)
}

// scanTenant scans a single tenant row.
func scanTenant(row *sql.Row) (*domain.Tenant, error) {
	var tenant domain.Tenant
	var ownerID sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(&tenant.ID, &tenant.Name, &tenant.RootFolderID,
		&ownerID, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning tenant: %w", err)
	}

	tenant.OwnerID = ownerID.String
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		tenant.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		tenant.UpdatedAt = t
	}
	return &tenant, nil
}

// ==================== Run Store ====================

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// SaveRun creates or updates a run record. The result is stored as JSON
// so the full error list survives restarts.
func (s *runStore) SaveRun(ctx context.Context, run *domain.SyncRun) error {
	var resultJSON interface{}
	if run.Result != nil {
		data, err := json.Marshal(run.Result)
		if err != nil {
			return fmt.Errorf("marshalling run result: %w", err)
		}
		resultJSON = string(data)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, tenant_id, folder_id, state, result, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			result = excluded.result,
			finished_at = excluded.finished_at
	`, run.ID, run.TenantID, nullString(run.FolderID), string(run.State), resultJSON,
		run.StartedAt.Format(time.RFC3339), formatNullableTime(run.FinishedAt))

	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *runStore) GetRun(ctx context.Context, id string) (*domain.SyncRun, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, folder_id, state, result, started_at, finished_at
		FROM sync_runs WHERE id = ?
	`, id)

	var run domain.SyncRun
	var folderID, resultJSON, finishedAt sql.NullString
	var state, startedAt string
	if err := row.Scan(&run.ID, &run.TenantID, &folderID, &state,
		&resultJSON, &startedAt, &finishedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	if err := applyRunFields(&run, folderID, state, resultJSON, startedAt, finishedAt); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRunsByTenant returns recent runs for a tenant, most recent first.
func (s *runStore) ListRunsByTenant(ctx context.Context, tenantID string, limit int) ([]domain.SyncRun, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, tenant_id, folder_id, state, result, started_at, finished_at
		FROM sync_runs
		WHERE tenant_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.SyncRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		var run domain.SyncRun
		var folderID, resultJSON, finishedAt sql.NullString
		var state, startedAt string
		if err := rows.Scan(&run.ID, &run.TenantID, &folderID, &state,
			&resultJSON, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if err := applyRunFields(&run, folderID, state, resultJSON, startedAt, finishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return runs, nil
}

// applyRunFields decodes nullable columns into a run.
func applyRunFields(run *domain.SyncRun, folderID sql.NullString, state string,
	resultJSON sql.NullString, startedAt string, finishedAt sql.NullString,
) error {
	run.FolderID = folderID.String
	run.State = domain.RunState(state)

	if resultJSON.Valid && resultJSON.String != "" {
		var result domain.SyncResult
		if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
			return fmt.Errorf("unmarshalling run result: %w", err)
		}
		run.Result = &result
	}

	if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
		run.StartedAt = t
	}
	run.FinishedAt = parseNullableTime(finishedAt)
	return nil
}

// ==================== Shared Helpers ====================

// formatNullableDate formats a *time.Time to RFC3339, or nil when absent.
func formatNullableDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

// ensureRowAffected maps a zero-row update to ErrNotFound.
func ensureRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
