package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// DefaultFileName is the database file created inside the data directory.
const DefaultFileName = "records.db"

// timeLayout is used for every stored timestamp. The fixed-width fraction
// keeps lexical order equal to time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a unified SQLite-based storage that provides access to
// all store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the database at dbPath.
// If dbPath is empty, defaults to ~/.sercha-ingest/data/records.db.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".sercha-ingest", "data", DefaultFileName)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("%w: creating data directory: %w", domain.ErrStoreUnavailable, err)
	}

	// WAL for concurrent readers. Foreign keys are a per-connection
	// setting, so they go in the DSN rather than a one-off PRAGMA.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", domain.ErrStoreUnavailable, err)
	}

	// One connection serialises writers and avoids SQLITE_BUSY when a
	// read transaction upgrades to a write.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: running migrations: %w", domain.ErrStoreUnavailable, err)
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

// RecordStore returns a RecordStore interface backed by this store.
func (s *Store) RecordStore() driven.RecordStore {
	return &recordStore{store: s}
}

// PartitionStore returns a PartitionStore interface backed by this store.
func (s *Store) PartitionStore() driven.PartitionStore {
	return &partitionStore{store: s}
}

// RelationshipStore returns a RelationshipStore interface backed by this store.
func (s *Store) RelationshipStore() driven.RelationshipStore {
	return &relationshipStore{store: s}
}

// CursorStore returns a CursorStore interface backed by this store.
func (s *Store) CursorStore() driven.CursorStore {
	return &cursorStore{store: s}
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

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// unavailable wraps a database failure.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
}

// ==================== Record Store ====================

// recordStore implements driven.RecordStore.
type recordStore struct {
	store *Store
}

var _ driven.RecordStore = (*recordStore)(nil)

// derivedColumns maps writable columns to their SQL names. Column names
// are only ever taken from this map, never from caller input.
var derivedColumns = map[domain.Column]string{
	domain.ColumnMarkdown:   "markdown_repr",
	domain.ColumnJSON:       "json_repr",
	domain.ColumnPlain:      "plain_repr",
	domain.ColumnChunks:     "chunks",
	domain.ColumnEmbeddings: "embeddings",
}

func sqlColumn(col domain.Column) (string, bool) {
	if col == domain.ColumnSourceLocator {
		return "source_locator", true
	}
	name, ok := derivedColumns[col]
	return name, ok
}

// CreateIfAbsent inserts a record holding only its source locator.
func (r *recordStore) CreateIfAbsent(ctx context.Context, key, sourceLocator string) (bool, error) {
	if key == "" || sourceLocator == "" {
		return false, fmt.Errorf("%w: key and source locator are required", domain.ErrInvalidInput)
	}

	now := time.Now().UTC().Format(timeLayout)
	res, err := r.store.db.ExecContext(ctx, `
		INSERT INTO documents (key, source_locator, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO NOTHING
	`, key, sourceLocator, now, now)
	if err != nil {
		return false, unavailable("creating record", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return true, nil
	}

	// The row already existed. The locator is immutable, so reading it
	// after the insert cannot race with another writer.
	var existing string
	err = r.store.db.QueryRowContext(ctx,
		"SELECT source_locator FROM documents WHERE key = ?", key).Scan(&existing)
	if err != nil {
		return false, unavailable("reading record", err)
	}
	if existing != sourceLocator {
		return false, fmt.Errorf("%w: %q is registered to %q", domain.ErrDuplicateKeyConflict, key, existing)
	}
	return false, nil
}

// UpsertColumn writes one derived column of an existing record.
func (r *recordStore) UpsertColumn(ctx context.Context, key string, col domain.Column, value string) error {
	name, ok := derivedColumns[col]
	if !ok {
		return fmt.Errorf("%w: column %q is not writable", domain.ErrInvalidInput, col)
	}

	//nolint:gosec // G201: column name comes from derivedColumns.
	query := fmt.Sprintf("UPDATE documents SET %s = ?, updated_at = ? WHERE key = ?", name)
	res, err := r.store.db.ExecContext(ctx, query, value, time.Now().UTC().Format(timeLayout), key)
	if err != nil {
		return unavailable("writing "+string(col), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("writing "+string(col), err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ReadColumns reads the requested columns of one record in a single query.
func (r *recordStore) ReadColumns(ctx context.Context, key string, cols ...domain.Column) (domain.ColumnValues, error) {
	names := make([]string, 0, len(cols)+1)
	names = append(names, "key")
	for _, col := range cols {
		name, ok := sqlColumn(col)
		if !ok {
			return nil, fmt.Errorf("%w: unknown column %q", domain.ErrInvalidInput, col)
		}
		names = append(names, name)
	}

	dest := make([]sql.NullString, len(cols)+1)
	ptrs := make([]any, len(dest))
	for i := range dest {
		ptrs[i] = &dest[i]
	}

	//nolint:gosec // G201: column names come from sqlColumn.
	query := fmt.Sprintf("SELECT %s FROM documents WHERE key = ?", strings.Join(names, ", "))
	err := r.store.db.QueryRowContext(ctx, query, key).Scan(ptrs...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, unavailable("reading record", err)
	}

	values := make(domain.ColumnValues, len(cols))
	for i, col := range cols {
		values[col] = nullToPtr(dest[i+1])
	}
	return values, nil
}

// Get retrieves a full record.
func (r *recordStore) Get(ctx context.Context, key string) (*domain.Record, error) {
	row := r.store.db.QueryRowContext(ctx, `
		SELECT key, source_locator, markdown_repr, json_repr, plain_repr,
		       chunks, embeddings, created_at, updated_at
		FROM documents WHERE key = ?
	`, key)

	var rec domain.Record
	var markdown, jsonRepr, plain, chunks, embeddings sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(&rec.Key, &rec.SourceLocator, &markdown, &jsonRepr, &plain,
		&chunks, &embeddings, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, unavailable("reading record", err)
	}

	rec.Markdown = nullToPtr(markdown)
	rec.JSON = nullToPtr(jsonRepr)
	rec.Plain = nullToPtr(plain)
	rec.Chunks = nullToPtr(chunks)
	rec.Embeddings = nullToPtr(embeddings)
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)
	return &rec, nil
}

// ListKeys returns all record keys in ascending order.
func (r *recordStore) ListKeys(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, r.store.db, "listing records", "SELECT key FROM documents ORDER BY key")
}

// Delete removes a record and, through the foreign keys, its relationships.
func (r *recordStore) Delete(ctx context.Context, key string) error {
	if _, err := r.store.db.ExecContext(ctx, "DELETE FROM documents WHERE key = ?", key); err != nil {
		return unavailable("deleting record", err)
	}
	return nil
}

// ==================== Partition Store ====================

// partitionStore implements driven.PartitionStore.
type partitionStore struct {
	store *Store
}

var _ driven.PartitionStore = (*partitionStore)(nil)

// Add inserts keys in one transaction. Existing keys are ignored.
func (p *partitionStore) Add(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := p.store.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO partitions (key, registered_at) VALUES (?, ?)")
	if err != nil {
		return unavailable("preparing insert", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(timeLayout)
	for _, key := range keys {
		if key == "" {
			return fmt.Errorf("%w: empty partition key", domain.ErrInvalidInput)
		}
		if _, err := stmt.ExecContext(ctx, key, now); err != nil {
			return unavailable("registering partition", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable("committing partitions", err)
	}
	return nil
}

// Contains reports whether key is registered.
func (p *partitionStore) Contains(ctx context.Context, key string) (bool, error) {
	var one int
	err := p.store.db.QueryRowContext(ctx, "SELECT 1 FROM partitions WHERE key = ?", key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, unavailable("reading partition", err)
	}
	return true, nil
}

// List returns all keys in ascending order.
func (p *partitionStore) List(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, p.store.db, "listing partitions", "SELECT key FROM partitions ORDER BY key")
}

// Remove deletes a key.
func (p *partitionStore) Remove(ctx context.Context, key string) error {
	if _, err := p.store.db.ExecContext(ctx, "DELETE FROM partitions WHERE key = ?", key); err != nil {
		return unavailable("removing partition", err)
	}
	return nil
}

// ==================== Relationship Store ====================

// relationshipStore implements driven.RelationshipStore.
type relationshipStore struct {
	store *Store
}

var _ driven.RelationshipStore = (*relationshipStore)(nil)

// Save stores or updates a relationship after checking both keys exist.
// The foreign keys enforce the same rule if a record disappears between
// the check and the insert.
func (r *relationshipStore) Save(ctx context.Context, rel domain.Relationship) error {
	if err := rel.Validate(); err != nil {
		return err
	}

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, key := range []string{rel.DocA, rel.DocB} {
		var one int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM documents WHERE key = ?", key).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: no record for %q", domain.ErrReferentialIntegrity, key)
		}
		if err != nil {
			return unavailable("checking record", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO relationships (doc_a, doc_b, kind) VALUES (?, ?, ?)
		ON CONFLICT(doc_a, doc_b) DO UPDATE SET kind = excluded.kind
	`, rel.DocA, rel.DocB, string(rel.Kind))
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("%w: %v", domain.ErrReferentialIntegrity, err)
		}
		return unavailable("saving relationship", err)
	}

	if err := tx.Commit(); err != nil {
		return unavailable("committing relationship", err)
	}
	return nil
}

// List returns every relationship in which key appears on either side.
func (r *relationshipStore) List(ctx context.Context, key string) ([]domain.Relationship, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT doc_a, doc_b, kind FROM relationships
		WHERE doc_a = ? OR doc_b = ?
		ORDER BY doc_a, doc_b
	`, key, key)
	if err != nil {
		return nil, unavailable("listing relationships", err)
	}
	defer rows.Close()

	var rels []domain.Relationship //nolint:prealloc // size unknown from query
	for rows.Next() {
		var rel domain.Relationship
		var kind string
		if err := rows.Scan(&rel.DocA, &rel.DocB, &kind); err != nil {
			return nil, unavailable("scanning relationship", err)
		}
		rel.Kind = domain.RelationKind(kind)
		rels = append(rels, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterating relationships", err)
	}
	return rels, nil
}

// Delete removes the relationship for the ordered pair.
func (r *relationshipStore) Delete(ctx context.Context, docA, docB string) error {
	_, err := r.store.db.ExecContext(ctx,
		"DELETE FROM relationships WHERE doc_a = ? AND doc_b = ?", docA, docB)
	if err != nil {
		return unavailable("deleting relationship", err)
	}
	return nil
}

// ==================== Cursor Store ====================

// cursorStore implements driven.CursorStore.
type cursorStore struct {
	store *Store
}

var _ driven.CursorStore = (*cursorStore)(nil)

// Save stores or updates the state for a watch.
func (c *cursorStore) Save(ctx context.Context, state domain.WatchState) error {
	if state.WatchID == "" {
		return fmt.Errorf("%w: empty watch id", domain.ErrInvalidInput)
	}
	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO watch_state (watch_id, cursor, last_tick) VALUES (?, ?, ?)
		ON CONFLICT(watch_id) DO UPDATE SET
			cursor = excluded.cursor,
			last_tick = excluded.last_tick
	`, state.WatchID, state.Cursor, formatNullableTime(state.LastTick))
	if err != nil {
		return unavailable("saving cursor", err)
	}
	return nil
}

// Get retrieves the state for a watch.
func (c *cursorStore) Get(ctx context.Context, watchID string) (*domain.WatchState, error) {
	var state domain.WatchState
	var lastTick sql.NullString
	err := c.store.db.QueryRowContext(ctx,
		"SELECT watch_id, cursor, last_tick FROM watch_state WHERE watch_id = ?", watchID).
		Scan(&state.WatchID, &state.Cursor, &lastTick)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, unavailable("reading cursor", err)
	}
	state.LastTick = parseNullableTime(lastTick)
	return &state, nil
}

// Delete removes the state for a watch.
func (c *cursorStore) Delete(ctx context.Context, watchID string) error {
	if _, err := c.store.db.ExecContext(ctx, "DELETE FROM watch_state WHERE watch_id = ?", watchID); err != nil {
		return unavailable("deleting cursor", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// queryStrings runs a single-column query and collects the values.
func queryStrings(ctx context.Context, db *sql.DB, op, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	var out []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, unavailable(op, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return out, nil
}

// nullToPtr converts a nullable column to an optional string.
func nullToPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// parseTime parses a stored timestamp, returning zero time on failure.
func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// isForeignKeyError reports whether err is a SQLite foreign key violation.
func isForeignKeyError(err error) bool {
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
