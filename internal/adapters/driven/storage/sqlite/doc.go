// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - RecordStore: Document records, one row per partition key
//   - PartitionStore: Known partition keys
//   - RelationshipStore: Relationships with foreign keys into documents
//   - CursorStore: Persisted watch cursors
//   - SchedulerStore: Scheduled task state and history
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-ingest/data/records.db
//
// # Errors
//
// Failed database operations are wrapped with domain.ErrStoreUnavailable.
// Domain outcomes (not found, conflicts, integrity violations) are reported
// with their own sentinel errors.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode. Single-row writes are atomic.
package sqlite
