// Package sqlite provides the SQLite-backed destination: records are
// upserted as JSON documents keyed by (table, id), and the checkpoint
// blob lives in a single-row table.
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

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sheetsync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sheetsync/internal/core/domain"
	"github.com/custodia-labs/sheetsync/internal/core/ports/driven"
)

// Ensure Store implements both driven interfaces.
var (
	_ driven.Destination    = (*Store)(nil)
	_ driven.SyncStateStore = (*Store)(nil)
)

// Store is the SQLite-backed destination and sync-state store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.sheetsync/data/sheetsync.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sheetsync", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "sheetsync.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
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

// Upsert inserts or replaces one record, keyed by record["id"].
func (s *Store) Upsert(ctx context.Context, table string, record domain.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshalling record: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (table_name, id, data, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(table_name, id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, table, record.ID(), string(data))

	if err != nil {
		return fmt.Errorf("upserting record: %w", err)
	}
	return nil
}

// Delete removes one record by primary key.
func (s *Store) Delete(ctx context.Context, table, key string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM records WHERE table_name = ? AND id = ?", table, key)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	return nil
}

// Checkpoint durably commits the sync state as a single row.
func (s *Store) Checkpoint(ctx context.Context, state *domain.SyncState) error {
	data, err := state.Encode()
	if err != nil {
		return fmt.Errorf("encoding sync state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sync_state (id, state, committed_at)
		VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			committed_at = excluded.committed_at
	`, string(data))

	if err != nil {
		return fmt.Errorf("saving sync state: %w", err)
	}
	return nil
}

// Load retrieves the last committed state. A fresh database yields an
// empty state.
func (s *Store) Load(ctx context.Context) (*domain.SyncState, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT state FROM sync_state WHERE id = 1").Scan(&data)
	if err == sql.ErrNoRows {
		return domain.NewSyncState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning sync state: %w", err)
	}

	return domain.DecodeSyncState([]byte(data))
}

// GetRecord retrieves one stored record.
func (s *Store) GetRecord(ctx context.Context, table, key string) (domain.Record, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM records WHERE table_name = ? AND id = ?", table, key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning record: %w", err)
	}

	var record domain.Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("unmarshaling record: %w", err)
	}
	return record, nil
}

// ListKeys returns the stored primary keys for a table.
func (s *Store) ListKeys(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM records WHERE table_name = ? ORDER BY id", table)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var keys []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning record key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return keys, nil
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

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}
