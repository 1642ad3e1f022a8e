// Package store persists inspections and findings in a local SQLite
// database. It is the concrete implementation of inspection.Repository:
// the navigation engine and the MCP tools only see the interface.
//
// The database uses WAL mode with a single connection, which serializes
// writers at the driver level and keeps the file safe to read while an
// inspection is in progress.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"inspectd/internal/logging"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed inspection repository.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// New opens (or creates) the SQLite database at the given path and
// ensures the schema exists. busyTimeout bounds how long a write waits
// on a locked database before failing.
func New(path string, busyTimeout time.Duration) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "New")
	defer timer.Stop()

	logging.Store("Opening inspection database at %s", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to create directory %s: %v", dir, err)
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds())); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	// synchronous=NORMAL is safe with WAL and much faster than FULL
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to initialize schema: %v", err)
		db.Close()
		return nil, err
	}

	logging.Store("Inspection database ready")
	return s, nil
}

// initialize creates the required tables.
func (s *Store) initialize() error {
	inspectionsTable := `
	CREATE TABLE IF NOT EXISTS inspections (
		id TEXT PRIMARY KEY,
		checklist_id TEXT NOT NULL,
		property TEXT NOT NULL,
		inspector TEXT,
		current_section TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		completed_at DATETIME,
		deleted_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_inspections_status ON inspections(status);
	CREATE INDEX IF NOT EXISTS idx_inspections_checklist ON inspections(checklist_id);
	`

	findingsTable := `
	CREATE TABLE IF NOT EXISTS findings (
		id TEXT PRIMARY KEY,
		inspection_id TEXT NOT NULL,
		section TEXT NOT NULL,
		text TEXT NOT NULL,
		severity TEXT NOT NULL,
		matched_comment TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_findings_inspection ON findings(inspection_id);
	CREATE INDEX IF NOT EXISTS idx_findings_section ON findings(inspection_id, section);
	`

	for _, table := range []string{inspectionsTable, findingsTable} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	logging.Store("Closing inspection database")
	return s.db.Close()
}

// GetDB returns the underlying SQL database connection.
func (s *Store) GetDB() *sql.DB {
	return s.db
}

// GetStats returns row counts per table.
func (s *Store) GetStats() (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]int64)
	for _, table := range []string{"inspections", "findings"} {
		var count int64
		if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
			logging.StoreDebug("Table %s count failed: %v", table, err)
			continue
		}
		stats[table] = count
	}
	return stats, nil
}
