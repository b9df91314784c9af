package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection with thread-safe access.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// New creates and initializes a new SQLite database connection, creating the
// parent directory if needed.
func New(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// migrate creates the ledger tables if they don't exist.
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS decode_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		x_path TEXT NOT NULL,
		y_path TEXT NOT NULL,
		output_csv TEXT NOT NULL,
		attempted INTEGER DEFAULT 0,
		decoded INTEGER DEFAULT 0,
		dropped INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS decode_failures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		bitmap_index INTEGER NOT NULL,
		label INTEGER NOT NULL,
		FOREIGN KEY (run_id) REFERENCES decode_runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS training_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME NOT NULL,
		data_path TEXT NOT NULL,
		model_path TEXT NOT NULL,
		train_size INTEGER DEFAULT 0,
		test_size INTEGER DEFAULT 0,
		roc_auc REAL DEFAULT 0,
		accuracy REAL DEFAULT 0,
		report TEXT DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_decode_runs_started_at ON decode_runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_decode_failures_run_id ON decode_failures(run_id);
	CREATE INDEX IF NOT EXISTS idx_training_runs_created_at ON training_runs(created_at);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection for use by repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Lock acquires a write lock.
func (db *DB) Lock() {
	db.mu.Lock()
}

// Unlock releases the write lock.
func (db *DB) Unlock() {
	db.mu.Unlock()
}

// RLock acquires a read lock.
func (db *DB) RLock() {
	db.mu.RLock()
}

// RUnlock releases the read lock.
func (db *DB) RUnlock() {
	db.mu.RUnlock()
}
