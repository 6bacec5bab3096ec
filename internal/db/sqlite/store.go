// Package sqlite provides SQLite-backed persistence for parley sessions
// and turns.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// StoreConfig holds database configuration.
type StoreConfig struct {
	Path     string // Path to the SQLite database file
	MaxConns int    // Maximum open connections (default 4)
}

// Store wraps the database connection and caches prepared statements.
// Every operation acquires and releases its connection within the call;
// the store holds no per-request state.
type Store struct {
	db    *sql.DB
	mu    sync.Mutex
	stmts map[string]*sql.Stmt
}

// NewStore opens (creating if needed) the database at cfg.Path, applies the
// schema, and enables WAL mode with a busy timeout so concurrent writers on
// the same session retry instead of failing.
func NewStore(cfg StoreConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	// busy_timeout, foreign_keys, and synchronous are per-connection in
	// SQLite, so they ride the DSN and apply to every connection the pool
	// opens.
	dsn := cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 4
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// journal_mode persists in the database file; one Exec is enough.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return newStoreFromDB(db), nil
}

// newStoreFromDB wraps an existing connection. Used by tests.
func newStoreFromDB(db *sql.DB) *Store {
	return &Store{db: db, stmts: make(map[string]*sql.Stmt)}
}

// migrate applies the schema. Statements are idempotent so the store can
// reopen an existing database.
func migrate(db *sql.DB) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS sessions (
			sid TEXT PRIMARY KEY,
			uname TEXT NOT NULL,
			created_at TEXT NOT NULL,
			created_at_epoch INTEGER NOT NULL,
			last_active TEXT NOT NULL,
			last_active_epoch INTEGER NOT NULL,
			total_msgs INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS turns (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(sid),
			u_msg TEXT NOT NULL,
			b_rep TEXT NOT NULL,
			ts TEXT NOT NULL,
			ts_epoch INTEGER NOT NULL,
			topic TEXT NOT NULL DEFAULT 'general',
			mood TEXT NOT NULL DEFAULT 'neutral',
			kws TEXT NOT NULL DEFAULT '',
			score REAL NOT NULL DEFAULT 0.0
		);

		CREATE INDEX IF NOT EXISTS idx_turns_session_ts ON turns(session_id, ts_epoch DESC);
		CREATE INDEX IF NOT EXISTS idx_sessions_last_active ON sessions(last_active_epoch);
	`
	_, err := db.Exec(schema)
	return err
}

// GetStmt returns a cached prepared statement for the query, preparing it on
// first use.
func (s *Store) GetStmt(query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.stmts[query]; ok {
		return stmt, nil
	}
	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	s.stmts[query] = stmt
	return stmt, nil
}

// ExecContext executes a query through the statement cache.
func (s *Store) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	stmt, err := s.GetStmt(query)
	if err != nil {
		return nil, err
	}
	return stmt.ExecContext(ctx, args...)
}

// QueryContext runs a query through the statement cache.
func (s *Store) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	stmt, err := s.GetStmt(query)
	if err != nil {
		return nil, err
	}
	return stmt.QueryContext(ctx, args...)
}

// QueryRowContext runs a single-row query through the statement cache.
func (s *Store) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	stmt, err := s.GetStmt(query)
	if err != nil {
		// Let the caller surface the prepare error on Scan.
		return s.db.QueryRowContext(ctx, query, args...)
	}
	return stmt.QueryRowContext(ctx, args...)
}

// BeginTx starts a transaction.
func (s *Store) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// Ping verifies the connection is alive.
func (s *Store) Ping() error {
	return s.db.Ping()
}

// Close closes cached statements and the connection.
func (s *Store) Close() error {
	s.mu.Lock()
	for _, stmt := range s.stmts {
		_ = stmt.Close()
	}
	s.stmts = make(map[string]*sql.Stmt)
	s.mu.Unlock()
	return s.db.Close()
}
