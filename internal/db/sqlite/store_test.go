package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(StoreConfig{Path: filepath.Join(t.TempDir(), "parley.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGetStmtCaching(t *testing.T) {
	store := testStore(t)

	stmt, err := store.GetStmt("SELECT 1")
	require.NoError(t, err)
	require.NotNil(t, stmt)

	stmt2, err := store.GetStmt("SELECT 1")
	require.NoError(t, err)
	assert.Same(t, stmt, stmt2)
}

func TestGetStmtInvalidQuery(t *testing.T) {
	store := testStore(t)

	stmt, err := store.GetStmt("SELECT * FROM nonexistent_table WHERE")
	assert.Error(t, err)
	assert.Nil(t, stmt)
}

func TestPragmasApplyToEveryConnection(t *testing.T) {
	store := testStore(t)

	// With no idle connections, every query opens a fresh one; the
	// per-connection pragmas must still hold on each.
	store.db.SetMaxIdleConns(0)

	for i := 0; i < 3; i++ {
		var fk, timeout int
		require.NoError(t, store.db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
		require.NoError(t, store.db.QueryRow("PRAGMA busy_timeout").Scan(&timeout))
		assert.Equal(t, 1, fk)
		assert.Equal(t, 5000, timeout)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	store := testStore(t)

	_, err := store.ExecContext(context.Background(), `
		INSERT INTO turns (id, session_id, u_msg, b_rep, ts, ts_epoch)
		VALUES ('t1', 'no-such-session', 'hi', 'hello', '2026-01-01T00:00:00Z', 0)
	`)
	assert.Error(t, err)
}

func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "parley.db")

	store, err := NewStore(StoreConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening an existing database must not fail.
	store, err = NewStore(StoreConfig{Path: path})
	require.NoError(t, err)
	defer store.Close()

	_, err = store.ExecContext(context.Background(), `SELECT COUNT(*) FROM sessions`)
	assert.NoError(t, err)
}
