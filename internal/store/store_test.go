package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_IdempotentAndQueryable(t *testing.T) {
	s := openTestStore(t)

	var count int
	err := s.DB().QueryRow("SELECT count(*) FROM warehouses").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestOpen_SecondOpenSameFileSucceeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	s1, err := Open(path, nil)
	require.NoError(t, err)
	s1.Close()

	s2, err := Open(path, nil)
	require.NoError(t, err)
	defer s2.Close()
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
			"u1", "a@b.com", "hash", FormatTime(time.Now()))
		return err
	})
	require.NoError(t, err)

	var email string
	require.NoError(t, s.DB().QueryRow("SELECT email FROM users WHERE id = ?", "u1").Scan(&email))
	assert.Equal(t, "a@b.com", email)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sentinel := assert.AnError
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, `INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
			"u2", "rollback@b.com", "hash", FormatTime(time.Now()))
		require.NoError(t, execErr)
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	var count int
	require.NoError(t, s.DB().QueryRow("SELECT count(*) FROM users WHERE id = ?", "u2").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = s.WithTx(ctx, func(tx *sql.Tx) error {
			_, _ = tx.ExecContext(ctx, `INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
				"u3", "panic@b.com", "hash", FormatTime(time.Now()))
			panic("boom")
		})
	})

	var count int
	require.NoError(t, s.DB().QueryRow("SELECT count(*) FROM users WHERE id = ?", "u3").Scan(&count))
	assert.Equal(t, 0, count)
}
