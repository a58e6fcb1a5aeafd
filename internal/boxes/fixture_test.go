package boxes

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/raimangsxr/my-warehouse/internal/store"
)

// newTestWarehouse opens a fresh in-process store and seeds a single user
// and warehouse row to satisfy the schema's foreign keys.
func newTestWarehouse(t *testing.T) (*store.Store, string) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	now := store.FormatTime(time.Now())
	_, err = s.DB().Exec(`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		"user-1", "owner@example.com", "hash", now)
	require.NoError(t, err)

	warehouseID := "warehouse-1"
	_, err = s.DB().Exec(`INSERT INTO warehouses (id, name, created_by, created_at) VALUES (?, ?, ?, ?)`,
		warehouseID, "Test Warehouse", "user-1", now)
	require.NoError(t, err)

	return s, warehouseID
}
