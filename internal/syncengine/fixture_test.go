package syncengine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/raimangsxr/my-warehouse/internal/boxes"
	"github.com/raimangsxr/my-warehouse/internal/items"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

type testEnv struct {
	store       *store.Store
	engine      *Engine
	warehouseID string
	boxID       string
}

func newTestEnv(t *testing.T) *testEnv {
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

	boxMgr := boxes.New(nil)
	itemMgr := items.New(boxMgr, nil)
	box, err := boxMgr.Create(context.Background(), s.DB(), boxes.CreateParams{WarehouseID: warehouseID, Name: "Box"}, time.Now())
	require.NoError(t, err)

	return &testEnv{
		store:       s,
		engine:      New(boxMgr, itemMgr, nil),
		warehouseID: warehouseID,
		boxID:       box.ID,
	}
}
