package transfer

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
	store  *store.Store
	boxes  *boxes.Manager
	items  *items.Manager
	engine *Engine
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

	boxMgr := boxes.New(nil)
	itemMgr := items.New(boxMgr, nil)
	return &testEnv{store: s, boxes: boxMgr, items: itemMgr, engine: New(boxMgr, nil)}
}

func (e *testEnv) createWarehouse(t *testing.T, id, name string) {
	t.Helper()
	_, err := e.store.DB().Exec(`INSERT INTO warehouses (id, name, created_by, created_at) VALUES (?, ?, ?, ?)`,
		id, name, "user-1", store.FormatTime(time.Now()))
	require.NoError(t, err)
}

func (e *testEnv) createBox(t *testing.T, warehouseID, name, parentBoxID string) string {
	t.Helper()
	box, err := e.boxes.Create(context.Background(), e.store.DB(), boxes.CreateParams{
		WarehouseID: warehouseID, Name: name, ParentBoxID: parentBoxID,
	}, time.Now())
	require.NoError(t, err)
	return box.ID
}

func (e *testEnv) createItem(t *testing.T, warehouseID, boxID, name string) string {
	t.Helper()
	item, err := e.items.Create(context.Background(), e.store.DB(), items.CreateParams{
		WarehouseID: warehouseID, BoxID: boxID, Name: name,
	}, time.Now())
	require.NoError(t, err)
	return item.ID
}
