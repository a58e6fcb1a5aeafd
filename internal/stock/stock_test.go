package stock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raimangsxr/my-warehouse/internal/apierror"
	"github.com/raimangsxr/my-warehouse/internal/boxes"
	"github.com/raimangsxr/my-warehouse/internal/items"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

func newTestItem(t *testing.T) (*store.Store, string, string) {
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
	ctx := context.Background()
	box, err := boxMgr.Create(ctx, s.DB(), boxes.CreateParams{WarehouseID: warehouseID, Name: "Box"}, time.Now())
	require.NoError(t, err)

	itemMgr := items.New(boxMgr, nil)
	item, err := itemMgr.Create(ctx, s.DB(), items.CreateParams{WarehouseID: warehouseID, BoxID: box.ID, Name: "Widget"}, time.Now())
	require.NoError(t, err)

	return s, warehouseID, item.ID
}

func TestAdjust_RejectsInvalidDelta(t *testing.T) {
	s, wh, itemID := newTestItem(t)
	_, err := Adjust(context.Background(), s.DB(), Adjustment{WarehouseID: wh, ItemID: itemID, Delta: 5, CommandID: "cmd-001"}, time.Now())
	require.Error(t, err)
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindInvalidInput, apiErr.Kind)
}

func TestAdjust_RejectsShortCommandID(t *testing.T) {
	s, wh, itemID := newTestItem(t)
	_, err := Adjust(context.Background(), s.DB(), Adjustment{WarehouseID: wh, ItemID: itemID, Delta: 1, CommandID: "ab"}, time.Now())
	require.Error(t, err)
}

func TestAdjust_AccumulatesDeltas(t *testing.T) {
	s, wh, itemID := newTestItem(t)
	ctx := context.Background()
	now := time.Now()

	stock, err := Adjust(ctx, s.DB(), Adjustment{WarehouseID: wh, ItemID: itemID, Delta: 1, CommandID: "cmd-001"}, now)
	require.NoError(t, err)
	assert.Equal(t, 1, stock)

	stock, err = Adjust(ctx, s.DB(), Adjustment{WarehouseID: wh, ItemID: itemID, Delta: 1, CommandID: "cmd-002"}, now)
	require.NoError(t, err)
	assert.Equal(t, 2, stock)

	stock, err = Adjust(ctx, s.DB(), Adjustment{WarehouseID: wh, ItemID: itemID, Delta: -1, CommandID: "cmd-003"}, now)
	require.NoError(t, err)
	assert.Equal(t, 1, stock)
}

func TestAdjust_IdempotentOnDuplicateCommandID(t *testing.T) {
	s, wh, itemID := newTestItem(t)
	ctx := context.Background()
	now := time.Now()

	stock, err := Adjust(ctx, s.DB(), Adjustment{WarehouseID: wh, ItemID: itemID, Delta: 1, CommandID: "cmd-dup01"}, now)
	require.NoError(t, err)
	assert.Equal(t, 1, stock)

	stock, err = Adjust(ctx, s.DB(), Adjustment{WarehouseID: wh, ItemID: itemID, Delta: 1, CommandID: "cmd-dup01"}, now)
	require.NoError(t, err)
	assert.Equal(t, 1, stock, "duplicate command id must not apply a second delta")
}

func TestCurrent_DefaultsToZero(t *testing.T) {
	s, _, itemID := newTestItem(t)
	stock, err := Current(context.Background(), s.DB(), itemID)
	require.NoError(t, err)
	assert.Equal(t, 0, stock)
}
