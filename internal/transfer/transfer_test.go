package transfer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raimangsxr/my-warehouse/internal/domain"
)

func TestTopoOrderBoxes_ParentsBeforeChildren(t *testing.T) {
	boxIDMap := map[string]string{"root": "root", "child": "child", "grandchild": "grandchild"}
	snapBoxes := []domain.Box{
		{ID: "grandchild", ParentBoxID: "child"},
		{ID: "child", ParentBoxID: "root"},
		{ID: "root", ParentBoxID: ""},
	}

	order, err := topoOrderBoxes(snapBoxes, boxIDMap, "warehouse-1")
	require.NoError(t, err)
	require.Len(t, order, 3)

	position := make(map[string]int, len(order))
	for i, b := range order {
		position[b.ID] = i
	}
	assert.Less(t, position["root"], position["child"])
	assert.Less(t, position["child"], position["grandchild"])
}

func TestTopoOrderBoxes_RejectsCycle(t *testing.T) {
	boxIDMap := map[string]string{"a": "a", "b": "b"}
	snapBoxes := []domain.Box{
		{ID: "a", ParentBoxID: "b"},
		{ID: "b", ParentBoxID: "a"},
	}

	_, err := topoOrderBoxes(snapBoxes, boxIDMap, "warehouse-1")
	require.Error(t, err)
}

func TestExport_IncludesBoxesItemsInCreatedOrder(t *testing.T) {
	env := newTestEnv(t)
	env.createWarehouse(t, "warehouse-1", "Acme Warehouse")
	boxID := env.createBox(t, "warehouse-1", "Box A", "")
	env.createItem(t, "warehouse-1", boxID, "Widget")

	snap, err := env.engine.Export(context.Background(), env.store.DB(), "warehouse-1")
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, snap.SchemaVersion)
	assert.Equal(t, "Acme Warehouse", snap.WarehouseName)
	require.Len(t, snap.Boxes, 1)
	assert.Equal(t, "Box A", snap.Boxes[0].Name)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Widget", snap.Items[0].Name)
}

func TestImport_RemapsBoxIDsOnCrossWarehouseCollision(t *testing.T) {
	env := newTestEnv(t)
	env.createWarehouse(t, "warehouse-source", "Source")
	env.createWarehouse(t, "warehouse-target", "Target")

	sourceBoxID := env.createBox(t, "warehouse-source", "Box A", "")
	env.createItem(t, "warehouse-source", sourceBoxID, "Widget")

	snap, err := env.engine.Export(context.Background(), env.store.DB(), "warehouse-source")
	require.NoError(t, err)

	// sourceBoxID still belongs to warehouse-source, so importing into
	// warehouse-target must remap it to a fresh id rather than reuse it.
	result, err := env.engine.Import(context.Background(), env.store.DB(), "warehouse-target", snap, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, result.BoxesImported)
	assert.Equal(t, 1, result.ItemsImported)

	var importedBoxID string
	require.NoError(t, env.store.DB().QueryRow(`SELECT id FROM boxes WHERE warehouse_id = ?`, "warehouse-target").Scan(&importedBoxID))
	assert.NotEqual(t, sourceBoxID, importedBoxID, "imported box must get a fresh id, not collide with the source warehouse's")
}

func TestImport_RejectsItemReferencingUnresolvedBox(t *testing.T) {
	env := newTestEnv(t)
	env.createWarehouse(t, "warehouse-target", "Target")

	snap := Snapshot{
		SchemaVersion: SchemaVersion,
		WarehouseName: "Orphaned",
		Items: []domain.Item{
			{ID: "item-1", BoxID: "missing-box", Name: "Widget", Version: 1, CreatedAt: time.Now()},
		},
	}

	_, err := env.engine.Import(context.Background(), env.store.DB(), "warehouse-target", snap, time.Now())
	require.Error(t, err)
}
