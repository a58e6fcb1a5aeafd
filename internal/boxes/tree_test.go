package boxes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raimangsxr/my-warehouse/internal/idgen"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

// insertTestItem bypasses the items package (which itself imports boxes) and
// writes a minimal live item row directly for tree/subtree assertions.
func insertTestItem(t *testing.T, s *store.Store, warehouseID, boxID, name string) string {
	t.Helper()
	id := idgen.NewID()
	_, err := s.DB().Exec(`
		INSERT INTO items (id, warehouse_id, box_id, name, description, photo_url, physical_location, tags_json, aliases_json, version, created_at, deleted_at)
		VALUES (?, ?, ?, ?, '', '', '', '[]', '[]', 1, ?, NULL)
	`, id, warehouseID, boxID, name, store.FormatTime(time.Now()))
	require.NoError(t, err)
	return id
}

func TestListAsTree_OrdersRootsAndChildrenCaseInsensitively(t *testing.T) {
	s, wh := newTestWarehouse(t)
	mgr := New(nil)
	ctx := context.Background()
	now := time.Now()

	zebra, err := mgr.Create(ctx, s.DB(), CreateParams{WarehouseID: wh, Name: "Zebra"}, now)
	require.NoError(t, err)
	apple, err := mgr.Create(ctx, s.DB(), CreateParams{WarehouseID: wh, Name: "apple"}, now)
	require.NoError(t, err)
	_, err = mgr.Create(ctx, s.DB(), CreateParams{WarehouseID: wh, Name: "Banana", ParentBoxID: apple.ID}, now)
	require.NoError(t, err)

	nodes, err := mgr.ListAsTree(ctx, s.DB(), wh)
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	assert.Equal(t, "apple", nodes[0].Box.Name)
	assert.Equal(t, 0, nodes[0].Depth)
	assert.Equal(t, "Banana", nodes[1].Box.Name)
	assert.Equal(t, 1, nodes[1].Depth)
	assert.Equal(t, []string{"apple", "Banana"}, nodes[1].Path)
	assert.Equal(t, "Zebra", nodes[2].Box.Name)
}

func TestListAsTree_CountsItemsAndBoxesRecursively(t *testing.T) {
	s, wh := newTestWarehouse(t)
	mgr := New(nil)
	ctx := context.Background()
	now := time.Now()

	parent, err := mgr.Create(ctx, s.DB(), CreateParams{WarehouseID: wh, Name: "Parent"}, now)
	require.NoError(t, err)
	child, err := mgr.Create(ctx, s.DB(), CreateParams{WarehouseID: wh, Name: "Child", ParentBoxID: parent.ID}, now)
	require.NoError(t, err)

	insertTestItem(t, s, wh, parent.ID, "Item A")
	insertTestItem(t, s, wh, child.ID, "Item B")

	nodes, err := mgr.ListAsTree(ctx, s.DB(), wh)
	require.NoError(t, err)

	var parentNode, childNode TreeNode
	for _, n := range nodes {
		if n.Box.ID == parent.ID {
			parentNode = n
		}
		if n.Box.ID == child.ID {
			childNode = n
		}
	}
	assert.Equal(t, 2, parentNode.TotalItemsRecursive)
	assert.Equal(t, 1, parentNode.TotalBoxesRecursive)
	assert.Equal(t, 1, childNode.TotalItemsRecursive)
	assert.Equal(t, 0, childNode.TotalBoxesRecursive)
}

func TestGetSubtreeItems_IncludesBoxItselfAndDescendants(t *testing.T) {
	s, wh := newTestWarehouse(t)
	mgr := New(nil)
	ctx := context.Background()
	now := time.Now()

	parent, err := mgr.Create(ctx, s.DB(), CreateParams{WarehouseID: wh, Name: "Parent"}, now)
	require.NoError(t, err)
	child, err := mgr.Create(ctx, s.DB(), CreateParams{WarehouseID: wh, Name: "Child", ParentBoxID: parent.ID}, now)
	require.NoError(t, err)

	insertTestItem(t, s, wh, parent.ID, "Direct")
	insertTestItem(t, s, wh, child.ID, "Nested")

	items, err := mgr.GetSubtreeItems(ctx, s.DB(), wh, parent.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestPathNames_RootFirstOrdering(t *testing.T) {
	s, wh := newTestWarehouse(t)
	mgr := New(nil)
	ctx := context.Background()
	now := time.Now()

	top, err := mgr.Create(ctx, s.DB(), CreateParams{WarehouseID: wh, Name: "Garage"}, now)
	require.NoError(t, err)
	mid, err := mgr.Create(ctx, s.DB(), CreateParams{WarehouseID: wh, Name: "Shelf", ParentBoxID: top.ID}, now)
	require.NoError(t, err)
	leaf, err := mgr.Create(ctx, s.DB(), CreateParams{WarehouseID: wh, Name: "Bin", ParentBoxID: mid.ID}, now)
	require.NoError(t, err)

	paths, err := mgr.PathNames(ctx, s.DB(), wh)
	require.NoError(t, err)
	assert.Equal(t, []string{"Garage", "Shelf", "Bin"}, paths[leaf.ID])
}
