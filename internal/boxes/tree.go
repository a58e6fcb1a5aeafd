package boxes

import (
	"context"
	"fmt"
	"time"

	"github.com/raimangsxr/my-warehouse/internal/apierror"
	"github.com/raimangsxr/my-warehouse/internal/changelog"
	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

// TreeNode is one pre-order-flattened entry in a ListAsTree response.
type TreeNode struct {
	Box                 domain.Box
	Depth               int
	Path                []string // ancestor names, root-first, box itself last
	TotalItemsRecursive int
	TotalBoxesRecursive int
}

// ListAsTree returns a pre-order flattening of the warehouse's live box
// forest: roots sorted case-insensitively by name, each followed
// recursively by its children sorted the same way. Counts are computed in
// one pass over all boxes and all live items, then a memoized DFS
// (spec.md §4.1).
func (m *Manager) ListAsTree(ctx context.Context, db store.DBTX, warehouseID string) ([]TreeNode, error) {
	allBoxes, err := listBoxes(ctx, db, warehouseID)
	if err != nil {
		return nil, err
	}
	liveBoxes := make([]domain.Box, 0, len(allBoxes))
	for _, b := range allBoxes {
		if b.Live() {
			liveBoxes = append(liveBoxes, b)
		}
	}

	itemCounts, err := liveItemCountsByBox(ctx, db, warehouseID)
	if err != nil {
		return nil, err
	}

	children := childrenMap(liveBoxes)
	for k := range children {
		sortIDsByBoxNameCI(children[k], liveBoxes)
	}
	byID := make(map[string]domain.Box, len(liveBoxes))
	for _, b := range liveBoxes {
		byID[b.ID] = b
	}

	totalItems := make(map[string]int, len(liveBoxes))
	totalBoxes := make(map[string]int, len(liveBoxes))
	var countSubtree func(id string) (items int, boxes int)
	countSubtree = func(id string) (int, int) {
		items := itemCounts[id]
		boxes := 0
		for _, childID := range children[id] {
			ci, cb := countSubtree(childID)
			items += ci
			boxes += cb + 1
		}
		totalItems[id] = items
		totalBoxes[id] = boxes
		return items, boxes
	}

	var roots []domain.Box
	for _, b := range liveBoxes {
		if b.ParentBoxID == "" {
			roots = append(roots, b)
		}
	}
	sortBoxesByNameCI(roots)

	var out []TreeNode
	var visit func(id string, depth int, path []string)
	visit = func(id string, depth int, path []string) {
		if _, ok := totalItems[id]; !ok {
			countSubtree(id)
		}
		nodePath := append(append([]string{}, path...), byID[id].Name)
		out = append(out, TreeNode{
			Box:                 byID[id],
			Depth:               depth,
			Path:                nodePath,
			TotalItemsRecursive: totalItems[id],
			TotalBoxesRecursive: totalBoxes[id],
		})
		for _, childID := range children[id] {
			visit(childID, depth+1, nodePath)
		}
	}
	for _, root := range roots {
		visit(root.ID, 0, nil)
	}
	return out, nil
}

// GetSubtreeItems returns every live item contained anywhere in boxID's
// live subtree (boxID included).
func (m *Manager) GetSubtreeItems(ctx context.Context, db store.DBTX, warehouseID, boxID string) ([]domain.Item, error) {
	if _, err := m.Get(ctx, db, warehouseID, boxID); err != nil {
		return nil, err
	}
	allBoxes, err := listBoxes(ctx, db, warehouseID)
	if err != nil {
		return nil, err
	}
	children := childrenMap(allBoxes)
	subtree := collectSubtreeIDs(children, boxID)
	return liveItemsInBoxes(ctx, db, warehouseID, subtree)
}

func collectSubtreeIDs(children map[string][]string, root string) []string {
	ids := []string{root}
	stack := append([]string{}, children[root]...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ids = append(ids, n)
		stack = append(stack, children[n]...)
	}
	return ids
}

func sortIDsByBoxNameCI(ids []string, boxes []domain.Box) {
	byID := make(map[string]domain.Box, len(boxes))
	for _, b := range boxes {
		byID[b.ID] = b
	}
	named := make([]domain.Box, 0, len(ids))
	for _, id := range ids {
		named = append(named, byID[id])
	}
	sortBoxesByNameCI(named)
	for i, b := range named {
		ids[i] = b.ID
	}
}

// SoftDelete deletes boxID. Without force it rejects when the box has live
// children or live items anywhere in its subtree; with force it stamps a
// single deletedAt timestamp on every live descendant box and every live
// item in the subtree (spec.md §4.1, §3 invariant 3).
func (m *Manager) SoftDelete(ctx context.Context, tx store.DBTX, warehouseID, boxID string, force bool, now time.Time) error {
	box, err := m.Get(ctx, tx, warehouseID, boxID)
	if err != nil {
		return err
	}
	if !box.Live() {
		return apierror.NotFound("box")
	}

	allBoxes, err := listBoxes(ctx, tx, warehouseID)
	if err != nil {
		return err
	}
	children := childrenMap(allBoxes)
	subtreeIDs := collectSubtreeIDs(children, boxID)

	byID := make(map[string]domain.Box, len(allBoxes))
	for _, b := range allBoxes {
		byID[b.ID] = b
	}
	var liveDescendantBoxIDs []string
	for _, id := range subtreeIDs {
		if b, ok := byID[id]; ok && b.Live() {
			liveDescendantBoxIDs = append(liveDescendantBoxIDs, id)
		}
	}

	items, err := liveItemsInBoxes(ctx, tx, warehouseID, subtreeIDs)
	if err != nil {
		return err
	}

	hasLiveChildBox := len(liveDescendantBoxIDs) > 1 // box itself is included
	if !force && (hasLiveChildBox || len(items) > 0) {
		return apierror.InvalidInput("box has live children or items; delete with force to cascade")
	}

	deletedAt := store.FormatTime(now)
	ids := liveDescendantBoxIDs
	if !force {
		ids = []string{boxID}
	}
	if err := softDeleteBoxes(ctx, tx, ids, deletedAt); err != nil {
		return err
	}

	writer := changelog.New(tx)
	for _, id := range ids {
		v := byID[id].Version + 1
		if _, err := writer.Append(ctx, warehouseID, "box", id, domain.ActionDelete, &v, map[string]any{"deleted_at": deletedAt}, now); err != nil {
			return err
		}
	}

	if force && len(items) > 0 {
		if err := softDeleteItems(ctx, tx, items, now); err != nil {
			return err
		}
		for _, it := range items {
			v := it.Version + 1
			if _, err := writer.Append(ctx, warehouseID, "item", it.ID, domain.ActionDelete, &v, map[string]any{"deleted_at": deletedAt}, now); err != nil {
				return err
			}
		}
	}

	m.logger.Info("box soft-deleted", "box_id", boxID, "force", force, "cascaded_boxes", len(ids), "cascaded_items", len(items))
	return nil
}

// Restore reverses a soft-delete. A box whose parent is itself soft-deleted
// cannot be restored; the caller must restore the parent first
// (spec.md §4.1). Restoring a box never restores its items.
func (m *Manager) Restore(ctx context.Context, tx store.DBTX, warehouseID, boxID string, now time.Time) (domain.Box, error) {
	box, err := getBox(ctx, tx, boxID)
	if err != nil {
		return domain.Box{}, err
	}
	if box.WarehouseID != warehouseID {
		return domain.Box{}, apierror.NotFound("box")
	}
	if box.Live() {
		return box, nil
	}

	if box.ParentBoxID != "" {
		parent, err := getBox(ctx, tx, box.ParentBoxID)
		if err != nil {
			return domain.Box{}, err
		}
		if !parent.Live() {
			return domain.Box{}, apierror.InvalidInput("parent box is deleted; restore it first")
		}
	}

	if err := restoreBox(ctx, tx, boxID); err != nil {
		return domain.Box{}, err
	}
	box.DeletedAt = nil
	box.Version++

	version := box.Version
	if _, err := changelog.New(tx).Append(ctx, warehouseID, "box", boxID, domain.ActionRestore, &version, boxPayload(box), now); err != nil {
		return domain.Box{}, err
	}
	return box, nil
}

// PathNames returns, for every box in warehouseID, its full ancestor path
// as a slice of names ordered root-first (the box itself last). Used by
// the item search layer to build the box-path text scored in spec.md
// §4.2's ranking rule.
func (m *Manager) PathNames(ctx context.Context, db store.DBTX, warehouseID string) (map[string][]string, error) {
	all, err := listBoxes(ctx, db, warehouseID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Box, len(all))
	for _, b := range all {
		byID[b.ID] = b
	}

	paths := make(map[string][]string, len(all))
	var pathOf func(id string) []string
	pathOf = func(id string) []string {
		if p, ok := paths[id]; ok {
			return p
		}
		b, ok := byID[id]
		if !ok {
			return nil
		}
		var path []string
		if b.ParentBoxID != "" {
			path = append(path, pathOf(b.ParentBoxID)...)
		}
		path = append(path, b.Name)
		paths[id] = path
		return path
	}
	for _, b := range all {
		pathOf(b.ID)
	}
	return paths, nil
}

func liveItemCountsByBox(ctx context.Context, db store.DBTX, warehouseID string) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT box_id, COUNT(*) FROM items WHERE warehouse_id = ? AND deleted_at IS NULL GROUP BY box_id
	`, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("boxes: item counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var boxID string
		var n int
		if err := rows.Scan(&boxID, &n); err != nil {
			return nil, fmt.Errorf("boxes: scan item count: %w", err)
		}
		counts[boxID] = n
	}
	return counts, rows.Err()
}
