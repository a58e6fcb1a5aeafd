package boxes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

// liveItemsInBoxes and softDeleteItems give the box manager just enough
// reach into the items table to enforce the cascade invariants of
// spec.md §4.1 (delete rejection, force cascade) without depending on the
// internal/items package, which itself depends on internal/boxes for
// target-box liveness checks.

func liveItemsInBoxes(ctx context.Context, db store.DBTX, warehouseID string, boxIDs []string) ([]domain.Item, error) {
	if len(boxIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(boxIDs))
	args := make([]any, 0, len(boxIDs)+1)
	args = append(args, warehouseID)
	for i, id := range boxIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		SELECT id, warehouse_id, box_id, name, description, photo_url, physical_location, tags_json, aliases_json, version, created_at, deleted_at
		FROM items
		WHERE warehouse_id = ? AND deleted_at IS NULL AND box_id IN (%s)
	`, strings.Join(placeholders, ","))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("boxes: query live items in boxes: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var (
			it            domain.Item
			tagsJSON      string
			aliasesJSON   string
			createdAt     string
			deletedAt     *string
		)
		if err := rows.Scan(&it.ID, &it.WarehouseID, &it.BoxID, &it.Name, &it.Description, &it.PhotoURL,
			&it.PhysicalLocation, &tagsJSON, &aliasesJSON, &it.Version, &createdAt, &deletedAt); err != nil {
			return nil, fmt.Errorf("boxes: scan item: %w", err)
		}
		if it.Tags, err = store.UnmarshalStrings(tagsJSON); err != nil {
			return nil, err
		}
		if it.Aliases, err = store.UnmarshalStrings(aliasesJSON); err != nil {
			return nil, err
		}
		if it.CreatedAt, err = store.ParseTime(createdAt); err != nil {
			return nil, err
		}
		if it.DeletedAt, err = store.ParseTimePtr(deletedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func softDeleteItems(ctx context.Context, db store.DBTX, items []domain.Item, now time.Time) error {
	deletedAt := store.FormatTime(now)
	for _, it := range items {
		if _, err := db.ExecContext(ctx, `
			UPDATE items SET deleted_at = ?, version = version + 1 WHERE id = ? AND deleted_at IS NULL
		`, deletedAt, it.ID); err != nil {
			return fmt.Errorf("boxes: soft delete item: %w", err)
		}
	}
	return nil
}
