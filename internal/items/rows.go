package items

import (
	"context"
	"fmt"
	"time"

	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

const itemSelectColumns = `SELECT id, warehouse_id, box_id, name, description, photo_url, physical_location, tags_json, aliases_json, version, created_at, deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (domain.Item, error) {
	var (
		it          domain.Item
		tagsJSON    string
		aliasesJSON string
		createdAt   string
		deletedAt   *string
	)
	err := row.Scan(&it.ID, &it.WarehouseID, &it.BoxID, &it.Name, &it.Description, &it.PhotoURL,
		&it.PhysicalLocation, &tagsJSON, &aliasesJSON, &it.Version, &createdAt, &deletedAt)
	if err != nil {
		return domain.Item{}, err
	}
	if it.Tags, err = store.UnmarshalStrings(tagsJSON); err != nil {
		return domain.Item{}, fmt.Errorf("unmarshal tags: %w", err)
	}
	if it.Aliases, err = store.UnmarshalStrings(aliasesJSON); err != nil {
		return domain.Item{}, fmt.Errorf("unmarshal aliases: %w", err)
	}
	if it.CreatedAt, err = store.ParseTime(createdAt); err != nil {
		return domain.Item{}, fmt.Errorf("parse created_at: %w", err)
	}
	if it.DeletedAt, err = store.ParseTimePtr(deletedAt); err != nil {
		return domain.Item{}, fmt.Errorf("parse deleted_at: %w", err)
	}
	return it, nil
}

func insertItem(ctx context.Context, db store.DBTX, it domain.Item) error {
	tagsJSON, err := store.MarshalStrings(it.Tags)
	if err != nil {
		return err
	}
	aliasesJSON, err := store.MarshalStrings(it.Aliases)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO items (id, warehouse_id, box_id, name, description, photo_url, physical_location, tags_json, aliases_json, version, created_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, it.ID, it.WarehouseID, it.BoxID, it.Name, it.Description, it.PhotoURL, it.PhysicalLocation,
		tagsJSON, aliasesJSON, it.Version, store.FormatTime(it.CreatedAt), store.FormatTimePtr(it.DeletedAt))
	if err != nil {
		return fmt.Errorf("items: insert: %w", err)
	}
	return nil
}

func updateItemFields(ctx context.Context, db store.DBTX, it domain.Item) error {
	tagsJSON, err := store.MarshalStrings(it.Tags)
	if err != nil {
		return err
	}
	aliasesJSON, err := store.MarshalStrings(it.Aliases)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		UPDATE items
		SET box_id = ?, name = ?, description = ?, photo_url = ?, physical_location = ?, tags_json = ?, aliases_json = ?, version = ?
		WHERE id = ?
	`, it.BoxID, it.Name, it.Description, it.PhotoURL, it.PhysicalLocation, tagsJSON, aliasesJSON, it.Version, it.ID)
	if err != nil {
		return fmt.Errorf("items: update fields: %w", err)
	}
	return nil
}

func softDeleteItem(ctx context.Context, db store.DBTX, id string, now time.Time) error {
	_, err := db.ExecContext(ctx, `
		UPDATE items SET deleted_at = ?, version = version + 1 WHERE id = ? AND deleted_at IS NULL
	`, store.FormatTime(now), id)
	if err != nil {
		return fmt.Errorf("items: soft delete: %w", err)
	}
	return nil
}

func restoreItem(ctx context.Context, db store.DBTX, id string) error {
	_, err := db.ExecContext(ctx, `
		UPDATE items SET deleted_at = NULL, version = version + 1 WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("items: restore: %w", err)
	}
	return nil
}

func insertFavorite(ctx context.Context, db store.DBTX, userID, itemID string, now time.Time) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO item_favorites (user_id, item_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id, item_id) DO NOTHING
	`, userID, itemID, store.FormatTime(now))
	if err != nil {
		return fmt.Errorf("items: insert favorite: %w", err)
	}
	return nil
}

func deleteFavorite(ctx context.Context, db store.DBTX, userID, itemID string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM item_favorites WHERE user_id = ? AND item_id = ?`, userID, itemID)
	if err != nil {
		return fmt.Errorf("items: delete favorite: %w", err)
	}
	return nil
}

func isFavorite(ctx context.Context, db store.DBTX, userID, itemID string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM item_favorites WHERE user_id = ? AND item_id = ?`, userID, itemID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("items: is favorite: %w", err)
	}
	return n > 0, nil
}

func favoriteItemIDs(ctx context.Context, db store.DBTX, userID string) (map[string]struct{}, error) {
	rows, err := db.QueryContext(ctx, `SELECT item_id FROM item_favorites WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("items: favorite ids: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("items: scan favorite id: %w", err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func itemStock(ctx context.Context, db store.DBTX, itemID string) (int, error) {
	var stock int
	err := db.QueryRowContext(ctx, `SELECT COALESCE(SUM(delta), 0) FROM stock_movements WHERE item_id = ?`, itemID).Scan(&stock)
	if err != nil {
		return 0, fmt.Errorf("items: stock: %w", err)
	}
	return stock, nil
}

func stockByItemID(ctx context.Context, db store.DBTX, warehouseID string) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT item_id, COALESCE(SUM(delta), 0) FROM stock_movements WHERE warehouse_id = ? GROUP BY item_id
	`, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("items: stock by item: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id string
		var stock int
		if err := rows.Scan(&id, &stock); err != nil {
			return nil, fmt.Errorf("items: scan stock: %w", err)
		}
		out[id] = stock
	}
	return out, rows.Err()
}

func listItems(ctx context.Context, db store.DBTX, warehouseID string, includeDeleted bool) ([]domain.Item, error) {
	query := itemSelectColumns + ` FROM items WHERE warehouse_id = ?`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	rows, err := db.QueryContext(ctx, query, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("items: list: %w", err)
	}
	defer rows.Close()

	var out []domain.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("items: scan: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
