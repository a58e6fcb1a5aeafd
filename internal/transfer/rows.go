package transfer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/idgen"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

func warehouseName(ctx context.Context, db store.DBTX, warehouseID string) (string, error) {
	var name string
	err := db.QueryRowContext(ctx, `SELECT name FROM warehouses WHERE id = ?`, warehouseID).Scan(&name)
	if err != nil {
		return "", fmt.Errorf("transfer: warehouse name: %w", err)
	}
	return name, nil
}

func exportBoxes(ctx context.Context, db store.DBTX, warehouseID string) ([]domain.Box, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, warehouse_id, parent_box_id, name, description, physical_location, qr_token, short_code, version, created_at, deleted_at
		FROM boxes WHERE warehouse_id = ? ORDER BY created_at ASC
	`, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("transfer: export boxes: %w", err)
	}
	defer rows.Close()

	var out []domain.Box
	for rows.Next() {
		var (
			b           domain.Box
			parentBoxID sql.NullString
			createdAt   string
			deletedAt   *string
		)
		if err := rows.Scan(&b.ID, &b.WarehouseID, &parentBoxID, &b.Name, &b.Description, &b.PhysicalLocation,
			&b.QRToken, &b.ShortCode, &b.Version, &createdAt, &deletedAt); err != nil {
			return nil, fmt.Errorf("transfer: scan box: %w", err)
		}
		b.ParentBoxID = parentBoxID.String
		if b.CreatedAt, err = store.ParseTime(createdAt); err != nil {
			return nil, err
		}
		if b.DeletedAt, err = store.ParseTimePtr(deletedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func exportItems(ctx context.Context, db store.DBTX, warehouseID string) ([]domain.Item, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, warehouse_id, box_id, name, description, photo_url, physical_location, tags_json, aliases_json, version, created_at, deleted_at
		FROM items WHERE warehouse_id = ? ORDER BY created_at ASC
	`, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("transfer: export items: %w", err)
	}
	defer rows.Close()

	var out []domain.Item
	for rows.Next() {
		var (
			it          domain.Item
			tagsJSON    string
			aliasesJSON string
			createdAt   string
			deletedAt   *string
		)
		if err := rows.Scan(&it.ID, &it.WarehouseID, &it.BoxID, &it.Name, &it.Description, &it.PhotoURL,
			&it.PhysicalLocation, &tagsJSON, &aliasesJSON, &it.Version, &createdAt, &deletedAt); err != nil {
			return nil, fmt.Errorf("transfer: scan item: %w", err)
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
		out = append(out, it)
	}
	return out, rows.Err()
}

func exportStockMovements(ctx context.Context, db store.DBTX, warehouseID string) ([]domain.StockMovement, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, warehouse_id, item_id, delta, command_id, note, created_at
		FROM stock_movements WHERE warehouse_id = ? ORDER BY created_at ASC
	`, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("transfer: export stock movements: %w", err)
	}
	defer rows.Close()

	var out []domain.StockMovement
	for rows.Next() {
		var (
			mv        domain.StockMovement
			createdAt string
		)
		if err := rows.Scan(&mv.ID, &mv.WarehouseID, &mv.ItemID, &mv.Delta, &mv.CommandID, &mv.Note, &createdAt); err != nil {
			return nil, fmt.Errorf("transfer: scan stock movement: %w", err)
		}
		if mv.CreatedAt, err = store.ParseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, mv)
	}
	return out, rows.Err()
}

func boxWarehouseOf(ctx context.Context, db store.DBTX, boxID string) (warehouseID string, found bool, err error) {
	err = db.QueryRowContext(ctx, `SELECT warehouse_id FROM boxes WHERE id = ?`, boxID).Scan(&warehouseID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("transfer: box warehouse: %w", err)
	}
	return warehouseID, true, nil
}

func itemWarehouseOf(ctx context.Context, db store.DBTX, itemID string) (warehouseID string, found bool, err error) {
	err = db.QueryRowContext(ctx, `SELECT warehouse_id FROM items WHERE id = ?`, itemID).Scan(&warehouseID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("transfer: item warehouse: %w", err)
	}
	return warehouseID, true, nil
}

// qrTokenTaken reports whether qrToken belongs to some box other than
// excludeBoxID.
func qrTokenTaken(ctx context.Context, db store.DBTX, qrToken, excludeBoxID string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM boxes WHERE qr_token = ? AND id != ?`, qrToken, excludeBoxID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("transfer: qr token taken: %w", err)
	}
	return n > 0, nil
}

// importBox upserts b under its remapped id into targetWarehouseID;
// parent_box_id is resolved through boxIDMap. A brand-new box whose
// qr_token collides with another box's gets a fresh token and short code;
// an existing box being updated keeps its stored token untouched
// (spec.md §4.6 step 3).
func importBox(ctx context.Context, db store.DBTX, targetWarehouseID string, b domain.Box, boxIDMap map[string]string) error {
	newID := boxIDMap[b.ID]
	var newParentBoxID any
	if b.ParentBoxID != "" {
		if mapped, ok := boxIDMap[b.ParentBoxID]; ok {
			newParentBoxID = mapped
		}
	}

	exists, err := existsBox(ctx, db, newID)
	if err != nil {
		return err
	}

	if exists {
		_, err = db.ExecContext(ctx, `
			UPDATE boxes SET parent_box_id = ?, name = ?, description = ?, physical_location = ?, version = ?, deleted_at = ?
			WHERE id = ?
		`, newParentBoxID, b.Name, b.Description, b.PhysicalLocation, b.Version, store.FormatTimePtr(b.DeletedAt), newID)
		if err != nil {
			return fmt.Errorf("transfer: update box: %w", err)
		}
		return nil
	}

	qrToken := b.QRToken
	shortCode := b.ShortCode
	taken, err := qrTokenTaken(ctx, db, qrToken, newID)
	if err != nil {
		return err
	}
	if taken {
		qrToken, err = idgen.NewQRToken()
		if err != nil {
			return fmt.Errorf("transfer: regenerate qr token: %w", err)
		}
		shortCode, err = idgen.NewShortCode()
		if err != nil {
			return fmt.Errorf("transfer: regenerate short code: %w", err)
		}
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO boxes (id, warehouse_id, parent_box_id, name, description, physical_location, qr_token, short_code, version, created_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, newID, targetWarehouseID, newParentBoxID, b.Name, b.Description, b.PhysicalLocation, qrToken, shortCode, b.Version,
		store.FormatTime(b.CreatedAt), store.FormatTimePtr(b.DeletedAt))
	if err != nil {
		return fmt.Errorf("transfer: insert box: %w", err)
	}
	return nil
}

func existsBox(ctx context.Context, db store.DBTX, id string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM boxes WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("transfer: exists box: %w", err)
	}
	return n > 0, nil
}

// importItem upserts it under a remapped id (if the original id already
// belongs to a different warehouse) pinned to newBoxID, returning the id
// actually used.
func importItem(ctx context.Context, db store.DBTX, targetWarehouseID string, it domain.Item, newBoxID string) (string, error) {
	newID := it.ID
	existingWarehouse, found, err := itemWarehouseOf(ctx, db, it.ID)
	if err != nil {
		return "", err
	}
	if found && existingWarehouse != targetWarehouseID {
		newID = idgen.NewID()
		found = false
	}

	tagsJSON, err := store.MarshalStrings(it.Tags)
	if err != nil {
		return "", err
	}
	aliasesJSON, err := store.MarshalStrings(it.Aliases)
	if err != nil {
		return "", err
	}

	if found {
		_, err = db.ExecContext(ctx, `
			UPDATE items SET box_id = ?, name = ?, description = ?, photo_url = ?, physical_location = ?, tags_json = ?, aliases_json = ?, version = ?, deleted_at = ?
			WHERE id = ?
		`, newBoxID, it.Name, it.Description, it.PhotoURL, it.PhysicalLocation, tagsJSON, aliasesJSON, it.Version, store.FormatTimePtr(it.DeletedAt), newID)
		if err != nil {
			return "", fmt.Errorf("transfer: update item: %w", err)
		}
		return newID, nil
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO items (id, warehouse_id, box_id, name, description, photo_url, physical_location, tags_json, aliases_json, version, created_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, newID, targetWarehouseID, newBoxID, it.Name, it.Description, it.PhotoURL, it.PhysicalLocation, tagsJSON, aliasesJSON,
		it.Version, store.FormatTime(it.CreatedAt), store.FormatTimePtr(it.DeletedAt))
	if err != nil {
		return "", fmt.Errorf("transfer: insert item: %w", err)
	}
	return newID, nil
}

// importStockMovement inserts mv under newItemID, skipping (and returning
// inserted=false) if (item_id, command_id) already exists, remapping the
// movement id on a cross-warehouse id collision (spec.md §4.6 step 5).
func importStockMovement(ctx context.Context, db store.DBTX, targetWarehouseID, newItemID string, mv domain.StockMovement) (inserted bool, err error) {
	var n int
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stock_movements WHERE item_id = ? AND command_id = ?`, newItemID, mv.CommandID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("transfer: check stock movement: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	id := mv.ID
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stock_movements WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("transfer: check movement id: %w", err)
	}
	if n > 0 {
		id = idgen.NewID()
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO stock_movements (id, warehouse_id, item_id, delta, command_id, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, targetWarehouseID, newItemID, mv.Delta, mv.CommandID, mv.Note, store.FormatTime(mv.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("transfer: insert stock movement: %w", err)
	}
	return true, nil
}
