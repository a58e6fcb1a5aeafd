package boxes

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

const boxSelectColumns = `SELECT id, warehouse_id, parent_box_id, name, description, physical_location, qr_token, short_code, version, created_at, deleted_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBox(row rowScanner) (domain.Box, error) {
	var (
		b           domain.Box
		parentBoxID sql.NullString
		createdAt   string
		deletedAt   *string
	)
	err := row.Scan(&b.ID, &b.WarehouseID, &parentBoxID, &b.Name, &b.Description, &b.PhysicalLocation,
		&b.QRToken, &b.ShortCode, &b.Version, &createdAt, &deletedAt)
	if err != nil {
		return domain.Box{}, err
	}
	b.ParentBoxID = parentBoxID.String
	b.CreatedAt, err = store.ParseTime(createdAt)
	if err != nil {
		return domain.Box{}, fmt.Errorf("parse created_at: %w", err)
	}
	b.DeletedAt, err = store.ParseTimePtr(deletedAt)
	if err != nil {
		return domain.Box{}, fmt.Errorf("parse deleted_at: %w", err)
	}
	return b, nil
}

func insertBox(ctx context.Context, db store.DBTX, b domain.Box) error {
	var parentBoxID any
	if b.ParentBoxID != "" {
		parentBoxID = b.ParentBoxID
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO boxes (id, warehouse_id, parent_box_id, name, description, physical_location, qr_token, short_code, version, created_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.WarehouseID, parentBoxID, b.Name, b.Description, b.PhysicalLocation, b.QRToken, b.ShortCode, b.Version,
		store.FormatTime(b.CreatedAt), store.FormatTimePtr(b.DeletedAt))
	if err != nil {
		return fmt.Errorf("boxes: insert: %w", err)
	}
	return nil
}

func updateBoxFields(ctx context.Context, db store.DBTX, b domain.Box) error {
	_, err := db.ExecContext(ctx, `
		UPDATE boxes SET name = ?, description = ?, physical_location = ?, version = ? WHERE id = ?
	`, b.Name, b.Description, b.PhysicalLocation, b.Version, b.ID)
	if err != nil {
		return fmt.Errorf("boxes: update fields: %w", err)
	}
	return nil
}

func updateBoxParent(ctx context.Context, db store.DBTX, b domain.Box) error {
	var parentBoxID any
	if b.ParentBoxID != "" {
		parentBoxID = b.ParentBoxID
	}
	_, err := db.ExecContext(ctx, `
		UPDATE boxes SET parent_box_id = ?, version = ? WHERE id = ?
	`, parentBoxID, b.Version, b.ID)
	if err != nil {
		return fmt.Errorf("boxes: update parent: %w", err)
	}
	return nil
}

// softDeleteBoxes stamps deletedAt and bumps version on every box in ids.
func softDeleteBoxes(ctx context.Context, db store.DBTX, ids []string, deletedAt string) error {
	for _, id := range ids {
		if _, err := db.ExecContext(ctx, `
			UPDATE boxes SET deleted_at = ?, version = version + 1 WHERE id = ? AND deleted_at IS NULL
		`, deletedAt, id); err != nil {
			return fmt.Errorf("boxes: soft delete: %w", err)
		}
	}
	return nil
}

func restoreBox(ctx context.Context, db store.DBTX, id string) error {
	_, err := db.ExecContext(ctx, `
		UPDATE boxes SET deleted_at = NULL, version = version + 1 WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("boxes: restore: %w", err)
	}
	return nil
}

func countBoxes(ctx context.Context, db store.DBTX, warehouseID string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM boxes WHERE warehouse_id = ?`, warehouseID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("boxes: count: %w", err)
	}
	return n, nil
}

// listBoxes returns every box (live or deleted) in warehouseID; callers
// that need only live boxes filter with domain.Box.Live.
func listBoxes(ctx context.Context, db store.DBTX, warehouseID string) ([]domain.Box, error) {
	rows, err := db.QueryContext(ctx, boxSelectColumns+` FROM boxes WHERE warehouse_id = ?`, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("boxes: list: %w", err)
	}
	defer rows.Close()

	var out []domain.Box
	for rows.Next() {
		b, err := scanBox(rows)
		if err != nil {
			return nil, fmt.Errorf("boxes: scan: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func queryBoxByQR(ctx context.Context, db store.DBTX, qrToken string) (domain.Box, error) {
	row := db.QueryRowContext(ctx, boxSelectColumns+` FROM boxes WHERE qr_token = ?`, qrToken)
	return scanBox(row)
}
