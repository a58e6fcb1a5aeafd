package syncengine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

func commandProcessed(ctx context.Context, db store.DBTX, commandID string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM processed_commands WHERE command_id = ?`, commandID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("syncengine: command processed: %w", err)
	}
	return n > 0, nil
}

func recordProcessedCommand(ctx context.Context, db store.DBTX, commandID, warehouseID, userID, deviceID string, now time.Time) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO processed_commands (command_id, warehouse_id, user_id, device_id, processed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(command_id) DO NOTHING
	`, commandID, warehouseID, userID, deviceID, store.FormatTime(now))
	if err != nil {
		return fmt.Errorf("syncengine: record processed command: %w", err)
	}
	return nil
}

func currentEntityVersion(ctx context.Context, db store.DBTX, entityType, entityID string) (int, error) {
	table := "boxes"
	if entityType == "item" {
		table = "items"
	}
	var version int
	err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT version FROM %s WHERE id = ?`, table), entityID).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("syncengine: entity %s/%s not found", entityType, entityID)
	}
	if err != nil {
		return 0, fmt.Errorf("syncengine: current version: %w", err)
	}
	return version, nil
}

const conflictSelectColumns = `SELECT id, warehouse_id, command_id, entity_type, entity_id, base_version, server_version, client_payload, status, created_by, created_at, resolved_at, resolved_by`

func scanConflict(row interface{ Scan(dest ...any) error }) (domain.SyncConflict, error) {
	var (
		c             domain.SyncConflict
		baseVersion   *int
		serverVersion *int
		clientPayload string
		status        string
		createdAt     string
		resolvedAt    *string
		resolvedBy    sql.NullString
	)
	err := row.Scan(&c.ID, &c.WarehouseID, &c.CommandID, &c.EntityType, &c.EntityID, &baseVersion, &serverVersion,
		&clientPayload, &status, &c.CreatedBy, &createdAt, &resolvedAt, &resolvedBy)
	if err != nil {
		return domain.SyncConflict{}, err
	}
	c.BaseVersion = baseVersion
	c.ServerVersion = serverVersion
	c.Status = domain.ConflictStatus(status)
	c.ResolvedBy = resolvedBy.String

	c.ClientPayload, err = store.UnmarshalPayload(clientPayload)
	if err != nil {
		return domain.SyncConflict{}, fmt.Errorf("unmarshal client_payload: %w", err)
	}
	c.CreatedAt, err = store.ParseTime(createdAt)
	if err != nil {
		return domain.SyncConflict{}, fmt.Errorf("parse created_at: %w", err)
	}
	c.ResolvedAt, err = store.ParseTimePtr(resolvedAt)
	if err != nil {
		return domain.SyncConflict{}, fmt.Errorf("parse resolved_at: %w", err)
	}
	return c, nil
}

func conflictByCommandID(ctx context.Context, db store.DBTX, commandID string) (domain.SyncConflict, bool, error) {
	row := db.QueryRowContext(ctx, conflictSelectColumns+` FROM sync_conflicts WHERE command_id = ?`, commandID)
	c, err := scanConflict(row)
	if err == sql.ErrNoRows {
		return domain.SyncConflict{}, false, nil
	}
	if err != nil {
		return domain.SyncConflict{}, false, fmt.Errorf("syncengine: conflict by command: %w", err)
	}
	return c, true, nil
}

func getConflict(ctx context.Context, db store.DBTX, warehouseID, conflictID string) (domain.SyncConflict, error) {
	row := db.QueryRowContext(ctx, conflictSelectColumns+` FROM sync_conflicts WHERE id = ? AND warehouse_id = ?`, conflictID, warehouseID)
	return scanConflict(row)
}

func openConflicts(ctx context.Context, db store.DBTX, warehouseID string) ([]domain.SyncConflict, error) {
	rows, err := db.QueryContext(ctx, conflictSelectColumns+` FROM sync_conflicts WHERE warehouse_id = ? AND status = ? ORDER BY created_at ASC`,
		warehouseID, string(domain.ConflictOpen))
	if err != nil {
		return nil, fmt.Errorf("syncengine: open conflicts: %w", err)
	}
	defer rows.Close()

	var out []domain.SyncConflict
	for rows.Next() {
		c, err := scanConflict(rows)
		if err != nil {
			return nil, fmt.Errorf("syncengine: scan conflict: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func insertConflict(ctx context.Context, db store.DBTX, c domain.SyncConflict) error {
	clientPayloadJSON, err := store.MarshalPayload(c.ClientPayload)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO sync_conflicts (id, warehouse_id, command_id, entity_type, entity_id, base_version, server_version, client_payload, status, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.WarehouseID, c.CommandID, c.EntityType, c.EntityID, c.BaseVersion, c.ServerVersion,
		clientPayloadJSON, string(c.Status), c.CreatedBy, store.FormatTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("syncengine: insert conflict: %w", err)
	}
	return nil
}

func resolveConflictRow(ctx context.Context, db store.DBTX, conflictID, resolvedBy string, resolvedAt string) error {
	_, err := db.ExecContext(ctx, `
		UPDATE sync_conflicts SET status = ?, resolved_at = ?, resolved_by = ? WHERE id = ?
	`, string(domain.ConflictResolved), resolvedAt, resolvedBy, conflictID)
	if err != nil {
		return fmt.Errorf("syncengine: resolve conflict: %w", err)
	}
	return nil
}
