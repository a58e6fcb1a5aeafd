// Package changelog implements the change log writer (spec.md §4.4, C6):
// every mutating operation, whether routed through a direct manager or the
// sync engine, appends one ordered record here in the same transaction as
// the mutation itself. The change feed is the single source of truth a
// remote device replays on pull.
package changelog

import (
	"context"
	"fmt"
	"time"

	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

// Writer appends change-log entries. It takes a store.DBTX so callers can
// run it inside an existing transaction (the common case) or, for reads,
// against the plain *sql.DB.
type Writer struct {
	db store.DBTX
}

// New returns a Writer bound to db, which must be either *sql.DB or a
// *sql.Tx participating in the caller's transaction.
func New(db store.DBTX) *Writer {
	return &Writer{db: db}
}

// Append writes one ordered record and returns its assigned seq. entityID
// and entityVersion may be zero-valued when not applicable to the action.
func (w *Writer) Append(ctx context.Context, warehouseID, entityType, entityID string, action domain.ChangeLogAction, entityVersion *int, payload map[string]any, now time.Time) (int64, error) {
	payloadJSON, err := store.MarshalPayload(payload)
	if err != nil {
		return 0, fmt.Errorf("changelog: marshal payload: %w", err)
	}

	res, err := w.db.ExecContext(ctx, `
		INSERT INTO change_log (warehouse_id, entity_type, entity_id, action, entity_version, payload_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, warehouseID, entityType, entityID, string(action), entityVersion, payloadJSON, store.FormatTime(now))
	if err != nil {
		return 0, fmt.Errorf("changelog: append: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("changelog: read seq: %w", err)
	}
	return seq, nil
}

// Entry is a change-log record as read back for a pull response.
type Entry = domain.ChangeLogEntry

// Since returns up to limit records for warehouseID with seq > sinceSeq,
// ordered ascending by seq — the only order spec.md §4.4 allows clients to
// rely on.
func Since(ctx context.Context, db store.DBTX, warehouseID string, sinceSeq int64, limit int) ([]Entry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT seq, warehouse_id, entity_type, entity_id, action, entity_version, payload_json, created_at
		FROM change_log
		WHERE warehouse_id = ? AND seq > ?
		ORDER BY seq ASC
		LIMIT ?
	`, warehouseID, sinceSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("changelog: query since: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e             Entry
			entityVersion *int
			payloadJSON   string
			createdAt     string
		)
		if err := rows.Scan(&e.Seq, &e.WarehouseID, &e.EntityType, &e.EntityID, &e.Action, &entityVersion, &payloadJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("changelog: scan: %w", err)
		}
		payload, err := store.UnmarshalPayload(payloadJSON)
		if err != nil {
			return nil, fmt.Errorf("changelog: unmarshal payload: %w", err)
		}
		e.EntityVersion = entityVersion
		e.Payload = payload
		e.CreatedAt, err = store.ParseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("changelog: parse created_at: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("changelog: rows: %w", err)
	}
	return entries, nil
}

// LastSeq returns the current maximum seq for warehouseID, or 0 if the
// warehouse has no change-log entries yet.
func LastSeq(ctx context.Context, db store.DBTX, warehouseID string) (int64, error) {
	var seq *int64
	err := db.QueryRowContext(ctx, `SELECT MAX(seq) FROM change_log WHERE warehouse_id = ?`, warehouseID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("changelog: last seq: %w", err)
	}
	if seq == nil {
		return 0, nil
	}
	return *seq, nil
}
