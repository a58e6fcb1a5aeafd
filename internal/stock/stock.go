// Package stock implements the stock ledger (spec.md §4.3, C5): an
// append-only per-item delta log keyed by caller-supplied command id,
// idempotent under retry.
//
// Grounded on the teacher's WriteSyncFiring idiom (internal/store/write.go):
// ON CONFLICT DO NOTHING for a unique-key insert, then a read-back of the
// current aggregate rather than surfacing the conflict as an error.
package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/raimangsxr/my-warehouse/internal/apierror"
	"github.com/raimangsxr/my-warehouse/internal/changelog"
	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/idgen"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

const minCommandIDLen = 6

// Adjustment is a single requested delta.
type Adjustment struct {
	WarehouseID string
	ItemID      string
	Delta       int // must be -1 or +1
	CommandID   string
	Note        string
}

// Adjust writes one stock movement, conditional on (item_id, command_id)
// not already existing. On a duplicate the write is silently dropped and
// the caller still receives the current aggregate (spec.md §4.3).
func Adjust(ctx context.Context, tx store.DBTX, a Adjustment, now time.Time) (stock int, err error) {
	if a.Delta != -1 && a.Delta != 1 {
		return 0, apierror.InvalidInput("delta must be -1 or +1")
	}
	if len(a.CommandID) < minCommandIDLen {
		return 0, apierror.InvalidInput(fmt.Sprintf("command_id must be at least %d characters", minCommandIDLen))
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO stock_movements (id, warehouse_id, item_id, delta, command_id, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id, command_id) DO NOTHING
	`, idgen.NewID(), a.WarehouseID, a.ItemID, a.Delta, a.CommandID, a.Note, store.FormatTime(now))
	if err != nil {
		return 0, fmt.Errorf("stock: adjust: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("stock: rows affected: %w", err)
	}

	if inserted > 0 {
		if _, err := changelog.New(tx).Append(ctx, a.WarehouseID, "item", a.ItemID, domain.ActionStockAdjust, nil,
			map[string]any{"delta": a.Delta, "command_id": a.CommandID}, now); err != nil {
			return 0, err
		}
	}

	return Current(ctx, tx, a.ItemID)
}

// Current returns the item's current stock: COALESCE(SUM(delta), 0) over
// every movement recorded for it. Stock is never stored as a scalar
// (spec.md §4.3).
func Current(ctx context.Context, db store.DBTX, itemID string) (int, error) {
	var stock int
	err := db.QueryRowContext(ctx, `SELECT COALESCE(SUM(delta), 0) FROM stock_movements WHERE item_id = ?`, itemID).Scan(&stock)
	if err != nil {
		return 0, fmt.Errorf("stock: current: %w", err)
	}
	return stock, nil
}
