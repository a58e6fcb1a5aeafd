// Package transfer implements the transfer engine (spec.md §4.6, C8):
// export a point-in-time snapshot of a warehouse, and import one into a
// target warehouse with id remapping and topological parent ordering.
//
// Grounded on the teacher's internal/compiler/cycle.go Tarjan SCC
// detector conceptually (both reject a graph that cannot be linearized),
// simplified here to the round-based fixpoint scan spec.md §4.6 describes
// directly, which additionally needs to report "no progress" rather than
// merely "has a cycle" since box parents may also reference ids outside
// the pending batch.
package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/raimangsxr/my-warehouse/internal/apierror"
	"github.com/raimangsxr/my-warehouse/internal/boxes"
	"github.com/raimangsxr/my-warehouse/internal/changelog"
	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/idgen"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

// SchemaVersion is carried on every exported snapshot (spec.md §4.6).
const SchemaVersion = 1

// Snapshot is a point-in-time export of one warehouse.
type Snapshot struct {
	SchemaVersion  int
	WarehouseName  string
	Boxes          []domain.Box
	Items          []domain.Item
	StockMovements []domain.StockMovement
}

// Engine implements Export/Import over the box and item managers.
type Engine struct {
	boxes  *boxes.Manager
	logger *slog.Logger
}

// New returns a transfer Engine. A nil logger falls back to slog.Default.
func New(boxMgr *boxes.Manager, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{boxes: boxMgr, logger: logger}
}

// Export snapshots warehouseID: its name, every box (deleted or not),
// every item, and every stock movement, all ordered by created_at
// ascending (spec.md §4.6).
func (e *Engine) Export(ctx context.Context, db store.DBTX, warehouseID string) (Snapshot, error) {
	name, err := warehouseName(ctx, db, warehouseID)
	if err != nil {
		return Snapshot{}, err
	}

	allBoxes, err := exportBoxes(ctx, db, warehouseID)
	if err != nil {
		return Snapshot{}, err
	}
	allItems, err := exportItems(ctx, db, warehouseID)
	if err != nil {
		return Snapshot{}, err
	}
	movements, err := exportStockMovements(ctx, db, warehouseID)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		SchemaVersion:  SchemaVersion,
		WarehouseName:  name,
		Boxes:          allBoxes,
		Items:          allItems,
		StockMovements: movements,
	}, nil
}

// ImportResult summarizes an Import call.
type ImportResult struct {
	BoxesImported          int
	ItemsImported          int
	StockMovementsImported int
}

// Import applies snap into targetWarehouseID, owned by the caller, per the
// five steps of spec.md §4.6.
func (e *Engine) Import(ctx context.Context, tx store.DBTX, targetWarehouseID string, snap Snapshot, now time.Time) (ImportResult, error) {
	boxIDMap, err := resolveBoxIDMap(ctx, tx, targetWarehouseID, snap.Boxes)
	if err != nil {
		return ImportResult{}, err
	}

	order, err := topoOrderBoxes(snap.Boxes, boxIDMap, targetWarehouseID)
	if err != nil {
		return ImportResult{}, err
	}

	writer := changelog.New(tx)
	for _, b := range order {
		if err := importBox(ctx, tx, targetWarehouseID, b, boxIDMap); err != nil {
			return ImportResult{}, err
		}
		newID := boxIDMap[b.ID]
		version := b.Version
		if _, err := writer.Append(ctx, targetWarehouseID, "box", newID, domain.ActionImport, &version, map[string]any{"name": b.Name}, now); err != nil {
			return ImportResult{}, err
		}
	}

	itemIDMap := make(map[string]string, len(snap.Items))
	itemsImported := 0
	for _, it := range snap.Items {
		newBoxID, ok := boxIDMap[it.BoxID]
		if !ok {
			return ImportResult{}, apierror.InvalidInput(fmt.Sprintf("item %s references unresolved box %s", it.ID, it.BoxID))
		}
		newItemID, err := importItem(ctx, tx, targetWarehouseID, it, newBoxID)
		if err != nil {
			return ImportResult{}, err
		}
		itemIDMap[it.ID] = newItemID
		itemsImported++

		version := it.Version
		if _, err := writer.Append(ctx, targetWarehouseID, "item", newItemID, domain.ActionImport, &version, map[string]any{"name": it.Name}, now); err != nil {
			return ImportResult{}, err
		}
	}

	movementsImported := 0
	for _, mv := range snap.StockMovements {
		newItemID, ok := itemIDMap[mv.ItemID]
		if !ok {
			return ImportResult{}, apierror.InvalidInput(fmt.Sprintf("stock movement %s references unresolved item %s", mv.ID, mv.ItemID))
		}
		inserted, err := importStockMovement(ctx, tx, targetWarehouseID, newItemID, mv)
		if err != nil {
			return ImportResult{}, err
		}
		if inserted {
			movementsImported++
			if _, err := writer.Append(ctx, targetWarehouseID, "item", newItemID, domain.ActionImport, nil,
				map[string]any{"delta": mv.Delta, "command_id": mv.CommandID}, now); err != nil {
				return ImportResult{}, err
			}
		}
	}

	e.logger.Info("import complete", "warehouse_id", targetWarehouseID,
		"boxes", len(order), "items", itemsImported, "movements", movementsImported)

	return ImportResult{BoxesImported: len(order), ItemsImported: itemsImported, StockMovementsImported: movementsImported}, nil
}

// resolveBoxIDMap builds box_id_map per spec.md §4.6 step 1: a box id that
// already exists in the database under a different warehouse is
// reassigned a fresh UUID; otherwise it keeps its original id.
func resolveBoxIDMap(ctx context.Context, db store.DBTX, targetWarehouseID string, snapBoxes []domain.Box) (map[string]string, error) {
	out := make(map[string]string, len(snapBoxes))
	for _, b := range snapBoxes {
		existingWarehouse, found, err := boxWarehouseOf(ctx, db, b.ID)
		if err != nil {
			return nil, err
		}
		if found && existingWarehouse != targetWarehouseID {
			out[b.ID] = idgen.NewID()
		} else {
			out[b.ID] = b.ID
		}
	}
	return out, nil
}

// topoOrderBoxes implements spec.md §4.6 step 2: repeatedly scan the
// pending box list, resolving any box whose parent is nil, already
// present in the target warehouse, or outside the pending batch. No
// progress in a round means the remaining boxes cannot be linearized.
func topoOrderBoxes(snapBoxes []domain.Box, boxIDMap map[string]string, targetWarehouseID string) ([]domain.Box, error) {
	pending := make([]domain.Box, len(snapBoxes))
	copy(pending, snapBoxes)

	pendingOldIDs := make(map[string]bool, len(pending))
	for _, b := range pending {
		pendingOldIDs[b.ID] = true
	}

	var order []domain.Box
	resolved := make(map[string]bool) // new box ids already inserted/updated this import

	for len(pending) > 0 {
		var next []domain.Box
		progressed := false

		for _, b := range pending {
			if b.ParentBoxID == "" || resolved[boxIDMap[b.ParentBoxID]] || !pendingOldIDs[b.ParentBoxID] {
				order = append(order, b)
				resolved[boxIDMap[b.ID]] = true
				progressed = true
				continue
			}
			next = append(next, b)
		}

		if !progressed {
			return nil, apierror.InvalidInput("cyclic or invalid box parent references")
		}
		pending = next
	}

	return order, nil
}
