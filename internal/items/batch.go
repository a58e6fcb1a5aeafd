package items

import (
	"context"
	"time"

	"github.com/raimangsxr/my-warehouse/internal/apierror"
	"github.com/raimangsxr/my-warehouse/internal/changelog"
	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

// BatchActionType enumerates the batch operations of spec.md §4.2.
type BatchActionType string

const (
	BatchMove       BatchActionType = "move"
	BatchFavorite   BatchActionType = "favorite"
	BatchUnfavorite BatchActionType = "unfavorite"
	BatchDelete     BatchActionType = "delete"
)

// BatchParams describes a batch action request.
type BatchParams struct {
	ItemIDs     []string
	Action      BatchActionType
	TargetBoxID string // required for BatchMove
	UserID      string // required for BatchFavorite/BatchUnfavorite
}

// BatchAction applies action to the intersection of ItemIDs with live items
// in warehouseID; if any id is missing or not live, the entire batch is
// rejected (spec.md §4.2).
func (m *Manager) BatchAction(ctx context.Context, tx store.DBTX, warehouseID string, p BatchParams, now time.Time) ([]domain.Item, error) {
	if len(p.ItemIDs) == 0 {
		return nil, apierror.InvalidInput("item_ids must not be empty")
	}

	items := make([]domain.Item, 0, len(p.ItemIDs))
	for _, id := range p.ItemIDs {
		it, err := m.Get(ctx, tx, warehouseID, id)
		if err != nil {
			return nil, err
		}
		if !it.Live() {
			return nil, apierror.NotFound("item")
		}
		items = append(items, it)
	}

	var targetBox domain.Box
	if p.Action == BatchMove {
		if p.TargetBoxID == "" {
			return nil, apierror.InvalidInput("target_box_id is required for move")
		}
		var err error
		targetBox, err = m.boxes.Get(ctx, tx, warehouseID, p.TargetBoxID)
		if err != nil {
			return nil, err
		}
		if !targetBox.Live() {
			return nil, apierror.InvalidInput("target box is deleted")
		}
	}

	writer := changelog.New(tx)
	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		switch p.Action {
		case BatchMove:
			it.BoxID = targetBox.ID
			it.Version++
			if err := updateItemFields(ctx, tx, it); err != nil {
				return nil, err
			}
			v := it.Version
			if _, err := writer.Append(ctx, warehouseID, "item", it.ID, domain.ActionMove, &v, itemPayload(it), now); err != nil {
				return nil, err
			}
		case BatchFavorite:
			if p.UserID == "" {
				return nil, apierror.InvalidInput("user_id is required for favorite")
			}
			if err := insertFavorite(ctx, tx, p.UserID, it.ID, now); err != nil {
				return nil, err
			}
			if _, err := writer.Append(ctx, warehouseID, "item", it.ID, domain.ActionFavorite, &it.Version, map[string]any{"user_id": p.UserID}, now); err != nil {
				return nil, err
			}
		case BatchUnfavorite:
			if p.UserID == "" {
				return nil, apierror.InvalidInput("user_id is required for unfavorite")
			}
			if err := deleteFavorite(ctx, tx, p.UserID, it.ID); err != nil {
				return nil, err
			}
			if _, err := writer.Append(ctx, warehouseID, "item", it.ID, domain.ActionUnfavorite, &it.Version, map[string]any{"user_id": p.UserID}, now); err != nil {
				return nil, err
			}
		case BatchDelete:
			if err := softDeleteItem(ctx, tx, it.ID, now); err != nil {
				return nil, err
			}
			it.Version++
			v := it.Version
			if _, err := writer.Append(ctx, warehouseID, "item", it.ID, domain.ActionDelete, &v, itemPayload(it), now); err != nil {
				return nil, err
			}
		default:
			return nil, apierror.InvalidInput("unsupported batch action")
		}
		out = append(out, it)
	}

	m.logger.Info("batch action applied", "warehouse_id", warehouseID, "action", p.Action, "count", len(out))
	return out, nil
}
