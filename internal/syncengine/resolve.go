package syncengine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/raimangsxr/my-warehouse/internal/apierror"
	"github.com/raimangsxr/my-warehouse/internal/boxes"
	"github.com/raimangsxr/my-warehouse/internal/changelog"
	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/items"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

// Resolution enumerates the three outcomes of spec.md §4.5.3.
type Resolution string

const (
	ResolutionKeepServer Resolution = "keep_server"
	ResolutionKeepClient Resolution = "keep_client"
	ResolutionMerge      Resolution = "merge"
)

// ResolveRequest is the input to Resolve.
type ResolveRequest struct {
	WarehouseID string
	ConflictID  string
	UserID      string
	Resolution  Resolution
	Payload     map[string]any // required for "merge"; ignored otherwise
}

// Resolve applies a human's conflict decision, per spec.md §4.5.3.
// Resolution is idempotent: an already-resolved conflict is returned
// unchanged, with no further mutation.
func (e *Engine) Resolve(ctx context.Context, tx *sql.Tx, req ResolveRequest, now time.Time) (domain.SyncConflict, error) {
	conflict, err := getConflict(ctx, tx, req.WarehouseID, req.ConflictID)
	if err == sql.ErrNoRows {
		return domain.SyncConflict{}, apierror.NotFound("conflict")
	}
	if err != nil {
		return domain.SyncConflict{}, fmt.Errorf("syncengine: resolve: %w", err)
	}
	if conflict.Status == domain.ConflictResolved {
		return conflict, nil
	}
	if conflict.EntityType != "box" && conflict.EntityType != "item" {
		return domain.SyncConflict{}, apierror.InvalidInput(fmt.Sprintf("entity type %q is not resolvable", conflict.EntityType))
	}

	switch req.Resolution {
	case ResolutionKeepServer:
		// no entity mutation

	case ResolutionKeepClient:
		if err := e.applyResolutionPayload(ctx, tx, req.WarehouseID, conflict, conflict.ClientPayload, now); err != nil {
			return domain.SyncConflict{}, err
		}

	case ResolutionMerge:
		if req.Payload == nil {
			return domain.SyncConflict{}, apierror.InvalidInput("payload is required for merge resolution")
		}
		if err := e.applyResolutionPayload(ctx, tx, req.WarehouseID, conflict, req.Payload, now); err != nil {
			return domain.SyncConflict{}, err
		}

	default:
		return domain.SyncConflict{}, apierror.InvalidInput(fmt.Sprintf("unsupported resolution %q", req.Resolution))
	}

	if err := resolveConflictRow(ctx, tx, conflict.ID, req.UserID, store.FormatTime(now)); err != nil {
		return domain.SyncConflict{}, err
	}
	conflict.Status = domain.ConflictResolved
	conflict.ResolvedBy = req.UserID
	conflict.ResolvedAt = &now

	e.logger.Info("conflict resolved", "conflict_id", conflict.ID, "warehouse_id", req.WarehouseID, "resolution", req.Resolution)
	return conflict, nil
}

// applyResolutionPayload applies payload to the conflicted entity as an
// update and records a change-log entry with action "resolve"
// (spec.md §4.5.3).
func (e *Engine) applyResolutionPayload(ctx context.Context, tx *sql.Tx, warehouseID string, conflict domain.SyncConflict, payload map[string]any, now time.Time) error {
	if conflict.EntityType == "box" {
		_, err := e.boxes.Update(ctx, tx, warehouseID, conflict.EntityID, boxes.UpdateParams{
			Name:             stringFieldPtr(payload, "name"),
			Description:      stringFieldPtr(payload, "description"),
			PhysicalLocation: stringFieldPtr(payload, "physical_location"),
		}, now)
		if err != nil {
			return err
		}
		return appendResolveEntry(ctx, tx, warehouseID, "box", conflict.EntityID, now)
	}

	_, err := e.items.Update(ctx, tx, warehouseID, conflict.EntityID, items.UpdateParams{
		Name:             stringFieldPtr(payload, "name"),
		Description:      stringFieldPtr(payload, "description"),
		PhotoURL:         stringFieldPtr(payload, "photo_url"),
		PhysicalLocation: stringFieldPtr(payload, "physical_location"),
		Tags:             optionalStringSliceField(payload, "tags"),
		Aliases:          optionalStringSliceField(payload, "aliases"),
		BoxID:            stringFieldPtr(payload, "box_id"),
	}, now)
	if err != nil {
		return err
	}
	return appendResolveEntry(ctx, tx, warehouseID, "item", conflict.EntityID, now)
}

func appendResolveEntry(ctx context.Context, tx *sql.Tx, warehouseID, entityType, entityID string, now time.Time) error {
	_, err := changelog.New(tx).Append(ctx, warehouseID, entityType, entityID, domain.ActionResolve, nil, map[string]any{"resolved": true}, now)
	return err
}
