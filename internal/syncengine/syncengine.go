// Package syncengine implements the sync protocol (spec.md §4.5, C7):
// push (idempotent command batch with optimistic concurrency), pull
// (ordered change-feed replay), and resolve (explicit conflict
// resolution). This is the hardest piece of the core — it is the only
// component that can move an entity by either its own logic or the direct
// managers', so every apply path is shared with internal/boxes and
// internal/items rather than reimplemented.
package syncengine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/raimangsxr/my-warehouse/internal/apierror"
	"github.com/raimangsxr/my-warehouse/internal/boxes"
	"github.com/raimangsxr/my-warehouse/internal/changelog"
	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/idgen"
	"github.com/raimangsxr/my-warehouse/internal/items"
	"github.com/raimangsxr/my-warehouse/internal/stock"
)

// CommandType enumerates the sync command types dispatched by Push
// (spec.md §4.5.1).
type CommandType string

const (
	CmdBoxCreate      CommandType = "box.create"
	CmdBoxUpdate      CommandType = "box.update"
	CmdBoxMove        CommandType = "box.move"
	CmdBoxDelete      CommandType = "box.delete"
	CmdBoxRestore     CommandType = "box.restore"
	CmdItemCreate     CommandType = "item.create"
	CmdItemUpdate     CommandType = "item.update"
	CmdItemDelete     CommandType = "item.delete"
	CmdItemRestore    CommandType = "item.restore"
	CmdItemFavorite   CommandType = "item.favorite"
	CmdItemUnfavorite CommandType = "item.unfavorite"
	CmdStockAdjust    CommandType = "stock.adjust"
)

// versionedCommandTypes are the types subject to the optimistic
// concurrency check of spec.md §4.5.1 step 5.
var versionedCommandTypes = map[CommandType]bool{
	CmdBoxUpdate:   true,
	CmdBoxMove:     true,
	CmdBoxDelete:   true,
	CmdBoxRestore:  true,
	CmdItemUpdate:  true,
	CmdItemDelete:  true,
	CmdItemRestore: true,
}

// entityTypeFor maps a command type to the entity kind the concurrency
// check and conflict record apply to.
var entityTypeFor = map[CommandType]string{
	CmdBoxUpdate: "box", CmdBoxMove: "box", CmdBoxDelete: "box", CmdBoxRestore: "box",
	CmdItemUpdate: "item", CmdItemDelete: "item", CmdItemRestore: "item",
}

// Command is one entry in a push batch.
type Command struct {
	CommandID   string
	Type        CommandType
	EntityID    string
	BaseVersion *int
	Payload     map[string]any
}

// PushRequest is the input to Push.
type PushRequest struct {
	WarehouseID string
	UserID      string
	DeviceID    string
	Commands    []Command
}

// PushResult is the output of Push, per spec.md §4.5.1.
type PushResult struct {
	AppliedCommandIDs []string
	SkippedCommandIDs []string
	Conflicts         []domain.SyncConflict
	LastSeq           int64
}

// Engine implements push/pull/resolve over the direct managers.
type Engine struct {
	boxes  *boxes.Manager
	items  *items.Manager
	logger *slog.Logger
}

// New returns a sync Engine built over boxMgr and itemMgr, the same
// managers the direct (non-sync) API surface uses — push's "apply" step
// has identical semantics to a direct call (spec.md §4.5.1 step 6).
func New(boxMgr *boxes.Manager, itemMgr *items.Manager, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{boxes: boxMgr, items: itemMgr, logger: logger}
}

// Push applies a batch of commands in a single transaction, in input
// order, following the state machine of spec.md §4.5.1. A command that
// fails with a non-conflict error aborts the entire transaction; a
// version conflict instead opens a SyncConflict record and continues.
func (e *Engine) Push(ctx context.Context, tx *sql.Tx, req PushRequest, now time.Time) (PushResult, error) {
	result := PushResult{}
	seenThisRequest := make(map[string]bool, len(req.Commands))

	for _, cmd := range req.Commands {
		if seenThisRequest[cmd.CommandID] {
			result.SkippedCommandIDs = append(result.SkippedCommandIDs, cmd.CommandID)
			continue
		}
		seenThisRequest[cmd.CommandID] = true

		processed, err := commandProcessed(ctx, tx, cmd.CommandID)
		if err != nil {
			return PushResult{}, err
		}
		if processed {
			result.SkippedCommandIDs = append(result.SkippedCommandIDs, cmd.CommandID)
			continue
		}

		existingConflict, found, err := conflictByCommandID(ctx, tx, cmd.CommandID)
		if err != nil {
			return PushResult{}, err
		}
		if found {
			result.Conflicts = append(result.Conflicts, existingConflict)
			result.SkippedCommandIDs = append(result.SkippedCommandIDs, cmd.CommandID)
			continue
		}

		conflict, applyErr := e.dispatch(ctx, tx, req, cmd, now)
		if applyErr != nil {
			return PushResult{}, applyErr
		}
		if conflict != nil {
			result.Conflicts = append(result.Conflicts, *conflict)
			result.SkippedCommandIDs = append(result.SkippedCommandIDs, cmd.CommandID)
			continue
		}

		if err := recordProcessedCommand(ctx, tx, cmd.CommandID, req.WarehouseID, req.UserID, req.DeviceID, now); err != nil {
			return PushResult{}, err
		}
		result.AppliedCommandIDs = append(result.AppliedCommandIDs, cmd.CommandID)
	}

	lastSeq, err := changelog.LastSeq(ctx, tx, req.WarehouseID)
	if err != nil {
		return PushResult{}, err
	}
	result.LastSeq = lastSeq

	e.logger.Info("push processed", "warehouse_id", req.WarehouseID, "device_id", req.DeviceID,
		"applied", len(result.AppliedCommandIDs), "skipped", len(result.SkippedCommandIDs), "conflicts", len(result.Conflicts))
	return result, nil
}

// dispatch applies one command's effect, returning a non-nil conflict if
// optimistic concurrency failed, or an error for anything else (including
// an unsupported command type, spec.md §4.5.1 step 4).
func (e *Engine) dispatch(ctx context.Context, tx *sql.Tx, req PushRequest, cmd Command, now time.Time) (*domain.SyncConflict, error) {
	if err := validatePayload(cmd.Type, cmd.Payload); err != nil {
		return nil, err
	}

	if versionedCommandTypes[cmd.Type] {
		conflict, err := e.checkConcurrency(ctx, tx, req, cmd, now)
		if err != nil || conflict != nil {
			return conflict, err
		}
	}

	switch cmd.Type {
	case CmdBoxCreate:
		_, err := e.boxes.Create(ctx, tx, boxes.CreateParams{
			WarehouseID:      req.WarehouseID,
			Name:             stringField(cmd.Payload, "name"),
			Description:      stringField(cmd.Payload, "description"),
			PhysicalLocation: stringField(cmd.Payload, "physical_location"),
			ParentBoxID:      stringField(cmd.Payload, "parent_box_id"),
		}, now)
		return nil, err

	case CmdBoxUpdate:
		_, err := e.boxes.Update(ctx, tx, req.WarehouseID, cmd.EntityID, boxes.UpdateParams{
			Name:             stringFieldPtr(cmd.Payload, "name"),
			Description:      stringFieldPtr(cmd.Payload, "description"),
			PhysicalLocation: stringFieldPtr(cmd.Payload, "physical_location"),
		}, now)
		return nil, err

	case CmdBoxMove:
		_, err := e.boxes.Move(ctx, tx, req.WarehouseID, cmd.EntityID, stringField(cmd.Payload, "parent_box_id"), now)
		return nil, err

	case CmdBoxDelete:
		force, _ := cmd.Payload["force"].(bool)
		return nil, e.boxes.SoftDelete(ctx, tx, req.WarehouseID, cmd.EntityID, force, now)

	case CmdBoxRestore:
		_, err := e.boxes.Restore(ctx, tx, req.WarehouseID, cmd.EntityID, now)
		return nil, err

	case CmdItemCreate:
		_, err := e.items.Create(ctx, tx, items.CreateParams{
			WarehouseID:      req.WarehouseID,
			BoxID:            stringField(cmd.Payload, "box_id"),
			Name:             stringField(cmd.Payload, "name"),
			Description:      stringField(cmd.Payload, "description"),
			PhotoURL:         stringField(cmd.Payload, "photo_url"),
			PhysicalLocation: stringField(cmd.Payload, "physical_location"),
			Tags:             stringSliceField(cmd.Payload, "tags"),
			Aliases:          stringSliceField(cmd.Payload, "aliases"),
		}, now)
		return nil, err

	case CmdItemUpdate:
		_, err := e.items.Update(ctx, tx, req.WarehouseID, cmd.EntityID, items.UpdateParams{
			Name:             stringFieldPtr(cmd.Payload, "name"),
			Description:      stringFieldPtr(cmd.Payload, "description"),
			PhotoURL:         stringFieldPtr(cmd.Payload, "photo_url"),
			PhysicalLocation: stringFieldPtr(cmd.Payload, "physical_location"),
			Tags:             optionalStringSliceField(cmd.Payload, "tags"),
			Aliases:          optionalStringSliceField(cmd.Payload, "aliases"),
			BoxID:            stringFieldPtr(cmd.Payload, "box_id"),
		}, now)
		return nil, err

	case CmdItemDelete:
		return nil, e.items.SoftDelete(ctx, tx, req.WarehouseID, cmd.EntityID, now)

	case CmdItemRestore:
		_, err := e.items.Restore(ctx, tx, req.WarehouseID, cmd.EntityID, now)
		return nil, err

	case CmdItemFavorite:
		return nil, e.items.SetFavorite(ctx, tx, req.WarehouseID, cmd.EntityID, req.UserID, true, now)

	case CmdItemUnfavorite:
		return nil, e.items.SetFavorite(ctx, tx, req.WarehouseID, cmd.EntityID, req.UserID, false, now)

	case CmdStockAdjust:
		delta := intField(cmd.Payload, "delta")
		_, err := stock.Adjust(ctx, tx, stock.Adjustment{
			WarehouseID: req.WarehouseID,
			ItemID:      cmd.EntityID,
			Delta:       delta,
			CommandID:   cmd.CommandID,
			Note:        stringField(cmd.Payload, "note"),
		}, now)
		return nil, err

	default:
		return nil, apierror.InvalidInput(fmt.Sprintf("unsupported command type %q", cmd.Type))
	}
}

// checkConcurrency implements spec.md §4.5.1 step 5: base_version == nil
// skips the check; a mismatch opens a SyncConflict instead of applying.
func (e *Engine) checkConcurrency(ctx context.Context, tx *sql.Tx, req PushRequest, cmd Command, now time.Time) (*domain.SyncConflict, error) {
	if cmd.BaseVersion == nil {
		return nil, nil
	}

	entityType := entityTypeFor[cmd.Type]
	currentVersion, err := currentEntityVersion(ctx, tx, entityType, cmd.EntityID)
	if err != nil {
		return nil, err
	}
	if currentVersion == *cmd.BaseVersion {
		return nil, nil
	}

	conflict := domain.SyncConflict{
		ID:            idgen.NewID(),
		WarehouseID:   req.WarehouseID,
		CommandID:     cmd.CommandID,
		EntityType:    entityType,
		EntityID:      cmd.EntityID,
		BaseVersion:   cmd.BaseVersion,
		ServerVersion: &currentVersion,
		ClientPayload: cmd.Payload,
		Status:        domain.ConflictOpen,
		CreatedBy:     req.UserID,
		CreatedAt:     now,
	}
	if err := insertConflict(ctx, tx, conflict); err != nil {
		return nil, err
	}
	return &conflict, nil
}

// The helpers below extract already-schema-validated fields out of a
// payload map; validatePayload has already rejected anything missing or
// mistyped, so the type assertions here only need a safe zero-value
// fallback for keys a command's schema marks optional.
func stringField(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func stringFieldPtr(payload map[string]any, key string) *string {
	v, ok := payload[key]
	if !ok {
		return nil
	}
	s, _ := v.(string)
	return &s
}

func intField(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func stringSliceField(payload map[string]any, key string) []string {
	raw, ok := payload[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// optionalStringSliceField distinguishes an absent key (nil, meaning
// "leave untouched" per items.UpdateParams) from a present-but-empty list.
func optionalStringSliceField(payload map[string]any, key string) []string {
	if _, ok := payload[key]; !ok {
		return nil
	}
	values := stringSliceField(payload, key)
	if values == nil {
		values = []string{}
	}
	return values
}
