// Package items implements the item manager (spec.md §4.2, C4): CRUD,
// favorites, tags/aliases, batch actions, and relevance-ranked search.
//
// Grounded on the teacher's store read/write split and ON CONFLICT DO
// NOTHING idempotent-insert idiom, with the box-liveness checks delegated
// to internal/boxes rather than duplicating its SQL.
package items

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raimangsxr/my-warehouse/internal/apierror"
	"github.com/raimangsxr/my-warehouse/internal/boxes"
	"github.com/raimangsxr/my-warehouse/internal/changelog"
	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/idgen"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

// Manager implements the item operations against a store.DBTX.
type Manager struct {
	boxes  *boxes.Manager
	logger *slog.Logger
}

// New returns an item Manager. boxMgr is used to validate target boxes on
// create/move. A nil logger falls back to slog.Default.
func New(boxMgr *boxes.Manager, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{boxes: boxMgr, logger: logger}
}

// CreateParams describes an item creation request.
type CreateParams struct {
	WarehouseID      string
	BoxID            string
	Name             string
	Description      string
	PhotoURL         string
	PhysicalLocation string
	Tags             []string
	Aliases          []string
}

// Create inserts a fresh item pinned to an existing live box in the same
// warehouse.
func (m *Manager) Create(ctx context.Context, tx store.DBTX, p CreateParams, now time.Time) (domain.Item, error) {
	box, err := m.boxes.Get(ctx, tx, p.WarehouseID, p.BoxID)
	if err != nil {
		return domain.Item{}, err
	}
	if !box.Live() {
		return domain.Item{}, apierror.InvalidInput("box is deleted")
	}
	if strings.TrimSpace(p.Name) == "" {
		return domain.Item{}, apierror.InvalidInput("name is required")
	}

	item := domain.Item{
		ID:               idgen.NewID(),
		WarehouseID:      p.WarehouseID,
		BoxID:            p.BoxID,
		Name:             p.Name,
		Description:      p.Description,
		PhotoURL:         p.PhotoURL,
		PhysicalLocation: p.PhysicalLocation,
		Tags:             dedupOrdered(p.Tags),
		Aliases:          dedupOrdered(p.Aliases),
		Version:          1,
		CreatedAt:        now,
	}

	if err := insertItem(ctx, tx, item); err != nil {
		return domain.Item{}, err
	}

	version := item.Version
	if _, err := changelog.New(tx).Append(ctx, item.WarehouseID, "item", item.ID, domain.ActionCreate, &version, itemPayload(item), now); err != nil {
		return domain.Item{}, err
	}

	m.logger.Info("item created", "item_id", item.ID, "warehouse_id", item.WarehouseID, "box_id", item.BoxID)
	return item, nil
}

// Get returns a single item, scoped to warehouseID.
func (m *Manager) Get(ctx context.Context, tx store.DBTX, warehouseID, itemID string) (domain.Item, error) {
	item, err := getItem(ctx, tx, itemID)
	if err != nil {
		return domain.Item{}, err
	}
	if item.WarehouseID != warehouseID {
		return domain.Item{}, apierror.NotFound("item")
	}
	return item, nil
}

// UpdateParams carries only the fields supplied by the caller; nil/unset
// means "leave untouched".
type UpdateParams struct {
	Name             *string
	Description      *string
	PhotoURL         *string
	PhysicalLocation *string
	Tags             []string // nil means unchanged; non-nil (incl. empty) replaces
	Aliases          []string
	BoxID            *string // moving the item to a new box
}

// Update applies only the supplied fields, bumping version when anything
// actually changes (spec.md §4.2).
func (m *Manager) Update(ctx context.Context, tx store.DBTX, warehouseID, itemID string, p UpdateParams, now time.Time) (domain.Item, error) {
	item, err := m.Get(ctx, tx, warehouseID, itemID)
	if err != nil {
		return domain.Item{}, err
	}
	if !item.Live() {
		return domain.Item{}, apierror.NotFound("item")
	}

	changed := false
	if p.Name != nil && *p.Name != item.Name {
		item.Name = *p.Name
		changed = true
	}
	if p.Description != nil && *p.Description != item.Description {
		item.Description = *p.Description
		changed = true
	}
	if p.PhotoURL != nil && *p.PhotoURL != item.PhotoURL {
		item.PhotoURL = *p.PhotoURL
		changed = true
	}
	if p.PhysicalLocation != nil && *p.PhysicalLocation != item.PhysicalLocation {
		item.PhysicalLocation = *p.PhysicalLocation
		changed = true
	}
	if p.Tags != nil {
		tags := dedupOrdered(p.Tags)
		if !stringsEqual(tags, item.Tags) {
			item.Tags = tags
			changed = true
		}
	}
	if p.Aliases != nil {
		aliases := dedupOrdered(p.Aliases)
		if !stringsEqual(aliases, item.Aliases) {
			item.Aliases = aliases
			changed = true
		}
	}
	if p.BoxID != nil && *p.BoxID != item.BoxID {
		box, err := m.boxes.Get(ctx, tx, warehouseID, *p.BoxID)
		if err != nil {
			return domain.Item{}, err
		}
		if !box.Live() {
			return domain.Item{}, apierror.InvalidInput("target box is deleted")
		}
		item.BoxID = *p.BoxID
		changed = true
	}
	if !changed {
		return item, nil
	}

	item.Version++
	if err := updateItemFields(ctx, tx, item); err != nil {
		return domain.Item{}, err
	}

	version := item.Version
	if _, err := changelog.New(tx).Append(ctx, item.WarehouseID, "item", item.ID, domain.ActionUpdate, &version, itemPayload(item), now); err != nil {
		return domain.Item{}, err
	}
	return item, nil
}

// SoftDelete marks an item deleted.
func (m *Manager) SoftDelete(ctx context.Context, tx store.DBTX, warehouseID, itemID string, now time.Time) error {
	item, err := m.Get(ctx, tx, warehouseID, itemID)
	if err != nil {
		return err
	}
	if !item.Live() {
		return apierror.NotFound("item")
	}
	if err := softDeleteItem(ctx, tx, itemID, now); err != nil {
		return err
	}
	item.Version++
	version := item.Version
	_, err = changelog.New(tx).Append(ctx, warehouseID, "item", itemID, domain.ActionDelete, &version, itemPayload(item), now)
	return err
}

// Restore reverses a soft-delete. The item's current box must be live
// (spec.md §4.1).
func (m *Manager) Restore(ctx context.Context, tx store.DBTX, warehouseID, itemID string, now time.Time) (domain.Item, error) {
	item, err := getItem(ctx, tx, itemID)
	if err != nil {
		return domain.Item{}, err
	}
	if item.WarehouseID != warehouseID {
		return domain.Item{}, apierror.NotFound("item")
	}
	if item.Live() {
		return item, nil
	}

	box, err := m.boxes.Get(ctx, tx, warehouseID, item.BoxID)
	if err != nil {
		return domain.Item{}, err
	}
	if !box.Live() {
		return domain.Item{}, apierror.InvalidInput("item's box is deleted; restore the box first")
	}

	if err := restoreItem(ctx, tx, itemID); err != nil {
		return domain.Item{}, err
	}
	item.DeletedAt = nil
	item.Version++

	version := item.Version
	if _, err := changelog.New(tx).Append(ctx, warehouseID, "item", itemID, domain.ActionRestore, &version, itemPayload(item), now); err != nil {
		return domain.Item{}, err
	}
	return item, nil
}

// GetDerived returns an item alongside its computed stock, is_favorite
// flag, and box path — the fields spec.md §4.2 requires on any
// caller-visible item view, not just search results.
func (m *Manager) GetDerived(ctx context.Context, db store.DBTX, warehouseID, itemID, userID string) (SearchResult, error) {
	item, err := m.Get(ctx, db, warehouseID, itemID)
	if err != nil {
		return SearchResult{}, err
	}
	stock, err := itemStock(ctx, db, itemID)
	if err != nil {
		return SearchResult{}, err
	}
	var fav bool
	if userID != "" {
		fav, err = isFavorite(ctx, db, userID, itemID)
		if err != nil {
			return SearchResult{}, err
		}
	}
	paths, err := m.boxes.PathNames(ctx, db, warehouseID)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Item: item, IsFavorite: fav, Stock: stock, BoxPath: paths[item.BoxID]}, nil
}

// SetFavorite toggles a per-user favorite reference (spec.md §3).
func (m *Manager) SetFavorite(ctx context.Context, tx store.DBTX, warehouseID, itemID, userID string, favorite bool, now time.Time) error {
	item, err := m.Get(ctx, tx, warehouseID, itemID)
	if err != nil {
		return err
	}
	action := domain.ActionUnfavorite
	if favorite {
		action = domain.ActionFavorite
		if err := insertFavorite(ctx, tx, userID, itemID, now); err != nil {
			return err
		}
	} else {
		if err := deleteFavorite(ctx, tx, userID, itemID); err != nil {
			return err
		}
	}
	_, err = changelog.New(tx).Append(ctx, warehouseID, "item", itemID, action, &item.Version, map[string]any{"user_id": userID}, now)
	return err
}

// dedupOrdered removes duplicates from values while preserving first-seen
// order, per spec.md §3's "ordered sequence of unique strings".
func dedupOrdered(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func itemPayload(it domain.Item) map[string]any {
	return map[string]any{
		"name":    it.Name,
		"box_id":  it.BoxID,
		"version": it.Version,
	}
}

func getItem(ctx context.Context, db store.DBTX, id string) (domain.Item, error) {
	row := db.QueryRowContext(ctx, itemSelectColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return domain.Item{}, apierror.NotFound("item")
	}
	if err != nil {
		return domain.Item{}, fmt.Errorf("items: get: %w", err)
	}
	return item, nil
}
