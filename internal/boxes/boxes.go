// Package boxes implements the box forest manager (spec.md §4.1, C3):
// create, get, tree listing, move with cycle prevention, recursive
// soft-delete/restore, and QR lookup.
//
// Grounded on the teacher's internal/store read/write split and its
// ON CONFLICT DO NOTHING idempotent-insert idiom; the forest-cycle
// detection is the same "build the whole relation, then walk it" approach
// as the teacher's internal/engine/cycle.go CycleDetector, simplified to a
// plain children-map DFS since a box forest has no concurrent-edge
// insertion during a single check.
package boxes

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/raimangsxr/my-warehouse/internal/apierror"
	"github.com/raimangsxr/my-warehouse/internal/changelog"
	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/idgen"
	"github.com/raimangsxr/my-warehouse/internal/sortkey"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

// maxForestDepth is the hard guard of spec.md §3 invariant 2.
const maxForestDepth = 128

// Manager implements the box forest operations against a store.DBTX. It
// holds no connection state beyond a logger; callers pass the transaction
// (or the plain DB handle for reads) on every call, matching the
// "one transaction per request" model of spec.md §5.
type Manager struct {
	logger *slog.Logger
}

// New returns a box forest Manager. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger}
}

// CreateParams describes a box creation request.
type CreateParams struct {
	WarehouseID      string
	Name             string // optional; defaults to "Caja N"
	Description      string
	PhysicalLocation string
	ParentBoxID      string // optional; empty means root
}

// Create inserts a fresh box, defaulting its name and minting a QR token
// and short code, per spec.md §4.1.
func (m *Manager) Create(ctx context.Context, tx store.DBTX, p CreateParams, now time.Time) (domain.Box, error) {
	if p.ParentBoxID != "" {
		parent, err := getBox(ctx, tx, p.ParentBoxID)
		if err != nil {
			return domain.Box{}, err
		}
		if parent.WarehouseID != p.WarehouseID {
			return domain.Box{}, apierror.InvalidInput("parent box belongs to a different warehouse")
		}
		if !parent.Live() {
			return domain.Box{}, apierror.InvalidInput("parent box is deleted")
		}
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		count, err := countBoxes(ctx, tx, p.WarehouseID)
		if err != nil {
			return domain.Box{}, err
		}
		name = fmt.Sprintf("Caja %d", count+1)
	}

	qrToken, err := idgen.NewQRToken()
	if err != nil {
		return domain.Box{}, fmt.Errorf("boxes: create: %w", err)
	}
	shortCode, err := idgen.NewShortCode()
	if err != nil {
		return domain.Box{}, fmt.Errorf("boxes: create: %w", err)
	}

	box := domain.Box{
		ID:               idgen.NewID(),
		WarehouseID:      p.WarehouseID,
		ParentBoxID:      p.ParentBoxID,
		Name:             name,
		Description:      p.Description,
		PhysicalLocation: p.PhysicalLocation,
		QRToken:          qrToken,
		ShortCode:        shortCode,
		Version:          1,
		CreatedAt:        now,
	}

	if err := insertBox(ctx, tx, box); err != nil {
		return domain.Box{}, err
	}

	version := box.Version
	if _, err := changelog.New(tx).Append(ctx, box.WarehouseID, "box", box.ID, domain.ActionCreate, &version, boxPayload(box), now); err != nil {
		return domain.Box{}, err
	}

	m.logger.Info("box created", "box_id", box.ID, "warehouse_id", box.WarehouseID, "name", box.Name)
	return box, nil
}

// Get returns a single box, failing with not-found if it is absent or
// belongs to a different warehouse than warehouseID.
func (m *Manager) Get(ctx context.Context, tx store.DBTX, warehouseID, boxID string) (domain.Box, error) {
	box, err := getBox(ctx, tx, boxID)
	if err != nil {
		return domain.Box{}, err
	}
	if box.WarehouseID != warehouseID {
		return domain.Box{}, apierror.NotFound("box")
	}
	return box, nil
}

// UpdateParams carries only the fields supplied by the caller; nil means
// "leave untouched" per spec.md §4.2's update semantics (shared with items).
type UpdateParams struct {
	Name             *string
	Description      *string
	PhysicalLocation *string
}

// Update applies only the supplied fields, bumping version when anything
// actually changes.
func (m *Manager) Update(ctx context.Context, tx store.DBTX, warehouseID, boxID string, p UpdateParams, now time.Time) (domain.Box, error) {
	box, err := m.Get(ctx, tx, warehouseID, boxID)
	if err != nil {
		return domain.Box{}, err
	}
	if !box.Live() {
		return domain.Box{}, apierror.NotFound("box")
	}

	changed := false
	if p.Name != nil && *p.Name != box.Name {
		box.Name = *p.Name
		changed = true
	}
	if p.Description != nil && *p.Description != box.Description {
		box.Description = *p.Description
		changed = true
	}
	if p.PhysicalLocation != nil && *p.PhysicalLocation != box.PhysicalLocation {
		box.PhysicalLocation = *p.PhysicalLocation
		changed = true
	}
	if !changed {
		return box, nil
	}

	box.Version++
	if err := updateBoxFields(ctx, tx, box); err != nil {
		return domain.Box{}, err
	}

	version := box.Version
	if _, err := changelog.New(tx).Append(ctx, box.WarehouseID, "box", box.ID, domain.ActionUpdate, &version, boxPayload(box), now); err != nil {
		return domain.Box{}, err
	}
	return box, nil
}

// Move repoints box to newParentBoxID (empty string means "make root"),
// rejecting the move if it would create a cycle (spec.md §4.1).
func (m *Manager) Move(ctx context.Context, tx store.DBTX, warehouseID, boxID, newParentBoxID string, now time.Time) (domain.Box, error) {
	box, err := m.Get(ctx, tx, warehouseID, boxID)
	if err != nil {
		return domain.Box{}, err
	}
	if !box.Live() {
		return domain.Box{}, apierror.NotFound("box")
	}

	if newParentBoxID == boxID {
		return domain.Box{}, apierror.InvalidInput("a box cannot be its own parent")
	}

	all, err := listBoxes(ctx, tx, warehouseID)
	if err != nil {
		return domain.Box{}, err
	}

	if newParentBoxID != "" {
		parent, ok := findBox(all, newParentBoxID)
		if !ok {
			return domain.Box{}, apierror.InvalidInput("parent box not found in warehouse")
		}
		if !parent.Live() {
			return domain.Box{}, apierror.InvalidInput("parent box is deleted")
		}
		children := childrenMap(all)
		if descendantOf(children, boxID, newParentBoxID) {
			return domain.Box{}, apierror.InvalidInput("move would create a cycle")
		}
		if depthOf(all, newParentBoxID)+1 >= maxForestDepth {
			return domain.Box{}, apierror.InvalidInput("box forest depth limit exceeded")
		}
	}

	box.ParentBoxID = newParentBoxID
	box.Version++
	if err := updateBoxParent(ctx, tx, box); err != nil {
		return domain.Box{}, err
	}

	version := box.Version
	if _, err := changelog.New(tx).Append(ctx, box.WarehouseID, "box", box.ID, domain.ActionMove, &version, boxPayload(box), now); err != nil {
		return domain.Box{}, err
	}
	m.logger.Info("box moved", "box_id", box.ID, "new_parent_box_id", newParentBoxID)
	return box, nil
}

// LookupByQR finds a live box globally by its qr_token. Callers must still
// verify the caller's membership in the returned box's warehouse
// (spec.md §4.1: absence is 404, non-membership is 403, checked by the
// HTTP layer after this returns).
func (m *Manager) LookupByQR(ctx context.Context, db store.DBTX, qrToken string) (domain.Box, error) {
	box, err := queryBoxByQR(ctx, db, qrToken)
	if err == sql.ErrNoRows {
		return domain.Box{}, apierror.NotFound("box")
	}
	if err != nil {
		return domain.Box{}, fmt.Errorf("boxes: lookup by qr: %w", err)
	}
	if !box.Live() {
		return domain.Box{}, apierror.NotFound("box")
	}
	return box, nil
}

// descendantOf reports whether candidate lies within root's subtree
// (root itself included), using a precomputed children map rather than a
// per-step parent climb — the latter can be fooled by a cycle introduced
// concurrently with the check (spec.md §4.1).
func descendantOf(children map[string][]string, root, candidate string) bool {
	if root == candidate {
		return true
	}
	stack := append([]string{}, children[root]...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == candidate {
			return true
		}
		stack = append(stack, children[n]...)
	}
	return false
}

func childrenMap(boxes []domain.Box) map[string][]string {
	m := make(map[string][]string, len(boxes))
	for _, b := range boxes {
		if b.ParentBoxID != "" {
			m[b.ParentBoxID] = append(m[b.ParentBoxID], b.ID)
		}
	}
	return m
}

func findBox(boxes []domain.Box, id string) (domain.Box, bool) {
	for _, b := range boxes {
		if b.ID == id {
			return b, true
		}
	}
	return domain.Box{}, false
}

// depthOf returns the number of ancestors above id (0 for a root box).
func depthOf(boxes []domain.Box, id string) int {
	byID := make(map[string]domain.Box, len(boxes))
	for _, b := range boxes {
		byID[b.ID] = b
	}
	depth := 0
	cur := id
	for {
		b, ok := byID[cur]
		if !ok || b.ParentBoxID == "" {
			return depth
		}
		cur = b.ParentBoxID
		depth++
		if depth > maxForestDepth {
			return depth
		}
	}
}

func boxPayload(b domain.Box) map[string]any {
	return map[string]any{
		"name":          b.Name,
		"parent_box_id": b.ParentBoxID,
		"version":       b.Version,
	}
}

func sortBoxesByNameCI(boxes []domain.Box) {
	sort.SliceStable(boxes, func(i, j int) bool {
		return sortkey.Fold(boxes[i].Name) < sortkey.Fold(boxes[j].Name)
	})
}

// getBox fetches a single box by id regardless of warehouse, used
// internally by callers that verify tenancy themselves (e.g. Move's
// parent lookup uses the warehouse-scoped slice instead).
func getBox(ctx context.Context, db store.DBTX, id string) (domain.Box, error) {
	row := db.QueryRowContext(ctx, boxSelectColumns+` FROM boxes WHERE id = ?`, id)
	box, err := scanBox(row)
	if err == sql.ErrNoRows {
		return domain.Box{}, apierror.NotFound("box")
	}
	if err != nil {
		return domain.Box{}, fmt.Errorf("boxes: get: %w", err)
	}
	return box, nil
}
