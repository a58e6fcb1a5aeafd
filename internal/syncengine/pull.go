package syncengine

import (
	"context"

	"github.com/raimangsxr/my-warehouse/internal/changelog"
	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

// maxPullRecords is the page size of spec.md §4.5.2. Clients poll; there
// is no long-polling.
const maxPullRecords = 500

// PullRequest is the input to Pull.
type PullRequest struct {
	WarehouseID string
	SinceSeq    int64
}

// PullResult is the output of Pull, per spec.md §4.5.2.
type PullResult struct {
	Changes   []domain.ChangeLogEntry
	Conflicts []domain.SyncConflict
	LastSeq   int64
}

// Pull returns up to 500 change records with seq > SinceSeq in ascending
// order, every currently open conflict (ordered by creation time), and the
// warehouse's current max seq.
func (e *Engine) Pull(ctx context.Context, db store.DBTX, req PullRequest) (PullResult, error) {
	changes, err := changelog.Since(ctx, db, req.WarehouseID, req.SinceSeq, maxPullRecords)
	if err != nil {
		return PullResult{}, err
	}
	conflicts, err := openConflicts(ctx, db, req.WarehouseID)
	if err != nil {
		return PullResult{}, err
	}
	lastSeq, err := changelog.LastSeq(ctx, db, req.WarehouseID)
	if err != nil {
		return PullResult{}, err
	}

	return PullResult{Changes: changes, Conflicts: conflicts, LastSeq: lastSeq}, nil
}
