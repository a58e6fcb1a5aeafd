package items

import (
	"context"
	"sort"
	"strings"

	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/sortkey"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

// SearchParams carries the query and filters of spec.md §4.2.
type SearchParams struct {
	Query          string // empty means "no ranking, sort by created_at desc"
	Tag            string // case-insensitive exact match against any tag
	WithPhoto      bool   // when true, only items with a non-empty photo_url
	FavoritesOnly  bool   // post-filter against caller's favorites
	StockZero      bool   // post-filter against computed stock == 0
	IncludeDeleted bool
	UserID         string // for is_favorite / favorites_only
}

// SearchResult is one ranked, caller-visible item with its derived fields.
type SearchResult struct {
	Item       domain.Item
	Score      int
	IsFavorite bool
	Stock      int
	BoxPath    []string
}

// Search ranks live items in warehouseID against p, per the scoring ladder
// of spec.md §4.2. Zero-scoring items are dropped only when a query is
// supplied; with no query every item (after pre-filters) is returned,
// sorted by created_at desc.
func (m *Manager) Search(ctx context.Context, db store.DBTX, warehouseID string, p SearchParams) ([]SearchResult, error) {
	all, err := listItems(ctx, db, warehouseID, p.IncludeDeleted)
	if err != nil {
		return nil, err
	}

	paths, err := m.boxes.PathNames(ctx, db, warehouseID)
	if err != nil {
		return nil, err
	}
	stocks, err := stockByItemID(ctx, db, warehouseID)
	if err != nil {
		return nil, err
	}
	var favorites map[string]struct{}
	if p.UserID != "" {
		favorites, err = favoriteItemIDs(ctx, db, p.UserID)
		if err != nil {
			return nil, err
		}
	}

	query := sortkey.Fold(strings.TrimSpace(p.Query))
	tag := sortkey.Fold(strings.TrimSpace(p.Tag))

	var results []SearchResult
	for _, it := range all {
		if tag != "" && !hasTagFold(it.Tags, tag) {
			continue
		}
		if p.WithPhoto && it.PhotoURL == "" {
			continue
		}

		score := 0
		if query != "" {
			score = scoreItem(it, query, paths[it.BoxID])
			if score == 0 {
				continue
			}
		}

		_, fav := favorites[it.ID]
		results = append(results, SearchResult{
			Item:       it,
			Score:      score,
			IsFavorite: fav,
			Stock:      stocks[it.ID],
			BoxPath:    paths[it.BoxID],
		})
	}

	if query != "" {
		sort.SliceStable(results, func(i, j int) bool {
			if results[i].Score != results[j].Score {
				return results[i].Score > results[j].Score
			}
			ni, nj := sortkey.Fold(results[i].Item.Name), sortkey.Fold(results[j].Item.Name)
			if ni != nj {
				return ni < nj
			}
			return results[i].Item.CreatedAt.After(results[j].Item.CreatedAt)
		})
	} else {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Item.CreatedAt.After(results[j].Item.CreatedAt)
		})
	}

	if p.FavoritesOnly || p.StockZero {
		filtered := results[:0]
		for _, r := range results {
			if p.FavoritesOnly && !r.IsFavorite {
				continue
			}
			if p.StockZero && r.Stock != 0 {
				continue
			}
			filtered = append(filtered, r)
		}
		results = filtered
	}

	return results, nil
}

// scoreItem computes a single item's relevance score against a
// case-folded query, per the table in spec.md §4.2.
func scoreItem(it domain.Item, query string, boxPath []string) int {
	name := sortkey.Fold(it.Name)
	switch {
	case name == query:
		return 100
	case strings.HasPrefix(name, query):
		return 90
	case strings.Contains(name, query):
		return 80
	}

	for _, alias := range it.Aliases {
		a := sortkey.Fold(alias)
		if a == query || strings.Contains(a, query) {
			return 70
		}
	}
	for _, t := range it.Tags {
		f := sortkey.Fold(t)
		if f == query || strings.Contains(f, query) {
			return 60
		}
	}

	pathText := sortkey.Fold(strings.Join(boxPath, " > "))
	if strings.Contains(sortkey.Fold(it.Description), query) ||
		strings.Contains(pathText, query) ||
		strings.Contains(sortkey.Fold(it.PhysicalLocation), query) {
		return 50
	}

	return 0
}

func hasTagFold(tags []string, folded string) bool {
	for _, t := range tags {
		if sortkey.Fold(t) == folded {
			return true
		}
	}
	return false
}

// DistinctTags returns every distinct tag used across live items in
// warehouseID, sorted case-insensitively. Supplemented from
// original_source/app/api/v1/endpoints/tags.py, which exposes a tag
// registry the distilled spec.md dropped (see SPEC_FULL.md).
func (m *Manager) DistinctTags(ctx context.Context, db store.DBTX, warehouseID string) ([]string, error) {
	all, err := listItems(ctx, db, warehouseID, false)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]string) // folded -> first-seen original casing
	for _, it := range all {
		for _, t := range it.Tags {
			f := sortkey.Fold(t)
			if _, ok := seen[f]; !ok {
				seen[f] = t
			}
		}
	}
	out := make([]string, 0, len(seen))
	for _, t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return sortkey.Fold(out[i]) < sortkey.Fold(out[j]) })
	return out, nil
}
