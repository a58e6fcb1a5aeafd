package httpapi

import (
	"database/sql"
	"net/http"

	"github.com/raimangsxr/my-warehouse/internal/activity"
	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/items"
	"github.com/raimangsxr/my-warehouse/internal/stock"
)

type itemWire struct {
	ID               string   `json:"id"`
	WarehouseID      string   `json:"warehouse_id"`
	BoxID            string   `json:"box_id"`
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	PhotoURL         string   `json:"photo_url,omitempty"`
	PhysicalLocation string   `json:"physical_location,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	Aliases          []string `json:"aliases,omitempty"`
	Version          int      `json:"version"`
	Stock            int      `json:"stock"`
	IsFavorite       bool     `json:"is_favorite"`
	BoxPath          []string `json:"box_path,omitempty"`
}

func itemToWire(it domain.Item, stockQty int, isFavorite bool, boxPath []string) itemWire {
	return itemWire{
		ID:               it.ID,
		WarehouseID:      it.WarehouseID,
		BoxID:            it.BoxID,
		Name:             it.Name,
		Description:      it.Description,
		PhotoURL:         it.PhotoURL,
		PhysicalLocation: it.PhysicalLocation,
		Tags:             it.Tags,
		Aliases:          it.Aliases,
		Version:          it.Version,
		Stock:            stockQty,
		IsFavorite:       isFavorite,
		BoxPath:          boxPath,
	}
}

func searchResultToWire(r items.SearchResult) itemWire {
	return itemToWire(r.Item, r.Stock, r.IsFavorite, r.BoxPath)
}

func (s *Server) handleItemSearch(w http.ResponseWriter, r *http.Request) {
	warehouseID := r.PathValue("w")
	userID := userIDFromContext(r.Context())
	q := r.URL.Query()

	results, err := s.items.Search(r.Context(), s.db, warehouseID, items.SearchParams{
		Query:          q.Get("q"),
		Tag:            q.Get("tag"),
		WithPhoto:      q.Get("with_photo") == "true",
		FavoritesOnly:  q.Get("favorites_only") == "true",
		StockZero:      q.Get("stock_zero") == "true",
		IncludeDeleted: q.Get("include_deleted") == "true",
		UserID:         userID,
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	out := make([]itemWire, len(results))
	for i, res := range results {
		out[i] = searchResultToWire(res)
	}
	writeJSON(w, http.StatusOK, out)
}

type createItemRequest struct {
	BoxID            string   `json:"box_id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	PhotoURL         string   `json:"photo_url"`
	PhysicalLocation string   `json:"physical_location"`
	Tags             []string `json:"tags"`
	Aliases          []string `json:"aliases"`
}

func (s *Server) handleItemCreate(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, err)
		return
	}
	warehouseID := r.PathValue("w")

	var item domain.Item
	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		it, err := s.items.Create(r.Context(), tx, items.CreateParams{
			WarehouseID:      warehouseID,
			BoxID:            req.BoxID,
			Name:             req.Name,
			Description:      req.Description,
			PhotoURL:         req.PhotoURL,
			PhysicalLocation: req.PhysicalLocation,
			Tags:             req.Tags,
			Aliases:          req.Aliases,
		}, s.now())
		if err != nil {
			return err
		}
		item = it
		s.activity.Record(r.Context(), tx, activity.Event{
			WarehouseID: warehouseID,
			ActorID:     userIDFromContext(r.Context()),
			Verb:        "item.created",
			EntityType:  "item",
			EntityID:    it.ID,
		}, s.now())
		return nil
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemToWire(item, 0, false, nil))
}

func (s *Server) handleItemGet(w http.ResponseWriter, r *http.Request) {
	warehouseID, itemID := r.PathValue("w"), r.PathValue("i")
	userID := userIDFromContext(r.Context())

	res, err := s.items.GetDerived(r.Context(), s.db, warehouseID, itemID, userID)
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResultToWire(res))
}

type updateItemRequest struct {
	Name             *string  `json:"name"`
	Description      *string  `json:"description"`
	PhotoURL         *string  `json:"photo_url"`
	PhysicalLocation *string  `json:"physical_location"`
	Tags             []string `json:"tags"`
	Aliases          []string `json:"aliases"`
	BoxID            *string  `json:"box_id"`
}

func (s *Server) handleItemUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, err)
		return
	}
	warehouseID, itemID := r.PathValue("w"), r.PathValue("i")

	var item domain.Item
	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		it, err := s.items.Update(r.Context(), tx, warehouseID, itemID, items.UpdateParams{
			Name:             req.Name,
			Description:      req.Description,
			PhotoURL:         req.PhotoURL,
			PhysicalLocation: req.PhysicalLocation,
			Tags:             req.Tags,
			Aliases:          req.Aliases,
			BoxID:            req.BoxID,
		}, s.now())
		item = it
		return err
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemToWire(item, 0, false, nil))
}

func (s *Server) handleItemDelete(w http.ResponseWriter, r *http.Request) {
	warehouseID, itemID := r.PathValue("w"), r.PathValue("i")

	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		if err := s.items.SoftDelete(r.Context(), tx, warehouseID, itemID, s.now()); err != nil {
			return err
		}
		s.activity.Record(r.Context(), tx, activity.Event{
			WarehouseID: warehouseID,
			ActorID:     userIDFromContext(r.Context()),
			Verb:        "item.deleted",
			EntityType:  "item",
			EntityID:    itemID,
		}, s.now())
		return nil
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleItemRestore(w http.ResponseWriter, r *http.Request) {
	warehouseID, itemID := r.PathValue("w"), r.PathValue("i")

	var item domain.Item
	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		it, err := s.items.Restore(r.Context(), tx, warehouseID, itemID, s.now())
		item = it
		return err
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemToWire(item, 0, false, nil))
}

type favoriteRequest struct {
	Favorite bool `json:"favorite"`
}

func (s *Server) handleItemFavorite(w http.ResponseWriter, r *http.Request) {
	var req favoriteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, err)
		return
	}
	warehouseID, itemID := r.PathValue("w"), r.PathValue("i")
	userID := userIDFromContext(r.Context())

	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		return s.items.SetFavorite(r.Context(), tx, warehouseID, itemID, userID, req.Favorite, s.now())
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"favorite": req.Favorite})
}

type stockAdjustRequest struct {
	Delta     int    `json:"delta"`
	CommandID string `json:"command_id"`
	Note      string `json:"note"`
}

func (s *Server) handleStockAdjust(w http.ResponseWriter, r *http.Request) {
	var req stockAdjustRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, err)
		return
	}
	warehouseID, itemID := r.PathValue("w"), r.PathValue("i")

	var newStock int
	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		qty, err := stock.Adjust(r.Context(), tx, stock.Adjustment{
			WarehouseID: warehouseID,
			ItemID:      itemID,
			Delta:       req.Delta,
			CommandID:   req.CommandID,
			Note:        req.Note,
		}, s.now())
		if err != nil {
			return err
		}
		newStock = qty
		s.activity.Record(r.Context(), tx, activity.Event{
			WarehouseID: warehouseID,
			ActorID:     userIDFromContext(r.Context()),
			Verb:        "item.stock_adjusted",
			EntityType:  "item",
			EntityID:    itemID,
			Metadata:    map[string]any{"delta": req.Delta, "stock": qty},
		}, s.now())
		return nil
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stock": newStock})
}

type batchActionRequest struct {
	ItemIDs     []string `json:"item_ids"`
	Action      string   `json:"action"`
	TargetBoxID string   `json:"target_box_id"`
}

func (s *Server) handleItemBatch(w http.ResponseWriter, r *http.Request) {
	var req batchActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, err)
		return
	}
	warehouseID := r.PathValue("w")
	userID := userIDFromContext(r.Context())

	var changed []domain.Item
	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		its, err := s.items.BatchAction(r.Context(), tx, warehouseID, items.BatchParams{
			ItemIDs:     req.ItemIDs,
			Action:      items.BatchActionType(req.Action),
			TargetBoxID: req.TargetBoxID,
			UserID:      userID,
		}, s.now())
		changed = its
		return err
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	out := make([]itemWire, len(changed))
	for i, it := range changed {
		out[i] = itemToWire(it, 0, false, nil)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	warehouseID := r.PathValue("w")
	tags, err := s.items.DistinctTags(r.Context(), s.db, warehouseID)
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}
