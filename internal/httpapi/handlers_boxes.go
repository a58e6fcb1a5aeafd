package httpapi

import (
	"database/sql"
	"net/http"

	"github.com/raimangsxr/my-warehouse/internal/activity"
	"github.com/raimangsxr/my-warehouse/internal/apierror"
	"github.com/raimangsxr/my-warehouse/internal/boxes"
	"github.com/raimangsxr/my-warehouse/internal/domain"
)

type boxWire struct {
	ID               string  `json:"id"`
	WarehouseID      string  `json:"warehouse_id"`
	ParentBoxID      string  `json:"parent_box_id,omitempty"`
	Name             string  `json:"name"`
	Description      string  `json:"description,omitempty"`
	PhysicalLocation string  `json:"physical_location,omitempty"`
	QRToken          string  `json:"qr_token"`
	ShortCode        string  `json:"short_code"`
	Version          int     `json:"version"`
}

func boxToWire(b domain.Box) boxWire {
	return boxWire{
		ID:               b.ID,
		WarehouseID:      b.WarehouseID,
		ParentBoxID:      b.ParentBoxID,
		Name:             b.Name,
		Description:      b.Description,
		PhysicalLocation: b.PhysicalLocation,
		QRToken:          b.QRToken,
		ShortCode:        b.ShortCode,
		Version:          b.Version,
	}
}

type treeNodeWire struct {
	Box                 boxWire  `json:"box"`
	Depth               int      `json:"depth"`
	Path                []string `json:"path"`
	TotalItemsRecursive int      `json:"total_items_recursive"`
	TotalBoxesRecursive int      `json:"total_boxes_recursive"`
}

func (s *Server) handleBoxTree(w http.ResponseWriter, r *http.Request) {
	warehouseID := r.PathValue("w")
	nodes, err := s.boxes.ListAsTree(r.Context(), s.db, warehouseID)
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	out := make([]treeNodeWire, len(nodes))
	for i, n := range nodes {
		out[i] = treeNodeWire{
			Box:                 boxToWire(n.Box),
			Depth:               n.Depth,
			Path:                n.Path,
			TotalItemsRecursive: n.TotalItemsRecursive,
			TotalBoxesRecursive: n.TotalBoxesRecursive,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type createBoxRequest struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	PhysicalLocation string `json:"physical_location"`
	ParentBoxID      string `json:"parent_box_id"`
}

func (s *Server) handleBoxCreate(w http.ResponseWriter, r *http.Request) {
	var req createBoxRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, err)
		return
	}
	warehouseID := r.PathValue("w")

	var box domain.Box
	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		b, err := s.boxes.Create(r.Context(), tx, boxes.CreateParams{
			WarehouseID:      warehouseID,
			Name:             req.Name,
			Description:      req.Description,
			PhysicalLocation: req.PhysicalLocation,
			ParentBoxID:      req.ParentBoxID,
		}, s.now())
		if err != nil {
			return err
		}
		box = b
		s.activity.Record(r.Context(), tx, activity.Event{
			WarehouseID: warehouseID,
			ActorID:     userIDFromContext(r.Context()),
			Verb:        "box.created",
			EntityType:  "box",
			EntityID:    b.ID,
		}, s.now())
		return nil
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, boxToWire(box))
}

func (s *Server) handleBoxGet(w http.ResponseWriter, r *http.Request) {
	warehouseID, boxID := r.PathValue("w"), r.PathValue("b")
	box, err := s.boxes.Get(r.Context(), s.db, warehouseID, boxID)
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, boxToWire(box))
}

type updateBoxRequest struct {
	Name             *string `json:"name"`
	Description      *string `json:"description"`
	PhysicalLocation *string `json:"physical_location"`
}

func (s *Server) handleBoxUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateBoxRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, err)
		return
	}
	warehouseID, boxID := r.PathValue("w"), r.PathValue("b")

	var box domain.Box
	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		b, err := s.boxes.Update(r.Context(), tx, warehouseID, boxID, boxes.UpdateParams{
			Name:             req.Name,
			Description:      req.Description,
			PhysicalLocation: req.PhysicalLocation,
		}, s.now())
		box = b
		return err
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, boxToWire(box))
}

func (s *Server) handleBoxDelete(w http.ResponseWriter, r *http.Request) {
	warehouseID, boxID := r.PathValue("w"), r.PathValue("b")
	force := r.URL.Query().Get("force") == "true"

	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		if err := s.boxes.SoftDelete(r.Context(), tx, warehouseID, boxID, force, s.now()); err != nil {
			return err
		}
		s.activity.Record(r.Context(), tx, activity.Event{
			WarehouseID: warehouseID,
			ActorID:     userIDFromContext(r.Context()),
			Verb:        "box.deleted",
			EntityType:  "box",
			EntityID:    boxID,
		}, s.now())
		return nil
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveBoxRequest struct {
	NewParentBoxID string `json:"new_parent_box_id"`
}

func (s *Server) handleBoxMove(w http.ResponseWriter, r *http.Request) {
	var req moveBoxRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, err)
		return
	}
	warehouseID, boxID := r.PathValue("w"), r.PathValue("b")

	var box domain.Box
	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		b, err := s.boxes.Move(r.Context(), tx, warehouseID, boxID, req.NewParentBoxID, s.now())
		if err != nil {
			return err
		}
		box = b
		s.activity.Record(r.Context(), tx, activity.Event{
			WarehouseID: warehouseID,
			ActorID:     userIDFromContext(r.Context()),
			Verb:        "box.moved",
			EntityType:  "box",
			EntityID:    b.ID,
			Metadata:    map[string]any{"new_parent_box_id": req.NewParentBoxID},
		}, s.now())
		return nil
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, boxToWire(box))
}

func (s *Server) handleBoxRestore(w http.ResponseWriter, r *http.Request) {
	warehouseID, boxID := r.PathValue("w"), r.PathValue("b")

	var box domain.Box
	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		b, err := s.boxes.Restore(r.Context(), tx, warehouseID, boxID, s.now())
		box = b
		return err
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, boxToWire(box))
}

func (s *Server) handleBoxSubtreeItems(w http.ResponseWriter, r *http.Request) {
	warehouseID, boxID := r.PathValue("w"), r.PathValue("b")
	items, err := s.boxes.GetSubtreeItems(r.Context(), s.db, warehouseID, boxID)
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	out := make([]itemWire, len(items))
	for i, it := range items {
		out[i] = itemToWire(it, 0, false, nil)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBoxByQR(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	userID := userIDFromContext(r.Context())

	box, err := s.boxes.LookupByQR(r.Context(), s.db, token)
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	if err := s.membership.RequireMember(r.Context(), s.db, userID, box.WarehouseID); err != nil {
		writeError(s.logger, w, apierror.Forbidden("not a member of the box's warehouse"))
		return
	}
	writeJSON(w, http.StatusOK, boxToWire(box))
}
