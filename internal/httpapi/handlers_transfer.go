package httpapi

import (
	"database/sql"
	"net/http"

	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/transfer"
)

type snapshotWire struct {
	SchemaVersion  int                    `json:"schema_version"`
	WarehouseName  string                 `json:"warehouse_name"`
	Boxes          []boxWire              `json:"boxes"`
	Items          []itemWire             `json:"items"`
	StockMovements []stockMovementWire    `json:"stock_movements"`
}

type stockMovementWire struct {
	ID          string `json:"id"`
	WarehouseID string `json:"warehouse_id"`
	ItemID      string `json:"item_id"`
	Delta       int    `json:"delta"`
	CommandID   string `json:"command_id"`
	Note        string `json:"note,omitempty"`
}

func snapshotToWire(snap transfer.Snapshot) snapshotWire {
	boxes := make([]boxWire, len(snap.Boxes))
	for i, b := range snap.Boxes {
		boxes[i] = boxToWire(b)
	}
	items := make([]itemWire, len(snap.Items))
	for i, it := range snap.Items {
		items[i] = itemToWire(it, 0, false, nil)
	}
	movements := make([]stockMovementWire, len(snap.StockMovements))
	for i, mv := range snap.StockMovements {
		movements[i] = stockMovementWire{
			ID:          mv.ID,
			WarehouseID: mv.WarehouseID,
			ItemID:      mv.ItemID,
			Delta:       mv.Delta,
			CommandID:   mv.CommandID,
			Note:        mv.Note,
		}
	}
	return snapshotWire{
		SchemaVersion:  snap.SchemaVersion,
		WarehouseName:  snap.WarehouseName,
		Boxes:          boxes,
		Items:          items,
		StockMovements: movements,
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	warehouseID := r.PathValue("w")
	snap, err := s.transfer.Export(r.Context(), s.db, warehouseID)
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotToWire(snap))
}

type importRequest struct {
	SchemaVersion  int                 `json:"schema_version"`
	WarehouseName  string              `json:"warehouse_name"`
	Boxes          []boxImportWire     `json:"boxes"`
	Items          []itemImportWire    `json:"items"`
	StockMovements []stockMovementWire `json:"stock_movements"`
}

type boxImportWire struct {
	ID               string `json:"id"`
	ParentBoxID      string `json:"parent_box_id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	PhysicalLocation string `json:"physical_location"`
	QRToken          string `json:"qr_token"`
	ShortCode        string `json:"short_code"`
}

type itemImportWire struct {
	ID               string   `json:"id"`
	BoxID            string   `json:"box_id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	PhotoURL         string   `json:"photo_url"`
	PhysicalLocation string   `json:"physical_location"`
	Tags             []string `json:"tags"`
	Aliases          []string `json:"aliases"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, err)
		return
	}
	warehouseID := r.PathValue("w")

	snap := transfer.Snapshot{
		SchemaVersion: req.SchemaVersion,
		WarehouseName: req.WarehouseName,
	}
	for _, b := range req.Boxes {
		snap.Boxes = append(snap.Boxes, domainBoxFromImport(b))
	}
	for _, it := range req.Items {
		snap.Items = append(snap.Items, domainItemFromImport(it))
	}
	for _, mv := range req.StockMovements {
		snap.StockMovements = append(snap.StockMovements, domainMovementFromImport(mv))
	}

	var result transfer.ImportResult
	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		res, err := s.transfer.Import(r.Context(), tx, warehouseID, snap, s.now())
		result = res
		return err
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"boxes_imported":           result.BoxesImported,
		"items_imported":           result.ItemsImported,
		"stock_movements_imported": result.StockMovementsImported,
	})
}

func domainBoxFromImport(b boxImportWire) domain.Box {
	return domain.Box{
		ID:               b.ID,
		ParentBoxID:      b.ParentBoxID,
		Name:             b.Name,
		Description:      b.Description,
		PhysicalLocation: b.PhysicalLocation,
		QRToken:          b.QRToken,
		ShortCode:        b.ShortCode,
	}
}

func domainItemFromImport(it itemImportWire) domain.Item {
	return domain.Item{
		ID:               it.ID,
		BoxID:            it.BoxID,
		Name:             it.Name,
		Description:      it.Description,
		PhotoURL:         it.PhotoURL,
		PhysicalLocation: it.PhysicalLocation,
		Tags:             it.Tags,
		Aliases:          it.Aliases,
	}
}

func domainMovementFromImport(mv stockMovementWire) domain.StockMovement {
	return domain.StockMovement{
		ID:        mv.ID,
		ItemID:    mv.ItemID,
		Delta:     mv.Delta,
		CommandID: mv.CommandID,
		Note:      mv.Note,
	}
}
