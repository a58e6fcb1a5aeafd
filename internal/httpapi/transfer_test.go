package httpapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport_IncludesCreatedBoxesAndItems(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signupAndLogin("person@example.com", "hunter2")
	warehouseID := ts.createWarehouse(token, "Acme")
	box := ts.createBoxForTest(token, warehouseID, "Box A")

	resp := ts.do(http.MethodPost, "/warehouses/"+warehouseID+"/items", token, createItemRequest{BoxID: box.ID, Name: "Widget"})
	resp.Body.Close()

	resp = ts.do(http.MethodGet, "/warehouses/"+warehouseID+"/export", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap snapshotWire
	decodeBody(t, resp, &snap)
	assert.Equal(t, "Acme", snap.WarehouseName)
	require.Len(t, snap.Boxes, 1)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Widget", snap.Items[0].Name)
}

func TestImport_PopulatesTargetWarehouse(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signupAndLogin("person@example.com", "hunter2")
	sourceWarehouseID := ts.createWarehouse(token, "Source")
	box := ts.createBoxForTest(token, sourceWarehouseID, "Box A")
	resp := ts.do(http.MethodPost, "/warehouses/"+sourceWarehouseID+"/items", token, createItemRequest{BoxID: box.ID, Name: "Widget"})
	resp.Body.Close()

	resp = ts.do(http.MethodGet, "/warehouses/"+sourceWarehouseID+"/export", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap snapshotWire
	decodeBody(t, resp, &snap)

	targetWarehouseID := ts.createWarehouse(token, "Target")

	boxesImport := make([]boxImportWire, len(snap.Boxes))
	for i, b := range snap.Boxes {
		boxesImport[i] = boxImportWire{
			ID: b.ID, ParentBoxID: b.ParentBoxID, Name: b.Name,
			Description: b.Description, PhysicalLocation: b.PhysicalLocation,
			QRToken: b.QRToken, ShortCode: b.ShortCode,
		}
	}
	itemsImport := make([]itemImportWire, len(snap.Items))
	for i, it := range snap.Items {
		itemsImport[i] = itemImportWire{
			ID: it.ID, BoxID: it.BoxID, Name: it.Name, Description: it.Description,
			PhotoURL: it.PhotoURL, PhysicalLocation: it.PhysicalLocation,
			Tags: it.Tags, Aliases: it.Aliases,
		}
	}

	resp = ts.do(http.MethodPost, "/warehouses/"+targetWarehouseID+"/import", token, importRequest{
		SchemaVersion: snap.SchemaVersion,
		WarehouseName: snap.WarehouseName,
		Boxes:         boxesImport,
		Items:         itemsImport,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]int
	decodeBody(t, resp, &out)
	assert.Equal(t, 1, out["boxes_imported"])
	assert.Equal(t, 1, out["items_imported"])

	resp = ts.do(http.MethodGet, "/warehouses/"+targetWarehouseID+"/boxes/tree", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var nodes []treeNodeWire
	decodeBody(t, resp, &nodes)
	assert.Len(t, nodes, 1)
}
