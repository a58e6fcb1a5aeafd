package httpapi

import (
	"net/http"
	"strconv"

	"github.com/raimangsxr/my-warehouse/internal/activity"
)

const defaultActivityLimit = 100

type activityEventWire struct {
	WarehouseID string         `json:"warehouse_id"`
	ActorID     string         `json:"actor_id"`
	Verb        string         `json:"verb"`
	EntityType  string         `json:"entity_type"`
	EntityID    string         `json:"entity_id"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func activityEventToWire(ev activity.Event) activityEventWire {
	return activityEventWire{
		WarehouseID: ev.WarehouseID,
		ActorID:     ev.ActorID,
		Verb:        ev.Verb,
		EntityType:  ev.EntityType,
		EntityID:    ev.EntityID,
		Metadata:    ev.Metadata,
	}
}

func (s *Server) handleActivityList(w http.ResponseWriter, r *http.Request) {
	warehouseID := r.PathValue("w")
	limit := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	events, err := activity.List(r.Context(), s.db, warehouseID, limit)
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	out := make([]activityEventWire, len(events))
	for i, ev := range events {
		out[i] = activityEventToWire(ev)
	}
	writeJSON(w, http.StatusOK, out)
}
