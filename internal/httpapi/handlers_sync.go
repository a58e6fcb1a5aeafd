package httpapi

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/syncengine"
)

type syncCommandWire struct {
	CommandID   string         `json:"command_id"`
	Type        string         `json:"type"`
	EntityID    string         `json:"entity_id"`
	BaseVersion *int           `json:"base_version"`
	Payload     map[string]any `json:"payload"`
}

type pushRequestWire struct {
	WarehouseID string            `json:"warehouse_id"`
	DeviceID    string            `json:"device_id"`
	Commands    []syncCommandWire `json:"commands"`
}

type pushResponseWire struct {
	Applied   []string                `json:"applied"`
	Skipped   []string                `json:"skipped"`
	Conflicts []conflictWire          `json:"conflicts"`
	LastSeq   int64                   `json:"last_seq"`
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	var req pushRequestWire
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, err)
		return
	}
	userID := userIDFromContext(r.Context())

	commands := make([]syncengine.Command, len(req.Commands))
	for i, c := range req.Commands {
		commands[i] = syncengine.Command{
			CommandID:   c.CommandID,
			Type:        syncengine.CommandType(c.Type),
			EntityID:    c.EntityID,
			BaseVersion: c.BaseVersion,
			Payload:     c.Payload,
		}
	}

	var result syncengine.PushResult
	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		if err := s.membership.RequireMember(r.Context(), tx, userID, req.WarehouseID); err != nil {
			return err
		}
		res, err := s.sync.Push(r.Context(), tx, syncengine.PushRequest{
			WarehouseID: req.WarehouseID,
			UserID:      userID,
			DeviceID:    req.DeviceID,
			Commands:    commands,
		}, s.now())
		result = res
		return err
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}

	writeJSON(w, http.StatusOK, pushResponseWire{
		Applied:   emptyIfNil(result.AppliedCommandIDs),
		Skipped:   emptyIfNil(result.SkippedCommandIDs),
		Conflicts: conflictsToWire(result.Conflicts),
		LastSeq:   result.LastSeq,
	})
}

func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	warehouseID := r.URL.Query().Get("warehouse_id")
	sinceSeq, _ := strconv.ParseInt(r.URL.Query().Get("since_seq"), 10, 64)
	userID := userIDFromContext(r.Context())

	if err := s.membership.RequireMember(r.Context(), s.db, userID, warehouseID); err != nil {
		writeError(s.logger, w, err)
		return
	}

	result, err := s.sync.Pull(r.Context(), s.db, syncengine.PullRequest{WarehouseID: warehouseID, SinceSeq: sinceSeq})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"changes":   result.Changes,
		"conflicts": conflictsToWire(result.Conflicts),
		"last_seq":  result.LastSeq,
	})
}

type resolveRequestWire struct {
	WarehouseID string         `json:"warehouse_id"`
	ConflictID  string         `json:"conflict_id"`
	Resolution  string         `json:"resolution"`
	Payload     map[string]any `json:"payload"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequestWire
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, err)
		return
	}
	userID := userIDFromContext(r.Context())

	var conflict conflictWire
	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		if err := s.membership.RequireMember(r.Context(), tx, userID, req.WarehouseID); err != nil {
			return err
		}
		res, err := s.sync.Resolve(r.Context(), tx, syncengine.ResolveRequest{
			WarehouseID: req.WarehouseID,
			ConflictID:  req.ConflictID,
			UserID:      userID,
			Resolution:  syncengine.Resolution(req.Resolution),
			Payload:     req.Payload,
		}, s.now())
		conflict = conflictToWire(res)
		return err
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, conflict)
}

type conflictWire struct {
	ID            string         `json:"id"`
	WarehouseID   string         `json:"warehouse_id"`
	CommandID     string         `json:"command_id"`
	EntityType    string         `json:"entity_type"`
	EntityID      string         `json:"entity_id"`
	BaseVersion   *int           `json:"base_version,omitempty"`
	ServerVersion *int           `json:"server_version,omitempty"`
	ClientPayload map[string]any `json:"client_payload,omitempty"`
	Status        string         `json:"status"`
}

func conflictToWire(c domain.SyncConflict) conflictWire {
	return conflictWire{
		ID:            c.ID,
		WarehouseID:   c.WarehouseID,
		CommandID:     c.CommandID,
		EntityType:    c.EntityType,
		EntityID:      c.EntityID,
		BaseVersion:   c.BaseVersion,
		ServerVersion: c.ServerVersion,
		ClientPayload: c.ClientPayload,
		Status:        string(c.Status),
	}
}

func conflictsToWire(cs []domain.SyncConflict) []conflictWire {
	out := make([]conflictWire, len(cs))
	for i, c := range cs {
		out[i] = conflictToWire(c)
	}
	return out
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
