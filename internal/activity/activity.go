// Package activity implements the activity sink (C9): a fire-and-forget,
// append-only audit event writer. Failures here never abort the
// triggering operation (spec.md §1).
package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/raimangsxr/my-warehouse/internal/idgen"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

// Sink appends activity events. Its Record method never returns an error
// to blocking callers by design; use RecordStrict when a caller genuinely
// needs to know the write failed (e.g. a background worker metric).
type Sink struct {
	logger *slog.Logger
}

// New returns an activity Sink. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{logger: logger}
}

// Event describes one audit record.
type Event struct {
	WarehouseID string
	ActorID     string
	Verb        string
	EntityType  string
	EntityID    string
	Metadata    map[string]any
}

// Record appends ev, logging and swallowing any write failure: activity is
// out-of-scope advisory telemetry, not part of the consistency engine
// (spec.md §1).
func (s *Sink) Record(ctx context.Context, db store.DBTX, ev Event, now time.Time) {
	if err := s.RecordStrict(ctx, db, ev, now); err != nil {
		s.logger.Warn("activity write failed", "error", err, "warehouse_id", ev.WarehouseID, "verb", ev.Verb)
	}
}

// RecordStrict appends ev and returns any write error, for callers that
// want to handle the failure themselves.
func (s *Sink) RecordStrict(ctx context.Context, db store.DBTX, ev Event, now time.Time) error {
	metadataJSON, err := store.MarshalPayload(ev.Metadata)
	if err != nil {
		return fmt.Errorf("activity: marshal metadata: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO activity_events (id, warehouse_id, actor_id, verb, entity_type, entity_id, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, idgen.NewID(), ev.WarehouseID, ev.ActorID, ev.Verb, ev.EntityType, ev.EntityID, metadataJSON, store.FormatTime(now))
	if err != nil {
		return fmt.Errorf("activity: insert: %w", err)
	}
	return nil
}

// List returns the most recent events for warehouseID, newest first.
func List(ctx context.Context, db store.DBTX, warehouseID string, limit int) ([]Event, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT warehouse_id, actor_id, verb, entity_type, entity_id, metadata_json
		FROM activity_events
		WHERE warehouse_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, warehouseID, limit)
	if err != nil {
		return nil, fmt.Errorf("activity: list: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		var metadataJSON string
		if err := rows.Scan(&ev.WarehouseID, &ev.ActorID, &ev.Verb, &ev.EntityType, &ev.EntityID, &metadataJSON); err != nil {
			return nil, fmt.Errorf("activity: scan: %w", err)
		}
		ev.Metadata, err = store.UnmarshalPayload(metadataJSON)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
