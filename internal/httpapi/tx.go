package httpapi

import (
	"context"
	"database/sql"
	"fmt"
)

// withTx runs fn inside a fresh transaction, committing on success and
// rolling back otherwise — the "one transaction per request" model of
// spec.md §5.
func (s *Server) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("httpapi: begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("httpapi: commit transaction: %w", err)
	}
	return nil
}
