package membership

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

const inviteSelectColumns = `id, warehouse_id, email, token_hash, invited_by, created_at, expires_at, accepted_at`

func scanInvite(row interface {
	Scan(dest ...any) error
}) (domain.Invite, error) {
	var (
		inv        domain.Invite
		createdAt  string
		expiresAt  string
		acceptedAt *string
	)
	err := row.Scan(&inv.ID, &inv.WarehouseID, &inv.Email, &inv.TokenHash, &inv.InvitedBy,
		&createdAt, &expiresAt, &acceptedAt)
	if err != nil {
		return domain.Invite{}, err
	}
	if inv.CreatedAt, err = store.ParseTime(createdAt); err != nil {
		return domain.Invite{}, err
	}
	if inv.ExpiresAt, err = store.ParseTime(expiresAt); err != nil {
		return domain.Invite{}, err
	}
	if inv.AcceptedAt, err = store.ParseTimePtr(acceptedAt); err != nil {
		return domain.Invite{}, err
	}
	return inv, nil
}

func inviteByTokenHash(ctx context.Context, db store.DBTX, tokenHash string) (domain.Invite, error) {
	row := db.QueryRowContext(ctx, `SELECT `+inviteSelectColumns+` FROM invites WHERE token_hash = ?`, tokenHash)
	inv, err := scanInvite(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Invite{}, sql.ErrNoRows
		}
		return domain.Invite{}, fmt.Errorf("membership: invite by token hash: %w", err)
	}
	return inv, nil
}

func markInviteAccepted(ctx context.Context, db store.DBTX, inviteID string, now time.Time) error {
	_, err := db.ExecContext(ctx, `UPDATE invites SET accepted_at = ? WHERE id = ?`, store.FormatTime(now), inviteID)
	if err != nil {
		return fmt.Errorf("membership: mark invite accepted: %w", err)
	}
	return nil
}
