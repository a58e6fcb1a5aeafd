// Package membership implements warehouse membership and invite
// acceptance. Named in spec.md §3 ("Invite ... see §6") but not detailed
// there; grounded on original_source/app/api/v1/endpoints/warehouses.py's
// invite-then-accept flow (see SPEC_FULL.md §4). SMTP delivery of the
// invite email is an out-of-scope external collaborator; only the token
// lifecycle and the resulting Membership row are implemented here.
package membership

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/raimangsxr/my-warehouse/internal/apierror"
	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/idgen"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

// inviteTTL is how long an invite token remains acceptable.
const inviteTTL = 7 * 24 * time.Hour

// Manager implements membership and invite operations.
type Manager struct{}

// New returns a membership Manager.
func New() *Manager {
	return &Manager{}
}

// IsMember reports whether userID has access to warehouseID — presence in
// the memberships table is the entire access grant (spec.md §3).
func (m *Manager) IsMember(ctx context.Context, db store.DBTX, userID, warehouseID string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memberships WHERE user_id = ? AND warehouse_id = ?`, userID, warehouseID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("membership: is member: %w", err)
	}
	return n > 0, nil
}

// RequireMember returns apierror.Forbidden if userID is not a member of
// warehouseID.
func (m *Manager) RequireMember(ctx context.Context, db store.DBTX, userID, warehouseID string) error {
	ok, err := m.IsMember(ctx, db, userID, warehouseID)
	if err != nil {
		return err
	}
	if !ok {
		return apierror.Forbidden("not a member of this warehouse")
	}
	return nil
}

// AddMember grants userID access to warehouseID, idempotently.
func (m *Manager) AddMember(ctx context.Context, db store.DBTX, userID, warehouseID string, now time.Time) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO memberships (user_id, warehouse_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id, warehouse_id) DO NOTHING
	`, userID, warehouseID, store.FormatTime(now))
	if err != nil {
		return fmt.Errorf("membership: add member: %w", err)
	}
	return nil
}

// CreateInvite mints a fresh invite token for email to join warehouseID,
// persisting only its hash (spec.md §6). The plaintext token is returned
// once, for the caller to deliver out-of-band (email/SMTP is out of
// scope, per spec.md §1).
func (m *Manager) CreateInvite(ctx context.Context, db store.DBTX, warehouseID, email, invitedBy string, now time.Time) (token string, invite domain.Invite, err error) {
	token, err = idgen.NewOpaqueToken()
	if err != nil {
		return "", domain.Invite{}, fmt.Errorf("membership: create invite: %w", err)
	}

	invite = domain.Invite{
		ID:          idgen.NewID(),
		WarehouseID: warehouseID,
		Email:       email,
		TokenHash:   idgen.HashInviteToken(token),
		InvitedBy:   invitedBy,
		CreatedAt:   now,
		ExpiresAt:   now.Add(inviteTTL),
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO invites (id, warehouse_id, email, token_hash, invited_by, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, invite.ID, invite.WarehouseID, invite.Email, invite.TokenHash, invite.InvitedBy,
		store.FormatTime(invite.CreatedAt), store.FormatTime(invite.ExpiresAt))
	if err != nil {
		return "", domain.Invite{}, fmt.Errorf("membership: insert invite: %w", err)
	}
	return token, invite, nil
}

// AcceptInvite verifies token against its stored hash, checks expiry and
// that the accepting user's email matches the invite, then grants
// membership and stamps accepted_at.
func (m *Manager) AcceptInvite(ctx context.Context, db store.DBTX, token, acceptingUserID, acceptingEmail string, now time.Time) (domain.Invite, error) {
	invite, err := inviteByTokenHash(ctx, db, idgen.HashInviteToken(token))
	if err == sql.ErrNoRows {
		return domain.Invite{}, apierror.NotFound("invite")
	}
	if err != nil {
		return domain.Invite{}, fmt.Errorf("membership: accept invite: %w", err)
	}
	if invite.AcceptedAt != nil {
		return invite, nil
	}
	if now.After(invite.ExpiresAt) {
		return domain.Invite{}, apierror.InvalidInput("invite has expired")
	}
	if invite.Email != acceptingEmail {
		return domain.Invite{}, apierror.Forbidden("invite email does not match caller")
	}

	if err := m.AddMember(ctx, db, acceptingUserID, invite.WarehouseID, now); err != nil {
		return domain.Invite{}, err
	}
	if err := markInviteAccepted(ctx, db, invite.ID, now); err != nil {
		return domain.Invite{}, err
	}
	invite.AcceptedAt = &now
	return invite, nil
}
