// Package authsvc is the thin glue between HTTP and the external-collaborator
// surfaces spec.md §1 names but does not detail: signup/login session
// issuance and warehouse creation. It exists only so the consistency engine
// documented in spec.md §4 has a caller to drive it through — grounded on
// the teacher's internal/cli minimal-wiring style (one small package per
// concern, no framework).
package authsvc

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/raimangsxr/my-warehouse/internal/apierror"
	"github.com/raimangsxr/my-warehouse/internal/authtoken"
	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/idgen"
	"github.com/raimangsxr/my-warehouse/internal/membership"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

// resetTokenTTL is how long a password-reset token remains usable.
const resetTokenTTL = 1 * time.Hour

// Manager implements signup, login, token refresh, password reset and
// warehouse creation.
type Manager struct {
	issuer          *authtoken.Issuer
	refreshTokenTTL time.Duration
	membership      *membership.Manager
}

// New returns an auth Manager. refreshTokenDays is config.Config.RefreshTokenDays.
func New(issuer *authtoken.Issuer, refreshTokenDays int, membershipMgr *membership.Manager) *Manager {
	return &Manager{
		issuer:          issuer,
		refreshTokenTTL: time.Duration(refreshTokenDays) * 24 * time.Hour,
		membership:      membershipMgr,
	}
}

// Session is the pair of tokens returned by signup/login/refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
}

// Signup creates a new User with a lower-cased, unique email. Duplicate
// email is a 409 conflict (spec.md §7).
func (m *Manager) Signup(ctx context.Context, db store.DBTX, email, password string, now time.Time) (domain.User, error) {
	email = normalizeEmail(email)

	taken, err := emailTaken(ctx, db, email)
	if err != nil {
		return domain.User{}, err
	}
	if taken {
		return domain.User{}, apierror.New(apierror.KindConflict, "email already registered")
	}

	hash, err := authtoken.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("authsvc: hash password: %w", err)
	}

	user := domain.User{
		ID:           idgen.NewID(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
	}
	if err := insertUser(ctx, db, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Login verifies email/password and issues a fresh access+refresh session.
func (m *Manager) Login(ctx context.Context, db store.DBTX, email, password string, now time.Time) (Session, error) {
	user, err := userByEmail(ctx, db, normalizeEmail(email))
	if err == sql.ErrNoRows {
		return Session{}, apierror.New(apierror.KindUnauthenticated, "invalid email or password")
	}
	if err != nil {
		return Session{}, err
	}
	if !authtoken.CheckPassword(user.PasswordHash, password) {
		return Session{}, apierror.New(apierror.KindUnauthenticated, "invalid email or password")
	}
	return m.issueSession(ctx, db, user.ID, now)
}

// Refresh rotates a refresh token: the presented token is revoked and a
// fresh access+refresh pair is issued, so a stolen-then-reused token is
// detectable (the legitimate holder's next refresh will fail).
func (m *Manager) Refresh(ctx context.Context, db store.DBTX, refreshToken string, now time.Time) (Session, error) {
	rec, err := refreshTokenByHash(ctx, db, idgen.HashRefreshToken(refreshToken))
	if err == sql.ErrNoRows {
		return Session{}, apierror.New(apierror.KindUnauthenticated, "invalid refresh token")
	}
	if err != nil {
		return Session{}, err
	}
	if rec.RevokedAt != nil || now.After(rec.ExpiresAt) {
		return Session{}, apierror.New(apierror.KindUnauthenticated, "invalid refresh token")
	}
	if err := revokeRefreshToken(ctx, db, rec.JTI, now); err != nil {
		return Session{}, err
	}
	return m.issueSession(ctx, db, rec.UserID, now)
}

func (m *Manager) issueSession(ctx context.Context, db store.DBTX, userID string, now time.Time) (Session, error) {
	access, err := m.issuer.IssueAccessToken(userID, now)
	if err != nil {
		return Session{}, fmt.Errorf("authsvc: issue access token: %w", err)
	}

	plain, err := idgen.NewOpaqueToken()
	if err != nil {
		return Session{}, fmt.Errorf("authsvc: issue refresh token: %w", err)
	}
	rt := domain.RefreshToken{
		JTI:       idgen.NewID(),
		UserID:    userID,
		TokenHash: idgen.HashRefreshToken(plain),
		ExpiresAt: now.Add(m.refreshTokenTTL),
		CreatedAt: now,
	}
	if err := insertRefreshToken(ctx, db, rt); err != nil {
		return Session{}, err
	}

	return Session{AccessToken: access, RefreshToken: plain}, nil
}

// CreateWarehouse creates a warehouse owned by userID and grants userID
// membership in it (spec.md §8 scenario S1).
func (m *Manager) CreateWarehouse(ctx context.Context, db store.DBTX, userID, name string, now time.Time) (domain.Warehouse, error) {
	if name == "" {
		return domain.Warehouse{}, apierror.InvalidInput("name is required")
	}
	wh := domain.Warehouse{
		ID:        idgen.NewID(),
		Name:      name,
		CreatedBy: userID,
		CreatedAt: now,
	}
	if err := insertWarehouse(ctx, db, wh); err != nil {
		return domain.Warehouse{}, err
	}
	if err := m.membership.AddMember(ctx, db, userID, wh.ID, now); err != nil {
		return domain.Warehouse{}, err
	}
	return wh, nil
}

// RequestPasswordReset mints a fresh reset token for the user owning email,
// persisting only its hash (spec.md §6). The plaintext token is returned
// once, for the caller to deliver out-of-band — SMTP delivery is the same
// out-of-scope external collaborator as invite email (membership.CreateInvite).
func (m *Manager) RequestPasswordReset(ctx context.Context, db store.DBTX, email string, now time.Time) (string, error) {
	user, err := userByEmail(ctx, db, normalizeEmail(email))
	if err == sql.ErrNoRows {
		return "", apierror.NotFound("user")
	}
	if err != nil {
		return "", err
	}

	token, err := idgen.NewOpaqueToken()
	if err != nil {
		return "", fmt.Errorf("authsvc: request password reset: %w", err)
	}
	rec := domain.PasswordResetToken{
		ID:        idgen.NewID(),
		UserID:    user.ID,
		TokenHash: idgen.HashResetToken(token),
		ExpiresAt: now.Add(resetTokenTTL),
		CreatedAt: now,
	}
	if err := insertPasswordResetToken(ctx, db, rec); err != nil {
		return "", err
	}
	return token, nil
}

// ConfirmPasswordReset verifies token against its stored hash, checks
// expiry and single-use, then replaces the user's password hash.
func (m *Manager) ConfirmPasswordReset(ctx context.Context, db store.DBTX, token, newPassword string, now time.Time) error {
	rec, err := passwordResetTokenByHash(ctx, db, idgen.HashResetToken(token))
	if err == sql.ErrNoRows {
		return apierror.New(apierror.KindUnauthenticated, "invalid reset token")
	}
	if err != nil {
		return err
	}
	if rec.UsedAt != nil || now.After(rec.ExpiresAt) {
		return apierror.New(apierror.KindUnauthenticated, "invalid reset token")
	}

	hash, err := authtoken.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("authsvc: hash password: %w", err)
	}
	if err := updateUserPasswordHash(ctx, db, rec.UserID, hash); err != nil {
		return err
	}
	return markPasswordResetTokenUsed(ctx, db, rec.ID, now)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
