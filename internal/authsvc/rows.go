package authsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

func emailTaken(ctx context.Context, db store.DBTX, email string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("authsvc: email taken: %w", err)
	}
	return n > 0, nil
}

func insertUser(ctx context.Context, db store.DBTX, u domain.User) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, display_name, created_at) VALUES (?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.PasswordHash, u.DisplayName, store.FormatTime(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("authsvc: insert user: %w", err)
	}
	return nil
}

func userByEmail(ctx context.Context, db store.DBTX, email string) (domain.User, error) {
	var (
		u         domain.User
		createdAt string
	)
	err := db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, display_name, created_at FROM users WHERE email = ?
	`, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &createdAt)
	if err != nil {
		return domain.User{}, err
	}
	if u.CreatedAt, err = store.ParseTime(createdAt); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func insertWarehouse(ctx context.Context, db store.DBTX, w domain.Warehouse) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO warehouses (id, name, created_by, created_at) VALUES (?, ?, ?, ?)
	`, w.ID, w.Name, w.CreatedBy, store.FormatTime(w.CreatedAt))
	if err != nil {
		return fmt.Errorf("authsvc: insert warehouse: %w", err)
	}
	return nil
}

func insertRefreshToken(ctx context.Context, db store.DBTX, rt domain.RefreshToken) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (jti, user_id, token_hash, expires_at, revoked_at, created_at) VALUES (?, ?, ?, ?, ?, ?)
	`, rt.JTI, rt.UserID, rt.TokenHash, store.FormatTime(rt.ExpiresAt), store.FormatTimePtr(rt.RevokedAt), store.FormatTime(rt.CreatedAt))
	if err != nil {
		return fmt.Errorf("authsvc: insert refresh token: %w", err)
	}
	return nil
}

func refreshTokenByHash(ctx context.Context, db store.DBTX, tokenHash string) (domain.RefreshToken, error) {
	var (
		rt         domain.RefreshToken
		expiresAt  string
		revokedAt  *string
		createdAt  string
	)
	err := db.QueryRowContext(ctx, `
		SELECT jti, user_id, token_hash, expires_at, revoked_at, created_at FROM refresh_tokens WHERE token_hash = ?
	`, tokenHash).Scan(&rt.JTI, &rt.UserID, &rt.TokenHash, &expiresAt, &revokedAt, &createdAt)
	if err != nil {
		return domain.RefreshToken{}, err
	}
	if rt.ExpiresAt, err = store.ParseTime(expiresAt); err != nil {
		return domain.RefreshToken{}, err
	}
	if rt.RevokedAt, err = store.ParseTimePtr(revokedAt); err != nil {
		return domain.RefreshToken{}, err
	}
	if rt.CreatedAt, err = store.ParseTime(createdAt); err != nil {
		return domain.RefreshToken{}, err
	}
	return rt, nil
}

func revokeRefreshToken(ctx context.Context, db store.DBTX, jti string, now time.Time) error {
	_, err := db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked_at = ? WHERE jti = ?`, store.FormatTime(now), jti)
	if err != nil {
		return fmt.Errorf("authsvc: revoke refresh token: %w", err)
	}
	return nil
}

func insertPasswordResetToken(ctx context.Context, db store.DBTX, rec domain.PasswordResetToken) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO password_reset_tokens (id, user_id, token_hash, expires_at, used_at, created_at) VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.UserID, rec.TokenHash, store.FormatTime(rec.ExpiresAt), store.FormatTimePtr(rec.UsedAt), store.FormatTime(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("authsvc: insert password reset token: %w", err)
	}
	return nil
}

func passwordResetTokenByHash(ctx context.Context, db store.DBTX, tokenHash string) (domain.PasswordResetToken, error) {
	var (
		rec       domain.PasswordResetToken
		expiresAt string
		usedAt    *string
		createdAt string
	)
	err := db.QueryRowContext(ctx, `
		SELECT id, user_id, token_hash, expires_at, used_at, created_at FROM password_reset_tokens WHERE token_hash = ?
	`, tokenHash).Scan(&rec.ID, &rec.UserID, &rec.TokenHash, &expiresAt, &usedAt, &createdAt)
	if err != nil {
		return domain.PasswordResetToken{}, err
	}
	if rec.ExpiresAt, err = store.ParseTime(expiresAt); err != nil {
		return domain.PasswordResetToken{}, err
	}
	if rec.UsedAt, err = store.ParseTimePtr(usedAt); err != nil {
		return domain.PasswordResetToken{}, err
	}
	if rec.CreatedAt, err = store.ParseTime(createdAt); err != nil {
		return domain.PasswordResetToken{}, err
	}
	return rec, nil
}

func markPasswordResetTokenUsed(ctx context.Context, db store.DBTX, id string, now time.Time) error {
	_, err := db.ExecContext(ctx, `UPDATE password_reset_tokens SET used_at = ? WHERE id = ?`, store.FormatTime(now), id)
	if err != nil {
		return fmt.Errorf("authsvc: mark password reset token used: %w", err)
	}
	return nil
}

func updateUserPasswordHash(ctx context.Context, db store.DBTX, userID, passwordHash string) error {
	_, err := db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("authsvc: update user password hash: %w", err)
	}
	return nil
}
