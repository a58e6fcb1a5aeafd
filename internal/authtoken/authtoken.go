// Package authtoken issues and verifies access JWTs and hashes user
// passwords. The JWT library choice (golang-jwt/jwt/v4) is grounded on
// AKJUS-bsc-erigon's go.mod, which uses it for engine-API bearer auth.
package authtoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the JWT payload for an access token: spec.md §6,
// {sub=user_id, type="access", iat, exp}.
type Claims struct {
	Subject string `json:"sub"`
	Type    string `json:"type"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies access tokens with a single HMAC secret.
type Issuer struct {
	secret        []byte
	accessTTL     time.Duration
}

// NewIssuer builds an Issuer. accessMinutes is the access token lifetime
// from config (spec.md §6 access_token_minutes).
func NewIssuer(secret string, accessMinutes int) *Issuer {
	return &Issuer{
		secret:    []byte(secret),
		accessTTL: time.Duration(accessMinutes) * time.Minute,
	}
}

// IssueAccessToken signs a new access JWT for userID.
func (i *Issuer) IssueAccessToken(userID string, now time.Time) (string, error) {
	claims := Claims{
		Subject: userID,
		Type:    "access",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return signed, nil
}

// ErrInvalidToken is returned for any unparseable, unsigned, expired, or
// wrong-typed token, so callers never need to distinguish jwt-internal cases.
var ErrInvalidToken = errors.New("authtoken: invalid or expired token")

// VerifyAccessToken parses and validates an access JWT, returning the subject user id.
func (i *Issuer) VerifyAccessToken(raw string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Type != "access" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// HashPassword bcrypt-hashes a plaintext password for storage as User.PasswordHash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
