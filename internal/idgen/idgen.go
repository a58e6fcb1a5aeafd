// Package idgen generates entity identifiers, box QR tokens/short codes,
// and hashes secrets intended for storage.
//
// The domain-separated hashing scheme is grounded on the teacher's
// internal/ir/hash.go (content-addressed IDs via SHA-256 with a domain
// prefix and a null-byte separator); it is reused here for hashing refresh
// and reset tokens before they are persisted, per spec.md §6.
package idgen

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewID returns a fresh v4 UUID string, used for every entity primary key.
func NewID() string {
	return uuid.NewString()
}

// QRTokenBytes is the entropy size (in bytes) of a box's qr_token, per spec.md §4.1.
const QRTokenBytes = 24

// NewQRToken returns a URL-safe, base64-encoded random token with at least
// QRTokenBytes of entropy. Uniqueness is enforced by the boxes(qr_token unique)
// index; callers must retry generation on a collision (practically never).
func NewQRToken() (string, error) {
	buf := make([]byte, QRTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate qr token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

const shortCodeHexChars = 6

// NewShortCode returns a human-readable, low-collision identifier of the
// form "BX-HHHHHH" (6 uppercase hex chars from fresh entropy).
func NewShortCode() (string, error) {
	buf := make([]byte, (shortCodeHexChars+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate short code: %w", err)
	}
	hexStr := strings.ToUpper(hex.EncodeToString(buf))[:shortCodeHexChars]
	return "BX-" + hexStr, nil
}

// domain prefixes for content-addressed hashing of stored secrets.
const (
	domainRefreshToken = "warehouse/refresh-token/v1"
	domainResetToken   = "warehouse/reset-token/v1"
	domainInviteToken  = "warehouse/invite-token/v1"
)

// hashWithDomain computes SHA-256 hex digest with domain separation:
// SHA256(domain + 0x00 + data). The null byte prevents domain/data boundary
// ambiguity between two differently-named tokens that happen to share bytes.
func hashWithDomain(domain, data string) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// NewOpaqueToken returns a URL-safe random token suitable for refresh/reset/invite
// tokens, which are only ever persisted as a hash (spec.md §6).
func NewOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate opaque token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashRefreshToken hashes a plaintext refresh token for storage.
func HashRefreshToken(token string) string { return hashWithDomain(domainRefreshToken, token) }

// HashResetToken hashes a plaintext password-reset token for storage.
func HashResetToken(token string) string { return hashWithDomain(domainResetToken, token) }

// HashInviteToken hashes a plaintext invite token for storage.
func HashInviteToken(token string) string { return hashWithDomain(domainInviteToken, token) }

// MaskSecret renders a secret as first-2 + '*' * (len-4) + last-2, per spec.md §6.
// Secrets of length < 4 are fully masked to avoid leaking content.
func MaskSecret(secret string) string {
	if len(secret) < 4 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:2] + strings.Repeat("*", len(secret)-4) + secret[len(secret)-2:]
}
