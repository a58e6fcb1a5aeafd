package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATABASE_URL", "JWT_SECRET", "JWT_ALGORITHM", "FRONTEND_URL",
		"SECRET_ENCRYPTION_KEY", "API_V1_PREFIX", "LISTEN_ADDR",
		"ACCESS_TOKEN_MINUTES", "REFRESH_TOKEN_DAYS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_ENCRYPTION_KEY", "enc-key")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_RequiresSecretEncryptionKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "jwt-secret")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_DefaultsApplied(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "jwt-secret")
	t.Setenv("SECRET_ENCRYPTION_KEY", "enc-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warehouse.db", cfg.DatabaseURL)
	assert.Equal(t, "HS256", cfg.JWTAlgorithm)
	assert.Equal(t, 15, cfg.AccessTokenMinutes)
	assert.Equal(t, 30, cfg.RefreshTokenDays)
	assert.Equal(t, "/api/v1", cfg.APIV1Prefix)
	assert.Equal(t, ":8080", cfg.ListenAddr)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "jwt-secret")
	t.Setenv("SECRET_ENCRYPTION_KEY", "enc-key")
	t.Setenv("DATABASE_URL", "/tmp/custom.db")
	t.Setenv("ACCESS_TOKEN_MINUTES", "60")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.db", cfg.DatabaseURL)
	assert.Equal(t, 60, cfg.AccessTokenMinutes)
}

func TestLoad_OverlayFileAppliedThenEnvWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "jwt-secret")

	dir := t.TempDir()
	overlay := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(overlay, []byte("secret_encryption_key: from-overlay\napi_v1_prefix: /v2\n"), 0o644))

	cfg, err := Load(overlay)
	require.NoError(t, err)
	assert.Equal(t, "from-overlay", cfg.SecretEncryptionKey)
	assert.Equal(t, "/v2", cfg.APIV1Prefix)

	t.Setenv("API_V1_PREFIX", "/v3")
	cfg, err = Load(overlay)
	require.NoError(t, err)
	assert.Equal(t, "/v3", cfg.APIV1Prefix, "env takes precedence over overlay")
}

func TestLoad_MissingOverlayFileIsNotAnError(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "jwt-secret")
	t.Setenv("SECRET_ENCRYPTION_KEY", "enc-key")

	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.NoError(t, err)
}
