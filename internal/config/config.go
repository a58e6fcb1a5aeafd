// Package config loads the frozen configuration record the rest of the
// system is built from (spec.md §6, §9 "Global mutable settings").
//
// Values come from the environment with an optional YAML overlay file
// (gopkg.in/yaml.v3, the teacher's declared config-parsing dependency),
// loaded once at startup and passed by value thereafter — never mutated.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the immutable, startup-built configuration record named in spec.md §6.
type Config struct {
	DatabaseURL         string `yaml:"database_url"`
	JWTSecret           string `yaml:"jwt_secret"`
	JWTAlgorithm        string `yaml:"jwt_algorithm"`
	AccessTokenMinutes  int    `yaml:"access_token_minutes"`
	RefreshTokenDays    int    `yaml:"refresh_token_days"`
	FrontendURL         string `yaml:"frontend_url"`
	SecretEncryptionKey string `yaml:"secret_encryption_key"`
	APIV1Prefix         string `yaml:"api_v1_prefix"`
	ListenAddr          string `yaml:"listen_addr"`
}

// defaults returns a Config pre-populated with the values used when neither
// the environment nor the overlay file supply one.
func defaults() Config {
	return Config{
		DatabaseURL:        "warehouse.db",
		JWTAlgorithm:       "HS256",
		AccessTokenMinutes: 15,
		RefreshTokenDays:   30,
		FrontendURL:        "http://localhost:3000",
		APIV1Prefix:        "/api/v1",
		ListenAddr:         ":8080",
	}
}

// Load builds a Config from defaults, an optional YAML overlay at
// overlayPath (skipped if the file does not exist), and environment
// variables (highest precedence).
func Load(overlayPath string) (Config, error) {
	cfg := defaults()

	if overlayPath != "" {
		if data, err := os.ReadFile(overlayPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse overlay %s: %w", overlayPath, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: read overlay %s: %w", overlayPath, err)
		}
	}

	applyEnv(&cfg)

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("config: jwt_secret is required")
	}
	if cfg.SecretEncryptionKey == "" {
		return Config{}, fmt.Errorf("config: secret_encryption_key is required")
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.JWTAlgorithm, "JWT_ALGORITHM")
	setString(&cfg.FrontendURL, "FRONTEND_URL")
	setString(&cfg.SecretEncryptionKey, "SECRET_ENCRYPTION_KEY")
	setString(&cfg.APIV1Prefix, "API_V1_PREFIX")
	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	setInt(&cfg.AccessTokenMinutes, "ACCESS_TOKEN_MINUTES")
	setInt(&cfg.RefreshTokenDays, "REFRESH_TOKEN_DAYS")
}

func setString(field *string, envKey string) {
	if v, ok := os.LookupEnv(envKey); ok && v != "" {
		*field = v
	}
}

func setInt(field *int, envKey string) {
	if v, ok := os.LookupEnv(envKey); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*field = n
		}
	}
}
