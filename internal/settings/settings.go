// Package settings stores the per-warehouse SMTP and LLM integration
// settings named in spec.md §6: encrypted at rest via internal/secretcrypt,
// masked on every read. Actually sending mail or calling an LLM provider
// is the out-of-scope external-collaborator surface spec.md §1 excludes;
// this package only owns the encrypted-storage half.
package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/raimangsxr/my-warehouse/internal/secretcrypt"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

// Manager reads and writes encrypted integration settings through a Box
// derived once at startup from config.SecretEncryptionKey + config.JWTSecret.
type Manager struct {
	box *secretcrypt.Box
}

// New builds a Manager from a derived encryption key.
func New(box *secretcrypt.Box) *Manager {
	return &Manager{box: box}
}

// SMTPSetting is the masked, caller-visible view of a warehouse's outbound
// mail settings: the password is never returned in the clear.
type SMTPSetting struct {
	WarehouseID string
	Host        string
	Port        int
	Username    string
}

// PutSMTP encrypts password and upserts the warehouse's SMTP settings.
func (m *Manager) PutSMTP(ctx context.Context, db store.DBTX, warehouseID, host string, port int, username, password string, now time.Time) error {
	sealed, err := m.box.Seal([]byte(password))
	if err != nil {
		return fmt.Errorf("settings: seal smtp password: %w", err)
	}
	return upsertSMTPSetting(ctx, db, warehouseID, host, port, username, sealed, now)
}

// GetSMTP returns the masked settings for warehouseID, or ok=false if unset.
func (m *Manager) GetSMTP(ctx context.Context, db store.DBTX, warehouseID string) (SMTPSetting, bool, error) {
	row, ok, err := smtpSettingByWarehouse(ctx, db, warehouseID)
	if err != nil || !ok {
		return SMTPSetting{}, false, err
	}
	return SMTPSetting{WarehouseID: row.WarehouseID, Host: row.Host, Port: row.Port, Username: row.Username}, true, nil
}

// LLMSetting is the masked, caller-visible view of a warehouse's LLM
// integration: the API key is never returned in the clear.
type LLMSetting struct {
	WarehouseID string
	Provider    string
}

// PutLLM encrypts apiKey and upserts the warehouse's LLM settings.
func (m *Manager) PutLLM(ctx context.Context, db store.DBTX, warehouseID, provider, apiKey string, now time.Time) error {
	sealed, err := m.box.Seal([]byte(apiKey))
	if err != nil {
		return fmt.Errorf("settings: seal llm api key: %w", err)
	}
	return upsertLLMSetting(ctx, db, warehouseID, provider, sealed, now)
}

// GetLLM returns the masked settings for warehouseID, or ok=false if unset.
func (m *Manager) GetLLM(ctx context.Context, db store.DBTX, warehouseID string) (LLMSetting, bool, error) {
	row, ok, err := llmSettingByWarehouse(ctx, db, warehouseID)
	if err != nil || !ok {
		return LLMSetting{}, false, err
	}
	return LLMSetting{WarehouseID: row.WarehouseID, Provider: row.Provider}, true, nil
}
