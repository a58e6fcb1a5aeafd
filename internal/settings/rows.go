package settings

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

func upsertSMTPSetting(ctx context.Context, db store.DBTX, warehouseID, host string, port int, username string, encryptedPass []byte, now time.Time) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO smtp_settings (warehouse_id, host, port, username, encrypted_pass, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(warehouse_id) DO UPDATE SET
			host = excluded.host,
			port = excluded.port,
			username = excluded.username,
			encrypted_pass = excluded.encrypted_pass
	`, warehouseID, host, port, username, encryptedPass, store.FormatTime(now))
	if err != nil {
		return fmt.Errorf("settings: upsert smtp: %w", err)
	}
	return nil
}

func smtpSettingByWarehouse(ctx context.Context, db store.DBTX, warehouseID string) (domain.SMTPSetting, bool, error) {
	var row domain.SMTPSetting
	var createdAt string
	err := db.QueryRowContext(ctx, `
		SELECT warehouse_id, host, port, username, encrypted_pass, created_at
		FROM smtp_settings WHERE warehouse_id = ?
	`, warehouseID).Scan(&row.WarehouseID, &row.Host, &row.Port, &row.Username, &row.EncryptedPass, &createdAt)
	if err == sql.ErrNoRows {
		return domain.SMTPSetting{}, false, nil
	}
	if err != nil {
		return domain.SMTPSetting{}, false, fmt.Errorf("settings: query smtp: %w", err)
	}
	row.CreatedAt, err = store.ParseTime(createdAt)
	if err != nil {
		return domain.SMTPSetting{}, false, err
	}
	return row, true, nil
}

func upsertLLMSetting(ctx context.Context, db store.DBTX, warehouseID, provider string, encryptedKey []byte, now time.Time) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO llm_settings (warehouse_id, provider, encrypted_key, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(warehouse_id) DO UPDATE SET
			provider = excluded.provider,
			encrypted_key = excluded.encrypted_key
	`, warehouseID, provider, encryptedKey, store.FormatTime(now))
	if err != nil {
		return fmt.Errorf("settings: upsert llm: %w", err)
	}
	return nil
}

func llmSettingByWarehouse(ctx context.Context, db store.DBTX, warehouseID string) (domain.LLMSetting, bool, error) {
	var row domain.LLMSetting
	var createdAt string
	err := db.QueryRowContext(ctx, `
		SELECT warehouse_id, provider, encrypted_key, created_at
		FROM llm_settings WHERE warehouse_id = ?
	`, warehouseID).Scan(&row.WarehouseID, &row.Provider, &row.EncryptedKey, &createdAt)
	if err == sql.ErrNoRows {
		return domain.LLMSetting{}, false, nil
	}
	if err != nil {
		return domain.LLMSetting{}, false, fmt.Errorf("settings: query llm: %w", err)
	}
	row.CreatedAt, err = store.ParseTime(createdAt)
	if err != nil {
		return domain.LLMSetting{}, false, err
	}
	return row, true, nil
}
