package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SettingWhisperModel names the transcription model setting.
const SettingWhisperModel = "whisper_model"

// GetSetting returns the stored value and whether the key exists.
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	ctx = ensureContext(ctx)
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetSetting upserts a setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key,
		value,
		nowString(),
	); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// EnsureSetting stores value only when the key is absent and returns the
// effective value.
func (s *Store) EnsureSetting(ctx context.Context, key, value string) (string, error) {
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO NOTHING`,
		key,
		value,
		nowString(),
	); err != nil {
		return "", fmt.Errorf("seed setting %s: %w", key, err)
	}
	current, _, err := s.GetSetting(ctx, key)
	return current, err
}
