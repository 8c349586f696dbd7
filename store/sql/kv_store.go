package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-platform/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PluginKVStore persists plugin-scoped key/value pairs. Values are stored as
// JSON so plugins can keep structured settings without owning tables.
type PluginKVStore struct {
	db *bun.DB
}

func NewPluginKVStore(db *bun.DB) (*PluginKVStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &PluginKVStore{db: db}, nil
}

func (s *PluginKVStore) GetValue(ctx context.Context, pluginID, key string) (any, error) {
	record, err := s.find(ctx, pluginID, key)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	if len(record.Value) == 0 {
		return nil, nil
	}
	var value any
	if err := json.Unmarshal(record.Value, &value); err != nil {
		return nil, fmt.Errorf("sqlstore: decode value for %s/%s: %w", pluginID, key, err)
	}
	return value, nil
}

func (s *PluginKVStore) SetValue(ctx context.Context, pluginID, key string, value any) error {
	pluginID, key, err := s.requireKey(pluginID, key)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("sqlstore: encode value for %s/%s: %w", pluginID, key, err)
	}

	now := time.Now().UTC()
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := &pluginValueRecord{}
		getErr := tx.NewSelect().
			Model(existing).
			Where("?TableAlias.plugin_id = ?", pluginID).
			Where("?TableAlias.key = ?", key).
			Limit(1).
			Scan(ctx)
		switch {
		case getErr == nil:
			existing.Value = payload
			existing.UpdatedAt = now
			_, updateErr := tx.NewUpdate().
				Model(existing).
				Where("id = ?", existing.ID).
				Exec(ctx)
			return updateErr
		case errors.Is(getErr, sql.ErrNoRows):
			record := &pluginValueRecord{
				ID:        uuid.NewString(),
				PluginID:  pluginID,
				Key:       key,
				Value:     payload,
				CreatedAt: now,
				UpdatedAt: now,
			}
			_, insertErr := tx.NewInsert().Model(record).Exec(ctx)
			return insertErr
		default:
			return getErr
		}
	})
}

func (s *PluginKVStore) DeleteValue(ctx context.Context, pluginID, key string) error {
	pluginID, key, err := s.requireKey(pluginID, key)
	if err != nil {
		return err
	}
	_, err = s.db.NewDelete().
		Model((*pluginValueRecord)(nil)).
		Where("plugin_id = ?", pluginID).
		Where("key = ?", key).
		Exec(ctx)
	return err
}

func (s *PluginKVStore) HasValue(ctx context.Context, pluginID, key string) (bool, error) {
	record, err := s.find(ctx, pluginID, key)
	if err != nil {
		return false, err
	}
	return record != nil, nil
}

func (s *PluginKVStore) ListKeys(ctx context.Context, pluginID string) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: plugin kv store is not configured")
	}
	pluginID = strings.TrimSpace(pluginID)
	if pluginID == "" {
		return nil, fmt.Errorf("sqlstore: plugin id is required")
	}
	keys := []string{}
	err := s.db.NewSelect().
		Model((*pluginValueRecord)(nil)).
		Column("key").
		Where("plugin_id = ?", pluginID).
		OrderExpr("key ASC").
		Scan(ctx, &keys)
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *PluginKVStore) ClearValues(ctx context.Context, pluginID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: plugin kv store is not configured")
	}
	pluginID = strings.TrimSpace(pluginID)
	if pluginID == "" {
		return fmt.Errorf("sqlstore: plugin id is required")
	}
	_, err := s.db.NewDelete().
		Model((*pluginValueRecord)(nil)).
		Where("plugin_id = ?", pluginID).
		Exec(ctx)
	return err
}

func (s *PluginKVStore) find(ctx context.Context, pluginID, key string) (*pluginValueRecord, error) {
	pluginID, key, err := s.requireKey(pluginID, key)
	if err != nil {
		return nil, err
	}
	record := &pluginValueRecord{}
	err = s.db.NewSelect().
		Model(record).
		Where("?TableAlias.plugin_id = ?", pluginID).
		Where("?TableAlias.key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func (s *PluginKVStore) requireKey(pluginID, key string) (string, string, error) {
	if s == nil || s.db == nil {
		return "", "", fmt.Errorf("sqlstore: plugin kv store is not configured")
	}
	pluginID = strings.TrimSpace(pluginID)
	key = strings.TrimSpace(key)
	if pluginID == "" {
		return "", "", fmt.Errorf("sqlstore: plugin id is required")
	}
	if key == "" {
		return "", "", fmt.Errorf("sqlstore: storage key is required")
	}
	return pluginID, key, nil
}

var _ core.PluginKVStore = (*PluginKVStore)(nil)
