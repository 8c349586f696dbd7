package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-platform/core"
	"github.com/uptrace/bun"
)

type PluginStore struct {
	db   *bun.DB
	repo repository.Repository[*pluginInstanceRecord]
}

func NewPluginStore(db *bun.DB) (*PluginStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*pluginInstanceRecord](db, pluginInstanceHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid plugin repository wiring: %w", err)
		}
	}
	return &PluginStore{db: db, repo: repo}, nil
}

func (s *PluginStore) GetPlugin(ctx context.Context, id string) (core.PluginInstance, error) {
	if s == nil || s.repo == nil {
		return core.PluginInstance{}, fmt.Errorf("sqlstore: plugin store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.PluginInstance{}, fmt.Errorf("sqlstore: plugin id is required")
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return core.PluginInstance{}, pluginStoreNotFound(err, id)
	}
	return record.toDomain()
}

func (s *PluginStore) GetPluginByName(ctx context.Context, name string) (core.PluginInstance, error) {
	if s == nil || s.db == nil {
		return core.PluginInstance{}, fmt.Errorf("sqlstore: plugin store is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return core.PluginInstance{}, fmt.Errorf("sqlstore: plugin name is required")
	}
	record := &pluginInstanceRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.name = ?", name).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return core.PluginInstance{}, pluginStoreNotFound(err, name)
	}
	return record.toDomain()
}

func (s *PluginStore) ListPlugins(ctx context.Context) ([]core.PluginInstance, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: plugin store is not configured")
	}
	records, _, err := s.repo.List(ctx, repository.OrderBy("installed_at ASC"))
	if err != nil {
		return nil, err
	}
	out := make([]core.PluginInstance, 0, len(records))
	for _, record := range records {
		instance, convertErr := record.toDomain()
		if convertErr != nil {
			return nil, convertErr
		}
		out = append(out, instance)
	}
	return out, nil
}

func (s *PluginStore) SavePlugin(ctx context.Context, instance core.PluginInstance) (core.PluginInstance, error) {
	if s == nil || s.db == nil {
		return core.PluginInstance{}, fmt.Errorf("sqlstore: plugin store is not configured")
	}
	instance.ID = strings.TrimSpace(instance.ID)
	if instance.ID == "" {
		return core.PluginInstance{}, fmt.Errorf("sqlstore: plugin id is required")
	}
	if strings.TrimSpace(instance.Manifest.Name) == "" {
		return core.PluginInstance{}, fmt.Errorf("sqlstore: plugin manifest name is required")
	}

	now := time.Now().UTC()
	record, err := newPluginInstanceRecord(instance, now)
	if err != nil {
		return core.PluginInstance{}, err
	}

	var out core.PluginInstance
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := &pluginInstanceRecord{}
		getErr := tx.NewSelect().
			Model(existing).
			Where("?TableAlias.id = ?", record.ID).
			Limit(1).
			Scan(ctx)
		switch {
		case getErr == nil:
			record.CreatedAt = existing.CreatedAt
			record.UpdatedAt = now
			if _, updateErr := tx.NewUpdate().
				Model(record).
				Where("id = ?", record.ID).
				Exec(ctx); updateErr != nil {
				return updateErr
			}
		case errors.Is(getErr, sql.ErrNoRows):
			if _, insertErr := tx.NewInsert().Model(record).Exec(ctx); insertErr != nil {
				return insertErr
			}
		default:
			return getErr
		}
		converted, convertErr := record.toDomain()
		if convertErr != nil {
			return convertErr
		}
		out = converted
		return nil
	})
	if err != nil {
		return core.PluginInstance{}, err
	}
	return out, nil
}

func (s *PluginStore) DeletePlugin(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: plugin store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: plugin id is required")
	}
	result, err := s.db.NewDelete().
		Model((*pluginInstanceRecord)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("sqlstore: plugin %q: %w", id, core.ErrPluginNotFound)
	}
	return nil
}

func pluginStoreNotFound(err error, ref string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlstore: plugin %q: %w", ref, core.ErrPluginNotFound)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "no rows") || strings.Contains(msg, "not found") {
		return fmt.Errorf("sqlstore: plugin %q: %w", ref, core.ErrPluginNotFound)
	}
	return err
}

var _ core.PluginStore = (*PluginStore)(nil)
