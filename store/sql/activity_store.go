package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-platform/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type ActivityStore struct {
	db   *bun.DB
	repo repository.Repository[*pluginActivityRecord]
}

func NewActivityStore(db *bun.DB) (*ActivityStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*pluginActivityRecord](db, pluginActivityHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid activity repository wiring: %w", err)
		}
	}
	return &ActivityStore{db: db, repo: repo}, nil
}

func (s *ActivityStore) Append(ctx context.Context, entry core.ActivityRecord) (core.ActivityRecord, error) {
	if s == nil || s.repo == nil {
		return core.ActivityRecord{}, fmt.Errorf("sqlstore: activity store is not configured")
	}
	operation := strings.TrimSpace(entry.Operation)
	if operation == "" {
		return core.ActivityRecord{}, fmt.Errorf("sqlstore: activity operation is required")
	}
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		id = uuid.NewString()
	}
	status := strings.TrimSpace(entry.Status)
	if status == "" {
		status = "ok"
	}
	createdAt := entry.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	record := &pluginActivityRecord{
		ID:        id,
		PluginID:  strings.TrimSpace(entry.PluginID),
		Operation: operation,
		Status:    status,
		Detail:    entry.Detail,
		CreatedAt: createdAt,
	}
	if _, err := s.repo.Create(ctx, record); err != nil {
		return core.ActivityRecord{}, err
	}
	return record.toDomain(), nil
}

func (s *ActivityStore) List(ctx context.Context, filter core.ActivityFilter) (core.ActivityPage, error) {
	if s == nil || s.repo == nil {
		return core.ActivityPage{}, fmt.Errorf("sqlstore: activity store is not configured")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	selectors := []repository.SelectCriteria{
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(limit, offset),
	}
	if pluginID := strings.TrimSpace(filter.PluginID); pluginID != "" {
		selectors = append(selectors, repository.SelectBy("plugin_id", "=", pluginID))
	}
	if operation := strings.TrimSpace(filter.Operation); operation != "" {
		selectors = append(selectors, repository.SelectBy("operation", "=", operation))
	}

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return core.ActivityPage{}, err
	}
	items := make([]core.ActivityRecord, 0, len(records))
	for _, record := range records {
		items = append(items, record.toDomain())
	}
	return core.ActivityPage{Items: items, Total: total}, nil
}

// Prune trims the audit trail to a retention window and row cap. Hosts call
// it from a scheduled job; both limits are optional.
func (s *ActivityStore) Prune(ctx context.Context, ttl time.Duration, rowCap int) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: activity store is not configured")
	}
	deleted := 0
	now := time.Now().UTC()

	if ttl > 0 {
		cutoff := now.Add(-ttl)
		res, err := s.db.NewDelete().
			Model((*pluginActivityRecord)(nil)).
			Where("created_at < ?", cutoff).
			Exec(ctx)
		if err != nil {
			return deleted, err
		}
		affected, _ := res.RowsAffected()
		deleted += int(affected)
	}

	if rowCap > 0 {
		total, err := s.db.NewSelect().Model((*pluginActivityRecord)(nil)).Count(ctx)
		if err != nil {
			return deleted, err
		}
		excess := total - rowCap
		if excess > 0 {
			res, err := s.db.NewRaw(
				"DELETE FROM plugin_activity WHERE id IN (SELECT id FROM plugin_activity ORDER BY created_at ASC LIMIT ?)",
				excess,
			).Exec(ctx)
			if err != nil {
				return deleted, err
			}
			affected, _ := res.RowsAffected()
			deleted += int(affected)
		}
	}

	return deleted, nil
}

var _ core.ActivityStore = (*ActivityStore)(nil)
