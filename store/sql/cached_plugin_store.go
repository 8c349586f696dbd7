package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-platform/core"
)

const (
	pluginCacheKeyPrefix     = "go-platform::plugin_instance::v1"
	pluginNameCacheKeyPrefix = "go-platform::plugin_instance_name::v1"
)

// CachedPluginStore fronts a PluginStore with a read-through cache. Writes
// invalidate both the id and name keys so lookups never serve a stale status
// after a lifecycle transition.
type CachedPluginStore struct {
	base  core.PluginStore
	cache repositorycache.CacheService
}

func NewCachedPluginStore(base core.PluginStore, cacheService repositorycache.CacheService) (*CachedPluginStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base plugin store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: plugin cache service is required")
	}
	return &CachedPluginStore{base: base, cache: cacheService}, nil
}

func PluginCacheKey(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("sqlstore: plugin id is required")
	}
	return pluginCacheKeyPrefix + "::" + url.PathEscape(id), nil
}

func PluginNameCacheKey(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("sqlstore: plugin name is required")
	}
	return pluginNameCacheKeyPrefix + "::" + url.PathEscape(name), nil
}

func (s *CachedPluginStore) GetPlugin(ctx context.Context, id string) (core.PluginInstance, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.PluginInstance{}, fmt.Errorf("sqlstore: cached plugin store is not configured")
	}
	cacheKey, err := PluginCacheKey(id)
	if err != nil {
		return core.PluginInstance{}, err
	}
	instance, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.PluginInstance, error) {
		fetched, fetchErr := s.base.GetPlugin(ctx, id)
		if fetchErr != nil {
			return core.PluginInstance{}, fetchErr
		}
		return fetched.Clone(), nil
	})
	if err != nil {
		return core.PluginInstance{}, err
	}
	return instance.Clone(), nil
}

func (s *CachedPluginStore) GetPluginByName(ctx context.Context, name string) (core.PluginInstance, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.PluginInstance{}, fmt.Errorf("sqlstore: cached plugin store is not configured")
	}
	cacheKey, err := PluginNameCacheKey(name)
	if err != nil {
		return core.PluginInstance{}, err
	}
	instance, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.PluginInstance, error) {
		fetched, fetchErr := s.base.GetPluginByName(ctx, name)
		if fetchErr != nil {
			return core.PluginInstance{}, fetchErr
		}
		return fetched.Clone(), nil
	})
	if err != nil {
		return core.PluginInstance{}, err
	}
	return instance.Clone(), nil
}

// ListPlugins always hits the base store. List results are status snapshots;
// caching them would trade correctness for very little read volume.
func (s *CachedPluginStore) ListPlugins(ctx context.Context) ([]core.PluginInstance, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("sqlstore: cached plugin store is not configured")
	}
	return s.base.ListPlugins(ctx)
}

func (s *CachedPluginStore) SavePlugin(ctx context.Context, instance core.PluginInstance) (core.PluginInstance, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.PluginInstance{}, fmt.Errorf("sqlstore: cached plugin store is not configured")
	}
	saved, err := s.base.SavePlugin(ctx, instance)
	if err != nil {
		return core.PluginInstance{}, err
	}
	if err := s.invalidate(ctx, saved.ID, saved.Manifest.Name); err != nil {
		return core.PluginInstance{}, err
	}
	return saved, nil
}

func (s *CachedPluginStore) DeletePlugin(ctx context.Context, id string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached plugin store is not configured")
	}
	name := ""
	if instance, err := s.base.GetPlugin(ctx, id); err == nil {
		name = instance.Manifest.Name
	}
	if err := s.base.DeletePlugin(ctx, id); err != nil {
		return err
	}
	return s.invalidate(ctx, id, name)
}

func (s *CachedPluginStore) invalidate(ctx context.Context, id, name string) error {
	if key, err := PluginCacheKey(id); err == nil {
		if deleteErr := s.cache.Delete(ctx, key); deleteErr != nil {
			return deleteErr
		}
	}
	if key, err := PluginNameCacheKey(name); err == nil {
		if deleteErr := s.cache.Delete(ctx, key); deleteErr != nil {
			return deleteErr
		}
	}
	return nil
}

var _ core.PluginStore = (*CachedPluginStore)(nil)
