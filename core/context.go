package core

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

// PluginPaths anchors where plugin packages and their writable data live.
type PluginPaths struct {
	PluginsDir string
	DataDir    string
}

// contextAssembly builds the ephemeral ExecutionContext handed to each hook
// invocation. Every build call returns a fresh value: the config map is
// re-merged, the manifest is cloned, and nothing is retained between calls.
type contextAssembly struct {
	paths      PluginPaths
	provider   LoggerProvider
	fallback   Logger
	api        APIClient
	services   ServiceLocator
	kv         PluginKVStore
	hostConfig map[string]map[string]any
	db         any
	app        any
}

func (a contextAssembly) build(instance PluginInstance) (*ExecutionContext, error) {
	name := instance.Manifest.Name
	config, err := resolvePluginConfig(instance.Manifest.Settings, a.hostConfig[name], instance.Config)
	if err != nil {
		return nil, err
	}
	return &ExecutionContext{
		PluginID:   instance.ID,
		PluginName: name,
		Manifest:   instance.Manifest.Clone(),
		PluginPath: filepath.Join(a.paths.PluginsDir, name),
		DataPath:   filepath.Join(a.paths.DataDir, name),
		Config:     config,
		Logger:     a.pluginLogger(name),
		API:        a.api,
		Storage:    scopedStorage{kv: a.kv, pluginID: instance.ID},
		Services:   a.services,
		DB:         a.db,
		App:        a.app,
	}, nil
}

func (a contextAssembly) pluginLogger(name string) Logger {
	if a.provider != nil {
		if logger := a.provider.GetLogger("plugin." + name); logger != nil {
			return logger
		}
	}
	if a.fallback != nil {
		return a.fallback
	}
	return glog.Nop()
}

// resolvePluginConfig merges the three plugin config layers: manifest
// settings as defaults, host configuration in the middle, and per-instance
// runtime overrides on top.
func resolvePluginConfig(defaults, host, runtime map[string]any) (map[string]any, error) {
	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			layerMap(defaults),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			layerMap(host),
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			layerMap(runtime),
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("core: plugin config stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return nil, fmt.Errorf("core: plugin config merge failed: %w", err)
	}
	if merged.Value == nil {
		return map[string]any{}, nil
	}
	return merged.Value, nil
}

func layerMap(in map[string]any) map[string]any {
	if in == nil {
		return map[string]any{}
	}
	return copyAnyMap(in)
}

// scopedStorage narrows the shared PluginKVStore to one plugin id so hooks
// cannot read or clobber another plugin's namespace.
type scopedStorage struct {
	kv       PluginKVStore
	pluginID string
}

func (s scopedStorage) Get(ctx context.Context, key string) (any, error) {
	return s.kv.GetValue(ctx, s.pluginID, key)
}

func (s scopedStorage) Set(ctx context.Context, key string, value any) error {
	return s.kv.SetValue(ctx, s.pluginID, key, value)
}

func (s scopedStorage) Delete(ctx context.Context, key string) error {
	return s.kv.DeleteValue(ctx, s.pluginID, key)
}

func (s scopedStorage) Has(ctx context.Context, key string) (bool, error) {
	return s.kv.HasValue(ctx, s.pluginID, key)
}

func (s scopedStorage) Keys(ctx context.Context) ([]string, error) {
	return s.kv.ListKeys(ctx, s.pluginID)
}

func (s scopedStorage) Clear(ctx context.Context) error {
	return s.kv.ClearValues(ctx, s.pluginID)
}

var _ PluginStorage = scopedStorage{}

// ephemeralKV is the in-process PluginKVStore used when no persistent
// backend is wired. Contents vanish with the process, which satisfies the
// scratch-store contract but nothing more.
type ephemeralKV struct {
	mu      sync.RWMutex
	buckets map[string]map[string]any
}

func newEphemeralKV() *ephemeralKV {
	return &ephemeralKV{buckets: map[string]map[string]any{}}
}

func (s *ephemeralKV) GetValue(_ context.Context, pluginID, key string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.buckets[pluginID][key]
	if !ok {
		return nil, nil
	}
	return value, nil
}

func (s *ephemeralKV) SetValue(_ context.Context, pluginID, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.buckets[pluginID]
	if !ok {
		bucket = map[string]any{}
		s.buckets[pluginID] = bucket
	}
	bucket[key] = value
	return nil
}

func (s *ephemeralKV) DeleteValue(_ context.Context, pluginID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets[pluginID], key)
	return nil
}

func (s *ephemeralKV) HasValue(_ context.Context, pluginID, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.buckets[pluginID][key]
	return ok, nil
}

func (s *ephemeralKV) ListKeys(_ context.Context, pluginID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.buckets[pluginID]))
	for key := range s.buckets[pluginID] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *ephemeralKV) ClearValues(_ context.Context, pluginID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, pluginID)
	return nil
}

var _ PluginKVStore = (*ephemeralKV)(nil)
