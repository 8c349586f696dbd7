package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
)

// PathsConfig locates plugin packages and their scratch data on disk.
type PathsConfig struct {
	PluginsDir string `koanf:"plugins_dir" mapstructure:"plugins_dir"`
	DataDir    string `koanf:"data_dir" mapstructure:"data_dir"`
}

type HealthConfig struct {
	IntervalSeconds int `koanf:"interval_seconds" mapstructure:"interval_seconds"`
}

func (c HealthConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// ActivityConfig bounds the audit trail; the prune job enforces both limits.
type ActivityConfig struct {
	RetentionDays int `koanf:"retention_days" mapstructure:"retention_days"`
	MaxRows       int `koanf:"max_rows" mapstructure:"max_rows"`
}

func (c ActivityConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

type Config struct {
	ServiceName string                    `koanf:"service_name" mapstructure:"service_name"`
	Paths       PathsConfig               `koanf:"paths" mapstructure:"paths"`
	Health      HealthConfig              `koanf:"health" mapstructure:"health"`
	Activity    ActivityConfig            `koanf:"activity" mapstructure:"activity"`
	Plugins     map[string]map[string]any `koanf:"plugins" mapstructure:"plugins"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "platform",
		Paths: PathsConfig{
			PluginsDir: "plugins",
			DataDir:    "data/plugins",
		},
		Health: HealthConfig{
			IntervalSeconds: 30,
		},
		Activity: ActivityConfig{
			RetentionDays: 30,
			MaxRows:       100_000,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.Paths.PluginsDir) == "" {
		return fmt.Errorf("core: paths.plugins_dir is required")
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return fmt.Errorf("core: paths.data_dir is required")
	}
	if c.Health.IntervalSeconds < 0 {
		return fmt.Errorf("core: health.interval_seconds must be >= 0")
	}
	if c.Activity.RetentionDays < 0 {
		return fmt.Errorf("core: activity.retention_days must be >= 0")
	}
	if c.Activity.MaxRows < 0 {
		return fmt.Errorf("core: activity.max_rows must be >= 0")
	}
	return nil
}

// PluginPaths projects the configured directories onto the manager option.
func (c Config) PluginPaths() PluginPaths {
	return PluginPaths{
		PluginsDir: c.Paths.PluginsDir,
		DataDir:    c.Paths.DataDir,
	}
}

// ConfigProvider loads host configuration over the compiled defaults.
type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

// RawConfigLoader supplies the untyped document a provider decodes. Hosts
// back it with files, env, or remote config services.
type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

// StaticRawConfigLoader serves a fixed document, mostly for tests and
// embedded hosts.
type StaticRawConfigLoader struct {
	Values map[string]any
}

func (l StaticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// CfgxConfigProvider decodes raw documents through go-config with defaults
// and validation applied in one pass.
type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = StaticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GoOptionsResolver merges the three host config layers, defaults under
// loaded under runtime overrides, and re-validates the result.
type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults, loaded, runtime Config) (Config, error) {
	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			configToLayerMap(defaults, true),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			configToLayerMap(loaded, false),
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			configToLayerMap(runtime, false),
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: config stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: config merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}

	paths := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Paths.PluginsDir) != "" {
		paths["plugins_dir"] = cfg.Paths.PluginsDir
	}
	if includeZero || strings.TrimSpace(cfg.Paths.DataDir) != "" {
		paths["data_dir"] = cfg.Paths.DataDir
	}
	if len(paths) > 0 {
		layer["paths"] = paths
	}

	if includeZero || cfg.Health.IntervalSeconds != 0 {
		layer["health"] = map[string]any{
			"interval_seconds": cfg.Health.IntervalSeconds,
		}
	}

	activity := map[string]any{}
	if includeZero || cfg.Activity.RetentionDays != 0 {
		activity["retention_days"] = cfg.Activity.RetentionDays
	}
	if includeZero || cfg.Activity.MaxRows != 0 {
		activity["max_rows"] = cfg.Activity.MaxRows
	}
	if len(activity) > 0 {
		layer["activity"] = activity
	}

	if includeZero || len(cfg.Plugins) > 0 {
		plugins := make(map[string]any, len(cfg.Plugins))
		for name, values := range cfg.Plugins {
			plugins[name] = copyAnyMap(values)
		}
		layer["plugins"] = plugins
	}

	return layer
}
