package platform

import (
	"context"
	"fmt"

	platformcommand "github.com/goliatone/go-platform/command"
	"github.com/goliatone/go-platform/core"
	platformquery "github.com/goliatone/go-platform/query"
)

// LifecycleService is the combined mutate/read surface the facade bundles
// handlers over. The lifecycle manager satisfies it directly.
type LifecycleService interface {
	platformcommand.LifecycleService
	platformquery.PluginReader
}

type Commands struct {
	Install    *platformcommand.InstallPluginCommand
	Activate   *platformcommand.ActivatePluginCommand
	Deactivate *platformcommand.DeactivatePluginCommand
	Uninstall  *platformcommand.UninstallPluginCommand
	Update     *platformcommand.UpdatePluginCommand
	Configure  *platformcommand.ConfigurePluginCommand
}

type Queries struct {
	GetPlugin       *platformquery.GetPluginQuery
	GetPluginByName *platformquery.GetPluginByNameQuery
	ListPlugins     *platformquery.ListPluginsQuery
	ServiceHealth   *platformquery.ServiceHealthQuery
	ListActivity    *platformquery.ListActivityQuery
}

type Facade struct {
	service  LifecycleService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	healthReader   platformquery.HealthReader
	activityReader platformquery.ActivityReader
}

// WithHealthReader wires the container health sweep into the facade's
// ServiceHealth query. The lifecycle manager does not expose container
// health, so the host passes the container (or any sweep source) here.
func WithHealthReader(reader platformquery.HealthReader) FacadeOption {
	return func(options *facadeOptions) {
		options.healthReader = reader
	}
}

func WithActivityReader(reader platformquery.ActivityReader) FacadeOption {
	return func(options *facadeOptions) {
		options.activityReader = reader
	}
}

func NewFacade(service LifecycleService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("platform: lifecycle service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	activityReader := cfg.activityReader
	if activityReader == nil {
		activityReader, _ = service.(platformquery.ActivityReader)
	}
	healthReader := cfg.healthReader
	if healthReader == nil {
		healthReader, _ = service.(platformquery.HealthReader)
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		Install:    platformcommand.NewInstallPluginCommand(service),
		Activate:   platformcommand.NewActivatePluginCommand(service),
		Deactivate: platformcommand.NewDeactivatePluginCommand(service),
		Uninstall:  platformcommand.NewUninstallPluginCommand(service),
		Update:     platformcommand.NewUpdatePluginCommand(service),
		Configure:  platformcommand.NewConfigurePluginCommand(service),
	}
	facade.queries = Queries{
		GetPlugin:       platformquery.NewGetPluginQuery(service),
		GetPluginByName: platformquery.NewGetPluginByNameQuery(service),
		ListPlugins:     platformquery.NewListPluginsQuery(service),
		ServiceHealth:   platformquery.NewServiceHealthQuery(healthReader),
		ListActivity:    platformquery.NewListActivityQuery(activityReader),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() LifecycleService {
	if f == nil {
		return nil
	}
	return f.service
}

// Convenience surface for hosts that do not route through a command bus.
// Each call validates the equivalent message before touching the service so
// both entry points reject the same inputs.

func (f *Facade) Install(ctx context.Context, manifest []byte) (core.PluginInstance, error) {
	if f == nil || f.service == nil {
		return core.PluginInstance{}, fmt.Errorf("platform: facade is not configured")
	}
	msg := platformcommand.InstallPluginMessage{Manifest: manifest}
	if err := msg.Validate(); err != nil {
		return core.PluginInstance{}, err
	}
	return f.service.Install(ctx, manifest)
}

func (f *Facade) Activate(ctx context.Context, id string) (core.PluginInstance, error) {
	if f == nil || f.service == nil {
		return core.PluginInstance{}, fmt.Errorf("platform: facade is not configured")
	}
	msg := platformcommand.ActivatePluginMessage{PluginID: id}
	if err := msg.Validate(); err != nil {
		return core.PluginInstance{}, err
	}
	return f.service.Activate(ctx, id)
}

func (f *Facade) Deactivate(ctx context.Context, id string) (core.PluginInstance, error) {
	if f == nil || f.service == nil {
		return core.PluginInstance{}, fmt.Errorf("platform: facade is not configured")
	}
	msg := platformcommand.DeactivatePluginMessage{PluginID: id}
	if err := msg.Validate(); err != nil {
		return core.PluginInstance{}, err
	}
	return f.service.Deactivate(ctx, id)
}

func (f *Facade) Uninstall(ctx context.Context, id string) error {
	if f == nil || f.service == nil {
		return fmt.Errorf("platform: facade is not configured")
	}
	msg := platformcommand.UninstallPluginMessage{PluginID: id}
	if err := msg.Validate(); err != nil {
		return err
	}
	return f.service.Uninstall(ctx, id)
}

func (f *Facade) Update(ctx context.Context, id string, manifest []byte) (core.PluginInstance, error) {
	if f == nil || f.service == nil {
		return core.PluginInstance{}, fmt.Errorf("platform: facade is not configured")
	}
	msg := platformcommand.UpdatePluginMessage{PluginID: id, Manifest: manifest}
	if err := msg.Validate(); err != nil {
		return core.PluginInstance{}, err
	}
	return f.service.Update(ctx, id, manifest)
}

func (f *Facade) Configure(ctx context.Context, id string, config map[string]any) (core.PluginInstance, error) {
	if f == nil || f.service == nil {
		return core.PluginInstance{}, fmt.Errorf("platform: facade is not configured")
	}
	msg := platformcommand.ConfigurePluginMessage{PluginID: id, Config: config}
	if err := msg.Validate(); err != nil {
		return core.PluginInstance{}, err
	}
	return f.service.Configure(ctx, id, config)
}

func (f *Facade) Get(ctx context.Context, id string) (core.PluginInstance, error) {
	if f == nil || f.service == nil {
		return core.PluginInstance{}, fmt.Errorf("platform: facade is not configured")
	}
	return f.queries.GetPlugin.Query(ctx, platformquery.GetPluginMessage{PluginID: id})
}

func (f *Facade) List(ctx context.Context, status core.PluginStatus) ([]core.PluginInstance, error) {
	if f == nil || f.service == nil {
		return nil, fmt.Errorf("platform: facade is not configured")
	}
	return f.queries.ListPlugins.Query(ctx, platformquery.ListPluginsMessage{Status: status})
}
