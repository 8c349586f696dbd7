package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-platform/core"
)

// LifecycleService is the mutating surface commands delegate to. The plugin
// lifecycle manager satisfies it directly.
type LifecycleService interface {
	Install(ctx context.Context, manifest []byte) (core.PluginInstance, error)
	Activate(ctx context.Context, id string) (core.PluginInstance, error)
	Deactivate(ctx context.Context, id string) (core.PluginInstance, error)
	Uninstall(ctx context.Context, id string) error
	Update(ctx context.Context, id string, manifest []byte) (core.PluginInstance, error)
	Configure(ctx context.Context, id string, config map[string]any) (core.PluginInstance, error)
}

type InstallPluginCommand struct {
	service LifecycleService
}

func NewInstallPluginCommand(service LifecycleService) *InstallPluginCommand {
	return &InstallPluginCommand{service: service}
}

func (c *InstallPluginCommand) Execute(ctx context.Context, msg InstallPluginMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: lifecycle service is required")
	}
	out, err := c.service.Install(ctx, msg.Manifest)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ActivatePluginCommand struct {
	service LifecycleService
}

func NewActivatePluginCommand(service LifecycleService) *ActivatePluginCommand {
	return &ActivatePluginCommand{service: service}
}

func (c *ActivatePluginCommand) Execute(ctx context.Context, msg ActivatePluginMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: lifecycle service is required")
	}
	out, err := c.service.Activate(ctx, msg.PluginID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeactivatePluginCommand struct {
	service LifecycleService
}

func NewDeactivatePluginCommand(service LifecycleService) *DeactivatePluginCommand {
	return &DeactivatePluginCommand{service: service}
}

func (c *DeactivatePluginCommand) Execute(ctx context.Context, msg DeactivatePluginMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: lifecycle service is required")
	}
	out, err := c.service.Deactivate(ctx, msg.PluginID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UninstallPluginCommand struct {
	service LifecycleService
}

func NewUninstallPluginCommand(service LifecycleService) *UninstallPluginCommand {
	return &UninstallPluginCommand{service: service}
}

func (c *UninstallPluginCommand) Execute(ctx context.Context, msg UninstallPluginMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: lifecycle service is required")
	}
	return c.service.Uninstall(ctx, msg.PluginID)
}

type UpdatePluginCommand struct {
	service LifecycleService
}

func NewUpdatePluginCommand(service LifecycleService) *UpdatePluginCommand {
	return &UpdatePluginCommand{service: service}
}

func (c *UpdatePluginCommand) Execute(ctx context.Context, msg UpdatePluginMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: lifecycle service is required")
	}
	out, err := c.service.Update(ctx, msg.PluginID, msg.Manifest)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ConfigurePluginCommand struct {
	service LifecycleService
}

func NewConfigurePluginCommand(service LifecycleService) *ConfigurePluginCommand {
	return &ConfigurePluginCommand{service: service}
}

func (c *ConfigurePluginCommand) Execute(ctx context.Context, msg ConfigurePluginMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: lifecycle service is required")
	}
	out, err := c.service.Configure(ctx, msg.PluginID, msg.Config)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
