package command

import (
	"strings"
)

const (
	TypeInstallPlugin    = "platform.command.plugin.install"
	TypeActivatePlugin   = "platform.command.plugin.activate"
	TypeDeactivatePlugin = "platform.command.plugin.deactivate"
	TypeUninstallPlugin  = "platform.command.plugin.uninstall"
	TypeUpdatePlugin     = "platform.command.plugin.update"
	TypeConfigurePlugin  = "platform.command.plugin.configure"
)

// InstallPluginMessage carries a raw, untrusted manifest document. The
// lifecycle service validates it before any plugin code runs.
type InstallPluginMessage struct {
	Manifest []byte
}

func (InstallPluginMessage) Type() string { return TypeInstallPlugin }

func (m InstallPluginMessage) Validate() error {
	if len(m.Manifest) == 0 {
		return commandValidationError("manifest", "manifest document is required")
	}
	return nil
}

type ActivatePluginMessage struct {
	PluginID string
}

func (ActivatePluginMessage) Type() string { return TypeActivatePlugin }

func (m ActivatePluginMessage) Validate() error {
	return validatePluginID(m.PluginID)
}

type DeactivatePluginMessage struct {
	PluginID string
}

func (DeactivatePluginMessage) Type() string { return TypeDeactivatePlugin }

func (m DeactivatePluginMessage) Validate() error {
	return validatePluginID(m.PluginID)
}

type UninstallPluginMessage struct {
	PluginID string
}

func (UninstallPluginMessage) Type() string { return TypeUninstallPlugin }

func (m UninstallPluginMessage) Validate() error {
	return validatePluginID(m.PluginID)
}

// UpdatePluginMessage re-enters the install flow for an existing plugin with
// a replacement manifest.
type UpdatePluginMessage struct {
	PluginID string
	Manifest []byte
}

func (UpdatePluginMessage) Type() string { return TypeUpdatePlugin }

func (m UpdatePluginMessage) Validate() error {
	if err := validatePluginID(m.PluginID); err != nil {
		return err
	}
	if len(m.Manifest) == 0 {
		return commandValidationError("manifest", "manifest document is required")
	}
	return nil
}

// ConfigurePluginMessage replaces the runtime config overlay for a plugin.
// A nil config clears the overlay.
type ConfigurePluginMessage struct {
	PluginID string
	Config   map[string]any
}

func (ConfigurePluginMessage) Type() string { return TypeConfigurePlugin }

func (m ConfigurePluginMessage) Validate() error {
	return validatePluginID(m.PluginID)
}

func validatePluginID(id string) error {
	if strings.TrimSpace(id) == "" {
		return commandValidationError("plugin_id", "plugin id is required")
	}
	return nil
}
